package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/search"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/wiki/handler"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/wiki/router"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("wiki service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("wiki service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.NewString()
	slog.Info("starting wiki service",
		"port", cfg.Server.Port,
		"backend", cfg.Storage.Backend,
		"instance", instanceID,
	)

	store, closeStore, err := entry.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening entry store: %w", err)
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(storePing(store)))

	var cache *search.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, resolution caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("resolve-cache", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, to resilience.State) {
					slog.Warn("circuit breaker state changed", "name", name, "state", to.String())
					if m != nil {
						m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
					}
				},
			})
			cache = search.NewCache(redisClient, cfg.Redis.CacheTTL, breaker)
			checker.Register("redis", health.Optional(health.PingCheck(redisClient.Ping)))
			slog.Info("resolution cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	aggregator := analytics.NewAggregator(nil)
	var sink analytics.Sink = analytics.NewLocalSink(aggregator)
	notifiers := []editor.Notifier{handler.InvalidateCache(cache)}

	if kafka.Enabled(cfg.Kafka) {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer analyticsProducer.Close()
		sink = analyticsProducer
		aggregator.SetConsumer(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator)))

		changeProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.EntryChanges)
		defer changeProducer.Close()
		notifiers = append(notifiers, editor.NewChangePublisher(changeProducer, instanceID))
		changeConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.EntryChanges,
			editor.HandleChanges(instanceID, handler.InvalidateCache(cache)),
			kafka.WithGroupID(cfg.Kafka.ConsumerGroup+"-"+instanceID),
		)
		g.Go(func() error { return changeConsumer.Start(ctx) })
		slog.Info("kafka enabled", "brokers", cfg.Kafka.Brokers)
	}

	collector := analytics.NewCollector(sink, 10000)
	collector.Start(ctx)
	defer collector.Close()
	notifiers = append(notifiers, collector)
	g.Go(func() error { return aggregator.Start(ctx) })

	if fs, ok := store.(*entry.FileStore); ok && cfg.Storage.Watch && cache != nil {
		watcher, err := entry.NewWatcher(fs.Dir())
		if err != nil {
			slog.Warn("entry directory watch disabled", "dir", fs.Dir(), "error", err)
		} else {
			defer watcher.Close()
			g.Go(func() error {
				for change := range watcher.Watch(ctx) {
					slog.Debug("entry file changed", "title", change.Title, "op", change.Op)
					if err := cache.Invalidate(ctx); err != nil {
						slog.Warn("cache invalidation after file change failed", "error", err)
					}
				}
				return nil
			})
		}
	}

	renderer := markup.NewGoldmarkRenderer(cfg.Markdown)
	engine := search.NewEngine(store)
	workflow := editor.NewWorkflow(store, notifiers...)
	h := handler.New(engine, workflow, renderer,
		handler.WithCache(cache),
		handler.WithCollector(collector),
		handler.WithAggregator(aggregator),
		handler.WithMetrics(m),
	)

	var editLimiter *middleware.Limiter
	if cfg.Server.EditsPerMinute > 0 {
		editLimiter = middleware.NewLimiter(cfg.Server.EditsPerMinute, time.Minute)
		g.Go(func() error {
			editLimiter.Run(ctx, 5*time.Minute)
			return nil
		})
	}

	routes := router.New(h, router.Options{
		Checker:     checker,
		Metrics:     m,
		CORS:        middleware.DefaultCORSConfig(),
		Timeout:     cfg.Server.WriteTimeout,
		EditLimiter: editLimiter,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("wiki service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// storePing probes the store with Ping when it has one and a listing
// otherwise.
func storePing(store entry.Store) func(ctx context.Context) error {
	if p, ok := store.(entry.Pinger); ok {
		return p.Ping
	}
	return func(ctx context.Context) error {
		_, err := store.List(ctx)
		return err
	}
}
