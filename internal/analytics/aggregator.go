package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/kafka"
)

type AggregatedStats struct {
	TotalResolves    int64            `json:"total_resolves"`
	Outcomes         map[string]int64 `json:"outcomes"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	EntriesCreated   int64            `json:"entries_created"`
	EntriesEdited    int64            `json:"entries_edited"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     int64            `json:"p50_latency_ms"`
	P95LatencyMs     int64            `json:"p95_latency_ms"`
	P99LatencyMs     int64            `json:"p99_latency_ms"`
	TopQueries       []QueryCount     `json:"top_queries"`
	NotFoundQueries  []QueryCount     `json:"not_found_queries"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// maxLatencies bounds the latency window used for percentiles.
const maxLatencies = 10000

type Aggregator struct {
	mu              sync.RWMutex
	totalResolves   atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	entriesCreated  atomic.Int64
	entriesEdited   atomic.Int64
	latencies       []int64
	outcomes        map[string]int64
	queryCounts     map[string]int64
	notFoundQueries map[string]int64
	startTime       time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. consumer may be nil when events
// arrive through a LocalSink.
func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latencies:       make([]int64, 0, 1024),
		outcomes:        make(map[string]int64),
		queryCounts:     make(map[string]int64),
		notFoundQueries: make(map[string]int64),
		startTime:       time.Now(),
		consumer:        consumer,
		logger:          slog.Default().With("component", "analytics-aggregator"),
	}
}

// SetConsumer attaches the Kafka consumer Start reads from. The consumer's
// handler is usually HandleEvent of this aggregator, hence the two steps.
func (a *Aggregator) SetConsumer(consumer *kafka.Consumer) {
	a.consumer = consumer
}

// Start consumes events until ctx is cancelled. Without a consumer it
// returns immediately.
func (a *Aggregator) Start(ctx context.Context) error {
	if a.consumer == nil {
		return nil
	}
	a.logger.Info("analytics aggregator starting")
	return a.consumer.Start(ctx)
}

// HandleEvent decodes an analytics message and records it in agg.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		env, err := kafka.DecodeJSON[envelope](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch env.Type {
		case EventResolve:
			event, err := kafka.DecodeJSON[ResolveEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode resolve event", "error", err)
				return nil
			}
			agg.recordResolveEvent(event)
		case EventEntryCreated, EventEntryEdited:
			event, err := kafka.DecodeJSON[EntryEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode entry event", "error", err)
				return nil
			}
			agg.recordEntryEvent(event)
		default:
			agg.logger.Warn("unknown analytics event type", "type", env.Type)
		}
		return nil
	}
}

func (a *Aggregator) recordResolveEvent(event ResolveEvent) {
	a.totalResolves.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.latencies) == maxLatencies {
		a.latencies = a.latencies[1:]
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	a.outcomes[event.Outcome]++
	if event.Query != "" {
		a.queryCounts[event.Query]++
	}
	if event.Outcome == "not_found" {
		a.notFoundQueries[event.Query]++
	}
}

func (a *Aggregator) recordEntryEvent(event EntryEvent) {
	switch event.Type {
	case EventEntryCreated:
		a.entriesCreated.Add(1)
	case EventEntryEdited:
		a.entriesEdited.Add(1)
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalResolves:  a.totalResolves.Load(),
		Outcomes:       make(map[string]int64, len(a.outcomes)),
		CacheHits:      a.cacheHits.Load(),
		CacheMisses:    a.cacheMisses.Load(),
		EntriesCreated: a.entriesCreated.Load(),
		EntriesEdited:  a.entriesEdited.Load(),
	}
	for outcome, n := range a.outcomes {
		stats.Outcomes[outcome] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.NotFoundQueries = topN(a.notFoundQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalResolves) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries; equal counts are ordered by
// query so the output is stable.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
