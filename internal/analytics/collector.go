// Package analytics tracks how readers use the encyclopedia: which queries
// resolve to what, and how often entries are created or edited. Events are
// buffered by a Collector, shipped through a Sink (Kafka, or straight into
// an in-process Aggregator) and summarised by the Aggregator.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/kafka"
)

// Sink receives published events; *kafka.Producer is one.
type Sink interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// LocalSink feeds events directly to an Aggregator, for deployments without
// Kafka. Events take the same JSON path they would through a broker.
type LocalSink struct {
	handle kafka.MessageHandler
}

func NewLocalSink(agg *Aggregator) *LocalSink {
	return &LocalSink{handle: HandleEvent(agg)}
}

func (s *LocalSink) Publish(ctx context.Context, event kafka.Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("marshaling event value: %w", err)
	}
	return s.handle(ctx, []byte(event.Key), value)
}

type Collector struct {
	sink    Sink
	eventCh chan any
	logger  *slog.Logger
	done    chan struct{}
}

func NewCollector(sink Sink, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		sink:    sink,
		eventCh: make(chan any, bufferSize),
		logger:  slog.Default().With("component", "analytics-collector"),
		done:    make(chan struct{}),
	}
}

// Start launches the publishing loop. Close must be called to stop it.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues event without blocking; a full buffer drops it.
func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// EntryChanged makes the collector an editor.Notifier.
func (c *Collector) EntryChanged(_ context.Context, ev editor.ChangeEvent) {
	eventType := EventEntryEdited
	if ev.Action == editor.ActionCreated {
		eventType = EventEntryCreated
	}
	c.Track(EntryEvent{Type: eventType, Title: ev.Title, Timestamp: ev.At})
}

// Close stops accepting events and waits for the buffer to be published.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event any) {
	if err := c.sink.Publish(ctx, kafka.Event{Key: "analytics", Value: event}); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
