package editor

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/kafka"
)

// Publisher is the write side of the change topic; *kafka.Producer is one.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// ChangePublisher forwards every save to the entry-changes topic so other
// replicas can drop their cached resolutions.
type ChangePublisher struct {
	pub    Publisher
	origin string
	logger *slog.Logger
}

// NewChangePublisher tags events with origin, the publishing replica's id.
func NewChangePublisher(pub Publisher, origin string) *ChangePublisher {
	return &ChangePublisher{
		pub:    pub,
		origin: origin,
		logger: slog.Default().With("component", "change-publisher"),
	}
}

// changeMessage is the wire form of a ChangeEvent.
type changeMessage struct {
	ChangeEvent
	Origin string `json:"origin"`
}

func (p *ChangePublisher) EntryChanged(ctx context.Context, ev ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	msg := changeMessage{ChangeEvent: ev, Origin: p.origin}
	if err := p.pub.Publish(ctx, kafka.Event{Key: ev.Title, Value: msg}); err != nil {
		p.logger.Error("failed to publish entry change", "title", ev.Title, "error", err)
	}
}

// HandleChanges decodes change messages and passes those from other
// replicas to n. Messages this replica published are skipped since its own
// notifiers already ran.
func HandleChanges(origin string, n Notifier) kafka.MessageHandler {
	logger := slog.Default().With("component", "change-listener")
	return func(ctx context.Context, key []byte, value []byte) error {
		msg, err := kafka.DecodeJSON[changeMessage](value)
		if err != nil {
			logger.Error("dropping undecodable change", "key", string(key), "error", err)
			return nil
		}
		if msg.Origin == origin {
			return nil
		}
		logger.Debug("remote entry change", "title", msg.Title, "action", msg.Action, "origin", msg.Origin)
		n.EntryChanged(ctx, msg.ChangeEvent)
		return nil
	}
}
