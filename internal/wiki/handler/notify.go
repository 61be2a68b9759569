package handler

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/search"
)

// InvalidateCache drops cached resolutions whenever an entry changes, so a
// new title shows up in partial matches at once. A nil cache is a no-op.
func InvalidateCache(cache *search.Cache) editor.Notifier {
	logger := slog.Default().With("component", "cache-invalidator")
	return editor.NotifierFunc(func(ctx context.Context, ev editor.ChangeEvent) {
		if cache == nil {
			return
		}
		if err := cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("cache invalidation after save failed", "title", ev.Title, "error", err)
		}
	})
}
