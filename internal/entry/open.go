package entry

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/postgres"
)

// Importer is implemented by stores that can save many entries atomically.
type Importer interface {
	Import(ctx context.Context, entries []Entry) error
}

// Pinger is implemented by stores backed by a reachable service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Import saves entries through the store's Importer when it has one, and one
// by one otherwise.
func Import(ctx context.Context, s Store, entries []Entry) error {
	if imp, ok := s.(Importer); ok {
		return imp.Import(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Save(ctx, e.Title, e.Content); err != nil {
			return err
		}
	}
	return nil
}

// Open builds the store selected by cfg.Storage. The returned close function
// releases any connection the backend holds.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), noop, nil
	case config.BackendFile:
		s, err := NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewSQLStore(ctx, client.DB, Postgres)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return s, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
