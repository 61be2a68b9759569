package entry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name        string
	placeholder func(n int) string
}

var (
	Postgres = Dialect{Name: "postgres", placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}
	SQLite   = Dialect{Name: "sqlite3", placeholder: func(int) string { return "?" }}
)

// SQLStore keeps entries in a single table keyed by the lowercased title.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	getQuery  string
	listQuery string
	saveQuery string
}

// NewSQLStore applies the schema and prepares the dialect's statements.
func NewSQLStore(ctx context.Context, db *sql.DB, d Dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, apperrors.StoreIO("applying entries schema", err)
	}
	p := d.placeholder
	return &SQLStore{
		db:        db,
		dialect:   d,
		getQuery:  fmt.Sprintf(`SELECT title, content FROM entries WHERE title_key = %s`, p(1)),
		listQuery: `SELECT title FROM entries`,
		saveQuery: fmt.Sprintf(`INSERT INTO entries (title_key, title, content, updated_at)
		VALUES (%s, %s, %s, %s)
		ON CONFLICT (title_key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
			p(1), p(2), p(3), p(4)),
	}, nil
}

// OpenSQLite opens (or creates) a SQLite database at path and returns a
// store over it. SQLite allows a single writer, so the pool is capped at one
// connection.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.StoreIO("opening sqlite database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.StoreIO("connecting to sqlite database", err)
	}
	s, err := NewSQLStore(ctx, db, SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Get(ctx context.Context, title string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, s.getQuery, Key(title)).Scan(&e.Title, &e.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, apperrors.StoreIO("querying entry", err)
	}
	return e, true, nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery)
	if err != nil {
		return nil, apperrors.StoreIO("listing entries", err)
	}
	defer rows.Close()

	titles := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, apperrors.StoreIO("scanning entry title", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreIO("iterating entries", err)
	}
	SortTitles(titles)
	return titles, nil
}

func (s *SQLStore) Save(ctx context.Context, title, content string) error {
	title = strings.TrimSpace(title)
	if _, err := s.db.ExecContext(ctx, s.saveQuery, Key(title), title, content, time.Now().UTC()); err != nil {
		return apperrors.StoreIO("saving entry "+title, err)
	}
	return nil
}

// Import saves every entry in one transaction; either all land or none do.
func (s *SQLStore) Import(ctx context.Context, entries []Entry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.saveQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()
		now := time.Now().UTC()
		for _, e := range entries {
			title := strings.TrimSpace(e.Title)
			if _, err := stmt.ExecContext(ctx, Key(title), title, e.Content, now); err != nil {
				return fmt.Errorf("importing %q: %w", title, err)
			}
		}
		return nil
	})
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreIO("beginning transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperrors.StoreIO(fmt.Sprintf("rolling back transaction after error %v", err), rbErr)
		}
		return apperrors.StoreIO("importing entries", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.StoreIO("committing transaction", err)
	}
	return nil
}
