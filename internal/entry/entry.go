// Package entry owns the encyclopedia's named markdown documents. A Store
// maps titles to raw markup; lookups ignore case while the stored title keeps
// the casing it was created with.
package entry

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is a single named document.
type Entry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Store is the contract every backend satisfies.
//
// Get reports absence with ok=false and a nil error; only failures of the
// underlying medium are returned as errors. List returns titles in the order
// produced by SortTitles. Save replaces the whole content of the entry whose
// Key matches title, or creates it.
type Store interface {
	Get(ctx context.Context, title string) (e Entry, ok bool, err error)
	List(ctx context.Context) ([]string, error)
	Save(ctx context.Context, title, content string) error
}

// Key is the case-insensitive identity of a title: its trimmed lowercase
// form. Lowercasing never expands characters, so "Straße" and "STRASSE" stay
// distinct.
func Key(title string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(title))
}

// SortTitles orders titles case-insensitively, falling back to byte order so
// the result never depends on the input order.
func SortTitles(titles []string) {
	slices.SortFunc(titles, func(a, b string) int {
		if c := strings.Compare(Key(a), Key(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}
