package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

var seedEntries = map[string]string{
	"Python": "# Python\n\nPython is a programming language.",
	"HTML":   "# HTML\n\nHTML is a markup language.",
	"CSS":    "# CSS\n\nCSS styles pages.",
	"Django": "# Django\n\nA Python web framework.",
	"Git":    "# Git\n\nVersion control.",
}

func seededStores(t *testing.T) map[string]entry.Store {
	t.Helper()
	ctx := context.Background()
	fileStore, err := entry.NewFileStore(filepath.Join(t.TempDir(), "entries"))
	if err != nil {
		t.Fatal(err)
	}
	sqlStore, err := entry.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlStore.Close() })

	stores := map[string]entry.Store{
		"memory": entry.NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqlStore,
	}
	for _, s := range stores {
		for title, content := range seedEntries {
			if err := s.Save(ctx, title, content); err != nil {
				t.Fatal(err)
			}
		}
	}
	return stores
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		q    string
		want Result
	}{
		{"exact", "Python", ExactMatch("Python", seedEntries["Python"])},
		{"exact other case", "python", ExactMatch("Python", seedEntries["Python"])},
		{"exact trimmed", "  html ", ExactMatch("HTML", seedEntries["HTML"])},
		{"partial single", "yth", PartialMatches("yth", []string{"Python"})},
		{"partial upper", "YTH", PartialMatches("YTH", []string{"Python"})},
		{"partial several in list order", "t", PartialMatches("t", []string{"Git", "HTML", "Python"})},
		{"partial trims query", " ss ", PartialMatches("ss", []string{"CSS"})},
		{"not found", "css3", NotFound("css3")},
		{"not found multiword", "ruby on rails", NotFound("ruby on rails")},
		{"empty", "", ShowAllEntries([]string{"CSS", "Django", "Git", "HTML", "Python"})},
		{"whitespace", " \t\n", ShowAllEntries([]string{"CSS", "Django", "Git", "HTML", "Python"})},
	}
	for name, store := range seededStores(t) {
		engine := NewEngine(store)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := engine.Resolve(context.Background(), tt.q)
				if err != nil {
					t.Fatalf("Resolve(%q): %v", tt.q, err)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.q, diff)
				}
			})
		}
	}
}

func TestResolveEmptyStore(t *testing.T) {
	engine := NewEngine(entry.NewMemoryStore())
	ctx := context.Background()

	got, err := engine.Resolve(ctx, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(NotFound("anything"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = engine.Resolve(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindShowAll || len(got.Candidates) != 0 {
		t.Errorf("Resolve(\"\") on empty store = %+v, want empty show-all", got)
	}
}

// TestResolvePartialMatchesExactlyTheSubstringTitles checks every substring
// of every stored title: the result is either the exact entry or precisely
// the titles containing the query.
func TestResolvePartialMatchesExactlyTheSubstringTitles(t *testing.T) {
	store := entry.NewMemoryStore()
	ctx := context.Background()
	for title, content := range seedEntries {
		store.Save(ctx, title, content)
	}
	store.Save(ctx, "Straße", "# Straße")
	titles, _ := store.List(ctx)
	engine := NewEngine(store)

	for _, title := range titles {
		runes := []rune(title)
		for i := 0; i < len(runes); i++ {
			for j := i + 1; j <= len(runes); j++ {
				q := string(runes[i:j])
				if strings.TrimSpace(q) == "" {
					continue
				}
				got, err := engine.Resolve(ctx, q)
				if err != nil {
					t.Fatal(err)
				}
				if _, exact, _ := store.Get(ctx, q); exact {
					if got.Kind != KindExactMatch {
						t.Errorf("Resolve(%q) = %v, want exact", q, got)
					}
					continue
				}
				var want []string
				for _, candidate := range titles {
					if strings.Contains(strings.ToLower(candidate), strings.ToLower(strings.TrimSpace(q))) {
						want = append(want, candidate)
					}
				}
				if got.Kind != KindPartialMatches {
					t.Fatalf("Resolve(%q) = %v, want partial", q, got)
				}
				if diff := cmp.Diff(want, got.Candidates); diff != "" {
					t.Errorf("Resolve(%q) candidates mismatch (-want +got):\n%s", q, diff)
				}
			}
		}
	}
}

func TestResolveLowercasesWithoutExpanding(t *testing.T) {
	store := entry.NewMemoryStore()
	ctx := context.Background()
	store.Save(ctx, "Straße", "# Straße")
	store.Save(ctx, "Python", "# Python")
	engine := NewEngine(store)

	for _, q := range []string{"ss", "STRASSE", "strasse"} {
		got, err := engine.Resolve(ctx, q)
		if err != nil {
			t.Fatal(err)
		}
		if got.Kind != KindNotFound {
			t.Errorf("Resolve(%q) = %v, want not found", q, got)
		}
	}

	got, err := engine.Resolve(ctx, "STRAß")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Straße"}, got.Candidates); got.Kind != KindPartialMatches || diff != "" {
		t.Errorf("Resolve(\"STRAß\") = %v, want partial [Straße]", got)
	}
}

func TestResolveReturnsLastSavedContent(t *testing.T) {
	store := entry.NewMemoryStore()
	ctx := context.Background()
	store.Save(ctx, "Go", "v1")
	store.Save(ctx, "GO", "v2")
	store.Save(ctx, "go", "v3")

	got, err := NewEngine(store).Resolve(ctx, "gO")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ExactMatch("Go", "v3"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSurfacesStoreFailure(t *testing.T) {
	engine := NewEngine(failingStore{})
	for _, q := range []string{"", "Python"} {
		if _, err := engine.Resolve(context.Background(), q); !errors.Is(err, apperrors.ErrStoreIO) {
			t.Errorf("Resolve(%q) error = %v, want ErrStoreIO", q, err)
		}
	}
}

func TestRandomTitle(t *testing.T) {
	store := entry.NewMemoryStore()
	ctx := context.Background()
	for title, content := range seedEntries {
		store.Save(ctx, title, content)
	}
	engine := NewEngine(store, WithRand(rand.New(rand.NewPCG(1, 2))))

	const draws = 5000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		title, err := engine.RandomTitle(ctx)
		if err != nil {
			t.Fatal(err)
		}
		counts[title]++
	}
	if len(counts) != len(seedEntries) {
		t.Fatalf("drew %d distinct titles, want %d: %v", len(counts), len(seedEntries), counts)
	}
	expected := draws / len(seedEntries)
	for title, n := range counts {
		if _, ok := seedEntries[title]; !ok {
			t.Errorf("drew unknown title %q", title)
		}
		if n < expected*8/10 || n > expected*12/10 {
			t.Errorf("title %q drawn %d times, want about %d", title, n, expected)
		}
	}
}

func TestRandomTitleEmptyStore(t *testing.T) {
	_, err := NewEngine(entry.NewMemoryStore()).RandomTitle(context.Background())
	if !errors.Is(err, apperrors.ErrEmptyStore) {
		t.Errorf("err = %v, want ErrEmptyStore", err)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (entry.Entry, bool, error) {
	return entry.Entry{}, false, apperrors.StoreIO("reading", errors.New("disk gone"))
}

func (failingStore) List(context.Context) ([]string, error) {
	return nil, apperrors.StoreIO("listing", errors.New("disk gone"))
}

func (failingStore) Save(context.Context, string, string) error {
	return apperrors.StoreIO("writing", errors.New("disk gone"))
}
