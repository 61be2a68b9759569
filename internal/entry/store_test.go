package entry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

// backends returns a fresh instance of every store that needs no external
// service.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "entries"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sqlStore, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqlStore,
	}
}

func TestStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			e, ok, err := s.Get(ctx, "Nothing")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ok {
				t.Errorf("expected absent, got %+v", e)
			}
			titles, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(titles) != 0 {
				t.Errorf("List on empty store = %v", titles)
			}
		})
	}
}

func TestStoreSaveGetCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, "Python", "# Python\n\nA language."); err != nil {
				t.Fatalf("Save: %v", err)
			}
			for _, q := range []string{"Python", "python", "PYTHON", "  pYtHoN "} {
				e, ok, err := s.Get(ctx, q)
				if err != nil || !ok {
					t.Fatalf("Get(%q) = %v, %v", q, ok, err)
				}
				want := Entry{Title: "Python", Content: "# Python\n\nA language."}
				if diff := cmp.Diff(want, e); diff != "" {
					t.Errorf("Get(%q) mismatch (-want +got):\n%s", q, diff)
				}
			}
		})
	}
}

func TestStoreEmptyContentIsPresent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, "Blank", ""); err != nil {
				t.Fatalf("Save: %v", err)
			}
			e, ok, err := s.Get(ctx, "blank")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !ok {
				t.Fatal("entry with empty content reported absent")
			}
			if e.Content != "" {
				t.Errorf("content = %q, want empty", e.Content)
			}
		})
	}
}

func TestStoreSaveOverwritesUnderStoredTitle(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, "HTML", "first"); err != nil {
				t.Fatal(err)
			}
			if err := s.Save(ctx, "html", "second"); err != nil {
				t.Fatal(err)
			}
			titles, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"HTML"}, titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
			e, _, err := s.Get(ctx, "HTML")
			if err != nil {
				t.Fatal(err)
			}
			if e.Content != "second" {
				t.Errorf("content = %q, want full replacement %q", e.Content, "second")
			}
		})
	}
}

func TestStoreListOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, title := range []string{"Python", "css", "Django", "HTML", "Git"} {
				if err := s.Save(ctx, title, "x"); err != nil {
					t.Fatal(err)
				}
			}
			want := []string{"css", "Django", "Git", "HTML", "Python"}
			for i := 0; i < 3; i++ {
				got, err := s.List(ctx)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("List #%d mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	entries := []Entry{{Title: "Go", Content: "gopher"}, {Title: "Rust", Content: "crab"}}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := Import(ctx, s, entries); err != nil {
				t.Fatalf("Import: %v", err)
			}
			titles, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"Go", "Rust"}, titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileStoreRejectsPathTitles(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, title := range []string{"../escape", `a\b`, "..", "  "} {
		err := s.Save(ctx, title, "x")
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidInput", title, err)
		}
		if _, ok, err := s.Get(ctx, title); ok || err != nil {
			t.Errorf("Get(%q) = %v, %v; want absent", title, ok, err)
		}
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), "CSS", "# CSS\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "CSS.md"))
	if err != nil {
		t.Fatalf("entry file not written: %v", err)
	}
	if string(data) != "# CSS\n" {
		t.Errorf("file content = %q", data)
	}

	// Files that are not entries are ignored.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.md"), 0o755)
	titles, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"CSS"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreMissingDirIsStoreFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "entries")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(context.Background()); !errors.Is(err, apperrors.ErrStoreIO) {
		t.Errorf("List error = %v, want ErrStoreIO", err)
	}
}

func TestKeyAndSortTitles(t *testing.T) {
	if Key(" Python ") != Key("PYTHON") {
		t.Errorf("Key should match %q and %q", " Python ", "PYTHON")
	}
	if got := Key("STRAßE"); got != "straße" {
		t.Errorf("Key(%q) = %q, want %q", "STRAßE", got, "straße")
	}
	if Key("Straße") == Key("STRASSE") {
		t.Errorf("Key must lowercase, not fold: %q and %q collide", "Straße", "STRASSE")
	}
	titles := []string{"b", "B", "a", "C"}
	SortTitles(titles)
	if diff := cmp.Diff([]string{"a", "B", "b", "C"}, titles); diff != "" {
		t.Errorf("SortTitles mismatch (-want +got):\n%s", diff)
	}
}
