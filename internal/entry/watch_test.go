package entry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsEntryWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	changes := w.Watch(ctx)

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Git.md"), []byte("# Git"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c, ok := <-changes:
		if !ok {
			t.Fatal("changes closed before any event")
		}
		if c.Title != "Git" || c.Op != ChangeWritten {
			t.Errorf("change = %+v, want Git written", c)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for change")
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/data/entries/Python.md", "Python", true},
		{"entries/Ruby on Rails.md", "Ruby on Rails", true},
		{"entries/.Python.md.swp", "", false},
		{"entries/notes.txt", "", false},
		{"entries/.hidden.md", "", false},
	}
	for _, tt := range tests {
		got, ok := TitleFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TitleFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}
