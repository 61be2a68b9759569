package entry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// ChangeOp describes what happened to an entry file on disk.
type ChangeOp string

const (
	ChangeWritten ChangeOp = "written"
	ChangeRemoved ChangeOp = "removed"
)

// Change is emitted when an entry file is touched outside the process, e.g.
// by an editor working directly on the entries directory.
type Change struct {
	Title string
	Op    ChangeOp
}

// Watcher reports changes to the entry files of a directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	logger  *slog.Logger
}

// NewWatcher starts watching dir. Call Watch to consume changes and Close
// to release the OS watch.
func NewWatcher(dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{
		watcher: w,
		dir:     dir,
		logger:  slog.Default().With("component", "entry-watcher", "dir", dir),
	}, nil
}

// Watch emits a Change per relevant file event until ctx is cancelled or the
// watcher is closed. The channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) <-chan Change {
	changes := make(chan Change, 100)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				title, ok := TitleFromPath(event.Name)
				if !ok {
					continue
				}
				var op ChangeOp
				switch {
				case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
					op = ChangeWritten
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					op = ChangeRemoved
				default:
					continue
				}
				select {
				case changes <- Change{Title: title, Op: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()
	return changes
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
