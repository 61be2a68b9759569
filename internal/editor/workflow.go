// Package editor creates and edits entries. New entries get their title
// prepended as a top-level heading; edits replace the content verbatim.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

// Action names the kind of save that produced a ChangeEvent.
type Action string

const (
	ActionCreated Action = "created"
	ActionEdited  Action = "edited"
)

// ChangeEvent is sent to every Notifier after a successful save.
type ChangeEvent struct {
	Title  string    `json:"title"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
}

// Notifier observes saves. Implementations handle their own failures; a
// notifier cannot undo a save.
type Notifier interface {
	EntryChanged(ctx context.Context, ev ChangeEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev ChangeEvent)

func (f NotifierFunc) EntryChanged(ctx context.Context, ev ChangeEvent) {
	f(ctx, ev)
}

// Workflow runs the create and edit paths against a store.
type Workflow struct {
	store     entry.Store
	notifiers []Notifier
	logger    *slog.Logger
}

func NewWorkflow(store entry.Store, notifiers ...Notifier) *Workflow {
	return &Workflow{
		store:     store,
		notifiers: notifiers,
		logger:    slog.Default().With("component", "editor"),
	}
}

// Heading is the first line every new entry starts with.
func Heading(title string) string {
	return "# " + strings.TrimSpace(title) + "\n\n"
}

// Create stores a new entry and returns its title. A title already taken in
// any casing fails with ErrDuplicateTitle and leaves the store untouched.
func (w *Workflow) Create(ctx context.Context, title, content string) (string, error) {
	if err := ValidateNewEntry(title, content); err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)

	existing, ok, err := w.store.Get(ctx, title)
	if err != nil {
		return "", fmt.Errorf("checking for %q: %w", title, err)
	}
	if ok {
		w.logger.Info("create rejected, title taken", "title", title, "existing", existing.Title)
		return "", apperrors.Newf(apperrors.ErrDuplicateTitle, http.StatusConflict,
			"an entry titled %q already exists", existing.Title)
	}

	if err := w.store.Save(ctx, title, Heading(title)+content); err != nil {
		return "", fmt.Errorf("saving %q: %w", title, err)
	}
	w.logger.Info("entry created", "title", title)
	w.notify(ctx, ChangeEvent{Title: title, Action: ActionCreated, At: time.Now().UTC()})
	return title, nil
}

// Edit replaces the content of an existing entry and returns its stored
// title. Editing a missing title fails with ErrEntryNotFound; it never
// creates.
func (w *Workflow) Edit(ctx context.Context, title, content string) (string, error) {
	if err := ValidateEdit(content); err != nil {
		return "", err
	}
	existing, err := w.Load(ctx, title)
	if err != nil {
		return "", err
	}
	if err := w.store.Save(ctx, existing.Title, content); err != nil {
		return "", fmt.Errorf("saving %q: %w", existing.Title, err)
	}
	w.logger.Info("entry edited", "title", existing.Title)
	w.notify(ctx, ChangeEvent{Title: existing.Title, Action: ActionEdited, At: time.Now().UTC()})
	return existing.Title, nil
}

// Load returns the entry an edit form starts from.
func (w *Workflow) Load(ctx context.Context, title string) (entry.Entry, error) {
	e, ok, err := w.store.Get(ctx, title)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("loading %q: %w", title, err)
	}
	if !ok {
		return entry.Entry{}, apperrors.Newf(apperrors.ErrEntryNotFound, http.StatusNotFound,
			"requested page %q was not found", strings.TrimSpace(title))
	}
	return e, nil
}

func (w *Workflow) notify(ctx context.Context, ev ChangeEvent) {
	for _, n := range w.notifiers {
		n.EntryChanged(ctx, ev)
	}
}
