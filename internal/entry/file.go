package entry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

// FileExt is the extension of every entry file.
const FileExt = ".md"

// FileStore keeps one markdown file per entry, named after the entry title.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.StoreIO("creating entries directory", err)
	}
	return &FileStore{
		dir:    dir,
		logger: slog.Default().With("component", "file-store", "dir", dir),
	}, nil
}

// Dir returns the directory the store reads and writes.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Get(ctx context.Context, title string) (Entry, bool, error) {
	title = strings.TrimSpace(title)
	if err := checkFileTitle(title); err != nil {
		return Entry{}, false, nil
	}
	stored, ok, err := s.lookup(title)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	data, err := os.ReadFile(s.path(stored))
	if errors.Is(err, fs.ErrNotExist) {
		// Removed between listing and reading.
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, apperrors.StoreIO("reading entry "+stored, err)
	}
	return Entry{Title: stored, Content: string(data)}, true, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	titles, err := s.readTitles()
	if err != nil {
		return nil, err
	}
	SortTitles(titles)
	return titles, nil
}

func (s *FileStore) Save(ctx context.Context, title, content string) error {
	title = strings.TrimSpace(title)
	if err := checkFileTitle(title); err != nil {
		return err
	}
	stored, ok, err := s.lookup(title)
	if err != nil {
		return err
	}
	if ok && stored != title {
		s.logger.Debug("saving under existing title", "requested", title, "stored", stored)
		title = stored
	}
	if err := atomic.WriteFile(s.path(title), strings.NewReader(content)); err != nil {
		return apperrors.StoreIO("writing entry "+title, err)
	}
	return nil
}

// lookup finds the stored title matching title case-insensitively.
func (s *FileStore) lookup(title string) (string, bool, error) {
	titles, err := s.readTitles()
	if err != nil {
		return "", false, err
	}
	key := Key(title)
	match, found := "", false
	for _, t := range titles {
		if t == title {
			return t, true, nil
		}
		if !found && Key(t) == key {
			match, found = t, true
		}
	}
	return match, found, nil
}

func (s *FileStore) readTitles() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.StoreIO("listing entries", err)
	}
	titles := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		titles = append(titles, strings.TrimSuffix(name, FileExt))
	}
	return titles, nil
}

func (s *FileStore) path(title string) string {
	return filepath.Join(s.dir, title+FileExt)
}

// TitleFromPath maps an entry file path back to its title.
func TitleFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, FileExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return strings.TrimSuffix(name, FileExt), true
}

// checkFileTitle rejects titles that cannot be used as a file name inside
// the entries directory.
func checkFileTitle(title string) error {
	switch {
	case title == "":
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "title is required")
	case strings.ContainsAny(title, `/\`+"\x00"):
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "title must not contain path separators")
	case title == "." || title == "..":
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, fmt.Sprintf("title %q is reserved", title))
	}
	return nil
}
