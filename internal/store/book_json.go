package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"bookshelf/internal/book"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Open when another process holds the snapshot.
var ErrLocked = errors.New("snapshot is locked by another process")

// LoadState classifies the outcome of reading a snapshot.
type LoadState int

const (
	LoadOK LoadState = iota
	LoadMissing
	LoadCorrupt
)

func (s LoadState) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// LoadResult describes what Load found. The catalog is empty unless State is
// LoadOK. Err is set only for LoadCorrupt.
type LoadResult struct {
	State LoadState
	Count int
	Err   error
}

// BookJSON is a catalog kept in memory and mirrored to a JSON snapshot after
// every mutation. It is safe for concurrent use within one process.
type BookJSON struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	mu    sync.RWMutex
	books []book.Book
}

// Open locks the snapshot at path for this process and loads it.
func Open(path string, logger *slog.Logger) (*BookJSON, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire snapshot lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	s := &BookJSON{path: path, lock: lock, logger: logger}
	res := s.Load()
	switch res.State {
	case LoadCorrupt:
		logger.Warn("snapshot unreadable, starting with an empty catalog", "path", path, "error", res.Err)
	case LoadMissing:
		logger.Info("no snapshot found, starting with an empty catalog", "path", path)
	default:
		logger.Info("snapshot loaded", "path", path, "books", res.Count)
	}
	return s, nil
}

// Close releases the snapshot lock.
func (s *BookJSON) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

// Held reports whether the store still owns its snapshot.
func (s *BookJSON) Held() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lock != nil
}

// Path returns the snapshot location.
func (s *BookJSON) Path() string {
	return s.path
}

// Load replaces the in-memory catalog with the snapshot content. A missing or
// unusable snapshot yields an empty catalog. Load never writes the snapshot.
func (s *BookJSON) Load() LoadResult {
	books, res := readSnapshot(s.path)

	s.mu.Lock()
	s.books = books
	s.mu.Unlock()
	return res
}

// Len returns the number of books in the catalog.
func (s *BookJSON) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

func (s *BookJSON) List(_ context.Context) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books), nil
}

func (s *BookJSON) GetByISBN(_ context.Context, isbn string) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(isbn); i >= 0 {
		return s.books[i], nil
	}
	return book.Book{}, fmt.Errorf("%w: %s", book.ErrNotFound, isbn)
}

func (s *BookJSON) Add(_ context.Context, b book.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(b.ISBN) >= 0 {
		return fmt.Errorf("%w: %s", book.ErrDuplicateISBN, b.ISBN)
	}

	next := make([]book.Book, len(s.books), len(s.books)+1)
	copy(next, s.books)
	next = append(next, b)
	return s.commit(next)
}

func (s *BookJSON) Update(_ context.Context, isbn string, u book.Update) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(isbn)
	if i < 0 {
		return book.Book{}, fmt.Errorf("%w: %s", book.ErrNotFound, isbn)
	}

	updated := u.Apply(s.books[i])
	next := slices.Clone(s.books)
	next[i] = updated
	if err := s.commit(next); err != nil {
		return book.Book{}, err
	}
	return updated, nil
}

func (s *BookJSON) Remove(_ context.Context, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(isbn)
	if i < 0 {
		return fmt.Errorf("%w: %s", book.ErrNotFound, isbn)
	}

	next := slices.Delete(slices.Clone(s.books), i, i+1)
	return s.commit(next)
}

// commit persists next and only then makes it the in-memory catalog.
func (s *BookJSON) commit(next []book.Book) error {
	if err := writeSnapshot(s.path, next); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	s.books = next
	return nil
}

func (s *BookJSON) indexOf(isbn string) int {
	return slices.IndexFunc(s.books, func(b book.Book) bool { return b.ISBN == isbn })
}
