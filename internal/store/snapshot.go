package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bookshelf/internal/book"
)

// snapshotEntry is the on-disk shape of one book. Pointers tell a missing
// field apart from an empty one.
type snapshotEntry struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	ISBN   *string `json:"isbn"`
}

// readSnapshot decodes the snapshot at path. Any failure other than a missing
// file is reported as LoadCorrupt; the whole file is discarded in that case.
func readSnapshot(path string) ([]book.Book, LoadResult) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []book.Book{}, LoadResult{State: LoadMissing}
	}
	if err != nil {
		return []book.Book{}, LoadResult{State: LoadCorrupt, Err: err}
	}

	books, err := decodeSnapshot(data)
	if err != nil {
		return []book.Book{}, LoadResult{State: LoadCorrupt, Err: err}
	}
	return books, LoadResult{State: LoadOK, Count: len(books)}
}

func decodeSnapshot(data []byte) ([]book.Book, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if entries == nil {
		return nil, errors.New("decode snapshot: not an array")
	}

	books := make([]book.Book, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Title == nil || e.Author == nil || e.ISBN == nil {
			return nil, fmt.Errorf("entry %d: missing field", i)
		}
		if *e.Title == "" || *e.Author == "" || *e.ISBN == "" {
			return nil, fmt.Errorf("entry %d: empty field", i)
		}
		if _, dup := seen[*e.ISBN]; dup {
			return nil, fmt.Errorf("entry %d: duplicate isbn %s", i, *e.ISBN)
		}
		seen[*e.ISBN] = struct{}{}
		books = append(books, book.Book{Title: *e.Title, Author: *e.Author, ISBN: *e.ISBN})
	}
	return books, nil
}

func encodeSnapshot(books []book.Book) ([]byte, error) {
	if books == nil {
		books = []book.Book{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(books); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSnapshot replaces the file at path through a temporary file in the same
// directory so readers never see a partial write.
func writeSnapshot(path string, books []book.Book) error {
	data, err := encodeSnapshot(books)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, snapshotMode(path)); err != nil {
		return err
	}
	err = os.Rename(tmpName, path)
	return err
}

// snapshotMode keeps the permissions of an existing snapshot; new files get
// 0644.
func snapshotMode(path string) os.FileMode {
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return 0o644
}
