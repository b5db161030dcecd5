package book

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no book has the requested ISBN.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when a book with the same ISBN already exists.
	ErrDuplicateISBN = errors.New("isbn already exists")
	// ErrValidation is returned when input fields violate their constraints.
	ErrValidation = errors.New("validation failed")
	// ErrLookupFailed wraps every metadata lookup failure.
	ErrLookupFailed = errors.New("metadata lookup failed")
)

// UnknownAuthor is stored when a lookup resolves no author names.
const UnknownAuthor = "Unknown"

// Book represents one catalog entry. ISBN is the unique key.
type Book struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

func (b Book) String() string {
	return fmt.Sprintf("%s by %s (ISBN: %s)", b.Title, b.Author, b.ISBN)
}

// Update holds the replaceable fields of a book. Nil fields keep their value.
type Update struct {
	Title  *string
	Author *string
}

// Apply returns a copy of b with the supplied fields replaced.
func (u Update) Apply(b Book) Book {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	return b
}
