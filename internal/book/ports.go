package book

import (
	"context"

	"bookshelf/internal/platform/openlibrary"
)

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

// Repository defines the contract for catalog storage.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Add(ctx context.Context, b Book) error
	Update(ctx context.Context, isbn string, u Update) (Book, error)
	Remove(ctx context.Context, isbn string) error
}

// Resolver looks up bibliographic metadata for an ISBN.
type Resolver interface {
	Resolve(ctx context.Context, isbn string) (openlibrary.Metadata, error)
}
