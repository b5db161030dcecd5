package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// EnrichmentRecorder receives the outcome of every add-by-ISBN attempt.
type EnrichmentRecorder interface {
	ObserveEnrichment(outcome string)
}

// Service provides the catalog operations used by the HTTP API and the CLI.
type Service struct {
	repo     Repository
	resolver Resolver
	logger   *slog.Logger
	recorder EnrichmentRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the recorder notified of enrichment outcomes.
func WithRecorder(r EnrichmentRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService creates a new book service. resolver may be nil when lookups are
// not needed.
func NewService(repo Repository, resolver Resolver, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns at most limit books starting at offset, in insertion order.
// An offset past the end yields an empty slice.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Book, error) {
	if offset < 0 {
		return nil, &ValidationError{Fields: []FieldError{{Field: "skip", Message: "skip must be at least 0"}}}
	}
	if limit < 1 {
		return nil, &ValidationError{Fields: []FieldError{{Field: "limit", Message: "limit must be at least 1"}}}
	}

	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if offset >= len(books) {
		return []Book{}, nil
	}
	end := len(books)
	if limit < end-offset {
		end = offset + limit
	}
	return books[offset:end], nil
}

// Get returns the book with the given ISBN.
func (s *Service) Get(ctx context.Context, isbn string) (Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

// Create validates req and adds it to the catalog.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Book, error) {
	req.normalize()
	if err := validateStruct(req); err != nil {
		return Book{}, err
	}

	b := Book{Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if err := s.repo.Add(ctx, b); err != nil {
		return Book{}, err
	}
	s.logger.Info("book added", "isbn", b.ISBN)
	return b, nil
}

// CreateByISBN looks up title and authors for isbn and adds the result. The
// duplicate check runs before any outbound call. Lookup failures wrap
// ErrLookupFailed and keep the resolver's error kind.
func (s *Service) CreateByISBN(ctx context.Context, isbn string) (Book, error) {
	isbn = strings.TrimSpace(isbn)
	if err := validateStruct(isbnRequest{ISBN: isbn}); err != nil {
		return Book{}, err
	}
	if s.resolver == nil {
		return Book{}, fmt.Errorf("%w: no resolver configured", ErrLookupFailed)
	}

	_, err := s.repo.GetByISBN(ctx, isbn)
	switch {
	case err == nil:
		s.observe("duplicate")
		return Book{}, fmt.Errorf("%w: %s", ErrDuplicateISBN, isbn)
	case !errors.Is(err, ErrNotFound):
		return Book{}, err
	}

	meta, err := s.resolver.Resolve(ctx, isbn)
	if err != nil {
		s.observe("lookup_failed")
		s.logger.Warn("metadata lookup failed", "isbn", isbn, "error", err)
		return Book{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	b := Book{
		Title:  meta.Title,
		Author: JoinAuthors(meta.Authors),
		ISBN:   isbn,
	}
	if err := s.repo.Add(ctx, b); err != nil {
		s.observe("store_failed")
		return Book{}, err
	}
	s.observe("added")
	s.logger.Info("book added from lookup", "isbn", isbn, "authors", len(meta.Authors))
	return b, nil
}

// Update replaces the supplied fields of the book with the given ISBN.
func (s *Service) Update(ctx context.Context, isbn string, req UpdateRequest) (Book, error) {
	req.normalize()
	if err := validateStruct(req); err != nil {
		return Book{}, err
	}
	return s.repo.Update(ctx, isbn, Update{Title: req.Title, Author: req.Author})
}

// Delete removes the book with the given ISBN.
func (s *Service) Delete(ctx context.Context, isbn string) error {
	if err := s.repo.Remove(ctx, isbn); err != nil {
		return err
	}
	s.logger.Info("book removed", "isbn", isbn)
	return nil
}

func (s *Service) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveEnrichment(outcome)
	}
}

// JoinAuthors renders an author list for display, "Unknown" when empty.
func JoinAuthors(authors []string) string {
	if len(authors) == 0 {
		return UnknownAuthor
	}
	return strings.Join(authors, ", ")
}
