package book_test

import (
	"context"
	"errors"
	"testing"

	"bookshelf/internal/book"
	"bookshelf/internal/book/mocks"
	"bookshelf/internal/platform/openlibrary"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	dune       = book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}
	foundation = book.Book{Title: "Foundation", Author: "Isaac Asimov", ISBN: "9780553293357"}
	hyperion   = book.Book{Title: "Hyperion", Author: "Dan Simmons", ISBN: "9780553283686"}
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) ObserveEnrichment(outcome string) {
	m.Called(outcome)
}

func notFound(isbn string) error {
	return errors.Join(book.ErrNotFound, errors.New(isbn))
}

func strPtr(s string) *string { return &s }

func TestService_List(t *testing.T) {
	ctx := context.Background()
	all := []book.Book{dune, foundation, hyperion}

	tests := []struct {
		name    string
		offset  int
		limit   int
		want    []book.Book
		wantErr bool
	}{
		{name: "first page", offset: 0, limit: 2, want: []book.Book{dune, foundation}},
		{name: "middle", offset: 1, limit: 1, want: []book.Book{foundation}},
		{name: "limit past end", offset: 2, limit: 50, want: []book.Book{hyperion}},
		{name: "offset past end", offset: 3, limit: 10, want: []book.Book{}},
		{name: "negative offset", offset: -1, limit: 10, wantErr: true},
		{name: "zero limit", offset: 0, limit: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockRepository(ctrl)
			if !tt.wantErr {
				repo.EXPECT().List(gomock.Any()).Return(all, nil)
			}
			svc := book.NewService(repo, nil)

			got, err := svc.List(ctx, tt.offset, tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, book.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and stores", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		repo.EXPECT().Add(gomock.Any(), dune).Return(nil)

		got, err := book.NewService(repo, nil).Create(ctx, book.CreateRequest{
			Title:  "  Dune ",
			Author: "Frank Herbert",
			ISBN:   " 9780441013593",
		})
		require.NoError(t, err)
		assert.Equal(t, dune, got)
	})

	t.Run("validation error skips repository", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)

		_, err := book.NewService(repo, nil).Create(ctx, book.CreateRequest{Title: "", Author: " ", ISBN: "123"})
		require.ErrorIs(t, err, book.ErrValidation)

		var verr *book.ValidationError
		require.ErrorAs(t, err, &verr)
		fields := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = f.Field
		}
		assert.ElementsMatch(t, []string{"title", "author", "isbn"}, fields)
	})

	t.Run("duplicate propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		repo.EXPECT().Add(gomock.Any(), dune).Return(book.ErrDuplicateISBN)

		_, err := book.NewService(repo, nil).Create(ctx, book.CreateRequest{Title: dune.Title, Author: dune.Author, ISBN: dune.ISBN})
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)
	})
}

func TestService_CreateByISBN(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate is rejected before lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)
		rec := new(mockRecorder)
		rec.On("ObserveEnrichment", "duplicate").Return()

		repo.EXPECT().GetByISBN(gomock.Any(), dune.ISBN).Return(dune, nil)

		_, err := book.NewService(repo, resolver, book.WithRecorder(rec)).CreateByISBN(ctx, dune.ISBN)
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)
		rec.AssertExpectations(t)
	})

	t.Run("joins resolved authors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)
		want := book.Book{Title: "Good Omens", Author: "Terry Pratchett, Neil Gaiman", ISBN: "9780060853983"}

		gomock.InOrder(
			repo.EXPECT().GetByISBN(gomock.Any(), want.ISBN).Return(book.Book{}, notFound(want.ISBN)),
			resolver.EXPECT().Resolve(gomock.Any(), want.ISBN).Return(openlibrary.Metadata{
				Title:   "Good Omens",
				Authors: []string{"Terry Pratchett", "Neil Gaiman"},
			}, nil),
			repo.EXPECT().Add(gomock.Any(), want).Return(nil),
		)

		got, err := book.NewService(repo, resolver).CreateByISBN(ctx, want.ISBN)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("no authors becomes Unknown", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)
		want := book.Book{Title: "Anonymous", Author: book.UnknownAuthor, ISBN: "1234567890"}

		repo.EXPECT().GetByISBN(gomock.Any(), want.ISBN).Return(book.Book{}, notFound(want.ISBN))
		resolver.EXPECT().Resolve(gomock.Any(), want.ISBN).Return(openlibrary.Metadata{Title: "Anonymous"}, nil)
		repo.EXPECT().Add(gomock.Any(), want).Return(nil)

		got, err := book.NewService(repo, resolver).CreateByISBN(ctx, want.ISBN)
		require.NoError(t, err)
		assert.Equal(t, book.UnknownAuthor, got.Author)
	})

	t.Run("lookup failure keeps its kind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)
		rec := new(mockRecorder)
		rec.On("ObserveEnrichment", "lookup_failed").Return()

		repo.EXPECT().GetByISBN(gomock.Any(), "0000000000").Return(book.Book{}, notFound("0000000000"))
		resolver.EXPECT().Resolve(gomock.Any(), "0000000000").Return(openlibrary.Metadata{}, openlibrary.ErrNotFound)

		_, err := book.NewService(repo, resolver, book.WithRecorder(rec)).CreateByISBN(ctx, "0000000000")
		assert.ErrorIs(t, err, book.ErrLookupFailed)
		assert.ErrorIs(t, err, openlibrary.ErrNotFound)
		rec.AssertExpectations(t)
	})

	t.Run("upstream status is preserved", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)

		repo.EXPECT().GetByISBN(gomock.Any(), dune.ISBN).Return(book.Book{}, notFound(dune.ISBN))
		resolver.EXPECT().Resolve(gomock.Any(), dune.ISBN).Return(openlibrary.Metadata{}, &openlibrary.UpstreamError{StatusCode: 503})

		_, err := book.NewService(repo, resolver).CreateByISBN(ctx, dune.ISBN)
		var upstream *openlibrary.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, 503, upstream.StatusCode)
	})

	t.Run("short isbn is invalid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)

		_, err := book.NewService(repo, resolver).CreateByISBN(ctx, "12345")
		assert.ErrorIs(t, err, book.ErrValidation)
	})

	t.Run("repository read error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		resolver := mocks.NewMockResolver(ctrl)
		boom := errors.New("boom")

		repo.EXPECT().GetByISBN(gomock.Any(), dune.ISBN).Return(book.Book{}, boom)

		_, err := book.NewService(repo, resolver).CreateByISBN(ctx, dune.ISBN)
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("passes supplied fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		updated := dune
		updated.Title = "Updated"

		repo.EXPECT().
			Update(gomock.Any(), dune.ISBN, book.Update{Title: strPtr("Updated")}).
			Return(updated, nil)

		got, err := book.NewService(repo, nil).Update(ctx, dune.ISBN, book.UpdateRequest{Title: strPtr(" Updated ")})
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("empty supplied field is invalid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)

		_, err := book.NewService(repo, nil).Update(ctx, dune.ISBN, book.UpdateRequest{Author: strPtr("  ")})
		assert.ErrorIs(t, err, book.ErrValidation)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockRepository(ctrl)
		repo.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).Return(book.Book{}, book.ErrNotFound)

		_, err := book.NewService(repo, nil).Update(ctx, "missing", book.UpdateRequest{Title: strPtr("x")})
		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Remove(gomock.Any(), dune.ISBN).Return(nil)
	repo.EXPECT().Remove(gomock.Any(), "missing").Return(book.ErrNotFound)

	svc := book.NewService(repo, nil)
	assert.NoError(t, svc.Delete(context.Background(), dune.ISBN))
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), book.ErrNotFound)
}
