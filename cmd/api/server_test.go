package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/crypto"
	"bookshelf/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenLibraryStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9780441013593.json":
			_, _ = io.WriteString(w, `{"title":"Dune","authors":[{"key":"/authors/OL79034A"}]}`)
		case "/authors/OL79034A.json":
			_, _ = io.WriteString(w, `{"name":"Frank Herbert"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, secret string) (*httptest.Server, string) {
	t.Helper()
	ol := newOpenLibraryStub(t)
	path := filepath.Join(t.TempDir(), "library.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := store.Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	cfg := config.Config{
		StoragePath:    path,
		LookupBaseURL:  ol.URL,
		UserAgent:      "bookshelf-test",
		LookupTimeout:  2 * time.Second,
		JWTSecret:      secret,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxBodyBytes:   1 << 20,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(newApp(cfg, logger, catalog).routes(ctx))
	t.Cleanup(srv.Close)
	return srv, path
}

func do(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCRUDFlow(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := do(t, http.MethodGet, srv.URL+"/books", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []book.Book{}, decode[[]book.Book](t, resp))

	payload := map[string]string{"title": "Dune", "author": "Frank Herbert", "isbn": "9780441013593"}
	resp = do(t, http.MethodPost, srv.URL+"/books", payload, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/books/9780441013593", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}, decode[book.Book](t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/books", payload, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/books", map[string]string{"title": "Second", "author": "Someone", "isbn": "1234567890"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/books/9780441013593", map[string]string{"title": "Updated"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, book.Book{Title: "Updated", Author: "Frank Herbert", ISBN: "9780441013593"}, decode[book.Book](t, resp))

	resp = do(t, http.MethodGet, srv.URL+"/books", nil, "")
	list := decode[[]book.Book](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "Updated", list[0].Title)
	assert.Equal(t, "Second", list[1].Title)

	resp = do(t, http.MethodDelete, srv.URL+"/books/9780441013593", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/books/9780441013593", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/books/9780441013593", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateByISBN(t *testing.T) {
	srv, path := newTestServer(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/books/isbn/9780441013593", nil, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"}, decode[book.Book](t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/books/isbn/0000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/books/isbn/9780441013593", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/books", nil, "")
	assert.Len(t, decode[[]book.Book](t, resp), 1)
	assert.NotEmpty(t, path)
}

func TestListPagination(t *testing.T) {
	srv, _ := newTestServer(t, "")
	for _, isbn := range []string{"1000000001", "1000000002", "1000000003"} {
		resp := do(t, http.MethodPost, srv.URL+"/books", map[string]string{"title": "T" + isbn, "author": "A", "isbn": isbn}, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := do(t, http.MethodGet, srv.URL+"/books?skip=1&limit=1", nil, "")
	list := decode[[]book.Book](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "1000000002", list[0].ISBN)

	resp = do(t, http.MethodGet, srv.URL+"/books?skip=99", nil, "")
	assert.Empty(t, decode[[]book.Book](t, resp))

	resp = do(t, http.MethodGet, srv.URL+"/books?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequiredForMutations(t *testing.T) {
	srv, _ := newTestServer(t, "secret")
	payload := map[string]string{"title": "Dune", "author": "Frank Herbert", "isbn": "9780441013593"}

	resp := do(t, http.MethodPost, srv.URL+"/books", payload, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/books", payload, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := crypto.GenerateToken("secret", "tester", crypto.RoleEditor, time.Hour)
	require.NoError(t, err)
	resp = do(t, http.MethodPost, srv.URL+"/books", payload, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/books", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := do(t, http.MethodGet, srv.URL+"/", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"message": "bookshelf API"}, decode[map[string]string](t, resp))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodGet, srv.URL+"/readyz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/books/missing-isbn", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "bookshelf_catalog_books 0"))
	assert.True(t, strings.Contains(string(body), `bookshelf_http_requests_total{method="GET",route="GET /books/{isbn}",status="404"} 1`))
}
