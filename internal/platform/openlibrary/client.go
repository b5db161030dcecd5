package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultUserAgent = "bookshelf/1.0 (+https://github.com/bookshelf)"
	DefaultTimeout   = 10 * time.Second

	// maxBodyBytes bounds how much of a response body is decoded.
	maxBodyBytes = 4 << 20
)

// Recorder receives the outcome of every outbound call.
type Recorder interface {
	ObserveLookup(kind, outcome string)
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
	recorder   Recorder
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the per-call timeout applied to every outbound request,
// including each author lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the transport client. Automatic redirects are
// disabled on it because redirects are followed by hand.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  DefaultUserAgent,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.httpClient = &hc
	return c
}

// Metadata is the normalized result of a lookup. Authors may be empty.
type Metadata struct {
	Title   string
	Authors []string
}

// editionRecord matches isbn/{isbn}.json. Only the title is required; the
// optional fields are kept raw and read leniently, so a field with an
// unexpected shape counts as absent.
type editionRecord struct {
	Title       string          `json:"title"`
	Authors     json.RawMessage `json:"authors"`
	ByStatement json.RawMessage `json:"by_statement"`
}

// authorKeys returns the non-empty string keys of the authors list in order.
func (e editionRecord) authorKeys() []string {
	var refs []json.RawMessage
	if err := json.Unmarshal(e.Authors, &refs); err != nil {
		return nil
	}
	keys := make([]string, 0, len(refs))
	for _, raw := range refs {
		var ref map[string]any
		if err := json.Unmarshal(raw, &ref); err != nil {
			continue
		}
		if key, ok := ref["key"].(string); ok && key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func (e editionRecord) byStatement() string {
	var s string
	if err := json.Unmarshal(e.ByStatement, &s); err != nil {
		return ""
	}
	return s
}

// authorRecord matches authors/{key}.json
type authorRecord struct {
	Name string `json:"name"`
}

// Resolve fetches the edition record for isbn and the names of its authors.
// Author lookups are best effort: a failed author is dropped. When no author
// name resolves, the edition's by_statement is used instead.
func (c *Client) Resolve(ctx context.Context, isbn string) (Metadata, error) {
	resp, err := c.fetch(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, url.PathEscape(isbn)))
	if err != nil {
		outcome := "network_error"
		if errors.Is(err, ErrInvalidResponse) {
			outcome = "invalid_response"
		}
		c.observe("edition", outcome)
		return Metadata{}, err
	}

	switch {
	case resp.status == http.StatusNotFound:
		c.observe("edition", "not_found")
		return Metadata{}, fmt.Errorf("%w: isbn %s", ErrNotFound, isbn)
	case resp.status >= http.StatusBadRequest:
		c.observe("edition", "upstream_error")
		return Metadata{}, &UpstreamError{StatusCode: resp.status}
	}

	var edition editionRecord
	if err := json.Unmarshal(resp.body, &edition); err != nil {
		c.observe("edition", "invalid_response")
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if edition.Title == "" {
		c.observe("edition", "invalid_response")
		return Metadata{}, fmt.Errorf("%w: missing title", ErrInvalidResponse)
	}
	c.observe("edition", "ok")

	authors := gather(ctx, edition.authorKeys(), c.authorName, func(key string, err error) {
		c.observe("author", "skipped")
		c.logger.Debug("author lookup skipped", "isbn", isbn, "author_key", key, "error", err)
	})
	if by := edition.byStatement(); len(authors) == 0 && by != "" {
		authors = []string{by}
	}

	return Metadata{Title: edition.Title, Authors: authors}, nil
}

func (c *Client) authorName(ctx context.Context, key string) (string, error) {
	resp, err := c.fetch(ctx, c.baseURL+key+".json")
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.status}
	}

	var author authorRecord
	if err := json.Unmarshal(resp.body, &author); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if author.Name == "" {
		return "", fmt.Errorf("%w: missing name", ErrInvalidResponse)
	}
	c.observe("author", "ok")
	return author.Name, nil
}

// gather applies fn to every item in order and collects the successful
// results. Failures are reported to onErr and otherwise dropped.
func gather[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), onErr func(T, error)) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		r, err := fn(ctx, item)
		if err != nil {
			if onErr != nil {
				onErr(item, err)
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

type response struct {
	status int
	body   []byte
}

// fetch issues a GET and follows at most one redirect hop. Each request gets
// its own timeout.
func (c *Client) fetch(ctx context.Context, rawURL string) (response, error) {
	resp, loc, err := c.get(ctx, rawURL)
	if err != nil {
		return response{}, err
	}
	if loc == "" {
		return resp, nil
	}
	if u, err := url.Parse(loc); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return response{}, fmt.Errorf("%w: redirect to unsupported location %q", ErrInvalidResponse, loc)
	}

	resp, _, err = c.get(ctx, loc)
	if err != nil {
		return response{}, err
	}
	return resp, nil
}

// get performs a single request. For a 3xx response with a Location header
// it returns the resolved location instead of following it.
func (c *Client) get(ctx context.Context, rawURL string) (response, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, "", fmt.Errorf("%w: cannot reach Open Library: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc, err := resp.Location(); err == nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return response{status: resp.StatusCode}, loc.String(), nil
		} else if !errors.Is(err, http.ErrNoLocation) {
			return response{}, "", fmt.Errorf("%w: bad redirect location: %v", ErrInvalidResponse, err)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, "", fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}
	return response{status: resp.StatusCode, body: body}, "", nil
}

func (c *Client) observe(kind, outcome string) {
	if c.recorder != nil {
		c.recorder.ObserveLookup(kind, outcome)
	}
}
