package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/openlibrary"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// Register mounts the book routes on mux. Mutating routes are wrapped with
// protect when it is non-nil.
func (h *HTTPHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	guard := func(fn http.HandlerFunc) http.Handler {
		if protect == nil {
			return fn
		}
		return protect(fn)
	}

	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("GET /books/{isbn}", h.Get)
	mux.Handle("POST /books", guard(h.Create))
	mux.Handle("POST /books/isbn/{isbn}", guard(h.CreateByISBN))
	mux.Handle("PUT /books/{isbn}", guard(h.Update))
	mux.Handle("DELETE /books/{isbn}", guard(h.Delete))
}

// List handles GET /books?skip&limit
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var details []httpx.ErrorDetail
	skip, err := intParam(query.Get("skip"), 0)
	if err != nil || skip < 0 {
		details = append(details, httpx.ErrorDetail{Field: "skip", Message: "skip must be an integer >= 0"})
	}
	limit, err := intParam(query.Get("limit"), defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		details = append(details, httpx.ErrorDetail{Field: "limit", Message: "limit must be an integer between 1 and 200"})
	}
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Invalid query parameters", details)
		return
	}

	books, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}

// Get handles GET /books/{isbn}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}

	b, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// CreateByISBN handles POST /books/isbn/{isbn}
func (h *HTTPHandler) CreateByISBN(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.CreateByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// Update handles PUT /books/{isbn}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid JSON body", nil)
		return
	}

	b, err := h.service.Update(r.Context(), r.PathValue("isbn"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /books/{isbn}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("isbn")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]httpx.ErrorDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = httpx.ErrorDetail{Field: f.Field, Message: f.Message}
		}
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, "Validation failed", details)
	case errors.Is(err, ErrValidation):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
	case errors.Is(err, ErrDuplicateISBN):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.CodeDuplicate, "ISBN already exists", nil)
	case errors.Is(err, ErrLookupFailed):
		status := http.StatusBadRequest
		if errors.Is(err, openlibrary.ErrNotFound) {
			status = http.StatusNotFound
		}
		httpx.JSONError(w, r, status, httpx.CodeLookupFailed, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Book not found", nil)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", httpx.RequestIDFrom(r), "error", err)
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
