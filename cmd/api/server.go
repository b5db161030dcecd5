package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/metrics"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/store"
)

// app holds the long-lived dependencies of the API process.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *store.BookJSON
	metrics *metrics.Metrics
	service *book.Service
}

func newApp(cfg config.Config, logger *slog.Logger, catalog *store.BookJSON) *app {
	m := metrics.New()
	m.RegisterCatalogSize(catalog.Len)

	resolver := openlibrary.NewClient(
		openlibrary.WithBaseURL(cfg.LookupBaseURL),
		openlibrary.WithUserAgent(cfg.UserAgent),
		openlibrary.WithTimeout(cfg.LookupTimeout),
		openlibrary.WithLogger(logger),
		openlibrary.WithRecorder(m),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   catalog,
		metrics: m,
		service: book.NewService(catalog, resolver, book.WithLogger(logger), book.WithRecorder(m)),
	}
}

// routes builds the full handler chain. ctx bounds background work such as
// the rate limiter sweep.
func (a *app) routes(ctx context.Context) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "bookshelf API"})
	})
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !a.store.Held() {
			http.Error(w, "catalog not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", a.metrics.Handler())

	var protect func(http.Handler) http.Handler
	if a.cfg.AuthEnabled() {
		protect = httpx.AuthMiddleware(a.cfg.JWTSecret)
	}
	book.NewHTTPHandler(a.service, a.logger).Register(router, protect)

	limiter := httpx.NewRateLimiter(ctx, a.cfg.RateLimitRPS, a.cfg.RateLimitBurst, a.cfg.TrustProxyHeaders)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(a.logger),
		httpx.AccessLogMiddleware(a.logger),
		httpx.MetricsMiddleware(a.metrics),
		httpx.SecurityHeadersMiddleware(a.cfg.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(a.cfg.MaxBodyBytes),
	)
}

func (a *app) server(ctx context.Context) *http.Server {
	return &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      a.routes(ctx),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*a.cfg.LookupTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
