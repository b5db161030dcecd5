package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Init(os.Stdout, cfg.LogLevel)

	catalog, err := store.Open(cfg.StoragePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warn("failed to release catalog lock", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger, catalog)
	httpServer := a.server(ctx)
	if !cfg.AuthEnabled() {
		logger.Warn("JWT_SECRET not set, catalog mutations are unauthenticated")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.Addr, "storage", cfg.StoragePath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
