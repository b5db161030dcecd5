package main

import (
	"fmt"
	"io"
	"log/slog"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/store"
)

// commandContext resolves configuration once and opens the catalog for each
// command that needs it.
type commandContext struct {
	storageFlag *string
	verboseFlag *bool
	logOutput   io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(storageFlag *string, verboseFlag *bool, logOutput io.Writer) *commandContext {
	return &commandContext{storageFlag: storageFlag, verboseFlag: verboseFlag, logOutput: logOutput}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if c.storageFlag != nil && *c.storageFlag != "" {
		cfg.StoragePath = *c.storageFlag
	}
	level := slog.LevelWarn
	if c.verboseFlag != nil && *c.verboseFlag {
		level = min(cfg.LogLevel, slog.LevelInfo)
	}
	c.logger = logging.New(c.logOutput, level)
	c.cfg = &cfg
	return cfg, nil
}

// withService opens the catalog, builds the service and runs fn. The catalog
// lock is released when fn returns.
func (c *commandContext) withService(fn func(*book.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	catalog, err := store.Open(cfg.StoragePath, c.logger)
	if err != nil {
		return err
	}
	defer catalog.Close()

	resolver := openlibrary.NewClient(
		openlibrary.WithBaseURL(cfg.LookupBaseURL),
		openlibrary.WithUserAgent(cfg.UserAgent),
		openlibrary.WithTimeout(cfg.LookupTimeout),
		openlibrary.WithLogger(c.logger),
	)
	return fn(book.NewService(catalog, resolver, book.WithLogger(c.logger)))
}
