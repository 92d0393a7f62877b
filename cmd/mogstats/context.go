package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"mogtools/internal/config"
	"mogtools/internal/logging"
	"mogtools/internal/metadb"
)

type commandContext struct {
	flags *statsFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger *slog.Logger
	db     *metadb.DB
}

func newCommandContext(flags *statsFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and layers the command-line
// overrides on top.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if dsn := strings.TrimSpace(c.flags.dsn); dsn != "" {
			cfg.Database.DSN = dsn
		}
		if user := strings.TrimSpace(c.flags.user); user != "" {
			cfg.Database.User = user
		}
		if c.flags.password != "" {
			cfg.Database.Password = c.flags.password
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger(stderr io.Writer) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, stderr, c.flags.verbose)
	if err != nil {
		return nil, err
	}
	c.logger, _ = logging.WithRunID(logger)
	return c.logger, nil
}

// openDB connects on first use; later calls reuse the same session.
func (c *commandContext) openDB(ctx context.Context, logger *slog.Logger) (*metadb.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := metadb.Open(ctx, metadb.Options{
		DSN:            cfg.Database.DSN,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		PostgresDriver: cfg.Database.PostgresDriver,
	}, logger)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

func (c *commandContext) close() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}
