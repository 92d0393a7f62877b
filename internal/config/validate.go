package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable. Settings that only one binary
// needs (database DSN, tracker hosts) are checked by RequireDatabase and
// RequireTrackers instead.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.PostgresDriver {
	case "pgx", "pq":
		return nil
	default:
		return fmt.Errorf("database.postgres_driver: unsupported value %q (use pgx or pq)", c.Database.PostgresDriver)
	}
}

func (c *Config) validateTracker() error {
	for _, host := range c.Tracker.Hosts {
		if _, _, err := net.SplitHostPort(host); err != nil {
			return fmt.Errorf("tracker.hosts: %q must be host:port: %w", host, err)
		}
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.ChunkSize > maxUploadChunkSize {
		return fmt.Errorf("upload.chunk_size must not exceed %d bytes", maxUploadChunkSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// RequireDatabase reports a descriptive error when no metadata database DSN
// has been configured.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("database.dsn is required. Pass --db-dsn, set %s, or edit %s (create with 'mogstats config init')", envDatabaseDSN, defaultPath)
}

// RequireTrackers reports an error when the tracker list is empty.
func (c *Config) RequireTrackers() error {
	if len(c.Tracker.Hosts) == 0 {
		return errors.New("tracker.hosts is required. Pass --trackers or set " + envTrackerHosts)
	}
	return c.validateTracker()
}
