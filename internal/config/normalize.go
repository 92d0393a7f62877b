package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() {
	c.normalizeDatabase()
	c.normalizeTracker()
	c.normalizeUpload()
	c.normalizeStats()
	c.normalizeLogging()
}

func (c *Config) normalizeDatabase() {
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.DSN == "" {
		if value, ok := os.LookupEnv(envDatabaseDSN); ok {
			c.Database.DSN = strings.TrimSpace(value)
		}
	}
	c.Database.User = strings.TrimSpace(c.Database.User)
	if c.Database.User == "" {
		if value, ok := os.LookupEnv(envDatabaseUser); ok {
			c.Database.User = strings.TrimSpace(value)
		}
	}
	if c.Database.Password == "" {
		if value, ok := os.LookupEnv(envDatabasePassword); ok {
			c.Database.Password = value
		}
	}
	c.Database.PostgresDriver = strings.ToLower(strings.TrimSpace(c.Database.PostgresDriver))
	if c.Database.PostgresDriver == "" {
		c.Database.PostgresDriver = defaultPostgresDriver
	}
}

func (c *Config) normalizeTracker() {
	if len(c.Tracker.Hosts) == 0 {
		if value, ok := os.LookupEnv(envTrackerHosts); ok {
			c.Tracker.Hosts = SplitHosts(value)
		}
	}
	c.Tracker.Hosts = dedupeHosts(c.Tracker.Hosts)
	if c.Tracker.TimeoutSeconds <= 0 {
		c.Tracker.TimeoutSeconds = defaultTrackerTimeout
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.ChunkSize <= 0 {
		c.Upload.ChunkSize = defaultUploadChunkSize
	}
}

func (c *Config) normalizeStats() {
	if c.Stats.DefaultMinDevCount <= 0 {
		c.Stats.DefaultMinDevCount = defaultStatsMinDevCount
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// SplitHosts parses a comma separated tracker list such as
// "10.0.0.1:7001, 10.0.0.2:7001" into trimmed, non-empty entries.
func SplitHosts(value string) []string {
	parts := strings.Split(value, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		if host := strings.TrimSpace(part); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func dedupeHosts(hosts []string) []string {
	if len(hosts) == 0 {
		return nil
	}
	out := make([]string, 0, len(hosts))
	seen := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}
