package config

const (
	defaultConfigPath       = "~/.config/mogtools/config.toml"
	projectConfigName       = "mogtools.toml"
	defaultPostgresDriver   = "pgx"
	defaultTrackerTimeout   = 10
	defaultUploadChunkSize  = 64 * 1024
	defaultStatsMinDevCount = 2
	defaultLogFormat        = "console"
	defaultLogLevel         = "warn"
	maxUploadChunkSize      = 64 * 1024 * 1024
	envDatabaseDSN          = "MOG_DB_DSN"
	envDatabaseUser         = "MOG_DB_USER"
	envDatabasePassword     = "MOG_DB_PASS"
	envTrackerHosts         = "MOG_TRACKERS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Database: Database{
			PostgresDriver: defaultPostgresDriver,
		},
		Tracker: Tracker{
			TimeoutSeconds: defaultTrackerTimeout,
		},
		Upload: Upload{
			ChunkSize: defaultUploadChunkSize,
		},
		Stats: Stats{
			DefaultMinDevCount: defaultStatsMinDevCount,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
