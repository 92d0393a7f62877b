package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mogtools/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a config with repository defaults and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	builder := &configBuilder{cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithDatabase points the config at the given DSN.
func WithDatabase(dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Database.DSN = dsn
	}
}

// WithTrackers sets the tracker host list.
func WithTrackers(hosts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.Hosts = append([]string(nil), hosts...)
	}
}

// WithChunkSize overrides the upload chunk size.
func WithChunkSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.ChunkSize = size
	}
}

// WriteConfig encodes cfg as TOML under a temp directory and returns the path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "mogtools.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
