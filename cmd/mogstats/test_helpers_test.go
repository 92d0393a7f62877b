package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"mogtools/internal/testsupport"
)

type statsTestEnv struct {
	dbPath     string
	configPath string
}

// setupStatsEnv isolates HOME, the working directory and the MOG_*
// environment, and writes a config pointing at a seeded fixture database.
func setupStatsEnv(t *testing.T, withDSN bool) *statsTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, key := range []string{"MOG_DB_DSN", "MOG_DB_USER", "MOG_DB_PASS", "MOG_TRACKERS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dbPath := testsupport.NewMetaDBFile(t, true)
	var opts []testsupport.ConfigOption
	if withDSN {
		opts = append(opts, testsupport.WithDatabase("sqlite:"+dbPath))
	}
	cfg := testsupport.NewConfig(t, opts...)
	return &statsTestEnv{dbPath: dbPath, configPath: testsupport.WriteConfig(t, cfg)}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
