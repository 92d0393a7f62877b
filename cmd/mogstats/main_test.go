package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mogtools/internal/metadb"
	"mogtools/internal/stats"
	"mogtools/internal/testsupport"
)

func TestStatsTextReportAll(t *testing.T) {
	env := setupStatsEnv(t, true)

	stdout, stderr, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("mogstats: %v (stderr: %s)", err, stderr)
	}

	for _, want := range []string{
		"Statistics for Devices...",
		"dev1",
		"store1",
		"Statistics for Fids...",
		"Max file id: 8",
		"Statistics for Files...",
		"originals",
		"Statistics for Domains...",
		"empty",
		"Statistics for Replication...",
		"under",
		"Statistics for Replication Queue...",
		"newfile",
		"Statistics for Delete Queue...",
		"Statistics for General Queues...",
		"FSCK_QUEUE",
		"REBAL_QUEUE",
		"Database time:",
	} {
		requireContains(t, stdout, want)
	}
	if strings.Index(stdout, "Devices") > strings.Index(stdout, "General Queues") {
		t.Fatalf("reports printed out of order:\n%s", stdout)
	}
	requireContains(t, stderr, "queue_type_unknown")
}

func TestStatsSelectionFollowsCanonicalOrder(t *testing.T) {
	env := setupStatsEnv(t, true)

	stdout, _, err := runCLI(t, []string{"--stats", "delete-queue,fids"}, env.configPath)
	if err != nil {
		t.Fatalf("mogstats: %v", err)
	}
	fids := strings.Index(stdout, "Statistics for Fids...")
	deletes := strings.Index(stdout, "Statistics for Delete Queue...")
	if fids < 0 || deletes < 0 || fids > deletes {
		t.Fatalf("unexpected report order:\n%s", stdout)
	}
	if strings.Contains(stdout, "Statistics for Devices") {
		t.Fatalf("unselected report printed:\n%s", stdout)
	}
}

func TestStatsUnknownReportFailsBeforeConnecting(t *testing.T) {
	env := setupStatsEnv(t, false)

	_, _, err := runCLI(t, []string{"--stats", "devices,bogus"}, env.configPath)
	if !errors.Is(err, stats.ErrUnknownReport) {
		t.Fatalf("expected ErrUnknownReport, got %v", err)
	}
	requireContains(t, err.Error(), "bogus")
}

func TestStatsJSONOutput(t *testing.T) {
	env := setupStatsEnv(t, true)

	stdout, _, err := runCLI(t, []string{"--json", "--stats", "devices,fids,replication-queue"}, env.configPath)
	if err != nil {
		t.Fatalf("mogstats --json: %v", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode json: %v\n%s", err, stdout)
	}
	var devices []stats.DeviceStat
	if err := json.Unmarshal(payload["devices"], &devices); err != nil {
		t.Fatalf("decode devices: %v", err)
	}
	if len(devices) != 4 || devices[0].Host != "store1" {
		t.Fatalf("unexpected devices: %+v", devices)
	}
	if string(payload["max_fid"]) != "8" {
		t.Fatalf("unexpected max_fid %s", payload["max_fid"])
	}
	var queue []stats.StateCount
	if err := json.Unmarshal(payload["replication-queue"], &queue); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(queue) == 0 || queue[0].State != stats.StateNewFile || queue[0].Count != 2 {
		t.Fatalf("unexpected replication queue: %+v", queue)
	}
	if _, ok := payload["database_time"]; !ok {
		t.Fatal("expected database_time for queue reports")
	}
	if _, ok := payload["files"]; ok {
		t.Fatal("unselected report present in json")
	}
}

func TestStatsHumanFormatting(t *testing.T) {
	env := setupStatsEnv(t, true)

	stdout, _, err := runCLI(t, []string{"--human", "--stats", "files"}, env.configPath)
	if err != nil {
		t.Fatalf("mogstats --human: %v", err)
	}
	requireContains(t, stdout, "2.0 KiB")
	requireContains(t, stdout, "4.9 KiB")
}

func TestStatsWritesPrometheusTextfile(t *testing.T) {
	env := setupStatsEnv(t, true)
	promPath := filepath.Join(t.TempDir(), "mogilefs.prom")

	if _, _, err := runCLI(t, []string{"--stats", "fids,delete-queue", "--prom-textfile", promPath}, env.configPath); err != nil {
		t.Fatalf("mogstats: %v", err)
	}
	data, err := os.ReadFile(promPath)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	requireContains(t, string(data), "mogilefs_max_fid 8")
	requireContains(t, string(data), `mogilefs_queue_items{queue="delete",state="unknown"} 2`)
}

func TestStatsDSNFlagOverridesConfig(t *testing.T) {
	env := setupStatsEnv(t, false)

	stdout, _, err := runCLI(t, []string{"--db-dsn", "sqlite:" + env.dbPath, "--stats", "fids"}, env.configPath)
	if err != nil {
		t.Fatalf("mogstats --db-dsn: %v", err)
	}
	requireContains(t, stdout, "Max file id: 8")
}

func TestStatsRequiresDSN(t *testing.T) {
	env := setupStatsEnv(t, false)

	_, _, err := runCLI(t, []string{"--stats", "fids"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "database.dsn is required") {
		t.Fatalf("expected missing dsn error, got %v", err)
	}
}

func TestStatsUsesEnvironmentDSN(t *testing.T) {
	env := setupStatsEnv(t, false)
	t.Setenv("MOG_DB_DSN", "DBI:SQLite:dbname="+env.dbPath)

	stdout, _, err := runCLI(t, []string{"--stats", "fids"}, env.configPath)
	if err != nil {
		t.Fatalf("mogstats with MOG_DB_DSN: %v", err)
	}
	requireContains(t, stdout, "Max file id: 8")
}

func TestStatsRejectsUnsupportedDialect(t *testing.T) {
	env := setupStatsEnv(t, false)

	_, _, err := runCLI(t, []string{"--db-dsn", "DBI:Oracle:orcl"}, env.configPath)
	if !errors.Is(err, metadb.ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	setupStatsEnv(t, false)
	target := filepath.Join(t.TempDir(), "nested", "mogtools.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--overwrite", target}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestStatsToleratesNullReferenceColumns(t *testing.T) {
	setupStatsEnv(t, false)
	dbPath := testsupport.NewMetaDBFile(t, true,
		`INSERT INTO device (devid, hostid, status) VALUES (5, 1, NULL)`,
		`INSERT INTO domain (dmid, namespace) VALUES (4, NULL)`,
	)

	stdout, stderr, err := runCLI(t, []string{"--db-dsn", "sqlite:" + dbPath, "--stats", "devices,domains"}, "")
	if err != nil {
		t.Fatalf("mogstats: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stdout, "dev5")
	requireContains(t, stdout, "dmid=4")
}

func TestConfigValidate(t *testing.T) {
	env := setupStatsEnv(t, true)

	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Database dialect: sqlite")
	requireContains(t, stdout, "Configuration valid")

	bare := setupStatsEnv(t, false)
	stdout, _, err = runCLI(t, []string{"config", "validate"}, bare.configPath)
	if err != nil {
		t.Fatalf("config validate without dsn: %v", err)
	}
	requireContains(t, stdout, "Warning: database.dsn is required")
	requireContains(t, stdout, "Configuration valid")

	broken := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(broken, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, broken); err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load error, got %v", err)
	}

	badDSN := filepath.Join(t.TempDir(), "oracle.toml")
	if err := os.WriteFile(badDSN, []byte("[database]\ndsn = \"DBI:Oracle:orcl\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, badDSN); !errors.Is(err, metadb.ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}
