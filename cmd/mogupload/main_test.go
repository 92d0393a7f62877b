package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mogtools/internal/testsupport"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, key := range []string{"MOG_DB_DSN", "MOG_DB_USER", "MOG_DB_PASS", "MOG_TRACKERS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestUploadFromFile(t *testing.T) {
	isolateEnv(t)
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	source := filepath.Join(t.TempDir(), "blob.bin")
	testsupport.WriteFile(t, source, 100_000)

	_, stderr, err := runCLI(t, []string{
		"--trackers", tracker.Addr(),
		"--domain", "backups",
		"--class", "nightly",
		"--key", "blob.bin",
		"--file", source,
	}, "")
	if err != nil {
		t.Fatalf("mogupload: %v (stderr: %s)", err, stderr)
	}

	body, ok := node.Body(testsupport.FixtureStoragePath)
	if !ok || len(body) != 100_000 {
		t.Fatalf("unexpected stored body length %d (present=%v)", len(body), ok)
	}
	calls := tracker.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected create_open and create_close, got %+v", calls)
	}
	if calls[0].Args.Get("class") != "nightly" || calls[1].Args.Get("size") != "100000" {
		t.Fatalf("unexpected tracker args: %+v", calls)
	}
}

func TestUploadFromStdin(t *testing.T) {
	isolateEnv(t)
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))
	t.Setenv("MOG_TRACKERS", tracker.Addr())

	if _, _, err := runCLI(t, []string{"--domain", "photos", "--key", "note.txt"}, "piped content"); err != nil {
		t.Fatalf("mogupload: %v", err)
	}
	if body, _ := node.Body(testsupport.FixtureStoragePath); body != "piped content" {
		t.Fatalf("unexpected stored body %q", body)
	}
}

func TestUploadEmptyFileStillCommits(t *testing.T) {
	isolateEnv(t)
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	source := filepath.Join(t.TempDir(), "empty")
	testsupport.WriteFile(t, source, 0)

	if _, _, err := runCLI(t, []string{"--trackers", tracker.Addr(), "--domain", "d", "--key", "k", "--file", source}, ""); err != nil {
		t.Fatalf("mogupload: %v", err)
	}
	calls := tracker.Calls()
	if len(calls) != 2 || calls[0].Command != "create_open" || calls[1].Command != "create_close" {
		t.Fatalf("expected one open/close pair, got %+v", calls)
	}
	if calls[1].Args.Get("size") != "0" {
		t.Fatalf("expected size 0, got %v", calls[1].Args)
	}
}

func TestUploadFailures(t *testing.T) {
	isolateEnv(t)

	if _, _, err := runCLI(t, []string{"--trackers", "127.0.0.1:7001", "--key", "k"}, ""); err == nil {
		t.Fatal("expected error without --domain")
	}
	if _, _, err := runCLI(t, []string{"--domain", "d", "--key", "k"}, ""); err == nil || !strings.Contains(err.Error(), "tracker.hosts is required") {
		t.Fatalf("expected missing trackers error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"--trackers", "no-port", "--domain", "d", "--key", "k"}, ""); err == nil {
		t.Fatal("expected error for malformed tracker host")
	}

	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))
	missing := filepath.Join(t.TempDir(), "missing.bin")
	_, _, err := runCLI(t, []string{"--trackers", tracker.Addr(), "--domain", "d", "--key", "k", "--file", missing}, "")
	if err == nil || !strings.Contains(err.Error(), "stat source") {
		t.Fatalf("expected stat error, got %v", err)
	}
	if len(tracker.Calls()) != 0 {
		t.Fatal("tracker must not be contacted when the source cannot be opened")
	}

	failing := testsupport.NewStorageNode(t, http.StatusInternalServerError)
	failingTracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(failing.URL()))
	_, _, err = runCLI(t, []string{"--trackers", failingTracker.Addr(), "--domain", "d", "--key", "k"}, "payload")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected storage failure, got %v", err)
	}
}

func TestUploadUsesConfigFile(t *testing.T) {
	isolateEnv(t)
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	cfg := testsupport.NewConfig(t,
		testsupport.WithTrackers(tracker.Addr()),
		testsupport.WithChunkSize(1000),
	)
	configPath := testsupport.WriteConfig(t, cfg)

	source := filepath.Join(t.TempDir(), "chunked.bin")
	testsupport.WriteFile(t, source, 2500)

	_, stderr, err := runCLI(t, []string{"--config", configPath, "--domain", "d", "--key", "k", "--file", source, "--verbose"}, "")
	if err != nil {
		t.Fatalf("mogupload: %v (stderr: %s)", err, stderr)
	}
	if body, _ := node.Body(testsupport.FixtureStoragePath); len(body) != 2500 {
		t.Fatalf("unexpected stored body length %d", len(body))
	}
	if !strings.Contains(stderr, "upload finished") {
		t.Fatalf("expected completion log with --verbose, got %q", stderr)
	}
}
