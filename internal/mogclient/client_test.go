package mogclient_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"mogtools/internal/logging"
	"mogtools/internal/mogclient"
	"mogtools/internal/testsupport"
)

func TestNewFileRoundTrip(t *testing.T) {
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	client, err := mogclient.New(mogclient.Options{Hosts: []string{tracker.Addr()}, Timeout: 2 * time.Second}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := client.NewFile(context.Background(), "photos", "thumbs", "cat.jpg")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	for _, chunk := range []string{"hello ", "mogile", "fs"} {
		if _, err := file.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	body, ok := node.Body(testsupport.FixtureStoragePath)
	if !ok || body != "hello mogilefs" {
		t.Fatalf("unexpected stored body %q (present=%v)", body, ok)
	}

	calls := tracker.Calls()
	if len(calls) != 2 || calls[0].Command != "create_open" || calls[1].Command != "create_close" {
		t.Fatalf("unexpected tracker calls: %+v", calls)
	}
	open := calls[0].Args
	if open.Get("domain") != "photos" || open.Get("class") != "thumbs" || open.Get("key") != "cat.jpg" {
		t.Fatalf("unexpected create_open args: %v", open)
	}
	closeArgs := calls[1].Args
	if closeArgs.Get("fid") != "42" || closeArgs.Get("devid") != "7" || closeArgs.Get("size") != "14" {
		t.Fatalf("unexpected create_close args: %v", closeArgs)
	}
	if !strings.HasSuffix(closeArgs.Get("path"), testsupport.FixtureStoragePath) {
		t.Fatalf("create_close should echo the path, got %v", closeArgs)
	}
	if err := file.Close(); err == nil {
		t.Fatal("expected error on second Close")
	}
}

func TestNewFileEmptyBody(t *testing.T) {
	node := testsupport.NewStorageNode(t, http.StatusOK)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))
	client, err := mogclient.New(mogclient.Options{Hosts: []string{tracker.Addr()}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := client.NewFile(context.Background(), "photos", "", "empty")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	body, ok := node.Body(testsupport.FixtureStoragePath)
	if !ok || body != "" {
		t.Fatalf("expected empty stored body, got %q (present=%v)", body, ok)
	}
	calls := tracker.Calls()
	if calls[0].Args.Has("class") {
		t.Fatalf("empty class should be omitted: %v", calls[0].Args)
	}
	if calls[1].Args.Get("size") != "0" {
		t.Fatalf("expected size 0, got %v", calls[1].Args)
	}
}

func TestNewFileFallsBackToNextTracker(t *testing.T) {
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	dead, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	deadAddr := dead.Addr().String()
	dead.Close()

	client, err := mogclient.New(mogclient.Options{Hosts: []string{deadAddr, tracker.Addr()}, Timeout: time.Second}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := client.NewFile(context.Background(), "photos", "", "k")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewFileTrackerError(t *testing.T) {
	tracker := testsupport.NewFakeTracker(t, func(string, url.Values) string {
		return "ERR unreg_domain Domain+name+invalid"
	})
	client, err := mogclient.New(mogclient.Options{Hosts: []string{tracker.Addr()}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.NewFile(context.Background(), "nope", "", "k")
	var trackerErr *mogclient.TrackerError
	if !errors.As(err, &trackerErr) {
		t.Fatalf("expected TrackerError, got %v", err)
	}
	if trackerErr.Code != "unreg_domain" || trackerErr.Message != "Domain name invalid" {
		t.Fatalf("unexpected tracker error: %+v", trackerErr)
	}
}

func TestCloseReportsStorageFailure(t *testing.T) {
	node := testsupport.NewStorageNode(t, http.StatusInternalServerError)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))
	client, err := mogclient.New(mogclient.Options{Hosts: []string{tracker.Addr()}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := client.NewFile(context.Background(), "photos", "", "k")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	_, _ = file.Write([]byte("data"))
	if err := file.Close(); err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected storage status in error, got %v", err)
	}
	for _, call := range tracker.Calls() {
		if call.Command == "create_close" {
			t.Fatal("create_close must not be sent after a failed PUT")
		}
	}
}

func TestAbortReleasesTrackerWithoutCommit(t *testing.T) {
	node := testsupport.NewStorageNode(t, http.StatusCreated)
	tracker := testsupport.NewFakeTracker(t, testsupport.StandardTrackerReplies(node.URL()))

	client, err := mogclient.New(mogclient.Options{Hosts: []string{tracker.Addr()}, Timeout: 2 * time.Second}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := client.NewFile(context.Background(), "photos", "", "partial.bin")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if _, err := file.Write([]byte("half a file")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := file.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for tracker.Disconnects() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if tracker.Disconnects() != 1 {
		t.Fatal("expected the tracker session to be released")
	}
	calls := tracker.Calls()
	if len(calls) != 1 || calls[0].Command != "create_open" {
		t.Fatalf("abort must not send create_close, got %+v", calls)
	}
	if _, err := file.Write([]byte("more")); err == nil {
		t.Fatal("expected write after abort to fail")
	}
	if err := file.Close(); err == nil {
		t.Fatal("expected close after abort to fail")
	}
	if err := file.Abort(); err != nil {
		t.Fatalf("second Abort: %v", err)
	}
}

func TestNewRequiresTrackers(t *testing.T) {
	if _, err := mogclient.New(mogclient.Options{Hosts: []string{" ", ""}}, logging.NewNop()); !errors.Is(err, mogclient.ErrNoTrackers) {
		t.Fatalf("expected ErrNoTrackers, got %v", err)
	}
}
