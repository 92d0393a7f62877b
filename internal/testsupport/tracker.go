package testsupport

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// FixtureStoragePath is the path component StandardTrackerReplies hands out
// for every create_open.
const FixtureStoragePath = "/dev7/0/000/000/0000000042.fid"

// TrackerCall is one request received by a FakeTracker.
type TrackerCall struct {
	Command string
	Args    url.Values
}

// FakeTracker is a loopback tracker speaking the line protocol. Each request
// is answered by the reply function without the trailing CRLF.
type FakeTracker struct {
	listener net.Listener
	reply    func(command string, args url.Values) string

	mu          sync.Mutex
	calls       []TrackerCall
	disconnects int
}

// NewFakeTracker starts a tracker on 127.0.0.1 and stops it on cleanup.
func NewFakeTracker(t testing.TB, reply func(command string, args url.Values) string) *FakeTracker {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	tracker := &FakeTracker{listener: listener, reply: reply}
	go tracker.serve()
	t.Cleanup(func() { listener.Close() })
	return tracker
}

// Addr returns the host:port the tracker listens on.
func (f *FakeTracker) Addr() string {
	return f.listener.Addr().String()
}

// Calls returns a copy of the requests received so far.
func (f *FakeTracker) Calls() []TrackerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TrackerCall(nil), f.calls...)
}

// Disconnects returns how many client sessions have ended.
func (f *FakeTracker) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func (f *FakeTracker) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *FakeTracker) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		f.mu.Lock()
		f.disconnects++
		f.mu.Unlock()
	}()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		command, rawArgs, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
		args, _ := url.ParseQuery(rawArgs)
		f.mu.Lock()
		f.calls = append(f.calls, TrackerCall{Command: command, Args: args})
		f.mu.Unlock()
		if _, err := conn.Write([]byte(f.reply(command, args) + "\r\n")); err != nil {
			return
		}
	}
}

// StandardTrackerReplies accepts create_open and create_close and points
// every new file at FixtureStoragePath on storageURL.
func StandardTrackerReplies(storageURL string) func(string, url.Values) string {
	return func(command string, args url.Values) string {
		switch command {
		case "create_open":
			return "OK fid=42&devid=7&path=" + url.QueryEscape(storageURL+FixtureStoragePath)
		case "create_close":
			return "OK "
		}
		return "ERR unknown_command Unknown+command"
	}
}

// StorageNode is an httptest server accepting PUT requests and remembering
// each body by path.
type StorageNode struct {
	Server *httptest.Server
	status int

	mu     sync.Mutex
	bodies map[string]string
}

// NewStorageNode starts a storage node that answers every PUT with status.
func NewStorageNode(t testing.TB, status int) *StorageNode {
	t.Helper()
	node := &StorageNode{status: status, bodies: map[string]string{}}
	node.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, _ := io.ReadAll(r.Body)
		node.mu.Lock()
		node.bodies[r.URL.Path] = string(data)
		node.mu.Unlock()
		w.WriteHeader(node.status)
	}))
	t.Cleanup(node.Server.Close)
	return node
}

// URL returns the node's base URL.
func (n *StorageNode) URL() string {
	return n.Server.URL
}

// Body returns the stored body for path.
func (n *StorageNode) Body(path string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	body, ok := n.bodies[path]
	return body, ok
}
