package mogclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// trackerConn is one session with a tracker. Commands are strictly
// request/reply.
type trackerConn struct {
	addr    string
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func (t *trackerConn) do(ctx context.Context, command string, args url.Values) (url.Values, error) {
	deadline := time.Now().Add(t.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := t.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%s: set deadline: %w", command, err)
	}
	if _, err := t.conn.Write([]byte(encodeRequest(command, args))); err != nil {
		return nil, fmt.Errorf("%s: send to %s: %w", command, t.addr, err)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%s: read from %s: %w", command, t.addr, err)
	}
	values, err := parseResponse(line)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return values, nil
}

func (t *trackerConn) Close() error {
	return t.conn.Close()
}
