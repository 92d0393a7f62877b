package mogclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mogtools/internal/logging"
)

const defaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	Hosts      []string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client creates files through a set of trackers.
type Client struct {
	hosts   []string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client. Hosts are tried in order on every NewFile call.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	hosts := make([]string, 0, len(opts.Hosts))
	for _, host := range opts.Hosts {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		return nil, ErrNoTrackers
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		hosts:   hosts,
		timeout: timeout,
		http:    httpClient,
		logger:  logging.NewComponentLogger(logger, "mogclient"),
	}, nil
}

func (c *Client) connect(ctx context.Context) (*trackerConn, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	var errs []error
	for _, host := range c.hosts {
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			c.logger.Debug("tracker unreachable", logging.String("tracker", host), logging.Error(err))
			errs = append(errs, err)
			continue
		}
		return &trackerConn{addr: host, conn: conn, reader: bufio.NewReader(conn), timeout: c.timeout}, nil
	}
	return nil, fmt.Errorf("connect to trackers: %w", errors.Join(errs...))
}

// NewFile asks a tracker for a destination and opens a streaming PUT to it.
// The caller must Close the returned File to commit the upload.
func (c *Client) NewFile(ctx context.Context, domain, class, key string) (*File, error) {
	if strings.TrimSpace(domain) == "" || strings.TrimSpace(key) == "" {
		return nil, errors.New("new file: domain and key are required")
	}
	tracker, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	args := url.Values{}
	args.Set("domain", domain)
	args.Set("key", key)
	args.Set("fid", "0")
	args.Set("multi_dest", "0")
	if class != "" {
		args.Set("class", class)
	}
	reply, err := tracker.do(ctx, "create_open", args)
	if err != nil {
		_ = tracker.Close()
		return nil, err
	}
	dest, err := parseDestination(reply)
	if err != nil {
		_ = tracker.Close()
		return nil, err
	}
	c.logger.Debug("file opened",
		logging.String("tracker", tracker.addr),
		logging.String("key", key),
		logging.Int64("fid", dest.fid),
		logging.Int64("devid", dest.devID),
		logging.String("path", dest.path),
	)

	return startFile(ctx, c.http, tracker, dest, domain, class, key, c.logger), nil
}

type destination struct {
	fid   int64
	devID int64
	path  string
}

func parseDestination(reply url.Values) (destination, error) {
	fid, err := strconv.ParseInt(reply.Get("fid"), 10, 64)
	if err != nil {
		return destination{}, fmt.Errorf("create_open: invalid fid %q", reply.Get("fid"))
	}
	devID, err := strconv.ParseInt(reply.Get("devid"), 10, 64)
	if err != nil {
		return destination{}, fmt.Errorf("create_open: invalid devid %q", reply.Get("devid"))
	}
	path := reply.Get("path")
	parsed, err := url.Parse(path)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return destination{}, fmt.Errorf("create_open: invalid path %q", path)
	}
	return destination{fid: fid, devID: devID, path: path}, nil
}
