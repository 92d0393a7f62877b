package mogclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mogtools/internal/logging"
)

var errAborted = errors.New("upload aborted")

// File is an open upload. Writes stream to the storage node; Close finishes
// the PUT and commits the file with create_close.
type File struct {
	tracker *trackerConn
	dest    destination
	domain  string
	class   string
	key     string
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	body   *io.PipeWriter
	result chan error
	size   int64
	closed bool
}

func startFile(ctx context.Context, client *http.Client, tracker *trackerConn, dest destination, domain, class, key string, logger *slog.Logger) *File {
	reader, writer := io.Pipe()
	putCtx, cancel := context.WithCancel(ctx)
	f := &File{
		tracker: tracker,
		dest:    dest,
		domain:  domain,
		class:   class,
		key:     key,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		body:    writer,
		result:  make(chan error, 1),
	}
	go func() {
		err := put(putCtx, client, dest.path, reader)
		if err != nil {
			_ = reader.CloseWithError(err)
		}
		f.result <- err
	}()
	return f
}

func put(ctx context.Context, client *http.Client, path string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, path, body)
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("put %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Write streams p to the storage node.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, errors.New("write to closed file")
	}
	n, err := f.body.Write(p)
	f.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", f.key, err)
	}
	return n, nil
}

// Size returns the bytes written so far.
func (f *File) Size() int64 {
	return f.size
}

// Close ends the body, waits for the storage node, and commits the file.
// The tracker session is released whatever the outcome.
func (f *File) Close() error {
	if f.closed {
		return errors.New("file already closed")
	}
	f.closed = true
	defer f.tracker.Close()
	defer f.cancel()

	_ = f.body.Close()
	if err := <-f.result; err != nil {
		return err
	}

	args := url.Values{}
	args.Set("domain", f.domain)
	args.Set("key", f.key)
	args.Set("fid", strconv.FormatInt(f.dest.fid, 10))
	args.Set("devid", strconv.FormatInt(f.dest.devID, 10))
	args.Set("path", f.dest.path)
	args.Set("size", strconv.FormatInt(f.size, 10))
	if f.class != "" {
		args.Set("class", f.class)
	}
	if _, err := f.tracker.do(f.ctx, "create_close", args); err != nil {
		return err
	}
	f.logger.Debug("file committed",
		logging.String("key", f.key),
		logging.Int64("fid", f.dest.fid),
		logging.Int64("size", f.size),
	)
	return nil
}

// Abort drops the upload without create_close. The PUT is cancelled and the
// tracker session released; the tracker reclaims the unclosed fid.
func (f *File) Abort() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.cancel()
	_ = f.body.CloseWithError(errAborted)
	<-f.result
	f.logger.Debug("upload aborted",
		logging.String("key", f.key),
		logging.Int64("fid", f.dest.fid),
	)
	return f.tracker.Close()
}
