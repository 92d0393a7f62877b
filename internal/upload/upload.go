package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mogtools/internal/logging"
	"mogtools/internal/mogclient"
)

// DefaultChunkSize is used when Request.ChunkSize is not positive.
const DefaultChunkSize = 64 * 1024

// Opener creates the remote file.
type Opener interface {
	NewFile(ctx context.Context, domain, class, key string) (io.WriteCloser, error)
}

// Aborter is implemented by remote files that can drop an unfinished upload
// and release their connections without committing it.
type Aborter interface {
	Abort() error
}

// ClientOpener adapts a tracker client to Opener.
type ClientOpener struct {
	Client *mogclient.Client
}

// NewFile implements Opener.
func (o ClientOpener) NewFile(ctx context.Context, domain, class, key string) (io.WriteCloser, error) {
	file, err := o.Client.NewFile(ctx, domain, class, key)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Request names the destination and tunes the transfer.
type Request struct {
	Domain    string
	Class     string
	Key       string
	ChunkSize int
	// Buffer reads the whole source into memory before the first write.
	Buffer bool
	// Size is the expected source length, or 0 when unknown. It only feeds
	// progress logs.
	Size int64
}

// Run uploads src and returns the number of bytes written.
func Run(ctx context.Context, opener Opener, src io.Reader, req Request, logger *slog.Logger) (int64, error) {
	if opener == nil {
		return 0, errors.New("upload: opener is required")
	}
	logger = logging.NewComponentLogger(logger, "upload").With(
		logging.String("domain", req.Domain),
		logging.String("key", req.Key),
	)
	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if req.Buffer {
		data, err := io.ReadAll(src)
		if err != nil {
			return 0, fmt.Errorf("read source: %w", err)
		}
		logger.Debug("source buffered", logging.Int("bytes", len(data)))
		src = bytes.NewReader(data)
		req.Size = int64(len(data))
	}

	dst, err := opener.NewFile(ctx, req.Domain, req.Class, req.Key)
	if err != nil {
		return 0, fmt.Errorf("open %s/%s: %w", req.Domain, req.Key, err)
	}

	sampler := logging.NewProgressSampler(10)
	buf := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			abort(dst, logger)
			return written, err
		}
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				abort(dst, logger)
				return written, fmt.Errorf("write %s: %w", req.Key, err)
			}
			written += int64(n)
			if sampler.ShouldLog(logging.Percent(written, req.Size), "writing") {
				logger.Debug("upload progress", logging.Int64("written", written), logging.Int64("size", req.Size))
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			abort(dst, logger)
			return written, fmt.Errorf("read source: %w", readErr)
		}
	}

	if err := dst.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", req.Key, err)
	}
	logger.Debug("upload complete", logging.Int64("bytes", written))
	return written, nil
}

// abort releases dst after a failure. Close is never called, so nothing is
// committed.
func abort(dst io.WriteCloser, logger *slog.Logger) {
	aborter, ok := dst.(Aborter)
	if !ok {
		return
	}
	if err := aborter.Abort(); err != nil {
		logger.Debug("release aborted upload", logging.Error(err))
	}
}
