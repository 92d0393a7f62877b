package upload

import (
	"fmt"
	"io"
	"os"
)

// StdinPath selects standard input as the upload source.
const StdinPath = "-"

// OpenSource opens path for reading, or returns stdin for "-". The size is 0
// for standard input and non-regular files.
func OpenSource(path string, stdin io.Reader) (io.ReadCloser, int64, error) {
	if path == "" || path == StdinPath {
		return io.NopCloser(stdin), 0, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("source %s is a directory", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open source: %w", err)
	}
	var size int64
	if info.Mode().IsRegular() {
		size = info.Size()
	}
	return file, size, nil
}
