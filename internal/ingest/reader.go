package ingest

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// ErrVanished means the file disappeared between discovery and read. The
// printer spooler sometimes renames files mid-write, so this is benign.
var ErrVanished = errors.New("file vanished before it could be read")

// ReadFileRetry reads path, retrying transient failures with a linear
// backoff. The printer writes files in bursts and occasionally holds a
// lock for a moment; a couple of short retries rides that out. A missing
// file is reported as ErrVanished and never retried.
func ReadFileRetry(path string, attempts int, baseDelay time.Duration) ([]byte, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrVanished
		}
		lastErr = err
		if attempt < attempts {
			time.Sleep(baseDelay * time.Duration(attempt))
		}
	}
	return nil, lastErr
}
