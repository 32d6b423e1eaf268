// Package downhost records export URLs that were refused with HTTP 401.
package downhost

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Log is an append-only, one-URL-per-line file. There is no dedup and
// no rotation; the file grows until someone follows up on it.
type Log struct {
	mu   sync.Mutex
	path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Append records one refused URL.
func (l *Log) Append(url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create downhost dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open downhost log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, url); err != nil {
		return fmt.Errorf("append downhost entry: %w", err)
	}
	return nil
}

// Read returns the raw log contents. A missing file reads as empty.
func (l *Log) Read() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read downhost log: %w", err)
	}
	return data, nil
}
