// Package tracker defines core types shared across subsystems.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Catalog maps a normalized artist name to its canonical sheet URL.
// It is the full persisted sync state; after every completed cycle it
// equals exactly the freshly fetched mapping.
type Catalog map[string]string

// MaterializedFile pairs a file written under an artist's export
// directory with the public URL it will be served at.
type MaterializedFile struct {
	Path      string
	PublicURL string
}

// Fetcher performs a single HTTP GET and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Archiver submits a public URL to a durable external web archive and
// returns the archive confirmation reference.
type Archiver interface {
	Save(ctx context.Context, publicURL string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// StatusError reports a non-2xx HTTP response for a fetched URL.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// IsUnauthorized reports whether err carries an HTTP 401 status.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
