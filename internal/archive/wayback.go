package archive

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artistgrid/gridtracker/internal/tracker"
)

// WaybackClient implements tracker.Archiver against the Wayback
// Machine's save endpoint.
type WaybackClient struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

var _ tracker.Archiver = (*WaybackClient)(nil)

// NewWaybackClient builds a client for the archive service at endpoint
// (e.g. https://web.archive.org).
func NewWaybackClient(endpoint, userAgent string, timeout time.Duration) *WaybackClient {
	return &WaybackClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			// The save endpoint answers with a redirect or a
			// Content-Location header pointing at the snapshot; the
			// headers are the result, so redirects are not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Save submits publicURL for archival and returns the snapshot URL.
func (c *WaybackClient) Save(ctx context.Context, publicURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/save/"+publicURL, nil)
	if err != nil {
		return "", fmt.Errorf("build save request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", publicURL, err)
	}
	defer resp.Body.Close()

	// Error responses can carry Location headers of their own, so the
	// status is authoritative and the snapshot headers are only read on
	// success.
	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return "", &tracker.StatusError{URL: publicURL, StatusCode: resp.StatusCode}
	}

	location := resp.Header.Get("Content-Location")
	if location == "" {
		location = resp.Header.Get("Location")
	}
	if location == "" {
		return "", fmt.Errorf("archive response for %s carried no snapshot location", publicURL)
	}
	if strings.HasPrefix(location, "/") {
		location = c.endpoint + location
	}
	return location, nil
}
