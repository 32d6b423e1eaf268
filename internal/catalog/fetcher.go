package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/tracker"
)

// Column names expected in the remote catalog CSV.
const (
	colArtist = "Artist Name"
	colURL    = "URL"
	colBest   = "Best"
)

// Fetcher retrieves and parses the remote catalog.
type Fetcher struct {
	fetcher tracker.Fetcher
	url     string
	logger  *zap.Logger
}

// NewFetcher builds a Fetcher for the remote catalog at url.
func NewFetcher(fetcher tracker.Fetcher, url string, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		fetcher: fetcher,
		url:     url,
		logger:  logger,
	}
}

// Fetch retrieves the remote CSV and reduces it to a catalog. A row is
// kept only when its Best flag (trimmed, lowercased) equals "yes", its
// URL matches the canonical document pattern, and its name survives
// normalization. Transport failures and a malformed header abort the
// fetch entirely; malformed rows are skipped individually.
func (f *Fetcher) Fetch(ctx context.Context) (tracker.Catalog, error) {
	resp, err := f.fetcher.Fetch(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	cat, err := parseCSV(resp.Body, f.logger)
	if err != nil {
		return nil, fmt.Errorf("parse remote catalog: %w", err)
	}
	return cat, nil
}

func parseCSV(payload []byte, logger *zap.Logger) (tracker.Catalog, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colArtist, colURL, colBest} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	cat := tracker.Catalog{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("skipping malformed catalog row", zap.Error(err))
			continue
		}
		field := func(name string) string {
			i := idx[name]
			if i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		if strings.ToLower(strings.TrimSpace(field(colBest))) != "yes" {
			continue
		}
		url, ok := tracker.CleanSheetURL(field(colURL))
		if !ok {
			logger.Debug("dropping row with non-canonical url",
				zap.String("artist", field(colArtist)),
				zap.String("url", field(colURL)),
			)
			continue
		}
		artist := tracker.NormalizeArtistName(field(colArtist))
		if artist == "" {
			continue
		}
		cat[artist] = url
	}
	return cat, nil
}
