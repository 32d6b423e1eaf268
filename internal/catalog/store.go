// Package catalog persists and fetches the artist -> sheet URL mapping.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/artistgrid/gridtracker/internal/tracker"
)

// Store reads and overwrites the cached catalog as a two-column CSV
// with header "artist,url". Row order carries no meaning.
type Store struct {
	path string
}

// NewStore returns a Store persisting to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the cache file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cached catalog. A missing file yields an empty catalog.
func (s *Store) Load() (tracker.Catalog, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return tracker.Catalog{}, nil
		}
		return nil, fmt.Errorf("open catalog cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog cache: %w", err)
	}

	cat := tracker.Catalog{}
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue // header or short row
		}
		cat[rec[0]] = rec[1]
	}
	return cat, nil
}

// Save overwrites the cache with the full mapping. The write goes to a
// temp file first and is renamed into place so a crash mid-write never
// leaves a truncated cache behind.
func (s *Store) Save(cat tracker.Catalog) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"artist", "url"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}

	artists := make([]string, 0, len(cat))
	for artist := range cat {
		artists = append(artists, artist)
	}
	sort.Strings(artists)

	for _, artist := range artists {
		if err := w.Write([]string{artist, cat[artist]}); err != nil {
			tmp.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
