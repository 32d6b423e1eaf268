// Package archive submits materialized files to an external web archive,
// throttled to at most one submission per file per calendar day.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DateLayout is the calendar-date format persisted in sidecars.
const DateLayout = "2006-01-02"

// Metadata is the per-file archival record. It is rewritten wholesale
// after each successful submission and never deleted.
type Metadata struct {
	SHA256      string
	LastArchive string
}

// SidecarStore reads and writes "<path>.meta" records as plain
// key:value lines.
type SidecarStore struct{}

// NewSidecarStore returns a SidecarStore.
func NewSidecarStore() *SidecarStore {
	return &SidecarStore{}
}

// MetaPath returns the sidecar location for a content file.
func (SidecarStore) MetaPath(filePath string) string {
	return filePath + ".meta"
}

// Load reads the sidecar for filePath. A missing sidecar yields a zero
// record; lines without a colon are ignored.
func (s SidecarStore) Load(filePath string) (Metadata, error) {
	data, err := os.ReadFile(s.MetaPath(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, nil
		}
		return Metadata{}, fmt.Errorf("read sidecar: %w", err)
	}

	var m Metadata
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "sha256":
			m.SHA256 = value
		case "lastarchive":
			m.LastArchive = value
		}
	}
	return m, nil
}

// Save overwrites the sidecar for filePath with the full record. The
// write goes through a temp file and rename so a crash never leaves a
// half-written sidecar.
func (s SidecarStore) Save(filePath string, m Metadata) error {
	metaPath := s.MetaPath(filePath)
	dir := filepath.Dir(metaPath)

	tmp, err := os.CreateTemp(dir, filepath.Base(metaPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp sidecar: %w", err)
	}
	defer os.Remove(tmp.Name())

	content := fmt.Sprintf("sha256:%s\nlastarchive:%s\n", m.SHA256, m.LastArchive)
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp sidecar: %w", err)
	}
	if err := os.Rename(tmp.Name(), metaPath); err != nil {
		return fmt.Errorf("replace sidecar: %w", err)
	}
	return nil
}
