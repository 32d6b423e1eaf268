// Package exports downloads and materializes per-artist sheet exports.
package exports

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/downhost"
	"github.com/artistgrid/gridtracker/internal/metrics"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

// MetadataSuffix marks sidecar files that must never be served,
// enumerated, or archived as content.
const MetadataSuffix = ".meta"

const (
	xlsxFileName = "spreadsheet.xlsx"
	zipFileName  = "spreadsheet.zip"
)

// Downloader retrieves both export formats for one artist and writes
// them under the artist's export directory.
type Downloader struct {
	fetcher    tracker.Fetcher
	downLog    *downhost.Log
	exportDir  string
	publicBase string
	logger     *zap.Logger
}

// NewDownloader builds a Downloader rooted at exportDir. publicBase is
// the externally reachable prefix under which materialized files are
// later served.
func NewDownloader(fetcher tracker.Fetcher, downLog *downhost.Log, exportDir, publicBase string, logger *zap.Logger) *Downloader {
	return &Downloader{
		fetcher:    fetcher,
		downLog:    downLog,
		exportDir:  exportDir,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger,
	}
}

// Download fetches the xlsx and zip exports for the artist's canonical
// sheet URL. The two retrievals are independent: failure of one never
// blocks the other, and per-member extraction failures never abort the
// sibling members. The returned slice lists every non-metadata file
// present in the artist directory afterwards, paired with its public
// URL.
func (d *Downloader) Download(ctx context.Context, artist, canonicalURL string) ([]tracker.MaterializedFile, error) {
	sheetID, ok := tracker.ExtractSheetID(canonicalURL)
	if !ok {
		return nil, fmt.Errorf("no sheet id in %q", canonicalURL)
	}

	dir := filepath.Join(d.exportDir, artist)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artist dir: %w", err)
	}

	d.logger.Info("downloading exports",
		zap.String("artist", artist),
		zap.String("sheet_id", sheetID),
	)

	d.downloadXLSX(ctx, sheetID, dir, artist)
	d.downloadZip(ctx, sheetID, dir, artist)

	return d.materialized(dir, artist)
}

func (d *Downloader) downloadXLSX(ctx context.Context, sheetID, dir, artist string) {
	exportURL := exportURL(sheetID, "xlsx")
	body, err := d.fetchExport(ctx, exportURL)
	if err != nil {
		d.logger.Warn("xlsx download failed",
			zap.String("artist", artist),
			zap.String("url", exportURL),
			zap.Error(err),
		)
		return
	}
	target := filepath.Join(dir, xlsxFileName)
	if err := os.WriteFile(target, body, 0o600); err != nil {
		d.logger.Warn("xlsx write failed", zap.String("path", target), zap.Error(err))
		return
	}
	metrics.ExportDownloads.Inc()
	d.logger.Info("xlsx downloaded", zap.String("path", target), zap.Int("bytes", len(body)))
}

func (d *Downloader) downloadZip(ctx context.Context, sheetID, dir, artist string) {
	exportURL := exportURL(sheetID, "zip")
	body, err := d.fetchExport(ctx, exportURL)
	if err != nil {
		d.logger.Warn("zip download failed",
			zap.String("artist", artist),
			zap.String("url", exportURL),
			zap.Error(err),
		)
		return
	}
	target := filepath.Join(dir, zipFileName)
	if err := os.WriteFile(target, body, 0o600); err != nil {
		d.logger.Warn("zip write failed", zap.String("path", target), zap.Error(err))
		return
	}
	metrics.ExportDownloads.Inc()

	if err := d.extractZip(target, dir); err != nil {
		d.logger.Warn("zip extraction failed", zap.String("path", target), zap.Error(err))
	}
}

// fetchExport GETs one export format. On a 401 the URL lands in the
// down-host log for external follow-up; every other failure is
// transient and only logged by the caller.
func (d *Downloader) fetchExport(ctx context.Context, exportURL string) ([]byte, error) {
	resp, err := d.fetcher.Fetch(ctx, exportURL)
	if err != nil {
		metrics.ExportDownloadErrors.Inc()
		if tracker.IsUnauthorized(err) {
			if logErr := d.downLog.Append(exportURL); logErr != nil {
				d.logger.Error("downhost append failed", zap.Error(logErr))
			}
		}
		return nil, err
	}
	return resp.Body, nil
}

// extractZip writes every member with a non-empty sanitized base name
// into dir, overwriting files of the same name. Members that fail to
// read or write are skipped without rolling back siblings.
func (d *Downloader) extractZip(zipPath, dir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		base := path.Base(member.Name)
		if base == "" || base == "." || base == "/" {
			continue
		}
		name := tracker.SanitizeFilename(base)
		if name == "" {
			d.logger.Debug("skipping member with empty sanitized name", zap.String("member", member.Name))
			continue
		}
		if err := d.extractMember(member, filepath.Join(dir, name)); err != nil {
			d.logger.Warn("member extraction failed",
				zap.String("member", member.Name),
				zap.Error(err),
			)
			continue
		}
		metrics.FilesExtracted.Inc()
	}
	return nil
}

func (d *Downloader) extractMember(member *zip.File, target string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("open member: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	d.logger.Debug("extracted member", zap.String("path", target))
	return nil
}

// materialized enumerates the artist directory's regular files,
// excluding metadata sidecars, and pairs each with its public URL.
func (d *Downloader) materialized(dir, artist string) ([]tracker.MaterializedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list artist dir: %w", err)
	}

	var files []tracker.MaterializedFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), MetadataSuffix) {
			continue
		}
		files = append(files, tracker.MaterializedFile{
			Path:      filepath.Join(dir, entry.Name()),
			PublicURL: d.publicBase + "/" + url.PathEscape(artist) + "/" + url.PathEscape(entry.Name()),
		})
	}
	return files, nil
}

func exportURL(sheetID, format string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=%s", sheetID, format)
}
