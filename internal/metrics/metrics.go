// Package metrics registers the Prometheus counters for the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncCycles counts completed fetch/diff/download passes.
	SyncCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_sync_cycles_total",
		Help: "The total number of completed sync cycles.",
	})
	// SyncCycleErrors counts cycles aborted by a catalog fetch failure.
	SyncCycleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_sync_cycle_errors_total",
		Help: "The total number of sync cycles aborted before the diff.",
	})
	// EntriesUpdated counts artists picked up by the change detector.
	EntriesUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_entries_updated_total",
		Help: "The total number of changed catalog entries processed.",
	})
	// ExportDownloads counts successful export format retrievals.
	ExportDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_export_downloads_total",
		Help: "The total number of export artifacts downloaded.",
	})
	// ExportDownloadErrors counts failed export format retrievals.
	ExportDownloadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_export_download_errors_total",
		Help: "The total number of failed export downloads.",
	})
	// FilesExtracted counts members extracted from zip exports.
	FilesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_files_extracted_total",
		Help: "The total number of files extracted from zip exports.",
	})
	// ArchiveSubmissions counts successful archive service submissions.
	ArchiveSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_archive_submissions_total",
		Help: "The total number of files successfully archived.",
	})
	// ArchiveFailures counts failed archive service submissions.
	ArchiveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_archive_failures_total",
		Help: "The total number of failed archive submissions.",
	})
	// ArchiveSkips counts files skipped because they were archived today.
	ArchiveSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridtracker_archive_skips_total",
		Help: "The total number of archive tasks skipped by the daily throttle.",
	})
)
