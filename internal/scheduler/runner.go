// Package scheduler drives the periodic fetch/diff/download/archive cycle.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/archive"
	"github.com/artistgrid/gridtracker/internal/catalog"
	"github.com/artistgrid/gridtracker/internal/exports"
	"github.com/artistgrid/gridtracker/internal/hash/sha256"
	"github.com/artistgrid/gridtracker/internal/metrics"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

// Runner executes sync cycles. Cycles never overlap: the loop sleeps
// the configured interval after each pass before starting the next.
type Runner struct {
	fetcher    *catalog.Fetcher
	store      *catalog.Store
	downloader *exports.Downloader
	pool       *archive.Pool
	sidecars   *archive.SidecarStore
	archiver   tracker.Archiver
	hasher     *sha256.Hasher
	clock      tracker.Clock
	taskCfg    archive.TaskConfig
	interval   time.Duration
	logger     *zap.Logger
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(
	fetcher *catalog.Fetcher,
	store *catalog.Store,
	downloader *exports.Downloader,
	pool *archive.Pool,
	sidecars *archive.SidecarStore,
	archiver tracker.Archiver,
	hasher *sha256.Hasher,
	clock tracker.Clock,
	taskCfg archive.TaskConfig,
	interval time.Duration,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		fetcher:    fetcher,
		store:      store,
		downloader: downloader,
		pool:       pool,
		sidecars:   sidecars,
		archiver:   archiver,
		hasher:     hasher,
		clock:      clock,
		taskCfg:    taskCfg,
		interval:   interval,
		logger:     logger,
	}
}

// Run executes cycles until the context finishes.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("sync scheduler started", zap.Duration("interval", r.interval))
	for {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("sync cycle failed", zap.Error(err))
		}

		r.logger.Info("sleeping until next cycle", zap.Duration("interval", r.interval))
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
		}
	}
}

// RunOnce performs one full cycle: fetch the remote catalog, diff it
// against the cache, download exports for every changed artist
// sequentially, queue one archival task per materialized file, then
// overwrite the cache with the fetched mapping. A catalog fetch failure
// aborts before any persisted state is touched.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.logger.Info("checking for updates")

	remote, err := r.fetcher.Fetch(ctx)
	if err != nil {
		metrics.SyncCycleErrors.Inc()
		return fmt.Errorf("fetch catalog: %w", err)
	}

	cached, err := r.store.Load()
	if err != nil {
		metrics.SyncCycleErrors.Inc()
		return fmt.Errorf("load cached catalog: %w", err)
	}

	changed := tracker.Diff(remote, cached)
	if len(changed) == 0 {
		r.logger.Info("no updates found")
	} else {
		r.logger.Info("updates found", zap.Int("count", len(changed)))
		files := r.downloadAll(ctx, changed)
		r.logger.Info("all downloads complete, queueing archival",
			zap.Int("files", len(files)),
		)
		r.queueArchival(ctx, files)
	}

	if err := r.store.Save(remote); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	metrics.SyncCycles.Inc()
	r.logger.Info("catalog cache updated", zap.Int("entries", len(remote)))
	return nil
}

// downloadAll processes changed artists one at a time, in stable order.
// A failing artist is logged and skipped; it never aborts the cycle.
func (r *Runner) downloadAll(ctx context.Context, changed tracker.Catalog) []tracker.MaterializedFile {
	artists := make([]string, 0, len(changed))
	for artist := range changed {
		artists = append(artists, artist)
	}
	sort.Strings(artists)

	var all []tracker.MaterializedFile
	for _, artist := range artists {
		url := changed[artist]
		r.logger.Info("updating artist", zap.String("artist", artist), zap.String("url", url))

		files, err := r.downloader.Download(ctx, artist, url)
		if err != nil {
			r.logger.Warn("artist download failed",
				zap.String("artist", artist),
				zap.Error(err),
			)
			continue
		}
		metrics.EntriesUpdated.Inc()
		all = append(all, files...)
	}
	return all
}

func (r *Runner) queueArchival(ctx context.Context, files []tracker.MaterializedFile) {
	for _, file := range files {
		task := archive.NewTask(file, r.sidecars, r.archiver, r.hasher, r.clock, r.taskCfg, r.logger)
		if err := r.pool.Submit(ctx, task); err != nil {
			r.logger.Warn("archive task not queued", zap.String("path", file.Path), zap.Error(err))
			return
		}
	}
}
