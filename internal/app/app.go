// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/archive"
	"github.com/artistgrid/gridtracker/internal/browse"
	"github.com/artistgrid/gridtracker/internal/catalog"
	"github.com/artistgrid/gridtracker/internal/clock/system"
	"github.com/artistgrid/gridtracker/internal/config"
	"github.com/artistgrid/gridtracker/internal/downhost"
	"github.com/artistgrid/gridtracker/internal/exports"
	"github.com/artistgrid/gridtracker/internal/fetch"
	"github.com/artistgrid/gridtracker/internal/hash/sha256"
	"github.com/artistgrid/gridtracker/internal/scheduler"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

// The save endpoint regularly takes over a minute under load, so the
// archive client gets a wider timeout than the export fetcher.
const archiveTimeout = 3 * time.Minute

// App holds the shared, long-lived services of the tracker. It is
// initialized once at startup and handed to the commands that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	store    *catalog.Store
	downLog  *downhost.Log
	archiver tracker.Archiver
	pool     *archive.Pool
	runner   *scheduler.Runner
	browse   *browse.Server
}

// New wires all services from the configuration.
func New(cfg config.Config, logger *zap.Logger) *App {
	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	downLog := downhost.New(cfg.DownHost.Path)
	store := catalog.NewStore(cfg.Catalog.CacheFile)
	downloader := exports.NewDownloader(fetcher, downLog, cfg.Exports.Dir, cfg.Exports.PublicBase, logger)
	archiver := archive.NewWaybackClient(cfg.Archive.Endpoint, cfg.Archive.UserAgent, archiveTimeout)
	pool := archive.NewPool(cfg.Archive.Workers, cfg.Archive.Workers*16, logger)

	runner := scheduler.NewRunner(
		catalog.NewFetcher(fetcher, cfg.Catalog.URL, logger),
		store,
		downloader,
		pool,
		archive.NewSidecarStore(),
		archiver,
		sha256.New(),
		system.New(),
		archive.TaskConfig{DelayMin: cfg.Archive.DelayMin, DelayMax: cfg.Archive.DelayMax},
		cfg.Sync.Interval,
		logger,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		downLog:  downLog,
		archiver: archiver,
		pool:     pool,
		runner:   runner,
		browse:   browse.NewServer(cfg.Exports.Dir, downLog, logger),
	}
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Runner returns the sync cycle runner.
func (a *App) Runner() *scheduler.Runner {
	return a.runner
}

// Pool returns the archival worker pool.
func (a *App) Pool() *archive.Pool {
	return a.pool
}

// Browse returns the read-only HTTP server.
func (a *App) Browse() *browse.Server {
	return a.browse
}

// Close drains the archival pool and flushes the logger.
func (a *App) Close() {
	a.pool.Close()
	// Best effort; logging itself may be the thing failing.
	_ = a.logger.Sync()
}
