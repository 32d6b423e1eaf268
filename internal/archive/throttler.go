package archive

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/hash/sha256"
	"github.com/artistgrid/gridtracker/internal/metrics"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

// State is the lifecycle position of one archival task.
type State string

// Task states. Skipped, Recorded and Failed are terminal.
const (
	StateEligible   State = "eligible"
	StateSkipped    State = "skipped"
	StateWaiting    State = "waiting"
	StateSubmitting State = "submitting"
	StateRecorded   State = "recorded"
	StateFailed     State = "failed"
)

// TaskConfig bounds the pre-submission delay window.
type TaskConfig struct {
	DelayMin time.Duration
	DelayMax time.Duration
}

// Task archives one materialized file: daily-throttle check, content
// hash, jittered delay, external submission, metadata rewrite. One Task
// is built per file per cycle.
type Task struct {
	file     tracker.MaterializedFile
	sidecars *SidecarStore
	archiver tracker.Archiver
	hasher   *sha256.Hasher
	clock    tracker.Clock
	cfg      TaskConfig
	logger   *zap.Logger
}

// NewTask builds a Task for file.
func NewTask(
	file tracker.MaterializedFile,
	sidecars *SidecarStore,
	archiver tracker.Archiver,
	hasher *sha256.Hasher,
	clock tracker.Clock,
	cfg TaskConfig,
	logger *zap.Logger,
) *Task {
	return &Task{
		file:     file,
		sidecars: sidecars,
		archiver: archiver,
		hasher:   hasher,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.With(zap.String("path", file.Path)),
	}
}

// Run drives the task to a terminal state and returns it. Gating is
// date-only: a file already archived today is skipped regardless of its
// content hash, and nothing is persisted on failure so the file stays
// eligible for the next cycle.
func (t *Task) Run(ctx context.Context) (State, error) {
	meta, err := t.sidecars.Load(t.file.Path)
	if err != nil {
		return StateFailed, fmt.Errorf("load metadata: %w", err)
	}

	today := t.clock.Now()
	if archivedToday(meta.LastArchive, today) {
		metrics.ArchiveSkips.Inc()
		t.logger.Info("skipping archive, already done today")
		return StateSkipped, nil
	}

	// Hash before the wait so the recorded digest matches what was on
	// disk when the file became eligible. Bookkeeping only, never a
	// gating condition.
	sha, err := t.hasher.HashFile(t.file.Path)
	if err != nil {
		return StateFailed, fmt.Errorf("hash file: %w", err)
	}

	delay := t.randomDelay()
	t.logger.Info("waiting before archive submission", zap.Duration("delay", delay))
	if err := t.wait(ctx, delay); err != nil {
		return StateWaiting, err
	}

	archiveURL, err := t.archiver.Save(ctx, t.file.PublicURL)
	if err != nil {
		metrics.ArchiveFailures.Inc()
		t.logger.Warn("archive submission failed", zap.String("url", t.file.PublicURL), zap.Error(err))
		return StateFailed, err
	}

	record := Metadata{
		SHA256:      sha,
		LastArchive: t.clock.Now().Format(DateLayout),
	}
	if err := t.sidecars.Save(t.file.Path, record); err != nil {
		return StateFailed, fmt.Errorf("save metadata: %w", err)
	}

	metrics.ArchiveSubmissions.Inc()
	t.logger.Info("archived", zap.String("archive_url", archiveURL))
	return StateRecorded, nil
}

func (t *Task) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("archive wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// randomDelay draws uniformly from [DelayMin, DelayMax] to spread
// submissions out when many files become eligible at once.
func (t *Task) randomDelay() time.Duration {
	window := t.cfg.DelayMax - t.cfg.DelayMin
	if window <= 0 {
		return t.cfg.DelayMin
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(window)+1))
	if err != nil {
		return t.cfg.DelayMin + window/2
	}
	return t.cfg.DelayMin + time.Duration(n.Int64())
}

// archivedToday reports whether lastArchive parses to a date that is
// not strictly before today's date. An unparseable value means the file
// was never archived.
func archivedToday(lastArchive string, now time.Time) bool {
	last, err := time.ParseInLocation(DateLayout, lastArchive, now.Location())
	if err != nil {
		return false
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := last.Date()
	today := time.Date(y1, m1, d1, 0, 0, 0, 0, now.Location())
	lastDay := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	return !today.After(lastDay)
}
