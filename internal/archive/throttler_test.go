package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/archive"
	"github.com/artistgrid/gridtracker/internal/hash/sha256"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeArchiver struct {
	calls []string
	err   error
}

func (a *fakeArchiver) Save(_ context.Context, publicURL string) (string, error) {
	a.calls = append(a.calls, publicURL)
	if a.err != nil {
		return "", a.err
	}
	return "https://web.archive.org/web/20260823000000/" + publicURL, nil
}

func newTask(t *testing.T, file tracker.MaterializedFile, arch tracker.Archiver, clk tracker.Clock) *archive.Task {
	t.Helper()
	return archive.NewTask(
		file,
		archive.NewSidecarStore(),
		arch,
		sha256.New(),
		clk,
		archive.TaskConfig{DelayMin: 0, DelayMax: 0},
		zap.NewNop(),
	)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTaskRun(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 0, 0, 0, time.Local)
	clk := fixedClock{t: now}

	t.Run("SkippedWhenArchivedToday", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")
		store := archive.NewSidecarStore()
		require.NoError(t, store.Save(path, archive.Metadata{SHA256: "stale", LastArchive: "2026-08-23"}))

		arch := &fakeArchiver{}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"}, arch, clk).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, archive.StateSkipped, state)
		assert.Empty(t, arch.calls, "no external call on skip")
	})

	t.Run("RecordedOnSuccess", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")

		arch := &fakeArchiver{}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"}, arch, clk).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, archive.StateRecorded, state)
		assert.Equal(t, []string{"https://pub/a.txt"}, arch.calls)

		meta, err := archive.NewSidecarStore().Load(path)
		require.NoError(t, err)
		assert.Equal(t, "2026-08-23", meta.LastArchive)

		wantSHA, err := sha256.New().HashFile(path)
		require.NoError(t, err)
		assert.Equal(t, wantSHA, meta.SHA256)
	})

	t.Run("YesterdayIsEligibleAgain", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")
		store := archive.NewSidecarStore()
		require.NoError(t, store.Save(path, archive.Metadata{SHA256: "old", LastArchive: "2026-08-22"}))

		arch := &fakeArchiver{}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"}, arch, clk).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, archive.StateRecorded, state)
		assert.Len(t, arch.calls, 1)
	})

	t.Run("UnparseableDateMeansNeverArchived", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")
		store := archive.NewSidecarStore()
		require.NoError(t, store.Save(path, archive.Metadata{SHA256: "old", LastArchive: "not-a-date"}))

		arch := &fakeArchiver{}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"}, arch, clk).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, archive.StateRecorded, state)
	})

	t.Run("FailedSubmissionPersistsNothing", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")

		arch := &fakeArchiver{err: errors.New("rate limited")}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"}, arch, clk).Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, archive.StateFailed, state)

		meta, loadErr := archive.NewSidecarStore().Load(path)
		require.NoError(t, loadErr)
		assert.Equal(t, archive.Metadata{}, meta, "failure must leave no record")
	})

	t.Run("MissingFileFails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone.txt")
		arch := &fakeArchiver{}
		state, err := newTask(t, tracker.MaterializedFile{Path: path, PublicURL: "https://pub/gone.txt"}, arch, clk).Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, archive.StateFailed, state)
		assert.Empty(t, arch.calls)
	})

	t.Run("CanceledDuringWait", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "a.txt", "content")

		task := archive.NewTask(
			tracker.MaterializedFile{Path: path, PublicURL: "https://pub/a.txt"},
			archive.NewSidecarStore(),
			&fakeArchiver{},
			sha256.New(),
			clk,
			archive.TaskConfig{DelayMin: time.Hour, DelayMax: time.Hour},
			zap.NewNop(),
		)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		state, err := task.Run(ctx)
		require.Error(t, err)
		assert.Equal(t, archive.StateWaiting, state)
	})
}
