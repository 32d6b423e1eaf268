package archive_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artistgrid/gridtracker/internal/archive"
	"github.com/artistgrid/gridtracker/internal/hash/sha256"
	"github.com/artistgrid/gridtracker/internal/tracker"
)

type countingArchiver struct {
	mu    sync.Mutex
	calls []string
}

func (a *countingArchiver) Save(_ context.Context, publicURL string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, publicURL)
	return "https://archive/" + publicURL, nil
}

func TestPool(t *testing.T) {
	t.Run("RunsAllTasks", func(t *testing.T) {
		dir := t.TempDir()
		clk := fixedClock{t: time.Date(2026, 8, 23, 12, 0, 0, 0, time.Local)}
		arch := &countingArchiver{}
		pool := archive.NewPool(2, 8, zap.NewNop())
		pool.Start(context.Background())

		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			path := writeFile(t, dir, name, name)
			task := archive.NewTask(
				tracker.MaterializedFile{Path: path, PublicURL: "https://pub/" + name},
				archive.NewSidecarStore(),
				arch,
				sha256.New(),
				clk,
				archive.TaskConfig{},
				zap.NewNop(),
			)
			require.NoError(t, pool.Submit(context.Background(), task))
		}
		pool.Close()

		assert.Len(t, arch.calls, 3)
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			assert.FileExists(t, filepath.Join(dir, name+".meta"))
		}
	})

	t.Run("SubmitAfterCtxDone", func(t *testing.T) {
		pool := archive.NewPool(1, 1, zap.NewNop())
		// Never started, queue depth 1: the second submit blocks until ctx ends.
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, pool.Submit(ctx, &archive.Task{}))
		cancel()
		assert.Error(t, pool.Submit(ctx, &archive.Task{}))
	})
}
