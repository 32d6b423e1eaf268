package archive

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Pool runs archival tasks on a bounded set of workers. Each file's
// task stays independent, but the number of concurrent submissions to
// the external archive is capped.
type Pool struct {
	tasks   chan *Task
	workers int
	logger  *zap.Logger

	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a Pool with the given worker count and queue depth.
func NewPool(workers, queueDepth int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = workers
	}
	return &Pool{
		tasks:   make(chan *Task, queueDepth),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. They drain tasks until Close is called
// and finish in-flight work before exiting; ctx cancellation aborts a
// task's delay and submission.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for task := range p.tasks {
					state, err := task.Run(ctx)
					if err != nil {
						p.logger.Warn("archive task ended abnormally",
							zap.String("state", string(state)),
							zap.Error(err),
						)
					}
				}
			}()
		}
	})
}

// Submit queues a task, blocking until there is room or ctx finishes.
func (p *Pool) Submit(ctx context.Context, task *Task) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("archive pool submit: %w", ctx.Err())
	}
}

// Close stops accepting tasks and waits for the workers to drain.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
