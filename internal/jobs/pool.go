package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// Dispatcher hands a task to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) error
}

var errPoolClosed = errors.New("job pool closed")

// Pool runs tasks on a fixed number of workers fed by a bounded queue.
type Pool struct {
	runner *Runner
	tasks  chan Task

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	// base outlives request contexts so an LLM call keeps running after the
	// client disconnects.
	base   context.Context
	cancel context.CancelFunc
}

// NewPool starts workers goroutines reading from a queue of size queue.
func NewPool(runner *Runner, workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	base, cancel := context.WithCancel(context.Background())
	p := &Pool{runner: runner, tasks: make(chan Task, queue), base: base, cancel: cancel}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Dispatch enqueues task without blocking. It returns ErrQueueFull when the
// queue has no room.
func (p *Pool) Dispatch(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errPoolClosed
	}
	select {
	case p.tasks <- task:
		metrics.SetQueueDepth(len(p.tasks))
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		metrics.SetQueueDepth(len(p.tasks))
		if err := p.runner.Run(p.base, task); err != nil {
			telemetry.Error("job.record_failed", map[string]any{"job_id": task.JobID, "error": err.Error()})
		}
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When ctx
// expires first, in-flight calls are cancelled and ctx.Err is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

var _ Dispatcher = (*Pool)(nil)
