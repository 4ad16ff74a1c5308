// Package worker runs queued story jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/storyloom/internal/adapters/mq/queue"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// Runner executes one queued task. Errors are logged and counted; the
// runner owns recording the outcome on the job itself.
type Runner interface {
	Run(ctx context.Context, task queue.Task) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, task queue.Task) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, task queue.Task) error { return f(ctx, task) }

// Source is the consuming side of a queue.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker pulls tasks from a Source until it is drained or stopped.
type Worker struct {
	source Source
	runner Runner
	name   string
	logger logger.Logger

	done chan struct{}
}

// New creates a worker.
func New(source Source, runner Runner, opts ...Option) *Worker {
	w := &Worker{
		source: source,
		runner: runner,
		name:   "worker",
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes tasks until the source closes or ctx ends.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, task)
		}
	}
}

// Done is closed once Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, task queue.Task) {
	start := time.Now()
	metrics.UpdateWorkerBusyCount(1)
	defer func() {
		metrics.UpdateWorkerBusyCount(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx = logger.WithContext(ctx, logger.String("jobID", task.JobID), logger.String("worker", w.name))
	if err := w.runner.Run(ctx, task); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "run_error")
		w.logger.Error(ctx, "job run failed", logger.Error(err))
	}
}

// Pool manages a set of workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Source
	logger  logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPool creates count workers. A count below one uses runtime.NumCPU().
func NewPool(count int, q Source, runner Runner, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, count),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = New(q, runner, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker. Runs inherit ctx.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and lets workers drain it. When ctx ends first,
// in-flight runs are cancelled and Shutdown returns the context error.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	defer func() {
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.mu.Unlock()
		metrics.UpdateWorkerActiveCount(0)
	}()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
