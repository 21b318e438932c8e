// Package worker persists computed points onto athlete records in the
// background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/klv/internal/adapters/mq/queue"
	"github.com/okian/klv/internal/adapters/repository"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Updater applies an atomic read-modify-write to one athlete record.
type Updater interface {
	Update(ctx context.Context, key string, fn func(*model.Athlete) error) (model.Athlete, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes write-back jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker on top of a Queue and an Updater.
type InMemoryWorker struct {
	queue   Queue
	updater Updater
	name    string

	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		updater:   updater,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Processed reports how many jobs this worker has applied.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "write-back failed",
					logger.String("athlete", j.AthleteKey),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process stores the job's score on the athlete. A score older than the one
// already stored is skipped, so out-of-order jobs never roll points back.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWriteBack(float64(time.Since(start).Milliseconds()), err)
	}()

	_, err = w.updater.Update(ctx, j.AthleteKey, func(a *model.Athlete) error {
		if a.Stored != nil && a.Stored.ComputedAt.After(j.Score.ComputedAt) {
			return nil
		}
		s := j.Score.Clone()
		a.Stored = &s
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// Athlete deleted after the points run.
		w.logger.Debug(ctx, "athlete gone, skipping write-back", logger.String("athlete", j.AthleteKey))
		metrics.RecordErrorByComponent("worker", "athlete_gone")
		err = nil
	case err != nil:
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("write-back %s: %w", j.AthleteKey, err)
	}

	w.processed.Add(1)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to NumCPU.
func NewPool(workerCount int, q Queue, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, updater, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs applied by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits a bounded time for each.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerCount(0)
}

// Shutdown closes the queue so workers drain what is left, then waits for
// them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
