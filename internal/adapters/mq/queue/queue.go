// Package queue defines the contract for enqueuing and consuming point
// write-back jobs.
package queue

import (
	"context"
	"sync"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Job carries one computed score to be persisted onto an athlete record.
type Job struct {
	AthleteKey string
	Score      model.StoredScore
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full or closed and the job was not enqueued.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of queued jobs.
	Capacity() int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs       chan Job
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.jobs = make(chan Job, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a job to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.jobs) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateQueueSize(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting jobs. Already queued jobs are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
