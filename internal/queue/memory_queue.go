package queue

import (
	"context"

	"github.com/rootfleet/waitlist/internal/domain"
)

// DefaultMemoryCapacity bounds MemoryQueue when no capacity is given.
const DefaultMemoryCapacity = 5000

// MemoryQueue is a bounded in-process FIFO backed by a buffered channel.
// It serves local development and tests; production uses RedisQueue so that
// queued jobs survive restarts and are shared between processes.
type MemoryQueue struct {
	jobs chan domain.Job
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryQueue{jobs: make(chan domain.Job, capacity)}
}

// Push is non-blocking: if the buffer is full, ErrQueueFull is returned
// immediately rather than blocking the caller.
func (q *MemoryQueue) Push(ctx context.Context, job domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Pop returns (nil, nil) when nothing is waiting.
func (q *MemoryQueue) Pop(ctx context.Context) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case job := <-q.jobs:
		return &job, nil
	default:
		return nil, nil
	}
}

func (q *MemoryQueue) Length(_ context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}

// compile-time check that MemoryQueue implements WorkQueue
var _ WorkQueue = (*MemoryQueue)(nil)
