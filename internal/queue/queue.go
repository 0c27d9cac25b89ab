package queue

import (
	"context"

	"github.com/rootfleet/waitlist/internal/domain"
)

// WorkQueue is the FIFO that decouples signup requests from email delivery.
// Implementations must be safe for concurrent Push/Pop from several drains.
type WorkQueue interface {
	Push(ctx context.Context, job domain.Job) error
	// Pop removes the oldest job. It returns (nil, nil) when the queue is empty
	// and never blocks waiting for new work.
	Pop(ctx context.Context) (*domain.Job, error)
	Length(ctx context.Context) (int64, error)
}
