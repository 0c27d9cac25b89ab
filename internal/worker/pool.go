package worker

import (
	"context"
	"sync"
)

// Runner is a background loop that returns once ctx is cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// Pool manages the lifecycle of the background loops started by the server
// (cron drain and due-retry sweeper).
type Pool struct {
	runners []Runner
	wg      sync.WaitGroup
}

func NewPool(runners ...Runner) *Pool {
	return &Pool{runners: runners}
}

// Start launches every runner as a goroutine.
// Cancelling ctx triggers a graceful shutdown of the whole pool.
func (p *Pool) Start(ctx context.Context) {
	for _, r := range p.runners {
		p.wg.Add(1)
		go func(r Runner) {
			defer p.wg.Done()
			r.Run(ctx)
		}(r)
	}
}

// Wait blocks until every runner has returned after ctx is cancelled.
// Call this after cancelling the context so an in-flight drain can finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
