// Package corework provides the bounded blocking-work dispatcher: a
// semaphore.Weighted bound over errgroup-style fan-out so disk I/O,
// compression, hashing, embedding, and index builds never exceed a
// configured concurrency ceiling.
package corework

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent blocking work. The zero value is not usable; use
// New.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a Pool that admits at most maxConcurrent blocking operations
// at once.
func New(maxConcurrent int64) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Run executes fn once the pool has a free slot, blocking until one is
// available or ctx is cancelled. This is the suspension point every L2
// access, compression pass, large-payload hash, and index (de)serialize
// goes through.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return ctx.Err()
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// RunAll fans work out across the pool and waits for all of it, returning
// the first error encountered (errgroup semantics).
func RunAll(ctx context.Context, p *Pool, jobs ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			return p.Run(gctx, job)
		})
	}
	return g.Wait()
}
