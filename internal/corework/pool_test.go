package corework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunExecutesWork(t *testing.T) {
	pool := New(2)
	ran := false
	err := pool.Run(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestRunPropagatesError(t *testing.T) {
	pool := New(1)
	want := errors.New("boom")
	err := pool.Run(context.Background(), func(ctx context.Context) error { return want })
	require.ErrorIs(t, err, want)
}

func TestRunRespectsCancellation(t *testing.T) {
	pool := New(1)

	release := make(chan struct{})
	go func() {
		_ = pool.Run(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(20 * time.Millisecond) // let the goroutine take the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := pool.Run(ctx, func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestRunAllBoundsConcurrency(t *testing.T) {
	pool := New(2)

	var active, peak atomic.Int64
	jobs := make([]func(ctx context.Context) error, 8)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		}
	}

	require.NoError(t, RunAll(context.Background(), pool, jobs...))
	require.LessOrEqual(t, peak.Load(), int64(2))
}
