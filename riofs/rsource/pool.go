package rsource

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"
)

// Pool is the bounded thread-pool executor of spec §5: each worker slot
// processes one request at a time; tasks are submitted as futures (here,
// goroutines writing into an rbytes.Chunk). Pools run I/O only;
// decompression does not go through a Pool.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool that runs at most size tasks concurrently.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Go runs fn in a pool goroutine once a slot is free, under spec §5's
// per-request timeout, and reports its completion via the returned
// channel. fn runs once: avast/retry-go is set to a single attempt, so a
// failure is not retried.
func (p *Pool) Go(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			done <- err
			return
		}
		defer p.sem.Release(1)

		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := retry.Do(
			func() error { return fn(cctx) },
			retry.Context(cctx),
			retry.Attempts(1), // spec: "no mid-stream cancellation of an in-flight chunk"; single attempt per request, so OnRetry never fires.
			retry.OnRetry(func(n uint, err error) {
				klog.V(2).Infof("rsource: retrying fetch (attempt %d): %v", n, err)
			}),
		)
		done <- err
	}()
	return done
}

// GoGroup runs n independent tasks, indexed 0..n-1, bounded by the pool's
// concurrency limit, and waits for all of them; the first error observed
// is returned after every task has finished or been canceled.
func (p *Pool) GoGroup(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		if err := p.sem.Acquire(gctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
