/*
Package workerpool implements the bounded, cancellable background task
executor used by the preview cache and the download queue.

A Pool must be started before it accepts tasks:

	pool := workerpool.NewPool("preview-media", 4, onComplete)
	pool.Start(ctx)
	handle, err := pool.Submit(func(ctx context.Context) (any, error) {
	    return fetchAndCache(ctx, url)
	})

Submit returns ErrNotRunning once the pool has been shut down. CancelAll
marks every queued and in-flight task cancelled without executing tasks
that have not yet started. Shutdown drains gracefully up to a timeout,
escalating to CancelAll if the deadline is reached.

Each pool is backed by a suture.Supervisor: a worker goroutine that panics
is restarted automatically, while the submit/cancel/shutdown contract seen
by callers is independent of suture's own restart policy.

A ThreadManager registers pools by name so the session engine can shut
down every worker pool in the process with one call, regardless of which
subsystem created it.
*/
package workerpool
