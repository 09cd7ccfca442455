// Package workerpool provides a bounded, named, cancellable background task
// executor. Pools are supervised by a suture.Supervisor: a worker goroutine
// that panics or returns an error is restarted automatically, while the
// pool's own submit/cancel_all/shutdown contract stays independent of
// suture's restart policy.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/fastanime/fastanime-core/internal/apperrors"
	"github.com/fastanime/fastanime-core/internal/logging"
)

// supervisorEventHook routes suture's internal restart/backoff events
// through the same slog bridge every pool shares, so a flapping worker
// shows up in the regular log stream instead of only suture's defaults.
var supervisorEventHook = (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()

// ErrNotRunning is returned by Submit when the pool is stopped or shutting down.
var ErrNotRunning = apperrors.ErrNotRunning

// Outcome is the terminal state of a completed task.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeError
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a unit of work submitted to a Pool. It receives a context carrying
// the pool's lifetime and must check ctx.Err() at its own cancellation
// points; a task that has not yet started when cancelled MUST NOT run.
type Task func(ctx context.Context) (any, error)

// CompletionFunc is invoked exactly once per task, with its final outcome.
type CompletionFunc func(handle *Handle, outcome Outcome, value any, err error)

// Handle represents a submitted task. It can be cancelled and its
// completion observed.
type Handle struct {
	id        uint64
	cancel    context.CancelFunc
	done      chan struct{}
	outcome   atomic.Value // Outcome
	value     any
	err       error
	mu        sync.Mutex
	startedAt atomic.Bool
}

// Cancel requests cancellation of the task. If the task has not yet begun
// executing, it will never run.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done returns a channel closed when the task reaches a terminal outcome.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the task's outcome, value, and error. Only valid after
// Done() is closed.
func (h *Handle) Result() (Outcome, any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, _ := h.outcome.Load().(Outcome)
	return o, h.value, h.err
}

type queuedTask struct {
	task     Task
	handle   *Handle
	ctx      context.Context
	complete CompletionFunc
}

// Pool is a bounded, cancellable background task executor.
type Pool struct {
	name       string
	maxWorkers int

	mu      sync.Mutex
	running bool
	queue   chan *queuedTask
	handles map[uint64]*Handle
	nextID  uint64

	supervisor *suture.Supervisor
	cancelAll  context.CancelFunc
	workerCtx  context.Context

	onComplete   CompletionFunc
	totalSubmits atomic.Int64
}

// NewPool creates a pool with the given name and fixed worker width. The
// pool does not accept tasks until Start is called.
func NewPool(name string, maxWorkers int, onComplete CompletionFunc) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{
		name:       name,
		maxWorkers: maxWorkers,
		handles:    make(map[uint64]*Handle),
		onComplete: onComplete,
	}
}

// Start transitions the pool from stopped to running, spinning up
// maxWorkers supervised worker goroutines. Calling Start on an already
// running pool is a no-op that logs a warning.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		logging.Warn().Str("pool", p.name).Msg("worker pool already running")
		return
	}

	p.queue = make(chan *queuedTask, p.maxWorkers*4)
	workerCtx, cancel := context.WithCancel(ctx)
	p.workerCtx = workerCtx
	p.cancelAll = cancel

	p.supervisor = suture.New(p.name, suture.Spec{EventHook: supervisorEventHook})
	for i := 0; i < p.maxWorkers; i++ {
		p.supervisor.Add(&worker{id: i, pool: p})
	}
	go p.supervisor.ServeBackground(workerCtx) //nolint:errcheck

	p.running = true
}

// Submit enqueues a task for execution. Returns ErrNotRunning if the pool
// is stopped or shutting down.
func (p *Pool) Submit(task Task) (*Handle, error) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil, ErrNotRunning
	}
	id := p.nextID
	p.nextID++

	taskCtx, cancel := context.WithCancel(p.workerCtx)
	handle := &Handle{id: id, cancel: cancel, done: make(chan struct{})}
	p.handles[id] = handle
	p.mu.Unlock()

	p.totalSubmits.Add(1)

	qt := &queuedTask{task: task, handle: handle, ctx: taskCtx, complete: p.onComplete}

	select {
	case p.queue <- qt:
		return handle, nil
	case <-taskCtx.Done():
		p.finish(handle, OutcomeCancelled, nil, nil)
		return handle, nil
	}
}

// TotalSubmits returns the cumulative number of tasks ever submitted to
// this pool, regardless of their current or final outcome.
func (p *Pool) TotalSubmits() int64 {
	return p.totalSubmits.Load()
}

// CancelAll marks every queued and in-flight task as cancelled. Returns the
// number of handles cancelled.
func (p *Pool) CancelAll() int {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.handles))
	for _, h := range p.handles {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	n := 0
	for _, h := range handles {
		select {
		case <-h.done:
			// already terminal
		default:
			h.Cancel()
			n++
		}
	}
	return n
}

// Shutdown stops accepting new tasks. If wait is true, blocks up to timeout
// for in-flight and queued tasks to drain; on timeout, escalates to
// CancelAll. After Shutdown returns, the pool cannot be reused.
func (p *Pool) Shutdown(wait bool, timeout time.Duration) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	if wait {
		deadline := time.After(timeout)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

	waitLoop:
		for {
			select {
			case <-deadline:
				p.CancelAll()
				break waitLoop
			case <-ticker.C:
				if p.activeCount() == 0 {
					break waitLoop
				}
			}
		}
	} else {
		p.CancelAll()
	}

	p.cancelAll()
}

func (p *Pool) activeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	active := 0
	for _, h := range p.handles {
		select {
		case <-h.done:
		default:
			active++
		}
	}
	return active
}

func (p *Pool) finish(h *Handle, outcome Outcome, value any, err error) {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return
	default:
	}
	h.outcome.Store(outcome)
	h.value = value
	h.err = err
	close(h.done)
	h.mu.Unlock()

	p.mu.Lock()
	delete(p.handles, h.id)
	complete := p.onComplete
	p.mu.Unlock()

	if complete != nil {
		complete(h, outcome, value, err)
	}
}

// worker is a suture.Service draining the pool's task queue.
type worker struct {
	id   int
	pool *Pool
}

func (w *worker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case qt, ok := <-w.pool.queue:
			if !ok {
				return nil
			}
			w.run(qt)
		}
	}
}

func (w *worker) run(qt *queuedTask) {
	select {
	case <-qt.ctx.Done():
		w.pool.finish(qt.handle, OutcomeCancelled, nil, nil)
		return
	default:
	}

	value, err := qt.task(qt.ctx)

	if qt.ctx.Err() != nil {
		w.pool.finish(qt.handle, OutcomeCancelled, nil, nil)
		return
	}
	if err != nil {
		w.pool.finish(qt.handle, OutcomeError, nil, err)
		return
	}
	w.pool.finish(qt.handle, OutcomeOK, value, nil)
}

func (w *worker) String() string {
	return fmt.Sprintf("%s-worker-%d", w.pool.name, w.id)
}
