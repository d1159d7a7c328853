package workqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown"
)

// Task is a unit of work executed by a worker.
type Task = func(ctx context.Context)

// Queue is a bounded task queue drained by a fixed pool of workers.
// Delayed tasks are held in timers until they are due.
type Queue struct {
	logger  *slog.Logger
	workers int
	tasks   chan Task

	mu     sync.Mutex
	timers map[uint64]*time.Timer
	nextID uint64

	ready      chan struct{}
	quit       chan struct{}
	doneCh     chan struct{}
	started    atomic.Bool
	inShutdown atomic.Bool
}

// New creates a queue with the given number of workers and buffer size
func New(logger *slog.Logger, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}

	if size < 1 {
		size = 1
	}

	return &Queue{
		logger:  logger,
		workers: workers,
		tasks:   make(chan Task, size),
		timers:  make(map[uint64]*time.Timer),
		ready:   make(chan struct{}),
		quit:    make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Queue)(nil)

// Name returns the name of the work queue component
func (q *Queue) Name() string {
	return "work-queue"
}

// Start launches the workers. Cancelling ctx does not stop them.
func (q *Queue) Start(ctx context.Context) error {
	if q.inShutdown.Load() {
		q.logger.InfoContext(ctx, "work queue is shutting down, skipping start")

		return nil
	}

	if !q.started.CompareAndSwap(false, true) {
		return nil
	}

	// workers outlive the start context; only Shutdown stops them so that
	// buffered tasks are always drained
	go q.run(context.WithoutCancel(ctx))

	return nil
}

// Ready returns a channel that is closed when the workers are running
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Ping reports whether the queue accepts new tasks
func (q *Queue) Ping(_ context.Context) error {
	if q.inShutdown.Load() {
		return ErrQueueClosed
	}

	if len(q.tasks) == cap(q.tasks) {
		return ErrQueueFull
	}

	return nil
}

// PingerReadyCritical marks the queue as non-critical for readiness:
// a saturated buffer recovers on its own.
func (q *Queue) PingerReadyCritical() bool {
	return false
}

// Len returns the number of buffered tasks
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Pending returns the number of delayed tasks not yet due
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.timers)
}

// Submit buffers a task for immediate execution without blocking.
func (q *Queue) Submit(task func(ctx context.Context)) error {
	if q.inShutdown.Load() {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAfter buffers a task once delay has elapsed. When the buffer is full
// at that moment the timer waits for a free slot or for shutdown.
func (q *Queue) SubmitAfter(delay time.Duration, task func(ctx context.Context)) error {
	if q.inShutdown.Load() {
		return ErrQueueClosed
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++

	q.timers[id] = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, id)
		q.mu.Unlock()

		select {
		case q.tasks <- task:
		case <-q.quit:
			q.logger.Debug("work queue closed, dropping delayed task")
		}
	})

	return nil
}

// Shutdown stops pending timers, drains buffered tasks and waits for the
// workers to exit
func (q *Queue) Shutdown(ctx context.Context) error {
	if !q.inShutdown.CompareAndSwap(false, true) {
		q.logger.ErrorContext(ctx, "work queue is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		q.logger.InfoContext(ctx, "work queue shut downed")
	}()

	q.logger.InfoContext(ctx, "shutting down work queue")

	q.mu.Lock()

	dropped := 0

	for id, timer := range q.timers {
		if timer.Stop() {
			dropped++
		}

		delete(q.timers, id)
	}

	q.mu.Unlock()

	if dropped > 0 {
		q.logger.WarnContext(ctx, "dropped delayed tasks", "count", dropped)
	}

	close(q.quit)

	if !q.started.Load() {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before workers exited: %w", ctx.Err())
	case <-q.doneCh:
		q.logger.InfoContext(ctx, "workers exited")
	}

	return nil
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.doneCh)

	g, gctx := errgroup.WithContext(ctx)

	for i := range q.workers {
		g.Go(func() error {
			q.work(gctx, q.logger.With("component", "work-queue-worker", "worker", i))

			return nil
		})
	}

	close(q.ready)

	_ = g.Wait()
}

func (q *Queue) work(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case task := <-q.tasks:
			q.execute(ctx, logger, task)
		case <-q.quit:
			q.drain(ctx, logger)

			return
		}
	}
}

// drain runs whatever is still buffered once shutdown has begun.
func (q *Queue) drain(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case task := <-q.tasks:
			q.execute(ctx, logger, task)
		default:
			return
		}
	}
}

func (q *Queue) execute(ctx context.Context, logger *slog.Logger, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "task panicked", "reason", r)
		}
	}()

	task(ctx)
}
