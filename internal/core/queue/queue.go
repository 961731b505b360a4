package queue

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

// Executor applies one command to host state. It is the consumer side of
// the queue (the host command sink).
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd domain.Command) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, cmd domain.Command) error {
	return f(ctx, cmd)
}

// Observer receives queue lifecycle events, typically for metrics.
type Observer interface {
	CommandEnqueued(cmd domain.Command)
	CommandExecuted(cmd domain.Command, duration time.Duration, err error)
}

// DrainResult summarizes one DrainAndExecute call.
type DrainResult struct {
	Executed int
	Failed   int
}

// Queue is a FIFO of commands safe for many producers and one consumer.
type Queue struct {
	mu       sync.Mutex
	items    *list.List
	logger   *slog.Logger
	observer Observer
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for command failures.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithObserver sets the observer notified on enqueue and execution.
func WithObserver(o Observer) Option {
	return func(q *Queue) {
		q.observer = o
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		items:  list.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends cmd to the tail of the queue.
func (q *Queue) Enqueue(cmd domain.Command) {
	q.mu.Lock()
	q.items.PushBack(cmd)
	q.mu.Unlock()

	if q.observer != nil {
		q.observer.CommandEnqueued(cmd)
	}
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// TryDequeue pops the oldest pending command.
func (q *Queue) TryDequeue() (domain.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.items.Front()
	if front == nil {
		return domain.Command{}, false
	}
	q.items.Remove(front)
	return front.Value.(domain.Command), true
}

// Pending returns a copy of the pending commands, oldest first, without
// removing them.
func (q *Queue) Pending() []domain.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Command, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(domain.Command))
	}
	return out
}

// DrainAndExecute pops the commands pending at entry, oldest first, and
// runs each through exec. It must only be called from the host tick.
//
// Commands enqueued while draining wait for the next call, so a busy
// producer cannot keep one tick running. Errors and panics from a single
// command are logged and swallowed.
func (q *Queue) DrainAndExecute(ctx context.Context, exec Executor) DrainResult {
	var res DrainResult
	for n := q.Len(); n > 0; n-- {
		cmd, ok := q.TryDequeue()
		if !ok {
			break
		}

		start := time.Now()
		err := q.executeOne(ctx, exec, cmd)
		duration := time.Since(start)

		if err != nil {
			res.Failed++
			q.logger.Error("command execution failed",
				"command_id", cmd.ID,
				"path", cmd.Path(),
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
		} else {
			res.Executed++
			q.logger.Debug("command executed",
				"command_id", cmd.ID,
				"path", cmd.Path(),
				"queued_ms", start.Sub(cmd.EnqueuedAt).Milliseconds(),
			)
		}

		if q.observer != nil {
			q.observer.CommandExecuted(cmd, duration, err)
		}
	}
	return res
}

// executeOne runs exec for cmd, converting a panic into an error.
func (q *Queue) executeOne(ctx context.Context, exec Executor, cmd domain.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Debug("command panicked",
				"command_id", cmd.ID,
				"stack", string(debug.Stack()),
			)
			err = domain.ErrCommandExecution.WithDetails(fmt.Sprintf("%s: panic: %v", cmd.Path(), r))
		}
	}()

	if err := exec.Execute(ctx, cmd); err != nil {
		return domain.ErrCommandExecution.WithDetails(cmd.Path()).WithCause(err)
	}
	return nil
}
