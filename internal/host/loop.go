package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vibesync/vibebridge/internal/core/queue"
)

// DefaultTickInterval is the frame loop period.
const DefaultTickInterval = 100 * time.Millisecond

// Loop is the host's single-threaded frame tick. It is the only caller of
// queue.DrainAndExecute.
type Loop struct {
	queue    *queue.Queue
	exec     queue.Executor
	interval time.Duration
	logger   *slog.Logger
	setBusy  func(bool)

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLoopLogger sets the logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBusyHook is called with true before each non-empty drain and false after.
func WithBusyHook(fn func(bool)) LoopOption {
	return func(l *Loop) {
		l.setBusy = fn
	}
}

// NewLoop creates a stopped frame loop draining q into exec.
func NewLoop(q *queue.Queue, exec queue.Executor, opts ...LoopOption) *Loop {
	l := &Loop{
		queue:    q,
		exec:     exec,
		interval: DefaultTickInterval,
		logger:   slog.Default(),
		setBusy:  func(bool) {},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.setBusy == nil {
		l.setBusy = func(bool) {}
	}
	return l
}

// Start launches the tick goroutine. Calling Start more than once is a no-op.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.logger.Info("host frame loop started", "interval", l.interval)
		go l.run()
	})
}

// Tick drains the queue once on the calling goroutine. Callers must not
// run Tick concurrently with a started loop.
func (l *Loop) Tick(ctx context.Context) queue.DrainResult {
	if l.queue.Len() == 0 {
		return queue.DrainResult{}
	}
	l.setBusy(true)
	defer l.setBusy(false)
	return l.queue.DrainAndExecute(ctx, l.exec)
}

// Stop halts the tick goroutine and waits for the current tick to finish.
// It is safe to call more than once. A loop stopped before Start never runs.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	l.startOnce.Do(func() {
		close(l.doneCh)
	})
	<-l.doneCh
}

func (l *Loop) run() {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-ticker.C:
			res := l.Tick(ctx)
			if res.Failed > 0 {
				l.logger.Warn("host tick had failures",
					"executed", res.Executed,
					"failed", res.Failed)
			}
		case <-l.stopCh:
			l.logger.Info("host frame loop stopped")
			return
		}
	}
}
