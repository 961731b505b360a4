package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook is a named cleanup step.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Handler runs registered hooks in reverse registration order.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []Hook

	once sync.Once
	err  error
	done chan struct{}
}

// NewHandler creates a handler whose hooks share a timeout budget.
func NewHandler(timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Fn: fn})
}

// Wait blocks until a termination signal arrives or ctx ends, then runs
// the hooks. It returns the joined hook errors.
func (h *Handler) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
	case <-h.done:
		return h.err
	}
	h.logger.Info("shutdown signal received")
	return h.Shutdown()
}

// Shutdown runs the hooks once. Later calls return the first result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]Hook(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			hook := hooks[i]
			start := time.Now()
			if err := hook.Fn(ctx); err != nil {
				h.logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
				errs = append(errs, err)
				continue
			}
			h.logger.Debug("shutdown hook done", "hook", hook.Name,
				"duration_ms", time.Since(start).Milliseconds())
		}

		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Done is closed once all hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
