package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(5*time.Second, quiet())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"loop", "listener", "metrics"} {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	want := []string{"metrics", "listener", "loop"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Shutdown")
	}
}

func TestHandler_ShutdownRunsOnce(t *testing.T) {
	h := NewHandler(time.Second, quiet())
	calls := 0
	h.OnShutdown("count", func(context.Context) error {
		calls++
		return nil
	})

	_ = h.Shutdown()
	_ = h.Shutdown()
	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
}

func TestHandler_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, quiet())
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	h.OnShutdown("last", func(context.Context) error { ran = true; return nil })
	h.OnShutdown("b", func(context.Context) error { return errB })
	h.OnShutdown("a", func(context.Context) error { return errA })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if !ran {
		t.Error("a failing hook stopped later hooks")
	}
}

func TestHandler_HookContextHasDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, quiet())
	h.OnShutdown("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		<-ctx.Done()
		return nil
	})

	start := time.Now()
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("hook context did not time out")
	}
}

func TestHandler_WaitContextCancel(t *testing.T) {
	h := NewHandler(time.Second, quiet())
	ran := make(chan struct{})
	h.OnShutdown("x", func(context.Context) error { close(ran); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after cancel")
	}
	<-ran
}

func TestHandler_WaitSignal(t *testing.T) {
	h := NewHandler(time.Second, quiet())
	ran := make(chan struct{})
	h.OnShutdown("x", func(context.Context) error { close(ran); return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete after SIGTERM")
	}
	<-ran
}

func TestHandler_WaitAfterShutdown(t *testing.T) {
	h := NewHandler(time.Second, quiet())
	_ = h.Shutdown()

	done := make(chan struct{})
	go func() {
		_ = h.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait() blocked after Shutdown")
	}
}
