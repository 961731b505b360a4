package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
)

// State is the listener lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// Option configures a Server.
type Option func(*Server)

// WithReadTimeout bounds how long reading a request may take.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server is the bridge listener.
//
// It moves Stopped -> Starting -> Listening on Start and back to Stopped
// on Stop or on a failed bind. A stopped server can be started again.
type Server struct {
	addr        string
	handler     http.Handler
	readTimeout time.Duration
	logger      *slog.Logger

	mu         sync.Mutex
	state      State
	httpServer *http.Server
	listener   net.Listener
	served     chan struct{}
}

// New creates a stopped server for addr.
func New(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the address and begins serving in a background goroutine.
// A bind failure leaves the server stopped and returns a transport failure.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return domain.ErrListenerState.WithDetails(s.state.String())
	}
	s.state = StateStarting

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.state = StateStopped
		return domain.ErrTransportFailure.WithDetails(s.addr).WithCause(err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	served := make(chan struct{})

	s.httpServer = srv
	s.listener = ln
	s.served = served
	s.state = StateListening

	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("listener stopped unexpectedly", "addr", ln.Addr().String(), "error", err)
		}
	}()

	s.logger.Info("listener started", "addr", ln.Addr().String())
	return nil
}

// Stop closes the listener and waits for in-flight requests until ctx is
// done, then forces remaining connections closed. Calling Stop on a
// stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateListening {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		_ = s.httpServer.Close()
	}
	<-s.served

	s.logger.Info("listener stopped", "addr", s.listener.Addr().String())
	s.httpServer = nil
	s.listener = nil
	s.served = nil
	s.state = StateStopped

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTransportFailure.WithCause(err)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound address while listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
