package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/core/service"
	"github.com/vibesync/vibebridge/internal/telemetry/logger"
)

// Enqueuer accepts commands for the host tick.
type Enqueuer interface {
	Enqueue(cmd domain.Command)
}

// HostState is the read side of the host consulted by inline endpoints.
type HostState interface {
	Busy() bool
	MemoryBytes() uint64
	StateHash() string
	Commit() string
	Rollback() string
}

// HandshakeObserver is notified of committed handshakes.
type HandshakeObserver interface {
	ObserveHandshake(generation int64)
}

// Config holds the Handler dependencies.
type Config struct {
	Session   *domain.Session
	Handshake *service.HandshakeService
	Queue     Enqueuer
	Host      HostState
	Observer  HandshakeObserver // optional
	Logger    *slog.Logger

	EngineVersion string
	Capabilities  []string

	// Now defaults to time.Now.
	Now func() time.Time
}

type endpointFunc func(w http.ResponseWriter, r *http.Request, req *Request)

// Handler answers every whitelisted endpoint.
type Handler struct {
	cfg    Config
	inline map[domain.Endpoint]endpointFunc
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Capabilities = append([]string(nil), cfg.Capabilities...)

	h := &Handler{cfg: cfg}
	h.inline = map[domain.Endpoint]endpointFunc{
		domain.EndpointHealth:     h.health,
		domain.EndpointHandshake:  h.handshake,
		domain.EndpointMetrics:    h.metrics,
		domain.EndpointObjectLock: h.objectLock,
		domain.EndpointPanic:      h.pause,
		domain.EndpointValidate:   h.validate,
		domain.EndpointStateGet:   h.stateGet,
		domain.EndpointCommit:     h.commit,
		domain.EndpointRollback:   h.rollback,
	}
	return h
}

// ServeHTTP implements http.Handler. The request must carry a *Request
// attached by the gate; one without it is treated as an unlisted path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFromContext(r.Context())
	if !ok {
		WriteError(w, domain.ErrPathRejected)
		return
	}

	if fn, ok := h.inline[req.Endpoint]; ok {
		fn(w, r, req)
		return
	}
	h.enqueue(w, r, req)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return h.cfg.Logger.With("request_id", id)
	}
	return h.cfg.Logger
}

// submit enqueues a command for req and returns its ID.
func (h *Handler) submit(r *http.Request, req *Request) string {
	cmd := domain.NewCommand(req.Endpoint, req.Body, h.cfg.Now())
	h.cfg.Queue.Enqueue(cmd)
	h.log(r).Debug("command enqueued",
		"command_id", cmd.ID,
		"path", cmd.Path(),
		"bytes", len(cmd.Payload),
	)
	return cmd.ID
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, req *Request) {
	id := h.submit(r, req)
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: StatusQueued, CommandID: id})
}
