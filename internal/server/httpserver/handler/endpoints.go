package handler

import (
	"net/http"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/host"
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request, _ *Request) {
	status := StatusOK
	if h.cfg.Host.Busy() {
		status = StatusBusy
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Generation: h.cfg.Session.Generation(),
	})
}

func (h *Handler) handshake(w http.ResponseWriter, r *http.Request, req *Request) {
	res, err := h.cfg.Handshake.Handshake(req.Body)
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.cfg.Observer != nil {
		h.cfg.Observer.ObserveHandshake(res.Generation)
	}
	h.log(r).Info("handshake committed",
		"generation", res.Generation,
		"rotated", res.Rotated,
	)

	writeJSON(w, http.StatusOK, HandshakeResponse{
		Status:        StatusHandshake,
		EngineVersion: h.cfg.EngineVersion,
		Capabilities:  h.cfg.Capabilities,
		Generation:    res.Generation,
		Response:      res.Response,
	})
}

func (h *Handler) metrics(w http.ResponseWriter, _ *http.Request, _ *Request) {
	writeJSON(w, http.StatusOK, MetricsResponse{
		Memory:     h.cfg.Host.MemoryBytes(),
		IsHostBusy: h.cfg.Host.Busy(),
	})
}

// objectLock validates the payload here so a malformed lock is rejected
// synchronously; the lock itself is applied on the host tick.
func (h *Handler) objectLock(w http.ResponseWriter, r *http.Request, req *Request) {
	if _, err := host.ParseLock(req.Body); err != nil {
		WriteError(w, domain.ErrMalformedRequest.WithCause(err))
		return
	}
	id := h.submit(r, req)
	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusOK, CommandID: id})
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request, req *Request) {
	id := h.submit(r, req)
	h.log(r).Warn("panic requested", "command_id", id)
	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusLocked, CommandID: id})
}

func (h *Handler) validate(w http.ResponseWriter, _ *http.Request, _ *Request) {
	writeJSON(w, http.StatusOK, HashResponse{Status: StatusValid, Hash: h.cfg.Host.StateHash()})
}

func (h *Handler) stateGet(w http.ResponseWriter, _ *http.Request, _ *Request) {
	writeJSON(w, http.StatusOK, HashResponse{Hash: h.cfg.Host.StateHash()})
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request, _ *Request) {
	hash := h.cfg.Host.Commit()
	h.log(r).Info("state committed", "hash", hash)
	writeJSON(w, http.StatusOK, HashResponse{Status: StatusCommitted, Hash: hash})
}

func (h *Handler) rollback(w http.ResponseWriter, r *http.Request, _ *Request) {
	hash := h.cfg.Host.Rollback()
	h.log(r).Info("state rolled back", "hash", hash)
	writeJSON(w, http.StatusOK, HashResponse{Status: StatusRolledBack, Hash: hash})
}
