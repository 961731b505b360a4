package handler

// HealthResponse is the body for /health.
type HealthResponse struct {
	Status     string `json:"status"` // "ok" or "busy"
	Generation int64  `json:"generation"`
}

// HandshakeResponse is the body for /handshake.
type HandshakeResponse struct {
	Status        string   `json:"status"`
	EngineVersion string   `json:"engine_version"`
	Capabilities  []string `json:"capabilities"`
	Generation    int64    `json:"generation"`
	Response      string   `json:"response"`
}

// MetricsResponse is the body for /metrics.
type MetricsResponse struct {
	Memory     uint64 `json:"memory"`
	IsHostBusy bool   `json:"is_host_busy"`
}

// StatusResponse acknowledges /object/lock, /panic and queued commands.
type StatusResponse struct {
	Status    string `json:"status"`
	CommandID string `json:"command_id,omitempty"`
}

// HashResponse is the body for /validate, /state/get, /commit and /rollback.
type HashResponse struct {
	Status string `json:"status,omitempty"`
	Hash   string `json:"hash"`
}

// ErrorResponse is the body of every rejection.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`

	// Set only for generation drift.
	Engine   *int64 `json:"engine,omitempty"`
	Received *int64 `json:"received,omitempty"`
}

// Status values.
const (
	StatusOK         = "ok"
	StatusBusy       = "busy"
	StatusHandshake  = "OK"
	StatusLocked     = "locked"
	StatusQueued     = "queued"
	StatusValid      = "OK"
	StatusCommitted  = "committed"
	StatusRolledBack = "rolled_back"
)
