package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/vibesync/vibebridge/internal/core/service"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Authenticator validates every endpoint except /health.
	Authenticator *service.Authenticator

	// Handler answers authenticated requests.
	Handler http.Handler

	// Observer receives request metrics. Optional.
	Observer RequestObserver

	// Logger for request logging.
	Logger *slog.Logger

	// MaxBodyBytes caps request bodies. Zero means unlimited.
	MaxBodyBytes int64

	// RateLimit is the global request rate in requests/second. Zero disables it.
	RateLimit float64
	RateBurst int
}

// NewRouter wraps the endpoint handler in the bridge middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return Chain(cfg.Handler,
		RequestID(),
		Audit(log, cfg.Observer),
		Recover(log),
		Serialize(),
		Gate(),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
		Authenticate(cfg.Authenticator, cfg.MaxBodyBytes),
	)
}
