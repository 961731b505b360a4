package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/core/service"
	"github.com/vibesync/vibebridge/internal/server/httpserver/handler"
	"github.com/vibesync/vibebridge/internal/telemetry/logger"
	"github.com/vibesync/vibebridge/pkg/token"
)

// Protocol headers.
const (
	HeaderToken      = "X-Vibe-Token"
	HeaderTimestamp  = "X-Vibe-Timestamp"
	HeaderGeneration = "X-Vibe-Generation"
	HeaderSignature  = "X-Vibe-Signature"
	HeaderRequestID  = "X-Request-ID"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, d time.Duration)
	ObserveRejection(code string)
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				if id, err := token.GenerateWithLength(16); err == nil {
					requestID = "req-" + id
				} else {
					requestID = "req-unknown"
				}
			}

			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Audit logs one line per request and feeds obs, which may be nil.
func Audit(log *slog.Logger, obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			endpoint := endpointLabel(r.URL.Path)
			code := wrapped.Header().Get("X-Error-Code")

			if obs != nil {
				obs.ObserveRequest(endpoint, wrapped.statusCode, duration)
				if wrapped.statusCode >= 400 {
					obs.ObserveRejection(code)
				}
			}

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"endpoint", endpoint,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
			}
			if code != "" {
				attrs = append(attrs, "code", code)
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					log.Debug("panic stack", "stack", string(debug.Stack()))
					handler.WriteError(w, domain.ErrInternalServer.WithDetails(fmt.Sprint(err)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Serialize lets exactly one request through at a time.
func Serialize() Middleware {
	var mu sync.Mutex
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies one token bucket to all requests. A non-positive rate
// disables limiting.
func RateLimit(requestsPerSecond float64, burst int) Middleware {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				handler.WriteError(w, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Gate resolves the path against the endpoint whitelist. Unlisted paths are
// rejected before the body or any header is looked at.
func Gate() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ep, ok := domain.LookupEndpoint(r.URL.Path)
			if !ok {
				handler.WriteError(w, domain.ErrPathRejected.WithDetails(r.URL.Path))
				return
			}
			ctx := handler.WithRequest(r.Context(), &handler.Request{Endpoint: ep})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate runs the authenticator for every endpoint except /health and
// stores the body it read on the request. maxBody caps the body size.
func Authenticate(auth *service.Authenticator, maxBody int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, ok := handler.RequestFromContext(r.Context())
			if !ok {
				handler.WriteError(w, domain.ErrPathRejected)
				return
			}
			if !req.Endpoint.RequiresAuth() {
				next.ServeHTTP(w, r)
				return
			}

			res, err := auth.Authenticate(&service.AuthRequest{
				Endpoint:   req.Endpoint,
				Method:     r.Method,
				Path:       r.URL.Path,
				Token:      r.Header.Get(HeaderToken),
				Timestamp:  r.Header.Get(HeaderTimestamp),
				Generation: r.Header.Get(HeaderGeneration),
				Signature:  r.Header.Get(HeaderSignature),
			}, bodyReader(w, r, maxBody))
			if err != nil {
				handler.WriteError(w, err)
				return
			}

			req.Body = res.Body
			req.Session = res.Session
			next.ServeHTTP(w, r)
		})
	}
}

func bodyReader(w http.ResponseWriter, r *http.Request, maxBody int64) service.BodyReader {
	return func() ([]byte, error) {
		src := io.Reader(r.Body)
		if maxBody > 0 {
			src = http.MaxBytesReader(w, r.Body, maxBody)
		}
		body, err := io.ReadAll(src)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, domain.ErrBodyTooLarge.WithDetails(fmt.Sprintf("limit %d bytes", tooLarge.Limit))
			}
			return nil, domain.ErrMalformedRequest.WithCause(err)
		}
		return body, nil
	}
}

func endpointLabel(path string) string {
	if ep, ok := domain.LookupEndpoint(path); ok {
		return ep.String()
	}
	return "forbidden"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
