package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/pkg/signature"
	"github.com/vibesync/vibebridge/pkg/token"
)

// DefaultTimestampWindow is the accepted clock deviation in either direction.
const DefaultTimestampWindow = 5 * time.Second

// AuthRequest carries the authentication-relevant parts of one request.
// Empty header values mean the header was absent.
type AuthRequest struct {
	Endpoint   domain.Endpoint
	Method     string
	Path       string
	Token      string
	Timestamp  string
	Generation string
	Signature  string
}

// AuthResult is returned for an accepted request.
type AuthResult struct {
	// Session is the snapshot the request was validated against.
	Session domain.SessionSnapshot

	// Body is the request body, read once after the header checks passed.
	Body []byte
}

// BodyReader reads the request body. It is only called once header checks pass.
type BodyReader func() ([]byte, error)

// Authenticator applies the bridge's authentication pipeline.
//
// Checks run in a fixed order and stop at the first failure:
// token, timestamp freshness, generation, then signature over the body.
type Authenticator struct {
	session *domain.Session
	window  time.Duration
	now     func() time.Time
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithWindow sets the freshness window. Non-positive values are ignored.
func WithWindow(d time.Duration) AuthOption {
	return func(a *Authenticator) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuthenticator creates an Authenticator bound to session.
func NewAuthenticator(session *domain.Session, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		session: session,
		window:  DefaultTimestampWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window returns the configured freshness window.
func (a *Authenticator) Window() time.Duration {
	return a.window
}

// Authenticate validates req against a single session snapshot.
//
// The body is read through readBody only after token, timestamp and
// generation have been accepted. The handshake endpoint tolerates a
// missing or unparsable timestamp and skips the generation and
// signature checks.
func (a *Authenticator) Authenticate(req *AuthRequest, readBody BodyReader) (*AuthResult, error) {
	snap := a.session.Snapshot()
	handshake := req.Endpoint.IsHandshake()

	// 1. Token
	if req.Token == "" || !token.Equal(req.Token, snap.Token) {
		return nil, domain.ErrUnauthorized
	}

	// 2. Freshness
	if err := a.checkTimestamp(req.Timestamp, handshake); err != nil {
		return nil, err
	}

	// 3. Generation
	if !handshake && req.Generation != "" {
		if received, err := strconv.ParseInt(req.Generation, 10, 64); err == nil && received != snap.Generation {
			return nil, &domain.DriftError{Engine: snap.Generation, Received: received}
		}
	}

	var body []byte
	if readBody != nil {
		var err error
		body, err = readBody()
		if err != nil {
			return nil, err
		}
	}

	// 4. Integrity
	if !handshake && !signature.Verify(snap.Token, req.Timestamp, req.Method, req.Path, body, req.Signature) {
		return nil, domain.ErrInvalidSignature
	}

	return &AuthResult{Session: snap, Body: body}, nil
}

func (a *Authenticator) checkTimestamp(raw string, handshake bool) error {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil {
		if handshake {
			return nil
		}
		if raw == "" {
			return domain.ErrMissingTimestamp
		}
		return domain.ErrMissingTimestamp.WithDetails(fmt.Sprintf("unparsable timestamp %q", raw))
	}

	// Bounds are compared directly; ts - now can overflow for hostile input.
	now := a.now().Unix()
	window := int64(a.window / time.Second)
	if ts < now-window || ts > now+window {
		return domain.ErrRequestExpired.WithDetails(fmt.Sprintf("timestamp %d outside %s of %d", ts, a.window, now))
	}
	return nil
}
