package service

import (
	"bytes"
	"encoding/json"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/pkg/signature"
)

// HandshakeRequest is the handshake payload. Both fields are optional.
type HandshakeRequest struct {
	NewToken  string `json:"new_token,omitempty"`
	Challenge string `json:"challenge,omitempty"`
}

// HandshakeResult is the committed outcome of a handshake.
type HandshakeResult struct {
	Generation int64
	Rotated    bool

	// Response is the proof over the challenge, keyed by the post-handshake
	// token. Empty when no challenge was sent.
	//
	// The proof is an HMAC, not the plain "VIBE_HASH_<challenge>" echo some
	// editor bridges return. Clients expecting that literal will reject it.
	Response string
}

// HandshakeService rotates the session epoch.
type HandshakeService struct {
	session *domain.Session
}

// NewHandshakeService creates a HandshakeService bound to session.
func NewHandshakeService(session *domain.Session) *HandshakeService {
	return &HandshakeService{session: session}
}

// ParseHandshake decodes a handshake body. An empty body is an empty request.
func ParseHandshake(body []byte) (*HandshakeRequest, error) {
	req := &HandshakeRequest{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(trimmed, req); err != nil {
		return nil, domain.ErrInvalidHandshake.WithCause(err)
	}
	return req, nil
}

// Handshake parses body and, only if that succeeds, advances the session.
// A parse failure leaves token and generation untouched.
func (s *HandshakeService) Handshake(body []byte) (*HandshakeResult, error) {
	req, err := ParseHandshake(body)
	if err != nil {
		return nil, err
	}

	snap := s.session.Advance(req.NewToken)

	res := &HandshakeResult{
		Generation: snap.Generation,
		Rotated:    req.NewToken != "",
	}
	if req.Challenge != "" {
		res.Response = signature.Proof(snap.Token, req.Challenge)
	}
	return res, nil
}
