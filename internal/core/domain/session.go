package domain

import "sync"

// Session holds the bridge's single authentication epoch.
//
// Exactly one token is active at any instant: the rotated token if a
// handshake has set one, otherwise the bootstrap token. Token and
// generation are only ever read or written together under mu, so a
// reader never observes one updated without the other.
type Session struct {
	mu         sync.Mutex
	bootstrap  string
	rotated    string
	generation int64
}

// SessionSnapshot is a consistent copy of the session state.
type SessionSnapshot struct {
	// Token is the active token (rotated if set, else bootstrap).
	Token string

	// Generation is the session epoch.
	Generation int64

	// Rotated is true once a handshake has replaced the bootstrap token.
	Rotated bool
}

// NewSession creates a session at generation 0 keyed by the bootstrap token.
func NewSession(bootstrapToken string) *Session {
	return &Session{bootstrap: bootstrapToken}
}

// Snapshot returns the active token and generation as one atomic read.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Generation returns the current generation.
func (s *Session) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Advance increments the generation by exactly one and, if newToken is
// non-empty, makes it the active token. Both changes happen in the same
// critical section. The returned snapshot reflects the committed state.
func (s *Session) Advance(newToken string) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if newToken != "" {
		s.rotated = newToken
	}
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	if s.rotated != "" {
		return SessionSnapshot{Token: s.rotated, Generation: s.generation, Rotated: true}
	}
	return SessionSnapshot{Token: s.bootstrap, Generation: s.generation}
}
