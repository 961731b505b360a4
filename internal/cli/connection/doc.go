// Package connection is the orchestrator side of the bridge protocol.
//
// HTTPClient signs every request with the current token, stamps the
// timestamp and, when known, the session generation. Handshake rotates
// the token and verifies the bridge's proof over the challenge before
// adopting the new credentials. A bridge that answers with the legacy
// "VIBE_HASH_<challenge>" echo fails that check with ErrProofMismatch.
package connection
