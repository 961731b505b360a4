package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashBytes computes the hex encoded SHA-256 hash of data.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Equal reports whether two tokens are identical.
//
// Uses constant-time comparison to prevent timing attacks. The comparison
// is exact and case-sensitive.
func Equal(received, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}
