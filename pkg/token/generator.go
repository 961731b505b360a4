package token

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	// DefaultLength is the default token length in bytes.
	DefaultLength = 32

	// SessionPrefix marks generated session tokens.
	SessionPrefix = "vbst_"
)

// Generate generates a cryptographically secure random token.
//
// The returned token is Base64 RawURL encoded for safe header transmission.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a token with the specified byte length.
func GenerateWithLength(length int) (string, error) {
	bytes, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateSession generates a prefixed session token suitable for a
// handshake new_token.
func GenerateSession() (string, error) {
	body, err := Generate()
	if err != nil {
		return "", err
	}
	return SessionPrefix + body, nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return nil, err
	}
	return bytes, nil
}
