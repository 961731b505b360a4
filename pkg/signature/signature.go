package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Separator joins the fields of the signing context.
const Separator = "|"

// proofInfo is the HKDF info label for handshake proof keys.
const proofInfo = "vibebridge handshake proof v1"

// SigningString builds the canonical string covered by the MAC.
func SigningString(timestamp, method, path string, body []byte) string {
	var b strings.Builder
	b.Grow(len(timestamp) + len(method) + len(path) + len(body) + 3)
	b.WriteString(timestamp)
	b.WriteString(Separator)
	b.WriteString(method)
	b.WriteString(Separator)
	b.WriteString(path)
	b.WriteString(Separator)
	b.Write(body)
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of the signing context.
func Sign(key, timestamp, method, path string, body []byte) string {
	return hex.EncodeToString(mac([]byte(key), SigningString(timestamp, method, path, body)))
}

// Verify reports whether sig is a valid signature of the signing context.
// Hex case is ignored; comparison is constant-time.
func Verify(key, timestamp, method, path string, body []byte, sig string) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(sig))
	if err != nil || len(provided) != sha256.Size {
		return false
	}
	expected := mac([]byte(key), SigningString(timestamp, method, path, body))
	return hmac.Equal(expected, provided)
}

// Proof derives the handshake proof for challenge under the given token.
func Proof(token, challenge string) string {
	return hex.EncodeToString(mac(proofKey(token), challenge))
}

// VerifyProof reports whether proof matches the expected handshake proof.
func VerifyProof(token, challenge, proof string) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(proof))
	if err != nil {
		return false
	}
	return hmac.Equal(mac(proofKey(token), challenge), provided)
}

func mac(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	_, _ = io.WriteString(h, data)
	return h.Sum(nil)
}

func proofKey(token string) []byte {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, []byte(token), nil, []byte(proofInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashLen bytes of output.
		panic("signature: hkdf: " + err.Error())
	}
	return key
}
