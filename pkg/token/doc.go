// Package token provides session token generation and comparison helpers.
//
// Session Token Format:
//
//   - Prefix: vbst_ (5 characters)
//   - Body: 43 characters of Base64 RawURL encoded random bytes
//   - Total: 48 characters
//
// The bridge itself accepts any non-empty token string on handshake; the
// prefixed format is what the orchestrator CLI generates when rotating, and
// what the logger recognizes for partial masking.
//
// Security:
//
//   - Uses crypto/rand for CSPRNG
//   - Constant-time comparison for token equality
package token
