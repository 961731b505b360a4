// Package signature provides the request signing primitive shared by the
// bridge and its orchestrator client.
//
// Signing Context:
//
//	timestamp "|" METHOD "|" path "|" body
//
// The MAC is HMAC-SHA256 keyed by the current session token. Signatures
// are emitted as lowercase hex and accepted case-insensitively.
//
// A handshake proof is a separate HMAC over the client challenge, keyed
// by an HKDF-derived sub-key of the active token so that the proof can
// never double as a request signature.
package signature
