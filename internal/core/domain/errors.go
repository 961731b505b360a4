// Package domain defines the core domain models for the bridge.
package domain

import "fmt"

// DomainError represents a domain error with a structured error code.
// Codes follow the format VB-<AREA>-<HTTP status><n>.
type DomainError struct {
	Code    string // Error code (e.g., "VB-AUTH-4010")
	Message string // Human-readable message, sent as the "error" field
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// ============================================================================
// Gate Errors (PATH)
// ============================================================================

var (
	// ErrPathRejected indicates the path is not on the endpoint whitelist.
	ErrPathRejected = NewDomainError("VB-PATH-4030", "Forbidden Path")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrUnauthorized indicates the token does not match the active token.
	ErrUnauthorized = NewDomainError("VB-AUTH-4010", "Unauthorized")

	// ErrMissingTimestamp indicates a required timestamp is absent or unparsable.
	ErrMissingTimestamp = NewDomainError("VB-AUTH-4001", "Missing Timestamp")

	// ErrRequestExpired indicates the timestamp is outside the freshness window.
	ErrRequestExpired = NewDomainError("VB-AUTH-4031", "Request Expired")

	// ErrInvalidSignature indicates the MAC does not match the signing context.
	ErrInvalidSignature = NewDomainError("VB-AUTH-4032", "Invalid Signature")

	// ErrGenerationDrift indicates the caller holds a stale session generation.
	ErrGenerationDrift = NewDomainError("VB-AUTH-4090", "Generation Drift")
)

// ============================================================================
// Request Errors (REQ)
// ============================================================================

var (
	// ErrMalformedRequest indicates an unparsable request body.
	ErrMalformedRequest = NewDomainError("VB-REQ-4000", "Invalid JSON")

	// ErrInvalidHandshake indicates an unparsable handshake payload.
	ErrInvalidHandshake = NewDomainError("VB-REQ-4002", "Invalid Handshake")

	// ErrBodyTooLarge indicates the request body exceeds the configured limit.
	ErrBodyTooLarge = NewDomainError("VB-REQ-4003", "Body Too Large")
)

// ============================================================================
// Transport and Host Errors (NET, HOST)
// ============================================================================

var (
	// ErrTransportFailure indicates a bind or accept level fault.
	ErrTransportFailure = NewDomainError("VB-NET-5001", "transport failure")

	// ErrListenerState indicates an invalid listener state transition.
	ErrListenerState = NewDomainError("VB-NET-5002", "listener not stopped")

	// ErrCommandExecution indicates a host-side failure executing a command.
	ErrCommandExecution = NewDomainError("VB-HOST-5002", "command execution failed")

	// ErrUnknownCommand indicates no dispatch entry exists for a command.
	ErrUnknownCommand = NewDomainError("VB-HOST-5003", "no handler for command")

	// ErrHostPaused indicates a mutation arrived after a panic paused the host.
	ErrHostPaused = NewDomainError("VB-HOST-4230", "host paused")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("VB-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("VB-SYS-4290", "too many requests")
)

// DriftError is a generation drift rejection carrying both generations so
// the caller can resynchronize.
type DriftError struct {
	Engine   int64 // generation the bridge is at
	Received int64 // generation the caller sent
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	return e.Unwrap().Error()
}

// Unwrap exposes the underlying ErrGenerationDrift domain error.
func (e *DriftError) Unwrap() error {
	return ErrGenerationDrift.WithDetails(fmt.Sprintf("engine=%d received=%d", e.Engine, e.Received))
}
