// Package logger provides structured logging for the bridge.
//
// It configures log/slog handlers rather than wrapping them, so the
// *slog.Logger it returns can be passed straight to the queue, host and
// HTTP layers:
//
//   - logger.go: handler construction and the runtime-adjustable level
//   - context.go: request ID propagation through context.Context
//   - redact.go: sensitive data redaction applied in ReplaceAttr
//
// Session tokens (vbst_ prefix) are partially masked wherever they appear.
// Values under keys such as token, secret or signature are fully redacted.
package logger
