// Package service provides the bridge's request-facing domain services.
//
// This package contains:
//   - Authenticator: the ordered token, freshness, generation and
//     signature checks applied to every guarded request
//   - HandshakeService: parse-then-commit session rotation and the
//     challenge proof returned to the orchestrator
//
// Both services share one *domain.Session injected at construction.
package service
