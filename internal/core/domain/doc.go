// Package domain defines the core domain models for the bridge.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Session: the {token, generation} pair guarded by one mutex
//   - Endpoint: the closed set of whitelisted paths (the path gate)
//   - Command: a queued unit of host work
//   - Errors: the rejection taxonomy with structured error codes
package domain
