// Package buildinfo exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// Usage:
//
//	go build -ldflags "-X github.com/vibesync/vibebridge/internal/infra/buildinfo.Version=v1.0.0"
//
// When Version is not injected, the module version recorded by the Go
// toolchain is used instead.
package buildinfo
