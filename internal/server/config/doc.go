// Package config provides the vibebridge-server configuration.
//
// This package defines the server configuration structure and validation:
//
//   - schema.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (loopback bind, token presence, durations)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from defaults, an
// optional YAML file and VIBEBRIDGE_* environment variables.
package config
