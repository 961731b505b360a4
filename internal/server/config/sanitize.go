package config

import "github.com/vibesync/vibebridge/internal/telemetry/logger"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Host.Capabilities = append([]string(nil), cfg.Host.Capabilities...)
	sanitized.Security.BootstrapToken = logger.Mask(cfg.Security.BootstrapToken)
	return &sanitized
}
