package config

import "time"

// ServerConfig is the root configuration for vibebridge-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Security  SecuritySection  `koanf:"security"`
	Host      HostSection      `koanf:"host"`
	Telemetry TelemetrySection `koanf:"telemetry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the bridge listener.
type HTTPConfig struct {
	// Addr must be a loopback address; port 0 picks a free port.
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps request bodies before they are read for signing.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained request rate per second. 0 disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// SecuritySection configures the shared secret and freshness window.
type SecuritySection struct {
	// BootstrapToken is the out-of-band shared secret. If empty,
	// BootstrapTokenFile is read instead.
	BootstrapToken     string `koanf:"bootstrap_token"`
	BootstrapTokenFile string `koanf:"bootstrap_token_file"`

	TimestampWindow time.Duration `koanf:"timestamp_window"`
}

// HostSection configures the simulated host.
type HostSection struct {
	TickInterval  time.Duration `koanf:"tick_interval"`
	EngineVersion string        `koanf:"engine_version"`
	Capabilities  []string      `koanf:"capabilities"`
}

// TelemetrySection configures the Prometheus listener.
type TelemetrySection struct {
	// MetricsAddr serves Prometheus metrics when set. Empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
