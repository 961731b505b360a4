package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8085"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultReadTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultRateBurst       = 20

	DefaultTimestampWindow = 5 * time.Second

	DefaultTickInterval = 100 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultCapabilities is advertised in the handshake response.
var DefaultCapabilities = []string{"transform", "mesh", "material", "locking", "metrics"}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				MaxBodyBytes:    DefaultMaxBodyBytes,
				ReadTimeout:     DefaultReadTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
				RateBurst:       DefaultRateBurst,
			},
		},
		Security: SecuritySection{
			TimestampWindow: DefaultTimestampWindow,
		},
		Host: HostSection{
			TickInterval: DefaultTickInterval,
			Capabilities: append([]string(nil), DefaultCapabilities...),
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
