package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/vibesync/vibebridge/internal/telemetry/logger"
)

// ResolveBootstrapToken fills Security.BootstrapToken from
// Security.BootstrapTokenFile when the token is not set inline.
func ResolveBootstrapToken(cfg *ServerConfig) error {
	sec := &cfg.Security
	if sec.BootstrapToken != "" || sec.BootstrapTokenFile == "" {
		return nil
	}
	data, err := os.ReadFile(sec.BootstrapTokenFile)
	if err != nil {
		return fmt.Errorf("read bootstrap token file: %w", err)
	}
	sec.BootstrapToken = strings.TrimSpace(string(data))
	return nil
}

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if err := verifyHost(&cfg.Host); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := requireLoopback(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if cfg.HTTP.MaxBodyBytes <= 0 {
		return errors.New("server.http.max_body_bytes must be positive")
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.BootstrapToken == "" {
		return errors.New("security.bootstrap_token (or bootstrap_token_file) is required")
	}
	if cfg.TimestampWindow < time.Second {
		return errors.New("security.timestamp_window must be at least 1s")
	}
	return nil
}

func verifyHost(cfg *HostSection) error {
	if cfg.TickInterval <= 0 {
		return errors.New("host.tick_interval must be positive")
	}
	return nil
}

// requireLoopback rejects any bind address that is reachable off-host.
func requireLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("%q is not a loopback address", addr)
	}
	return nil
}
