package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/internal/core/queue"
	"github.com/vibesync/vibebridge/internal/core/service"
	"github.com/vibesync/vibebridge/internal/host"
	"github.com/vibesync/vibebridge/internal/infra/buildinfo"
	"github.com/vibesync/vibebridge/internal/infra/confloader"
	"github.com/vibesync/vibebridge/internal/infra/shutdown"
	"github.com/vibesync/vibebridge/internal/server/config"
	"github.com/vibesync/vibebridge/internal/server/httpserver"
	"github.com/vibesync/vibebridge/internal/server/httpserver/handler"
	"github.com/vibesync/vibebridge/internal/telemetry/logger"
	"github.com/vibesync/vibebridge/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("vibebridge-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting vibebridge-server",
		"version", buildinfo.Get().Version,
		"config", *configFile,
		"settings", config.Sanitize(cfg))

	// Core state
	session := domain.NewSession(cfg.Security.BootstrapToken)
	registry := metric.NewRegistry()
	q := queue.New(queue.WithLogger(log), queue.WithObserver(registry))

	sim := host.NewSimulated(log)
	loop := host.NewLoop(q, host.NewDispatcher(sim.Table()),
		host.WithInterval(cfg.Host.TickInterval),
		host.WithLoopLogger(log),
		host.WithBusyHook(sim.SetBusy),
	)

	if err := registry.Register(metric.NewStateCollector(bridgeState{session, q, sim})); err != nil {
		return fmt.Errorf("register state collector: %w", err)
	}

	engineVersion := cfg.Host.EngineVersion
	if engineVersion == "" {
		engineVersion = buildinfo.EngineVersion()
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Authenticator: service.NewAuthenticator(session, service.WithWindow(cfg.Security.TimestampWindow)),
		Handler: handler.New(handler.Config{
			Session:       session,
			Handshake:     service.NewHandshakeService(session),
			Queue:         q,
			Host:          sim,
			Observer:      registry,
			Logger:        log,
			EngineVersion: engineVersion,
			Capabilities:  cfg.Host.Capabilities,
		}),
		Observer:     registry,
		Logger:       log,
		MaxBodyBytes: cfg.Server.HTTP.MaxBodyBytes,
		RateLimit:    cfg.Server.HTTP.RateLimit,
		RateBurst:    cfg.Server.HTTP.RateBurst,
	})

	listener := httpserver.New(cfg.Server.HTTP.Addr, router,
		httpserver.WithReadTimeout(cfg.Server.HTTP.ReadTimeout),
		httpserver.WithLogger(log),
	)

	// Hooks run in reverse registration order: the bridge listener stops
	// first, the host loop drains last.
	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	loop.Start()
	shutdownHandler.OnShutdown("host loop", func(ctx context.Context) error {
		loop.Stop()
		res := loop.Tick(ctx)
		log.Info("final drain complete", "executed", res.Executed, "failed", res.Failed)
		return nil
	})

	if cfg.Telemetry.MetricsAddr != "" {
		metricsServer := httpserver.New(cfg.Telemetry.MetricsAddr, registry.Handler(), httpserver.WithLogger(log))
		if err := metricsServer.Start(); err != nil {
			_ = shutdownHandler.Shutdown()
			return fmt.Errorf("start metrics listener: %w", err)
		}
		shutdownHandler.OnShutdown("metrics listener", metricsServer.Stop)
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if err := listener.Start(); err != nil {
		_ = shutdownHandler.Shutdown()
		return fmt.Errorf("start bridge listener: %w", err)
	}
	shutdownHandler.OnShutdown("bridge listener", listener.Stop)

	log.Info("bridge ready", "addr", listener.Addr(), "generation", session.Generation())
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, the config file and VIBEBRIDGE_* variables,
// then resolves the bootstrap token and validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.ResolveBootstrapToken(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload: invalid log level", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w, nil
}

// bridgeState feeds the Prometheus state collector.
type bridgeState struct {
	session *domain.Session
	queue   *queue.Queue
	host    *host.Simulated
}

func (s bridgeState) Generation() int64 { return s.session.Generation() }
func (s bridgeState) QueueDepth() int   { return s.queue.Len() }
func (s bridgeState) Busy() bool        { return s.host.Busy() }
