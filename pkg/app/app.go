// Package app assembles the sandscript components from configuration: audit
// sinks, observability, the script service, the directory loader, the tool
// registry, and the operational gateway.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flemzord/sandscript/internal/audit"
	"github.com/flemzord/sandscript/internal/config"
	"github.com/flemzord/sandscript/internal/gateway"
	"github.com/flemzord/sandscript/internal/observability"
	"github.com/flemzord/sandscript/internal/script"
	"github.com/flemzord/sandscript/internal/tool"
)

// App holds the assembled components and their teardown hooks.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Audit    *audit.Logger
	Service  *script.Service
	Registry *tool.Registry

	loader     *script.DirLoader
	tracing    *observability.TracerSetup
	auditStore *audit.Store
	auditFile  io.Closer
}

// ReloadScripts re-loads the configured script directory, replacing existing
// registrations. New scripts are also registered into the tool registry.
func (a *App) ReloadScripts() {
	result, err := a.loader.Reload(a.Config.Scripts.Dir)
	if err != nil {
		a.Logger.Warn("script reload failed", "error", err)
		return
	}
	for _, t := range a.Service.Adapters() {
		// Register is a no-op error for names already present; only scripts
		// added since the last load are new to the registry.
		if err := a.Registry.Register(t); err == nil {
			a.Logger.Info("new script tool registered", "tool", t.Name())
		}
	}
	a.Logger.Info("scripts reloaded",
		"loaded", result.Loaded,
		"errors", len(result.Errors),
	)
}

// Build wires every component from configuration and loads the configured
// script directory. Per-file load failures are tolerated; they are already
// logged and audited by the loader.
func Build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	tracing, err := observability.NewTracerSetup(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("app: tracing setup: %w", err)
	}
	a.tracing = tracing

	tracer := observability.NoopTracer()
	if tracing != nil {
		tracer = tracing.Tracer()
	}

	auditCfg := audit.LoggerConfig{}
	if cfg.Audit.Path != "" {
		store, err := audit.OpenStore(cfg.Audit.Path)
		if err != nil {
			a.Close(context.Background())
			return nil, err
		}
		a.auditStore = store
		auditCfg.Store = store
	}
	if cfg.Audit.JSONLPath != "" {
		f, err := os.OpenFile(cfg.Audit.JSONLPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			a.Close(context.Background())
			return nil, fmt.Errorf("app: opening audit log %s: %w", cfg.Audit.JSONLPath, err)
		}
		a.auditFile = f
		auditCfg.Writer = f
	}
	a.Audit = audit.NewLogger(auditCfg)

	onDuplicate, err := script.ParseDuplicatePolicy(cfg.Scripts.OnDuplicate)
	if err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("app: %w", err)
	}

	engine := script.NewEngine(script.EngineConfig{
		Timeout:        cfg.Scripts.Timeout,
		MaxSteps:       cfg.Scripts.MaxSteps,
		MaxOutputBytes: cfg.Scripts.MaxOutputBytes,
		Logger:         logger,
		Metrics:        a.Metrics,
		Tracer:         tracer,
		Audit:          a.Audit,
	})

	a.Service = script.NewService(script.ServiceConfig{
		Engine:      engine,
		Logger:      logger,
		OnDuplicate: onDuplicate,
		Metrics:     a.Metrics,
		Audit:       a.Audit,
	})

	a.loader = script.NewDirLoader(a.Service, logger)
	if _, err := a.loader.LoadDir(cfg.Scripts.Dir); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.Registry = tool.NewRegistry()
	for _, t := range a.Service.Adapters() {
		if err := a.Registry.Register(t); err != nil {
			a.Close(context.Background())
			return nil, fmt.Errorf("app: registering tool: %w", err)
		}
	}

	return a, nil
}

// Close releases every resource the app holds.
func (a *App) Close(ctx context.Context) {
	if a.tracing != nil {
		_ = a.tracing.Shutdown(ctx)
	}
	if a.auditStore != nil {
		_ = a.auditStore.Close()
	}
	if a.auditFile != nil {
		_ = a.auditFile.Close()
	}
}

// NewGateway creates the operational HTTP listener for the app.
func (a *App) NewGateway() *gateway.Gateway {
	return gateway.New(
		gateway.Config{Bind: a.Config.Server.Addr},
		a.Registry,
		a.Metrics,
		a.Logger,
	)
}
