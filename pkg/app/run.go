package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/sandscript/internal/config"
	"github.com/flemzord/sandscript/internal/reload"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run loads configuration, assembles the script service, and blocks until a
// shutdown signal is received. The operational HTTP listener is started only
// when enabled in configuration.
func Run(params RunParams) error {
	cfg, err := config.Load(params.ConfigPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))

	app, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	logger.Info("sandscript started",
		"version", params.Version,
		"commit", params.Commit,
		"scripts", len(app.Registry.Names()),
	)

	var gw interface {
		Stop(context.Context) error
	}
	if cfg.Server.Enabled {
		g := app.NewGateway()
		if err := g.Start(context.Background()); err != nil {
			return err
		}
		gw = g
	}

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	var watchEvents <-chan reload.Event
	if cfg.Scripts.Watch {
		watcher := reload.NewWatcher(reload.WatcherConfig{
			Dir:          cfg.Scripts.Dir,
			PollInterval: cfg.Scripts.WatchInterval,
		})
		watcher.Start(watchCtx)
		defer watcher.Stop()
		watchEvents = watcher.Events()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
loop:
	for {
		select {
		case <-watchEvents:
			logger.Info("script directory changed, reloading")
			app.ReloadScripts()
		case sig = <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading scripts")
				app.ReloadScripts()
				continue
			}
			break loop
		}
	}
	logger.Info("shutting down", "signal", sig.String())

	if gw != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gw.Stop(ctx); err != nil {
			logger.Warn("gateway shutdown", "error", err)
		}
	}
	return nil
}
