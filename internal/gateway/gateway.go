// Package gateway exposes the operational HTTP surface: health, Prometheus
// metrics, and the registered tool schemas. It is read-only plumbing for
// operators — the agent-facing transport lives elsewhere.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/sandscript/internal/observability"
	"github.com/flemzord/sandscript/internal/tool"
)

// Gateway is the operational HTTP listener.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	registry  *tool.Registry
	metrics   *observability.Metrics
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway serving the given tool registry and metrics.
func New(cfg Config, registry *tool.Registry, metrics *observability.Metrics, logger *slog.Logger) *Gateway {
	cfg.defaults()
	return &Gateway{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
	}
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	return g.server.Shutdown(shutdownCtx)
}
