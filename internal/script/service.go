package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/flemzord/sandscript/internal/audit"
	"github.com/flemzord/sandscript/internal/observability"
	"github.com/flemzord/sandscript/internal/tool"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Engine      *Engine
	Logger      *slog.Logger
	OnDuplicate DuplicatePolicy
	Metrics     *observability.Metrics
	Audit       *audit.Logger
}

// Service is the façade combining the registry and the engine. It is shared
// by reference across all tool adapters; loads and executions are each
// individually consistent — an execution always sees a fully registered
// definition, never a partially constructed one, because registration
// publishes a complete immutable definition under the registry lock.
type Service struct {
	registry    *Registry
	engine      *Engine
	logger      *slog.Logger
	onDuplicate DuplicatePolicy
	metrics     *observability.Metrics
	audit       *audit.Logger
}

// NewService creates a Service. Engine is required; the rest have defaults.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onDuplicate := cfg.OnDuplicate
	if onDuplicate == "" {
		onDuplicate = DuplicateReject
	}
	return &Service{
		registry:    NewRegistry(logger),
		engine:      cfg.Engine,
		logger:      logger,
		onDuplicate: onDuplicate,
		metrics:     cfg.Metrics,
		audit:       cfg.Audit,
	}
}

// LoadFile parses, validates, and registers the script at path. A parse or
// validation failure leaves the registry unchanged.
func (s *Service) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return s.loadFailed(path, fmt.Errorf("%w: %s: %v", ErrLoad, path, err))
	}
	return s.load(path, src, s.onDuplicate)
}

// ReloadFile re-parses and registers the script at path, replacing any
// existing registration with the same name. Used by the hot-reload path,
// where a changed file legitimately carries an already registered name.
func (s *Service) ReloadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return s.loadFailed(path, fmt.Errorf("%w: %s: %v", ErrLoad, path, err))
	}
	return s.load(path, src, DuplicateReplace)
}

// LoadSource parses, validates, and registers inline script source.
// filename is used only for diagnostics.
func (s *Service) LoadSource(filename string, src []byte) error {
	if filename == "" {
		filename = "<inline>"
	}
	return s.load(filename, src, s.onDuplicate)
}

func (s *Service) load(filename string, src []byte, onDuplicate DuplicatePolicy) error {
	def, err := parseSource(filename, src)
	if err != nil {
		return s.loadFailed(filename, err)
	}

	if err := s.registry.Register(def, onDuplicate); err != nil {
		return s.loadFailed(filename, fmt.Errorf("%w: %s: %v", ErrLoad, filename, err))
	}

	if s.metrics != nil {
		s.metrics.LoadsTotal.WithLabelValues("ok").Inc()
	}
	s.audit.Log(audit.Event{
		Type:   audit.EventScriptLoad,
		Script: def.Name,
		Detail: filename,
	})
	s.logger.Info("script loaded",
		slog.String("script", def.Name),
		slog.String("source", filename),
		slog.Bool("allow_network", def.Policy.AllowNetwork),
		slog.Bool("allow_env", def.Policy.AllowEnv),
		slog.Int("allow_read", len(def.Policy.AllowRead)),
		slog.Int("allow_write", len(def.Policy.AllowWrite)),
	)
	return nil
}

func (s *Service) loadFailed(filename string, err error) error {
	if s.metrics != nil {
		s.metrics.LoadsTotal.WithLabelValues("error").Inc()
	}
	s.audit.Log(audit.Event{
		Type:   audit.EventLoadError,
		Detail: err.Error(),
		Metadata: map[string]string{
			"file": filename,
		},
	})
	return err
}

// Execute looks up a registered script by name and runs it.
func (s *Service) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	def, ok := s.registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s.engine.Run(ctx, def, args)
}

// Definitions returns every registered definition, sorted by name.
func (s *Service) Definitions() []*Definition {
	return s.registry.List()
}

// Adapters returns one tool adapter per registered definition, the bridge
// between loaded scripts and the orchestrator's generic tool interface.
func (s *Service) Adapters() []tool.Tool {
	defs := s.registry.List()
	adapters := make([]tool.Tool, 0, len(defs))
	for _, def := range defs {
		adapters = append(adapters, Adapter{
			name:        def.Name,
			description: def.Description,
			schema:      def.Schema,
			service:     s,
		})
	}
	return adapters
}
