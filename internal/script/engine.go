package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.starlark.net/starlark"

	"github.com/flemzord/sandscript/internal/audit"
	"github.com/flemzord/sandscript/internal/observability"
	"github.com/flemzord/sandscript/internal/sandbox"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxSteps       = 1 << 26
	defaultMaxOutputBytes = 1 << 20 // 1 MB
)

// EngineConfig configures the execution engine. Zero values take defaults;
// Metrics, Tracer, and Audit are optional.
type EngineConfig struct {
	// Timeout is the per-call wall-clock budget.
	Timeout time.Duration

	// MaxSteps is the per-call interpreter step ceiling, a resource backstop
	// behind the wall-clock timeout.
	MaxSteps uint64

	// MaxOutputBytes caps file reads, response bodies, and print output.
	MaxOutputBytes int

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
	Audit   *audit.Logger
}

// Engine translates a definition's policy into a concrete grant, runs the
// script body in a disposable isolated context, and tears the context down
// on every exit path. No script execution can affect another's, or the host
// process, beyond the returned text: contexts share nothing, module globals
// are frozen, and faults are captured, never propagated.
type Engine struct {
	timeout  time.Duration
	maxSteps uint64
	maxBytes int
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
	audit    *audit.Logger
}

// NewEngine creates an engine with defaults applied.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutputBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NoopTracer()
	}
	return &Engine{
		timeout:  cfg.Timeout,
		maxSteps: cfg.MaxSteps,
		maxBytes: cfg.MaxOutputBytes,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		audit:    cfg.Audit,
	}
}

// Run validates arguments, builds the grant, and executes the script body in
// a fresh isolated context.
func (e *Engine) Run(ctx context.Context, def *Definition, rawArgs json.RawMessage) (string, error) {
	ctx, span := e.tracer.Start(ctx, "script.run",
		trace.WithAttributes(attribute.String("script.name", def.Name)),
	)
	defer span.End()

	start := time.Now()
	if e.metrics != nil {
		e.metrics.ActiveExecutions.Inc()
		defer e.metrics.ActiveExecutions.Dec()
	}

	out, err := e.run(ctx, def, rawArgs)

	duration := time.Since(start)
	status := statusOf(err)
	span.SetAttributes(attribute.String("script.status", status))
	if e.metrics != nil {
		e.metrics.ExecutionsTotal.WithLabelValues(def.Name, status).Inc()
		e.metrics.ExecutionDuration.WithLabelValues(def.Name).Observe(duration.Seconds())
	}

	if err != nil {
		e.logger.Warn("script execution failed",
			slog.String("script", def.Name),
			slog.String("status", status),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	e.logger.Info("script execution completed",
		slog.String("script", def.Name),
		slog.Duration("duration", duration),
		slog.Int("output_bytes", len(out)),
	)
	return out, nil
}

func (e *Engine) run(ctx context.Context, def *Definition, rawArgs json.RawMessage) (string, error) {
	// Invalid input must never reach the sandboxed boundary: validate before
	// any execution context exists.
	if err := def.ValidateArgs(rawArgs); err != nil {
		return "", err
	}

	grant, err := sandbox.NewGrant(def.Policy)
	if err != nil {
		return "", fmt.Errorf("translating policy for %s: %w", def.Name, err)
	}

	argsVal, err := argsToStarlark(rawArgs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ec := newExecContext(ctx, def.Name, grant, e.maxBytes)
	defer ec.close()
	ec.thread.SetMaxExecutionSteps(e.maxSteps)

	// The watcher propagates context cancellation (deadline or caller
	// cancel) into the interpreter, which stops at its next step.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			ec.thread.Cancel(ctx.Err().Error())
		case <-watcherDone:
		}
	}()

	e.auditEvent(audit.EventToolCall, def.Name, truncate(string(rawArgs)), nil)

	var result starlark.Value
	callErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: panic: %v", ErrRuntime, r)
			}
		}()
		result, err = starlark.Call(ec.thread, def.run, starlark.Tuple{argsVal}, nil)
		return err
	}()

	if callErr != nil {
		return "", e.mapError(ctx, def, ec, callErr)
	}

	out, err := resultText(result, ec.printBuf.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRuntime, err)
	}

	e.auditEvent(audit.EventToolResult, def.Name, truncate(out), nil)
	return out, nil
}

// mapError classifies a failed call. Order matters: a recorded denial wins
// over the cancellation it may have caused, and a context deadline wins over
// the generic runtime bucket.
func (e *Engine) mapError(ctx context.Context, def *Definition, ec *execContext, callErr error) error {
	if ec.denied != nil || errors.Is(callErr, sandbox.ErrPermissionDenied) {
		denied := ec.denied
		if denied == nil {
			denied = callErr
		}
		e.recordDenial(def.Name, denied)
		return denied
	}

	if ctx.Err() != nil {
		e.auditEvent(audit.EventTimeout, def.Name, ctx.Err().Error(), nil)
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%w: %v", ErrTimeout, context.Canceled)
		}
		return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}

	// The interpreter reports an exhausted step budget as a cancellation.
	// Resource exhaustion is surfaced like a timeout, not a host fault.
	if strings.Contains(callErr.Error(), "too many steps") {
		e.auditEvent(audit.EventTimeout, def.Name, "execution step budget exhausted", nil)
		return fmt.Errorf("%w: execution step budget exhausted", ErrTimeout)
	}

	return fmt.Errorf("%w: %s", ErrRuntime, evalDetail(callErr))
}

// recordDenial emits the denial to metrics and the audit trail.
func (e *Engine) recordDenial(name string, err error) {
	capability := "unknown"
	var denied *sandbox.DeniedError
	if errors.As(err, &denied) {
		capability = string(denied.Capability)
	}
	if e.metrics != nil {
		e.metrics.PermissionDenials.WithLabelValues(name, capability).Inc()
	}
	e.auditEvent(audit.EventPermissionDenied, name, err.Error(), map[string]string{
		"capability": capability,
	})
}

func (e *Engine) auditEvent(t audit.EventType, script, detail string, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.Log(audit.Event{Type: t, Script: script, Detail: detail, Metadata: metadata})
}

// statusOf maps an execution error to a metrics label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidArguments):
		return "invalid_arguments"
	case errors.Is(err, sandbox.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRuntime):
		return "runtime_error"
	default:
		return "error"
	}
}

// maxAuditDetailLen is the maximum length of audit detail strings.
const maxAuditDetailLen = 4096

// truncate shortens a string for audit storage, appending an indicator when
// it was cut. It walks back to a valid UTF-8 rune boundary to avoid splitting
// multi-byte characters when the cut falls mid-rune.
func truncate(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}
