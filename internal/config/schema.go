// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for sandscript.
package config

import (
	"time"

	"github.com/flemzord/sandscript/internal/observability"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Scripts configures the script subsystem.
	Scripts ScriptsConfig `yaml:"scripts"`

	// Server configures the operational HTTP listener (health, metrics,
	// tool schemas). Disabled when absent.
	Server ServerConfig `yaml:"server,omitempty"`

	// Audit configures the audit trail sinks.
	Audit AuditConfig `yaml:"audit,omitempty"`

	// Tracing configures the optional OTLP trace exporter.
	Tracing observability.TracingConfig `yaml:"tracing,omitempty"`
}

// ScriptsConfig controls script loading and execution budgets.
type ScriptsConfig struct {
	// Dir is the flat directory of *.star script files. A missing directory
	// means no scripts are configured.
	Dir string `yaml:"dir"`

	// OnDuplicate decides what loading does when two scripts declare the
	// same name: "reject" (default) or "replace" (warns, then overwrites).
	OnDuplicate string `yaml:"on_duplicate,omitempty"`

	// Timeout is the per-call wall-clock budget.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxSteps is the per-call interpreter step ceiling.
	MaxSteps uint64 `yaml:"max_steps,omitempty"`

	// MaxOutputBytes caps file reads, response bodies, and print output.
	MaxOutputBytes int `yaml:"max_output_bytes,omitempty"`

	// Watch enables hot reload: the script directory is polled and changed
	// files are re-registered, replacing previous versions.
	Watch bool `yaml:"watch,omitempty"`

	// WatchInterval is the poll interval for hot reload. Defaults to 5s.
	WatchInterval time.Duration `yaml:"watch_interval,omitempty"`
}

// ServerConfig configures the operational HTTP listener.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// AuditConfig configures audit sinks. Both are optional.
type AuditConfig struct {
	// Path is the SQLite database for persistent audit events.
	Path string `yaml:"path,omitempty"`

	// JSONLPath appends events as JSON lines to a file.
	JSONLPath string `yaml:"jsonl_path,omitempty"`
}

// Defaults fills unset fields with their default values.
func (c *Config) Defaults() {
	if c.Scripts.Timeout <= 0 {
		c.Scripts.Timeout = 30 * time.Second
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		c.Server.Addr = ":8420"
	}
}
