// Package audit records every security-relevant event of the script
// subsystem: loads, executions, permission denials, and timeouts. Events go
// to an optional JSONL writer and an optional SQLite store.
package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering the script tool lifecycle.
const (
	EventScriptLoad       EventType = "script_load"
	EventLoadError        EventType = "load_error"
	EventToolCall         EventType = "tool_call"
	EventToolResult       EventType = "tool_result"
	EventPermissionDenied EventType = "permission_denied"
	EventTimeout          EventType = "timeout"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Script    string            `json:"script,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// LoggerConfig configures the audit logger.
type LoggerConfig struct {
	// Writer is the destination for JSONL output. May be nil.
	Writer io.Writer

	// Store, if non-nil, receives every event for persistence.
	Store *Store

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(Event)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// Logger writes structured audit events. Safe for concurrent use.
type Logger struct {
	writer  io.Writer
	store   *Store
	onEvent func(Event)
	now     func() time.Time
	mu      sync.Mutex
}

// NewLogger creates an audit logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Logger{
		writer:  cfg.Writer,
		store:   cfg.Store,
		onEvent: cfg.OnEvent,
		now:     now,
	}
}

// Log writes an audit event. The timestamp is set automatically. The
// caller's Metadata map is copied, never mutated. Sinks are invoked under
// one lock so event ordering is consistent across them.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}

	event.Timestamp = l.now()

	if len(event.Metadata) > 0 {
		cp := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			cp[k] = v
		}
		event.Metadata = cp
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}

	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}

	if l.store != nil {
		_ = l.store.Append(event)
	}
}
