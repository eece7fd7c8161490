package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLogger_WritesJSONL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	logger := NewLogger(LoggerConfig{
		Writer: &buf,
		Now:    func() time.Time { return fixed },
	})

	logger.Log(Event{Type: EventToolCall, Script: "greet", Detail: "called"})
	logger.Log(Event{Type: EventToolResult, Script: "greet"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first.Type != EventToolCall || first.Script != "greet" {
		t.Errorf("first event = %+v, want tool_call for greet", first)
	}
	if !first.Timestamp.Equal(fixed) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, fixed)
	}
}

func TestLogger_CopiesMetadata(t *testing.T) {
	t.Parallel()

	var got Event
	logger := NewLogger(LoggerConfig{OnEvent: func(ev Event) { got = ev }})

	meta := map[string]string{"capability": "read"}
	logger.Log(Event{Type: EventPermissionDenied, Metadata: meta})
	meta["capability"] = "mutated"

	if got.Metadata["capability"] != "read" {
		t.Errorf("Metadata = %q, want the copy taken at Log time", got.Metadata["capability"])
	}
}

func TestLogger_NilSafe(t *testing.T) {
	t.Parallel()

	var logger *Logger
	logger.Log(Event{Type: EventTimeout}) // must not panic
}
