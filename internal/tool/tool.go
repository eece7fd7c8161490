// Package tool defines the generic callable-tool interface consumed by the
// agent orchestrator. The orchestrator sees only names, schemas, and an
// execute operation — it is deliberately ignorant of how a tool is
// implemented or sandboxed.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface every callable tool must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool
	// does, surfaced to the calling model.
	Description() string

	// Schema returns a JSON Schema describing the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args json.RawMessage) (Output, error)
}

// Output is the result of a tool execution.
type Output struct {
	// Content is the output text from the tool.
	Content string

	// IsError indicates whether the output represents an error condition.
	IsError bool
}
