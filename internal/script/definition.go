// Package script implements the sandboxed script-execution subsystem: it
// loads Starlark tool declarations, validates and dispatches calls to them,
// and enforces a per-script capability policy at every I/O boundary.
//
// A script file declares module-level globals and a run function:
//
//	name = "read_notes"
//	description = "Read a note file from the notes directory."
//	params = {
//	    "type": "object",
//	    "properties": {"file": {"type": "string"}},
//	    "required": ["file"],
//	}
//	policy = {"allow_read": ["/var/notes/**"]}
//
//	def run(args):
//	    return read_file("/var/notes/" + args["file"])
//
// The module top level executes at load time under a zero-capability
// environment, so metadata extraction never runs script logic with any
// trust. Globals are frozen after load: concurrent executions cannot share
// mutable state through the module.
package script

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.starlark.net/starlark"

	"github.com/flemzord/sandscript/internal/sandbox"
)

// Definition is one loaded script tool: identity, argument schema, capability
// policy, and the frozen run function. Created once at load time and
// immutable thereafter; a reload replaces it, never mutates it in place.
type Definition struct {
	// Name is the unique key within one Service instance.
	Name string

	// Description is surfaced to the calling model.
	Description string

	// Schema is the JSON Schema the call arguments must satisfy.
	Schema json.RawMessage

	// Policy is the capability set granted to every execution.
	Policy sandbox.Policy

	// Source is the file path the script was loaded from, or "<inline>".
	Source string

	validator *jsonschema.Schema
	run       *starlark.Function
}

// ValidateArgs checks raw JSON arguments against the declared schema.
// Invalid input never reaches the sandboxed boundary.
func (d *Definition) ValidateArgs(raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: arguments are not valid JSON: %v", ErrInvalidArguments, err)
	}

	if err := d.validator.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// compileSchema compiles a JSON Schema document for argument validation.
func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("arguments.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	schema, err := compiler.Compile("arguments.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return schema, nil
}
