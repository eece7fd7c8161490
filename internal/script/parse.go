package script

import (
	"encoding/json"
	"errors"
	"fmt"

	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/flemzord/sandscript/internal/sandbox"
)

const (
	// maxSourceBytes caps the size of a single script file.
	maxSourceBytes = 1 << 20 // 1 MB

	// loadMaxSteps bounds top-level execution during metadata extraction so
	// a spinning top level cannot stall the loader.
	loadMaxSteps = 1 << 22
)

// fileOptions enables the non-core Starlark features scripts may use.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	Recursion:       true,
}

// loadPredeclared is the environment scripts are resolved and loaded under.
// The I/O builtin names must be declared here so identifiers inside run()
// resolve, but their execution context exists only during a call: invoked at
// load time they fail, so metadata extraction never runs script logic with
// any capability.
func loadPredeclared() starlark.StringDict {
	predeclared := starlark.StringDict{
		"json": starlarkjson.Module,
	}
	for name, builtin := range ioBuiltins() {
		predeclared[name] = builtin
	}
	return predeclared
}

// parseSource executes a script's top level under zero trust and extracts
// its declaration: name, description, params, policy, and the run function.
// The returned definition's globals are frozen.
func parseSource(filename string, src []byte) (*Definition, error) {
	if len(src) > maxSourceBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrLoad, filename, maxSourceBytes)
	}

	thread := &starlark.Thread{
		Name: "load:" + filename,
		// Top-level print output is discarded; nothing should rely on it.
		Print: func(*starlark.Thread, string) {},
	}
	thread.SetMaxExecutionSteps(loadMaxSteps)

	globals, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, loadPredeclared())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filename, evalDetail(err))
	}

	def := &Definition{Source: filename}

	name, err := requireString(globals, "name")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filename, err)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filename, ErrEmptyName)
	}
	def.Name = name

	if v, ok := globals["description"]; ok {
		desc, ok := starlark.AsString(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s: description must be a string", ErrLoad, filename)
		}
		def.Description = desc
	}

	def.Schema, err = extractSchema(globals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filename, err)
	}
	def.validator, err = compileSchema(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: params: %v", ErrLoad, filename, err)
	}

	def.Policy, err = extractPolicy(globals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filename, err)
	}
	if err := def.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: policy: %v", ErrLoad, filename, err)
	}

	runVal, ok := globals["run"]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing run function", ErrLoad, filename)
	}
	fn, ok := runVal.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%w: %s: run must be a function, got %s", ErrLoad, filename, runVal.Type())
	}
	if fn.NumParams() < 1 {
		return nil, fmt.Errorf("%w: %s: run must accept an arguments parameter", ErrLoad, filename)
	}
	def.run = fn

	return def, nil
}

// requireString extracts a mandatory string global.
func requireString(globals starlark.StringDict, key string) (string, error) {
	v, ok := globals[key]
	if !ok {
		return "", fmt.Errorf("missing %s declaration", key)
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", key, v.Type())
	}
	return s, nil
}

// extractSchema converts the params global into a JSON Schema document.
// A script with no params gets the permissive object schema.
func extractSchema(globals starlark.StringDict) (json.RawMessage, error) {
	v, ok := globals["params"]
	if !ok {
		return json.RawMessage(`{"type":"object"}`), nil
	}

	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("params must be a dict, got %s", v.Type())
	}

	converted, err := starlarkToGo(dict)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	raw, err := json.Marshal(converted)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return raw, nil
}

// extractPolicy converts the policy global into a sandbox.Policy.
// Absent fields keep their deny defaults; unknown keys are rejected so a
// typo can never silently grant nothing the author intended.
func extractPolicy(globals starlark.StringDict) (sandbox.Policy, error) {
	var policy sandbox.Policy

	v, ok := globals["policy"]
	if !ok {
		return policy, nil
	}

	dict, ok := v.(*starlark.Dict)
	if !ok {
		return policy, fmt.Errorf("policy must be a dict, got %s", v.Type())
	}

	for _, item := range dict.Items() {
		key, ok := starlark.AsString(item[0])
		if !ok {
			return policy, fmt.Errorf("policy: key %s is not a string", item[0].String())
		}

		switch key {
		case "allow_network":
			b, ok := item[1].(starlark.Bool)
			if !ok {
				return policy, fmt.Errorf("policy: allow_network must be a bool")
			}
			policy.AllowNetwork = bool(b)
		case "allow_env":
			b, ok := item[1].(starlark.Bool)
			if !ok {
				return policy, fmt.Errorf("policy: allow_env must be a bool")
			}
			policy.AllowEnv = bool(b)
		case "allow_read", "allow_write":
			patterns, err := stringList(item[1])
			if err != nil {
				return policy, fmt.Errorf("policy: %s: %w", key, err)
			}
			if key == "allow_read" {
				policy.AllowRead = patterns
			} else {
				policy.AllowWrite = patterns
			}
		default:
			return policy, fmt.Errorf("policy: unknown key %q", key)
		}
	}

	return policy, nil
}

// stringList converts a Starlark list of strings.
func stringList(v starlark.Value) ([]string, error) {
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("must be a list of strings, got %s", v.Type())
	}
	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		out = append(out, s)
	}
	return out, nil
}

// evalDetail renders a Starlark error with its backtrace when available.
func evalDetail(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return err.Error()
}
