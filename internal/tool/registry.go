package tool

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Schema is a tool's identity paired with its JSON Schema, returned by
// Registry.Schemas. This is the shape the calling model needs to know how
// to invoke the tool.
type Schema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Registry holds registered tools. It is instance-based (not global) for
// better testability. Reads proceed concurrently; registration takes
// exclusive access only for the insertion itself.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// It returns ErrEmptyToolName for blank names and ErrDuplicateTool if a tool
// with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return ErrEmptyToolName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = t
	return nil
}

// Get returns the tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Schemas returns all registered tool schemas sorted by name.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]Schema, 0, len(r.tools))
	for name, t := range r.tools {
		schemas = append(schemas, Schema{
			Name:        name,
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	slices.SortFunc(schemas, func(a, b Schema) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return schemas
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute looks up a tool and runs it. A panic inside a tool is recovered
// and reported as an error output — a misbehaving tool must never take the
// host process down with it.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (out Output, err error) {
	t, err := r.Get(name)
	if err != nil {
		return Output{}, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = Output{Content: fmt.Sprintf("panic: %v", rec), IsError: true}
			err = fmt.Errorf("tool %s panicked: %v", name, rec)
		}
	}()

	return t.Execute(ctx, args)
}
