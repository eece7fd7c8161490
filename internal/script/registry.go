package script

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// DuplicatePolicy decides what Register does when a name already exists.
type DuplicatePolicy string

// Duplicate registration policies. Replacement is never silent: the registry
// logs a warning before overwriting.
const (
	DuplicateReject  DuplicatePolicy = "reject"
	DuplicateReplace DuplicatePolicy = "replace"
)

// ParseDuplicatePolicy parses a configured duplicate policy, defaulting to
// reject for the empty string.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateReplace:
		return DuplicateReplace, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (must be reject or replace)", s)
	}
}

// Registry maps tool names to script definitions. Readers proceed
// concurrently; writers take exclusive access only for the insertion itself.
// It grows via Register for the process lifetime and holds no external
// resources, so it needs no teardown.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*Definition
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]*Definition),
		logger: logger,
	}
}

// Register inserts a definition under its name. Behavior on an existing name
// follows the given policy: reject returns ErrDuplicate, replace overwrites
// the previous definition after logging a warning.
func (r *Registry) Register(def *Definition, onDuplicate DuplicatePolicy) error {
	if def.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.defs[def.Name]; exists {
		if onDuplicate == DuplicateReject {
			return fmt.Errorf("%w: %s", ErrDuplicate, def.Name)
		}
		r.logger.Warn("replacing registered script",
			slog.String("script", def.Name),
			slog.String("previous_source", prev.Source),
			slog.String("source", def.Source),
		)
	}

	r.defs[def.Name] = def
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// List returns all registered definitions sorted by name, a stable order
// within a process run.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b *Definition) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return defs
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
