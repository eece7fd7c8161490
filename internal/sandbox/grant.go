package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrPermissionDenied is the sentinel for any access attempt outside the
// granted capability set. It aborts only the current call; use errors.Is
// to detect it through wrapping.
var ErrPermissionDenied = errors.New("permission denied")

// DeniedError records which capability was refused and what the script was
// trying to reach. It matches ErrPermissionDenied under errors.Is.
type DeniedError struct {
	Capability Capability
	Target     string
}

func (e *DeniedError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("permission denied: %s access is not granted", e.Capability)
	}
	return fmt.Sprintf("permission denied: %s %s", e.Capability, e.Target)
}

// Is reports whether target is ErrPermissionDenied, so callers can use
// errors.Is(err, ErrPermissionDenied) without knowing the concrete type.
func (e *DeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// Grant is the concrete, minimal permission set for exactly one execution
// context. It is computed from a Policy when the context is created and
// discarded with it.
type Grant struct {
	network bool
	env     bool
	read    []string
	write   []string

	// implicitRead holds the resolved host executable path, the only read
	// the engine permits without an allow-list entry.
	implicitRead []string
}

// NewGrant translates a Policy into a Grant. The policy's glob patterns are
// validated here as well, so a grant can never hold a pattern that fails to
// match deterministically.
func NewGrant(p Policy) (*Grant, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := &Grant{
		network: p.AllowNetwork,
		env:     p.AllowEnv,
		read:    append([]string(nil), p.AllowRead...),
		write:   append([]string(nil), p.AllowWrite...),
	}

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			g.implicitRead = append(g.implicitRead, resolved)
		}
	}

	return g, nil
}

// CheckNetwork reports whether the grant permits any network operation.
func (g *Grant) CheckNetwork(target string) error {
	if g.network {
		return nil
	}
	return &DeniedError{Capability: CapabilityNetwork, Target: target}
}

// CheckEnv reports whether the grant permits environment lookups.
func (g *Grant) CheckEnv(name string) error {
	if g.env {
		return nil
	}
	return &DeniedError{Capability: CapabilityEnv, Target: name}
}

// CheckRead resolves path and checks it against the read allow-list.
// It returns the resolved path the caller must use for the actual access,
// so the check and the access cannot diverge.
func (g *Grant) CheckRead(path string) (string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return "", &DeniedError{Capability: CapabilityRead, Target: path}
	}
	if matchAny(g.implicitRead, resolved) || matchAny(g.read, resolved) {
		return resolved, nil
	}
	return "", &DeniedError{Capability: CapabilityRead, Target: path}
}

// CheckWrite resolves path and checks it against the write allow-list.
// Write access never implies read access and vice versa.
func (g *Grant) CheckWrite(path string) (string, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return "", &DeniedError{Capability: CapabilityWrite, Target: path}
	}
	if matchAny(g.write, resolved) {
		return resolved, nil
	}
	return "", &DeniedError{Capability: CapabilityWrite, Target: path}
}

// resolvePath canonicalizes a path at the moment of the access attempt:
// absolute, cleaned, symlinks followed. For paths that do not exist yet
// (writes), the deepest existing ancestor is resolved and the remaining
// components are re-joined, so a symlinked parent directory cannot smuggle
// a write outside the grant.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	// Walk up to the deepest existing ancestor.
	dir, rest := abs, ""
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil // no existing ancestor; keep the cleaned absolute path
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent

		resolvedDir, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolvedDir, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
}

// matchAny reports whether the resolved path matches at least one pattern.
// Patterns and paths are compared in slash form so behavior is identical
// across platforms.
func matchAny(patterns []string, resolved string) bool {
	name := filepath.ToSlash(resolved)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(filepath.ToSlash(pattern), name)
		if err == nil && ok {
			return true
		}
	}
	return false
}
