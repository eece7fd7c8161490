// Package sandbox defines the capability policy attached to every script tool
// and its translation into the concrete permission grant enforced during one
// execution. Policies are deny-by-default: a capability that is not granted
// explicitly does not exist.
package sandbox

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Capability identifies one kind of access a script may be granted.
type Capability string

// Capability values covering every I/O boundary a script can cross.
const (
	CapabilityNetwork Capability = "network"
	CapabilityRead    Capability = "read"
	CapabilityWrite   Capability = "write"
	CapabilityEnv     Capability = "env"
)

// Policy declares the capability set for one script. It is a pure value:
// attached to a definition at load time and never mutated afterwards.
//
// Glob patterns follow doublestar semantics: `*` matches within a single
// path segment, `**` matches recursively. Matching always happens against
// the resolved absolute path of the access attempt, never the literal
// argument, so symlink and relative-path tricks cannot widen the grant.
type Policy struct {
	// AllowNetwork enables outbound network access as a single switch.
	AllowNetwork bool `yaml:"allow_network" json:"allow_network"`

	// AllowRead lists glob patterns for paths the script may read.
	AllowRead []string `yaml:"allow_read" json:"allow_read,omitempty"`

	// AllowWrite lists glob patterns for paths the script may write.
	// Write access does not imply read access.
	AllowWrite []string `yaml:"allow_write" json:"allow_write,omitempty"`

	// AllowEnv enables environment variable lookups as a single switch.
	AllowEnv bool `yaml:"allow_env" json:"allow_env"`
}

// Validate checks that every glob pattern in the policy is well-formed.
// A policy with a malformed pattern must be rejected at load time, before
// any definition referencing it can be registered.
func (p Policy) Validate() error {
	for _, pattern := range p.AllowRead {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("allow_read: invalid glob pattern %q", pattern)
		}
	}
	for _, pattern := range p.AllowWrite {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("allow_write: invalid glob pattern %q", pattern)
		}
	}
	return nil
}
