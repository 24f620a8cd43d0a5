// Package factory provides a flat name to constructor table used to create
// pluggable behaviors, such as highlighters, by name.
package factory

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors.
var (
	// ErrNotFound indicates no factory is registered under a name.
	ErrNotFound = errors.New("factory not found")

	// ErrAlreadyRegistered indicates a name is already taken.
	ErrAlreadyRegistered = errors.New("factory already registered")
)

type entry[F any] struct {
	name    string
	factory F
}

// Registry maps names to factory values of type F, preserving registration
// order for completion.
type Registry[F any] struct {
	kind    string
	entries []entry[F]
}

// NewRegistry creates an empty registry. kind is used in error messages,
// e.g. "highlighter".
func NewRegistry[F any](kind string) *Registry[F] {
	return &Registry[F]{kind: kind}
}

// Register adds a factory. Registering the same name twice fails.
func (r *Registry[F]) Register(name string, f F) error {
	if r.index(name) >= 0 {
		return fmt.Errorf("%s %w: %q", r.kind, ErrAlreadyRegistered, name)
	}
	r.entries = append(r.entries, entry[F]{name: name, factory: f})
	return nil
}

// Get returns the factory registered under name.
func (r *Registry[F]) Get(name string) (F, error) {
	if i := r.index(name); i >= 0 {
		return r.entries[i].factory, nil
	}
	var zero F
	return zero, fmt.Errorf("%s %w '%s'", r.kind, ErrNotFound, name)
}

// Has returns true if name is registered.
func (r *Registry[F]) Has(name string) bool {
	return r.index(name) >= 0
}

// Names returns all registered names in registration order.
func (r *Registry[F]) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Complete returns registered names starting with prefix[:pos].
func (r *Registry[F]) Complete(prefix string, pos int) []string {
	if pos >= 0 && pos < len(prefix) {
		prefix = prefix[:pos]
	}
	var out []string
	for _, e := range r.entries {
		if strings.HasPrefix(e.name, prefix) {
			out = append(out, e.name)
		}
	}
	return out
}

func (r *Registry[F]) index(name string) int {
	for i, e := range r.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}
