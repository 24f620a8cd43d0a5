// Package register stores named text registers.
//
// A register holds a list of values, one per selection. Static registers
// keep whatever was written to them. Dynamic registers compute their
// content from the execution context on every read and cannot be written.
// The null register '_' reads empty and drops writes.
package register

import (
	"errors"
	"fmt"
	"sort"
)

// Well known register names.
const (
	Default   = '"'
	Search    = '/'
	Null      = '_'
	BufName   = '%'
	Selection = '.'
	Index     = '#'
)

// ErrReadOnly indicates a write to a dynamic register.
var ErrReadOnly = errors.New("register: not assignable")

// DynamicFunc computes a dynamic register's content.
type DynamicFunc[C any] func(ctx C) []string

// Manager holds every register. C is the execution context type dynamic
// registers are computed from.
type Manager[C any] struct {
	static  map[rune][]string
	dynamic map[rune]DynamicFunc[C]
}

// NewManager creates a manager with no dynamic registers.
func NewManager[C any]() *Manager[C] {
	return &Manager[C]{
		static:  make(map[rune][]string),
		dynamic: make(map[rune]DynamicFunc[C]),
	}
}

// RegisterDynamic installs fn as the content of register name.
func (m *Manager[C]) RegisterDynamic(name rune, fn DynamicFunc[C]) {
	m.dynamic[name] = fn
}

// Get returns a copy of the register content.
func (m *Manager[C]) Get(name rune, ctx C) []string {
	if name == Null {
		return nil
	}
	if fn, ok := m.dynamic[name]; ok {
		return fn(ctx)
	}
	return append([]string(nil), m.static[name]...)
}

// Set replaces the register content.
func (m *Manager[C]) Set(name rune, values []string) error {
	if name == Null {
		return nil
	}
	if _, ok := m.dynamic[name]; ok {
		return fmt.Errorf("%w: '%c'", ErrReadOnly, name)
	}
	m.static[name] = append([]string(nil), values...)
	return nil
}

// Names returns the names of non empty static registers and all dynamic
// registers, sorted.
func (m *Manager[C]) Names() []rune {
	var out []rune
	for name, values := range m.static {
		if len(values) > 0 {
			out = append(out, name)
		}
	}
	for name := range m.dynamic {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot is a saved copy of one static register.
type Snapshot[C any] struct {
	manager *Manager[C]
	name    rune
	values  []string
	present bool
}

// Snapshot records the current content of register name. Callers defer
// Restore so the content comes back on every exit path.
func (m *Manager[C]) Snapshot(name rune) *Snapshot[C] {
	values, ok := m.static[name]
	return &Snapshot[C]{
		manager: m,
		name:    name,
		values:  append([]string(nil), values...),
		present: ok,
	}
}

// Restore puts the recorded content back unconditionally.
func (s *Snapshot[C]) Restore() {
	if !s.present {
		delete(s.manager.static, s.name)
		return
	}
	s.manager.static[s.name] = append([]string(nil), s.values...)
}
