// Package hook implements per scope registries of named hook points.
//
// Each scope owns a Manager chained to the enclosing scope's Manager
// (window to buffer to global). Running a hook point runs the enclosing
// scopes' callbacks first, then the local ones, each in registration order.
// A callback only runs if its filter matches the whole hook parameter.
package hook

import (
	"github.com/dshills/keyscope/internal/group"
	"github.com/dshills/keyscope/internal/regex"
)

// Any is a filter matching every parameter.
var Any = regex.MustCompile(`(?s).*`)

// Func is a hook callback. C is the execution context type.
type Func[C any] func(param string, ctx C) error

// Entry is a registered callback.
type Entry[C any] struct {
	// Point is the hook point name, e.g. "BufWritePost".
	Point string

	// ID groups hooks for removal. It may be empty.
	ID string

	// Filter must match the whole hook parameter.
	Filter regex.Regex

	Func Func[C]
}

// Manager holds the hooks of one scope.
type Manager[C any] struct {
	parent  *Manager[C]
	entries []Entry[C]
}

// NewManager creates a manager chained to parent, which may be nil.
func NewManager[C any](parent *Manager[C]) *Manager[C] {
	return &Manager[C]{parent: parent}
}

// Parent returns the enclosing scope's manager.
func (m *Manager[C]) Parent() *Manager[C] {
	return m.parent
}

// Add registers fn at point.
func (m *Manager[C]) Add(point, id string, filter regex.Regex, fn Func[C]) {
	m.entries = append(m.entries, Entry[C]{Point: point, ID: id, Filter: filter, Func: fn})
}

// Remove deletes every local entry whose id or hook point name matches
// pattern, exactly or with a trailing '*'. It returns how many were
// removed; a pattern that matches nothing is not an error.
func (m *Manager[C]) Remove(pattern string) int {
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if (e.ID != "" && group.MatchName(pattern, e.ID)) || group.MatchName(pattern, e.Point) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(m.entries); i++ {
		m.entries[i] = Entry[C]{}
	}
	m.entries = kept
	return removed
}

// Run fires point with param. The first callback error stops the run and
// is returned to the caller.
func (m *Manager[C]) Run(point, param string, ctx C) error {
	if m.parent != nil {
		if err := m.parent.Run(point, param, ctx); err != nil {
			return err
		}
	}

	// Callbacks may add or remove hooks; iterate over a snapshot.
	entries := make([]Entry[C], len(m.entries))
	copy(entries, m.entries)

	for _, e := range entries {
		if e.Point != point || !e.Filter.Match(param) {
			continue
		}
		if err := e.Func(param, ctx); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of local entries.
func (m *Manager[C]) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the local entries in registration order.
func (m *Manager[C]) Entries() []Entry[C] {
	out := make([]Entry[C], len(m.entries))
	copy(out, m.entries)
	return out
}
