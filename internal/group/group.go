// Package group provides a named, nestable collection of items.
//
// A Group holds an ordered list of direct children, each either a leaf item or
// a nested Group. Nested groups are addressed with separator delimited paths
// such as "code/comments". Iteration and completion follow insertion order so
// that completion menus stay deterministic.
//
// The same Group type backs window highlighter trees and the defined
// highlighter registry.
package group

import (
	"errors"
	"fmt"
	"strings"
)

// Group errors.
var (
	// ErrDuplicateID indicates a leaf with the same name already exists.
	ErrDuplicateID = errors.New("group: duplicate id")

	// ErrGroupNotFound indicates a path component does not name a group.
	ErrGroupNotFound = errors.New("group: no such group")

	// ErrNotAGroup indicates a path component names a leaf item.
	ErrNotAGroup = errors.New("group: id is not a group")
)

// Entry is a direct child of a group. Exactly one of Item and Group is
// meaningful: Group is nil for leaves.
type Entry[T any] struct {
	Name  string
	Item  T
	Group *Group[T]
}

// IsGroup returns true if the entry is a nested group.
func (e Entry[T]) IsGroup() bool {
	return e.Group != nil
}

// Group is an ordered, insertion stable collection of leaves and sub-groups.
// Names are unique among the direct children of a single group.
type Group[T any] struct {
	name    string
	entries []Entry[T]
}

// New creates an empty group.
func New[T any](name string) *Group[T] {
	return &Group[T]{name: name}
}

// Name returns the group name.
func (g *Group[T]) Name() string {
	return g.name
}

// Len returns the number of direct children.
func (g *Group[T]) Len() int {
	return len(g.entries)
}

// Append adds a leaf item. Appending a name that is already used by a direct
// child fails with ErrDuplicateID.
func (g *Group[T]) Append(name string, item T) error {
	if g.index(name) >= 0 {
		return fmt.Errorf("%w: %q in %q", ErrDuplicateID, name, g.name)
	}
	g.entries = append(g.entries, Entry[T]{Name: name, Item: item})
	return nil
}

// AppendGroup adds a nested group, or returns the existing one if a group
// with that name is already present.
func (g *Group[T]) AppendGroup(name string) (*Group[T], error) {
	if i := g.index(name); i >= 0 {
		if g.entries[i].Group == nil {
			return nil, fmt.Errorf("%w: %q", ErrNotAGroup, name)
		}
		return g.entries[i].Group, nil
	}
	child := New[T](name)
	g.entries = append(g.entries, Entry[T]{Name: name, Group: child})
	return child, nil
}

// Find returns the leaf item with the given name.
func (g *Group[T]) Find(name string) (T, bool) {
	var zero T
	i := g.index(name)
	if i < 0 || g.entries[i].Group != nil {
		return zero, false
	}
	return g.entries[i].Item, true
}

// Child returns the direct sub-group with the given name.
func (g *Group[T]) Child(name string) (*Group[T], bool) {
	i := g.index(name)
	if i < 0 || g.entries[i].Group == nil {
		return nil, false
	}
	return g.entries[i].Group, true
}

// Group resolves a sep delimited path of nested groups without creating
// anything. An empty path resolves to g itself.
func (g *Group[T]) Group(path string, sep rune) (*Group[T], error) {
	return g.resolve(path, sep, false)
}

// EnsureGroup resolves a path, creating missing intermediate groups.
func (g *Group[T]) EnsureGroup(path string, sep rune) (*Group[T], error) {
	return g.resolve(path, sep, true)
}

func (g *Group[T]) resolve(path string, sep rune, create bool) (*Group[T], error) {
	current := g
	if path == "" {
		return current, nil
	}
	for _, part := range strings.Split(path, string(sep)) {
		if part == "" {
			continue
		}
		if create {
			next, err := current.AppendGroup(part)
			if err != nil {
				return nil, err
			}
			current = next
			continue
		}
		i := current.index(part)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrGroupNotFound, path)
		}
		if current.entries[i].Group == nil {
			return nil, fmt.Errorf("%w: %q", ErrNotAGroup, part)
		}
		current = current.entries[i].Group
	}
	return current, nil
}

// Remove deletes every direct child whose name matches pattern and returns
// how many were removed. A pattern ending in '*' matches by prefix. Nothing
// matching is not an error.
func (g *Group[T]) Remove(pattern string) int {
	kept := g.entries[:0]
	removed := 0
	for _, e := range g.entries {
		if MatchName(pattern, e.Name) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so removed items can be collected.
	var zero Entry[T]
	for i := len(kept); i < len(g.entries); i++ {
		g.entries[i] = zero
	}
	g.entries = kept
	return removed
}

// Entries returns a copy of the direct children in insertion order.
func (g *Group[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(g.entries))
	copy(out, g.entries)
	return out
}

// Walk visits every leaf depth first, in insertion order.
func (g *Group[T]) Walk(fn func(path string, item T)) {
	g.walk("", fn)
}

func (g *Group[T]) walk(prefix string, fn func(path string, item T)) {
	for _, e := range g.entries {
		name := e.Name
		if prefix != "" {
			name = prefix + "/" + e.Name
		}
		if e.Group != nil {
			e.Group.walk(name, fn)
			continue
		}
		fn(name, e.Item)
	}
}

// CompleteID returns the names of direct children, leaves and groups alike,
// that start with prefix[:pos].
func (g *Group[T]) CompleteID(prefix string, pos int) []string {
	prefix = clampPrefix(prefix, pos)
	var out []string
	for _, e := range g.entries {
		if strings.HasPrefix(e.Name, prefix) {
			out = append(out, e.Name)
		}
	}
	return out
}

// CompleteGroupID completes a '/' delimited group path. Candidates are full
// paths so they can replace the whole token.
func (g *Group[T]) CompleteGroupID(prefix string, pos int) []string {
	prefix = clampPrefix(prefix, pos)

	parent := g
	head, leaf := "", prefix
	if i := strings.LastIndexByte(prefix, '/'); i >= 0 {
		head, leaf = prefix[:i+1], prefix[i+1:]
		var err error
		parent, err = g.Group(prefix[:i], '/')
		if err != nil {
			return nil
		}
	}

	var out []string
	for _, e := range parent.entries {
		if e.Group != nil && strings.HasPrefix(e.Name, leaf) {
			out = append(out, head+e.Name)
		}
	}
	return out
}

func (g *Group[T]) index(name string) int {
	for i, e := range g.entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// MatchName reports whether name matches pattern. A trailing '*' turns the
// pattern into a prefix match; otherwise the match is exact.
func MatchName(pattern, name string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return pattern == name
}

func clampPrefix(prefix string, pos int) string {
	if pos >= 0 && pos < len(prefix) {
		return prefix[:pos]
	}
	return prefix
}
