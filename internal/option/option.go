// Package option implements typed, scope chained editor options.
//
// Options are declared once in the global Manager. Buffer and window
// managers chain to a parent and only hold options that were overridden
// locally; lookups fall through to the parent otherwise. When an option
// changes, watchers of the owning manager run, followed by the watchers of
// every descendant that does not override it.
package option

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/keyscope/internal/regex"
)

// Option errors.
var (
	// ErrNoSuchOption indicates the option was never declared.
	ErrNoSuchOption = errors.New("option: no such option")

	// ErrAlreadyDeclared indicates a redeclaration with a different type.
	ErrAlreadyDeclared = errors.New("option: already declared with a different type")

	// ErrUnknownType indicates an unknown declaration type name.
	ErrUnknownType = errors.New("option: unknown type")

	// ErrInvalidValue indicates a value that does not parse for the type.
	ErrInvalidValue = errors.New("option: invalid value")

	// ErrAddUnsupported indicates Add was called on a type without addition.
	ErrAddUnsupported = errors.New("option: no add operation")
)

// Flags alter how an option is presented.
type Flags uint8

const (
	FlagNone Flags = 0
	// FlagHidden excludes the option from completion.
	FlagHidden Flags = 1 << iota
)

// Option is a named, typed value owned by a Manager.
type Option struct {
	name    string
	typ     Type
	flags   Flags
	value   any
	manager *Manager
}

// Name returns the option name.
func (o *Option) Name() string { return o.name }

// Type returns the declared type.
func (o *Option) Type() Type { return o.typ }

// Flags returns the option flags.
func (o *Option) Flags() Flags { return o.flags }

// Value returns the typed value. Lists are returned as copies.
func (o *Option) Value() any { return clone(o.typ, o.value) }

// String returns the textual form of the value.
func (o *Option) String() string { return format(o.typ, o.value) }

// Int returns the value of an int option, or 0.
func (o *Option) Int() int {
	n, _ := o.value.(int)
	return n
}

// Bool returns the value of a bool option, or false.
func (o *Option) Bool() bool {
	b, _ := o.value.(bool)
	return b
}

// Str returns the value of a str option, or "".
func (o *Option) Str() string {
	s, _ := o.value.(string)
	return s
}

// Regex returns the value of a regex option.
func (o *Option) Regex() regex.Regex {
	r, _ := o.value.(regex.Regex)
	return r
}

// IntList returns a copy of an int-list value.
func (o *Option) IntList() []int {
	l, _ := o.value.([]int)
	return append([]int(nil), l...)
}

// StringList returns a copy of a str-list value.
func (o *Option) StringList() []string {
	l, _ := o.value.([]string)
	return append([]string(nil), l...)
}

// LineFlags returns a copy of a line-flag-list value.
func (o *Option) LineFlags() []LineFlag {
	l, _ := o.value.([]LineFlag)
	return append([]LineFlag(nil), l...)
}

// Set parses s and assigns it.
func (o *Option) Set(s string) error {
	v, err := parse(o.typ, s)
	if err != nil {
		return fmt.Errorf("%s: %w", o.name, err)
	}
	o.assign(v)
	return nil
}

// Add parses s and adds it to the current value: integers are summed and
// lists are extended.
func (o *Option) Add(s string) error {
	v, err := add(o.typ, o.value, s)
	if err != nil {
		return fmt.Errorf("%s: %w", o.name, err)
	}
	o.assign(v)
	return nil
}

func (o *Option) assign(v any) {
	o.value = v
	if o.manager != nil {
		o.manager.notify(o)
	}
}

// Watcher is notified after an option visible from a manager changes.
type Watcher func(opt *Option)

// Manager holds options for one scope.
type Manager struct {
	parent   *Manager
	options  map[string]*Option
	order    []string
	children []*Manager
	watchers []Watcher
}

// NewManager creates a manager. A nil parent makes it a root.
func NewManager(parent *Manager) *Manager {
	m := &Manager{parent: parent, options: make(map[string]*Option)}
	if parent != nil {
		parent.children = append(parent.children, m)
	}
	return m
}

// Parent returns the parent manager, or nil for the root.
func (m *Manager) Parent() *Manager {
	return m.parent
}

// Close detaches m from its parent so it stops receiving change
// propagation. It is called when the owning buffer or window dies.
func (m *Manager) Close() {
	if m.parent == nil {
		return
	}
	siblings := m.parent.children
	for i, c := range siblings {
		if c == m {
			m.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	m.parent = nil
}

// Declare creates an option with the zero value of typ. Declaring an
// existing option with the same type returns it unchanged.
func (m *Manager) Declare(name string, typ Type, flags Flags) (*Option, error) {
	if opt, ok := m.options[name]; ok {
		if opt.typ != typ {
			return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDeclared, name, opt.typ)
		}
		return opt, nil
	}
	opt := &Option{name: name, typ: typ, flags: flags, value: zero(typ), manager: m}
	m.options[name] = opt
	m.order = append(m.order, name)
	return opt, nil
}

// Get returns the option visible from m, searching parents.
func (m *Manager) Get(name string) (*Option, error) {
	for cur := m; cur != nil; cur = cur.parent {
		if opt, ok := cur.options[name]; ok {
			return opt, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNoSuchOption, name)
}

// Local returns the option owned by m, copying the inherited value into m
// first if it is not overridden here yet.
func (m *Manager) Local(name string) (*Option, error) {
	if opt, ok := m.options[name]; ok {
		return opt, nil
	}
	inherited, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	opt := &Option{
		name:    name,
		typ:     inherited.typ,
		flags:   inherited.flags,
		value:   clone(inherited.typ, inherited.value),
		manager: m,
	}
	m.options[name] = opt
	m.order = append(m.order, name)
	return opt, nil
}

// HasLocal returns true if m overrides name.
func (m *Manager) HasLocal(name string) bool {
	_, ok := m.options[name]
	return ok
}

// Unset drops a local override so the parent value applies again.
// Unsetting on the root or an option without override does nothing.
func (m *Manager) Unset(name string) {
	if m.parent == nil {
		return
	}
	if _, ok := m.options[name]; !ok {
		return
	}
	delete(m.options, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if opt, err := m.parent.Get(name); err == nil {
		m.notify(opt)
	}
}

// Names returns every option name visible from m, sorted.
func (m *Manager) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := m; cur != nil; cur = cur.parent {
		for _, n := range cur.order {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Complete returns visible, non hidden option names starting with
// prefix[:pos].
func (m *Manager) Complete(prefix string, pos int) []string {
	if pos >= 0 && pos < len(prefix) {
		prefix = prefix[:pos]
	}
	var out []string
	for _, n := range m.Names() {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if opt, err := m.Get(n); err == nil && opt.flags&FlagHidden != 0 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Watch registers fn for changes of any option visible from m.
func (m *Manager) Watch(fn Watcher) {
	m.watchers = append(m.watchers, fn)
}

func (m *Manager) notify(opt *Option) {
	for _, w := range m.watchers {
		w(opt)
	}
	for _, child := range m.children {
		if child.HasLocal(opt.name) {
			continue
		}
		child.notify(opt)
	}
}
