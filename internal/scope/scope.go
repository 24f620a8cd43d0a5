// Package scope resolves scope keywords to option, hook and keymap
// containers.
//
// The keywords are "global", "buffer" and "window", each accepted by any
// unambiguous prefix, plus "buffer=<name>" to reach another buffer's
// container. Options, hooks and keymaps share this resolver so they share
// one addressing scheme.
package scope

import (
	"fmt"
	"strings"

	"github.com/dshills/keyscope/internal/hook"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/option"
)

// Kind identifies a scope level.
type Kind int

const (
	// Global is the editor wide scope every other scope falls back to.
	Global Kind = iota

	// Buffer holds the settings of one buffer.
	Buffer

	// Window holds the settings of one client window.
	Window
)

var keywords = []string{
	Global: "global",
	Buffer: "buffer",
	Window: "window",
}

// String returns the scope keyword.
func (k Kind) String() string {
	if int(k) < len(keywords) {
		return keywords[k]
	}
	return "unknown"
}

// NamedBufferPrefix introduces an explicit buffer name.
const NamedBufferPrefix = "buffer="

// UnknownScopeError reports a keyword that names no scope.
type UnknownScopeError struct {
	Keyword string
}

func (e *UnknownScopeError) Error() string {
	return fmt.Sprintf("no such scope '%s'", e.Keyword)
}

// Container bundles the scoped subsystems of one scope level. C is the
// execution context type hooks receive.
type Container[C any] struct {
	Kind    Kind
	Options *option.Manager
	Hooks   *hook.Manager[C]
	Keymaps *keymap.Manager
}

// NewContainer creates a container whose managers chain to parent's. A nil
// parent creates a root container.
func NewContainer[C any](kind Kind, parent *Container[C]) *Container[C] {
	c := &Container[C]{Kind: kind}
	if parent == nil {
		c.Options = option.NewManager(nil)
		c.Hooks = hook.NewManager[C](nil)
		c.Keymaps = keymap.NewManager(nil)
		return c
	}
	c.Options = option.NewManager(parent.Options)
	c.Hooks = hook.NewManager(parent.Hooks)
	c.Keymaps = keymap.NewManager(parent.Keymaps)
	return c
}

// Close detaches the container from its parent. Called when the owning
// buffer or window dies.
func (c *Container[C]) Close() {
	c.Options.Close()
}

// Source provides the containers reachable from an execution context.
type Source[C any] interface {
	GlobalScope() *Container[C]
	BufferScope() (*Container[C], error)
	WindowScope() (*Container[C], error)
	NamedBufferScope(name string) (*Container[C], error)
}

// Resolve maps keyword to a container reachable from src.
func Resolve[C any](keyword string, src Source[C]) (*Container[C], error) {
	if name, ok := strings.CutPrefix(keyword, NamedBufferPrefix); ok {
		return src.NamedBufferScope(name)
	}

	kind, err := ParseKind(keyword)
	if err != nil {
		return nil, err
	}
	switch kind {
	case Buffer:
		return src.BufferScope()
	case Window:
		return src.WindowScope()
	}
	return src.GlobalScope(), nil
}

// ParseKind matches keyword against the scope keywords by unambiguous
// prefix.
func ParseKind(keyword string) (Kind, error) {
	match := -1
	if keyword != "" {
		for i, kw := range keywords {
			if !strings.HasPrefix(kw, keyword) {
				continue
			}
			if match >= 0 {
				return 0, &UnknownScopeError{Keyword: keyword}
			}
			match = i
		}
	}
	if match < 0 {
		return 0, &UnknownScopeError{Keyword: keyword}
	}
	return Kind(match), nil
}

// Options resolves keyword to an option manager.
func Options[C any](keyword string, src Source[C]) (*option.Manager, error) {
	c, err := Resolve(keyword, src)
	if err != nil {
		return nil, err
	}
	return c.Options, nil
}

// Hooks resolves keyword to a hook manager.
func Hooks[C any](keyword string, src Source[C]) (*hook.Manager[C], error) {
	c, err := Resolve(keyword, src)
	if err != nil {
		return nil, err
	}
	return c.Hooks, nil
}

// Keymaps resolves keyword to a keymap manager.
func Keymaps[C any](keyword string, src Source[C]) (*keymap.Manager, error) {
	c, err := Resolve(keyword, src)
	if err != nil {
		return nil, err
	}
	return c.Keymaps, nil
}

// Keywords returns the plain scope keywords.
func Keywords() []string {
	return append([]string(nil), keywords...)
}

// Complete returns scope keywords starting with prefix[:pos].
func Complete(prefix string, pos int) []string {
	if pos >= 0 && pos < len(prefix) {
		prefix = prefix[:pos]
	}
	var out []string
	for _, kw := range keywords {
		if strings.HasPrefix(kw, prefix) {
			out = append(out, kw)
		}
	}
	return out
}
