// Package keymap stores per scope key remappings.
//
// A mapping replaces one key pressed in a given mode with a sequence of
// keys. Managers chain like the other scoped containers: a window's
// mappings shadow its buffer's, which shadow the global ones.
package keymap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/keyscope/internal/key"
)

// ErrUnknownMode indicates a mode name that matches no mode.
var ErrUnknownMode = errors.New("keymap: unknown mode")

// Mode selects which input mode a mapping applies to.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeMenu
	ModePrompt
)

var modeNames = []string{
	ModeNormal: "normal",
	ModeInsert: "insert",
	ModeMenu:   "menu",
	ModePrompt: "prompt",
}

// String returns the mode name.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode resolves a mode name or a prefix of one, checked in the order
// normal, insert, menu, prompt.
func ParseMode(s string) (Mode, error) {
	if s != "" {
		for i, name := range modeNames {
			if strings.HasPrefix(name, s) {
				return Mode(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w '%s'", ErrUnknownMode, s)
}

// ModeNames returns every mode name.
func ModeNames() []string {
	return append([]string(nil), modeNames...)
}

type binding struct {
	key  key.Key
	mode Mode
}

// Manager holds the mappings of one scope.
type Manager struct {
	parent   *Manager
	mappings map[binding][]key.Key
}

// NewManager creates a manager chained to parent, which may be nil.
func NewManager(parent *Manager) *Manager {
	return &Manager{parent: parent, mappings: make(map[binding][]key.Key)}
}

// Map binds k in mode to keys, replacing any local mapping.
func (m *Manager) Map(k key.Key, mode Mode, keys []key.Key) {
	m.mappings[binding{k, mode}] = append([]key.Key(nil), keys...)
}

// Unmap removes the local mapping of k in mode, if any.
func (m *Manager) Unmap(k key.Key, mode Mode) {
	delete(m.mappings, binding{k, mode})
}

// IsMapped returns true if k is mapped in mode here or in a parent.
func (m *Manager) IsMapped(k key.Key, mode Mode) bool {
	_, ok := m.Mapping(k, mode)
	return ok
}

// Mapping returns the keys k expands to, searching from the innermost
// scope outward.
func (m *Manager) Mapping(k key.Key, mode Mode) ([]key.Key, bool) {
	for cur := m; cur != nil; cur = cur.parent {
		if keys, ok := cur.mappings[binding{k, mode}]; ok {
			return append([]key.Key(nil), keys...), true
		}
	}
	return nil, false
}

// Len returns the number of local mappings.
func (m *Manager) Len() int {
	return len(m.mappings)
}
