// Package history records buffer modifications as undoable groups.
//
// Modifications recorded while a group is open are undone and redone
// together. Groups nest: only closing the outermost one commits. A
// modification recorded with no group open forms its own undo unit.
//
//	defer h.Scope().End()
//	// ... many edits, one undo step ...
package history

import "errors"

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxGroups bounds the undo stack when New is given zero.
const DefaultMaxGroups = 1000

// Kind is the type of a modification.
type Kind int

const (
	Insert Kind = iota
	Erase
)

// Modification is a single text change at a byte offset.
type Modification struct {
	Kind   Kind
	Offset int
	Text   string
}

// Inverse returns the modification that reverts m.
func (m Modification) Inverse() Modification {
	if m.Kind == Insert {
		return Modification{Kind: Erase, Offset: m.Offset, Text: m.Text}
	}
	return Modification{Kind: Insert, Offset: m.Offset, Text: m.Text}
}

// Group is one undo unit.
type Group []Modification

// History holds the undo and redo stacks of one buffer.
type History struct {
	undo    []Group
	redo    []Group
	current Group
	depth   int
	version int
	max     int
}

// New creates a history keeping at most maxGroups undo groups.
func New(maxGroups int) *History {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}
	return &History{max: maxGroups}
}

// Record appends m to the open group and clears the redo stack.
func (h *History) Record(m Modification) {
	h.current = append(h.current, m)
	h.redo = nil
	h.version++
	if h.depth == 0 {
		h.commit()
	}
}

// BeginGroup opens a group. Calls nest.
func (h *History) BeginGroup() {
	h.depth++
}

// EndGroup closes a group, committing it when the outermost one closes.
func (h *History) EndGroup() {
	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth == 0 {
		h.commit()
	}
}

// Depth returns how many groups are open.
func (h *History) Depth() int {
	return h.depth
}

func (h *History) commit() {
	if len(h.current) == 0 {
		return
	}
	h.undo = append(h.undo, h.current)
	h.current = nil
	if len(h.undo) > h.max {
		h.undo = h.undo[len(h.undo)-h.max:]
	}
}

// Undo pops the last group and returns the modifications that revert it,
// in the order they must be applied.
func (h *History) Undo() ([]Modification, error) {
	if len(h.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	g := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, g)
	h.version++

	out := make([]Modification, 0, len(g))
	for i := len(g) - 1; i >= 0; i-- {
		out = append(out, g[i].Inverse())
	}
	return out, nil
}

// Redo pops the last undone group and returns its modifications in order.
func (h *History) Redo() ([]Modification, error) {
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	g := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, g)
	h.version++
	return append([]Modification(nil), g...), nil
}

// UndoCount returns the number of undo groups.
func (h *History) UndoCount() int {
	return len(h.undo)
}

// RedoCount returns the number of redo groups.
func (h *History) RedoCount() int {
	return len(h.redo)
}

// Version increases on every recorded, undone or redone change.
func (h *History) Version() int {
	return h.version
}

// GroupScope closes a group when End is called.
type GroupScope struct {
	history *History
	active  bool
}

// Scope opens a group. Use with defer.
func (h *History) Scope() *GroupScope {
	h.BeginGroup()
	return &GroupScope{history: h, active: true}
}

// End closes the group. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}
