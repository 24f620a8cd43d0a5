package editor

import (
	"github.com/dshills/keyscope/internal/highlight"
	"github.com/dshills/keyscope/internal/hook"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/scope"
)

// Window hook points.
const (
	HookWinCreate  = "WinCreate"
	HookWinDisplay = "WinDisplay"
)

// Window is a view on a buffer. It owns the selections of the clients
// showing it and a highlighter group.
type Window struct {
	editor       *Editor
	buffer       *Buffer
	scope        *scope.Container[*Context]
	highlighters *highlight.Group
	selections   *DynamicSelectionList
	timestamp    int
}

// NewWindow creates a window on b and fires WinCreate with the buffer
// name. The window exists even when the hook fails.
func (e *Editor) NewWindow(b *Buffer) (*Window, error) {
	w := &Window{
		editor:       e,
		buffer:       b,
		scope:        scope.NewContainer(scope.Window, b.scope),
		highlighters: highlight.NewGroup("window"),
		timestamp:    -1,
	}
	w.selections = newDynamicSelectionList(b, NewSelectionList())

	ctx := e.NewWindowContext(w)
	defer ctx.Close()
	return w, ctx.Hooks().Run(HookWinCreate, b.name, ctx)
}

// Buffer returns the displayed buffer.
func (w *Window) Buffer() *Buffer { return w.buffer }

// Scope returns the window scope container.
func (w *Window) Scope() *scope.Container[*Context] { return w.scope }

// Options returns the window option manager.
func (w *Window) Options() *option.Manager { return w.scope.Options }

// Hooks returns the window hook manager.
func (w *Window) Hooks() *hook.Manager[*Context] { return w.scope.Hooks }

// Keymaps returns the window keymap manager.
func (w *Window) Keymaps() *keymap.Manager { return w.scope.Keymaps }

// Highlighters returns the root highlighter group.
func (w *Window) Highlighters() *highlight.Group { return w.highlighters }

// Selections returns the window selections.
func (w *Window) Selections() *DynamicSelectionList { return w.selections }

// Option returns the option visible from the window.
func (w *Window) Option(name string) (*option.Option, error) {
	return w.scope.Options.Get(name)
}

// NeedsRedraw returns true if the buffer changed since the last display
// or the timestamp was forgotten.
func (w *Window) NeedsRedraw() bool {
	return w.timestamp != w.buffer.timestamp
}

// ForgetTimestamp forces the next display to redraw.
func (w *Window) ForgetTimestamp() {
	w.timestamp = -1
}

// Display highlights the buffer for drawing and records the buffer
// timestamp.
func (w *Window) Display() *highlight.Display {
	d := highlight.NewDisplay(w.buffer.text)
	highlight.Apply(w.highlighters, d, w)
	w.timestamp = w.buffer.timestamp
	return d
}

// Close releases the window's scope and selections.
func (w *Window) Close() {
	w.selections.Close()
	w.scope.Close()
}
