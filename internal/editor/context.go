package editor

import (
	"errors"
	"fmt"

	"github.com/dshills/keyscope/internal/hook"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/scope"
)

// Context errors.
var (
	// ErrNoWindow indicates a window operation in a context without one.
	ErrNoWindow = errors.New("no window in context")

	// ErrNoClient indicates a client operation in a context without one.
	ErrNoClient = errors.New("no client in context")
)

// Context is what commands and hooks execute against: a buffer and its
// selections, optionally seen through a window and a client.
type Context struct {
	editor     *Editor
	buffer     *Buffer
	window     *Window
	client     *Client
	input      *InputHandler
	selections *DynamicSelectionList
	ownsSels   bool

	editionLevel int
	groupOpen    bool
	undoDisabled bool
}

// NewContext creates a context on b with a single selection at the start
// of the buffer.
func (e *Editor) NewContext(b *Buffer) *Context {
	c := &Context{editor: e, buffer: b, ownsSels: true}
	c.selections = newDynamicSelectionList(b, NewSelectionList())
	c.input = newInputHandler(c)
	return c
}

// NewWindowContext creates a context sharing the selections of w.
func (e *Editor) NewWindowContext(w *Window) *Context {
	c := &Context{editor: e, buffer: w.buffer, window: w, selections: w.selections}
	c.input = newInputHandler(c)
	return c
}

// Fork creates a context on the same buffer working on a private copy of
// sels. It has its own input handler and no window or client. Undo
// handling is disabled when c is editing so the fork's changes join the
// undo group already open.
func (c *Context) Fork(sels *SelectionList) *Context {
	f := &Context{editor: c.editor, buffer: c.buffer, ownsSels: true}
	f.selections = newDynamicSelectionList(c.buffer, sels.Clone())
	f.input = newInputHandler(f)
	if c.IsEditing() {
		f.DisableUndo()
	}
	return f
}

// Close releases the selections the context owns.
func (c *Context) Close() {
	if c.ownsSels {
		c.selections.Close()
	}
}

// Editor returns the editor.
func (c *Context) Editor() *Editor { return c.editor }

// Buffer returns the current buffer.
func (c *Context) Buffer() *Buffer { return c.buffer }

// HasWindow returns true if the context is bound to a window.
func (c *Context) HasWindow() bool { return c.window != nil }

// Window returns the window, or ErrNoWindow.
func (c *Context) Window() (*Window, error) {
	if c.window == nil {
		return nil, ErrNoWindow
	}
	return c.window, nil
}

// HasClient returns true if the context belongs to a client.
func (c *Context) HasClient() bool { return c.client != nil }

// Client returns the client, or ErrNoClient.
func (c *Context) Client() (*Client, error) {
	if c.client == nil {
		return nil, ErrNoClient
	}
	return c.client, nil
}

// InputHandler returns the handler keys are fed to.
func (c *Context) InputHandler() *InputHandler { return c.input }

// Selections returns the live selection list.
func (c *Context) Selections() *SelectionList { return c.selections.SelectionList }

// Options returns the innermost option manager.
func (c *Context) Options() *option.Manager { return c.innermost().Options }

// Hooks returns the innermost hook manager.
func (c *Context) Hooks() *hook.Manager[*Context] { return c.innermost().Hooks }

// Keymaps returns the innermost keymap manager.
func (c *Context) Keymaps() *keymap.Manager { return c.innermost().Keymaps }

func (c *Context) innermost() *scope.Container[*Context] {
	if c.window != nil {
		return c.window.scope
	}
	return c.buffer.scope
}

// GlobalScope returns the global container.
func (c *Context) GlobalScope() *scope.Container[*Context] {
	return c.editor.Global
}

// BufferScope returns the current buffer's container.
func (c *Context) BufferScope() (*scope.Container[*Context], error) {
	return c.buffer.scope, nil
}

// WindowScope returns the window container, or ErrNoWindow.
func (c *Context) WindowScope() (*scope.Container[*Context], error) {
	if c.window == nil {
		return nil, ErrNoWindow
	}
	return c.window.scope, nil
}

// NamedBufferScope returns the container of the buffer called name.
func (c *Context) NamedBufferScope(name string) (*scope.Container[*Context], error) {
	b, err := c.editor.Buffers.Get(name)
	if err != nil {
		return nil, err
	}
	return b.scope, nil
}

// FireHook runs point in the innermost scope. Callback errors are returned.
func (c *Context) FireHook(point, param string) error {
	return c.Hooks().Run(point, param, c)
}

// PrintStatus shows text on the client status line. Without a client it
// is logged instead.
func (c *Context) PrintStatus(text, face string) {
	if c.client != nil {
		c.client.ui.PrintStatus(text, face)
		return
	}
	c.editor.Logger.Debug("status", "text", text, "face", face)
}

// IsEditing returns true while an edition is open.
func (c *Context) IsEditing() bool { return c.editionLevel > 0 }

// DisableUndo stops the context from opening undo groups. Edits then join
// whatever group is already open on the buffer.
func (c *Context) DisableUndo() { c.undoDisabled = true }

// BeginEdition opens an edition. Editions nest; the outermost one opens an
// undo group on the buffer unless undo is disabled.
func (c *Context) BeginEdition() {
	if c.editionLevel == 0 && !c.undoDisabled {
		c.buffer.history.BeginGroup()
		c.groupOpen = true
	}
	c.editionLevel++
}

// EndEdition closes an edition, committing the undo group when the
// outermost one closes.
func (c *Context) EndEdition() {
	if c.editionLevel == 0 {
		return
	}
	c.editionLevel--
	if c.editionLevel == 0 && c.groupOpen {
		c.buffer.history.EndGroup()
		c.groupOpen = false
	}
}

// ScopedEdition is an edition closed by End, meant to be deferred.
type ScopedEdition struct {
	ctx    *Context
	active bool
}

// ScopedEdition opens an edition.
func (c *Context) ScopedEdition() *ScopedEdition {
	c.BeginEdition()
	return &ScopedEdition{ctx: c, active: true}
}

// End closes the edition. Only the first call has effect.
func (s *ScopedEdition) End() {
	if s.active {
		s.ctx.EndEdition()
		s.active = false
	}
}

// rebind points the context at a new window, as when its client switches
// buffers. Editions still open on the old buffer are closed first.
func (c *Context) rebind(w *Window) {
	for c.editionLevel > 0 {
		c.EndEdition()
	}
	c.window = w
	c.buffer = w.buffer
	c.selections = w.selections
}

func (c *Context) String() string {
	if c.client != nil {
		return fmt.Sprintf("client %s on %s", c.client.name, c.buffer.name)
	}
	return "context on " + c.buffer.name
}
