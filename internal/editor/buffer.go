package editor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/keyscope/internal/history"
	"github.com/dshills/keyscope/internal/hook"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/scope"
)

// Buffer errors.
var (
	// ErrBufferNotFound indicates no buffer has the requested name.
	ErrBufferNotFound = errors.New("no such buffer")

	// ErrBufferExists indicates a buffer name is already used.
	ErrBufferExists = errors.New("buffer already exists")

	// ErrLastBuffer indicates an attempt to delete the only buffer.
	ErrLastBuffer = errors.New("last buffer")

	// ErrOffsetOutOfRange indicates an edit outside the buffer text.
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// BufferFlags describe where a buffer comes from.
type BufferFlags uint8

const (
	// BufferFile buffers are backed by the file named after them.
	BufferFile BufferFlags = 1 << iota
	// BufferNew buffers name a file that did not exist when opened.
	BufferNew
	// BufferScratch buffers are never considered modified.
	BufferScratch
	// BufferNoUndo buffers record no history.
	BufferNoUndo
)

// Buffer hook points.
const (
	HookBufCreate    = "BufCreate"
	HookBufNew       = "BufNew"
	HookBufOpen      = "BufOpen"
	HookBufClose     = "BufClose"
	HookBufWritePre  = "BufWritePre"
	HookBufWritePost = "BufWritePost"
)

// ChangeListener observes buffer text changes. Offsets are in bytes and
// refer to the text after the change for inserts and before it for erases.
type ChangeListener interface {
	OnInsert(offset, length int)
	OnErase(begin, end int)
}

// Buffer is a named text always ending with a newline.
type Buffer struct {
	editor    *Editor
	name      string
	flags     BufferFlags
	text      string
	history   *history.History
	scope     *scope.Container[*Context]
	listeners []ChangeListener
	saved     int
	timestamp int
}

func newBuffer(ed *Editor, name string, flags BufferFlags, text string) *Buffer {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return &Buffer{
		editor:  ed,
		name:    name,
		flags:   flags,
		text:    text,
		history: history.New(0),
		scope:   scope.NewContainer(scope.Buffer, ed.Global),
	}
}

// Name returns the buffer name. File buffers are named after their path.
func (b *Buffer) Name() string { return b.name }

// Flags returns the buffer flags.
func (b *Buffer) Flags() BufferFlags { return b.flags }

// HasFlag returns true if every bit of f is set.
func (b *Buffer) HasFlag(f BufferFlags) bool { return b.flags&f == f }

// Text returns the whole buffer content.
func (b *Buffer) Text() string { return b.text }

// Len returns the content length in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// Timestamp increases on every modification.
func (b *Buffer) Timestamp() int { return b.timestamp }

// History returns the undo history.
func (b *Buffer) History() *history.History { return b.history }

// Scope returns the buffer scope container.
func (b *Buffer) Scope() *scope.Container[*Context] { return b.scope }

// Options returns the buffer option manager.
func (b *Buffer) Options() *option.Manager { return b.scope.Options }

// Hooks returns the buffer hook manager.
func (b *Buffer) Hooks() *hook.Manager[*Context] { return b.scope.Hooks }

// Keymaps returns the buffer keymap manager.
func (b *Buffer) Keymaps() *keymap.Manager { return b.scope.Keymaps }

// IsModified returns true if a file or unnamed buffer changed since it
// was last saved. Scratch buffers are never modified.
func (b *Buffer) IsModified() bool {
	if b.flags&BufferScratch != 0 {
		return false
	}
	return b.history.Version() != b.saved
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return strings.Count(b.text, "\n")
}

// LineStart returns the byte offset of the zero based line, clamped to
// the last line.
func (b *Buffer) LineStart(line int) int {
	off := 0
	for i := 0; i < line; i++ {
		next := strings.IndexByte(b.text[off:], '\n')
		if next < 0 || off+next+1 >= len(b.text) {
			break
		}
		off += next + 1
	}
	return off
}

// LineEnd returns the offset of the newline ending the line containing
// off.
func (b *Buffer) LineEnd(off int) int {
	off = min(max(off, 0), len(b.text)-1)
	return off + strings.IndexByte(b.text[off:], '\n')
}

// LineOf returns the zero based line and byte column of off.
func (b *Buffer) LineOf(off int) (line, column int) {
	off = min(max(off, 0), len(b.text))
	line = strings.Count(b.text[:off], "\n")
	return line, off - (strings.LastIndexByte(b.text[:off], '\n') + 1)
}

// Insert adds s before offset. Text inserted at the very end is given a
// trailing newline if it lacks one.
func (b *Buffer) Insert(offset int, s string) error {
	if offset < 0 || offset > len(b.text) {
		return fmt.Errorf("%w: %d", ErrOffsetOutOfRange, offset)
	}
	if s == "" {
		return nil
	}
	if offset == len(b.text) && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	b.apply(history.Modification{Kind: history.Insert, Offset: offset, Text: s}, true)
	return nil
}

// Erase removes [begin, end). The final newline is never removed.
func (b *Buffer) Erase(begin, end int) error {
	if begin < 0 || begin > end || end > len(b.text) {
		return fmt.Errorf("%w: [%d, %d)", ErrOffsetOutOfRange, begin, end)
	}
	end = min(end, len(b.text)-1)
	if begin >= end {
		return nil
	}
	b.apply(history.Modification{Kind: history.Erase, Offset: begin, Text: b.text[begin:end]}, true)
	return nil
}

// Undo reverts the last undo group.
func (b *Buffer) Undo() error {
	mods, err := b.history.Undo()
	if err != nil {
		return err
	}
	for _, m := range mods {
		b.apply(m, false)
	}
	return nil
}

// Redo reapplies the last undone group.
func (b *Buffer) Redo() error {
	mods, err := b.history.Redo()
	if err != nil {
		return err
	}
	for _, m := range mods {
		b.apply(m, false)
	}
	return nil
}

// Reset replaces the whole content as one undo step.
func (b *Buffer) Reset(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	defer b.history.Scope().End()
	if len(b.text) > 1 {
		b.apply(history.Modification{Kind: history.Erase, Offset: 0, Text: b.text[:len(b.text)-1]}, true)
	}
	if len(text) > 1 {
		b.apply(history.Modification{Kind: history.Insert, Offset: 0, Text: text[:len(text)-1]}, true)
	}
}

func (b *Buffer) apply(m history.Modification, record bool) {
	switch m.Kind {
	case history.Insert:
		b.text = b.text[:m.Offset] + m.Text + b.text[m.Offset:]
	case history.Erase:
		b.text = b.text[:m.Offset] + b.text[m.Offset+len(m.Text):]
	}
	b.timestamp++
	if record && b.flags&BufferNoUndo == 0 {
		b.history.Record(m)
	}

	// Listeners may close themselves while being notified.
	listeners := append([]ChangeListener(nil), b.listeners...)
	for _, l := range listeners {
		if m.Kind == history.Insert {
			l.OnInsert(m.Offset, len(m.Text))
		} else {
			l.OnErase(m.Offset, m.Offset+len(m.Text))
		}
	}
}

func (b *Buffer) addListener(l ChangeListener) {
	b.listeners = append(b.listeners, l)
}

func (b *Buffer) removeListener(l ChangeListener) {
	for i, cur := range b.listeners {
		if cur == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Save writes the content to path, or to the buffer name when path is
// empty, firing BufWritePre and BufWritePost around the write.
func (b *Buffer) Save(path string) error {
	if path == "" {
		path = b.name
	}
	ctx := b.editor.NewContext(b)
	defer ctx.Close()

	if err := ctx.Hooks().Run(HookBufWritePre, path, ctx); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.text), 0o644); err != nil {
		return fmt.Errorf("cannot write '%s': %w", path, err)
	}
	if path == b.name {
		b.saved = b.history.Version()
		b.flags &^= BufferNew
		b.flags |= BufferFile
	}
	return ctx.Hooks().Run(HookBufWritePost, path, ctx)
}

// BufferManager owns every buffer.
type BufferManager struct {
	editor  *Editor
	buffers []*Buffer
}

func newBufferManager(ed *Editor) *BufferManager {
	return &BufferManager{editor: ed}
}

// Create adds a buffer and fires BufCreate, then BufNew or BufOpen for
// file buffers. The buffer exists even when one of the hooks fails.
func (m *BufferManager) Create(name string, flags BufferFlags, text string) (*Buffer, error) {
	if _, ok := m.Find(name); ok {
		return nil, fmt.Errorf("%w: '%s'", ErrBufferExists, name)
	}
	b := newBuffer(m.editor, name, flags, text)
	m.buffers = append(m.buffers, b)

	ctx := m.editor.NewContext(b)
	defer ctx.Close()
	if err := ctx.Hooks().Run(HookBufCreate, name, ctx); err != nil {
		return b, err
	}
	switch {
	case flags&BufferNew != 0:
		return b, ctx.Hooks().Run(HookBufNew, name, ctx)
	case flags&BufferFile != 0:
		return b, ctx.Hooks().Run(HookBufOpen, name, ctx)
	}
	return b, nil
}

// Open returns the buffer for path, loading the file or creating a new
// file buffer when it does not exist.
func (m *BufferManager) Open(path string) (*Buffer, error) {
	if b, ok := m.Find(path); ok {
		return b, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return m.Create(path, BufferFile|BufferNew, "")
	case err != nil:
		return nil, fmt.Errorf("cannot open '%s': %w", path, err)
	}
	return m.Create(path, BufferFile, string(data))
}

// Reload replaces a file buffer's content with the file on disk.
func (m *BufferManager) Reload(b *Buffer) error {
	data, err := os.ReadFile(b.name)
	if err != nil {
		return fmt.Errorf("cannot reload '%s': %w", b.name, err)
	}
	b.Reset(string(data))
	b.saved = b.history.Version()
	return nil
}

// Get returns the buffer called name.
func (m *BufferManager) Get(name string) (*Buffer, error) {
	if b, ok := m.Find(name); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrBufferNotFound, name)
}

// Find returns the buffer called name, if any.
func (m *BufferManager) Find(name string) (*Buffer, bool) {
	for _, b := range m.buffers {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// Rename changes a buffer name. It fails if the name is taken.
func (m *BufferManager) Rename(b *Buffer, name string) error {
	if other, ok := m.Find(name); ok && other != b {
		return fmt.Errorf("%w: '%s'", ErrBufferExists, name)
	}
	b.name = name
	return nil
}

// Delete fires BufClose and removes b. Clients showing b switch to
// another buffer first.
func (m *BufferManager) Delete(b *Buffer) error {
	idx := -1
	for i, cur := range m.buffers {
		if cur == b {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w '%s'", ErrBufferNotFound, b.name)
	}

	for _, c := range m.editor.Clients.List() {
		if c.Window().Buffer() != b {
			continue
		}
		other := m.fallback(b)
		if other == nil {
			return fmt.Errorf("buffer %s is the %w", b.name, ErrLastBuffer)
		}
		if err := c.ChangeBuffer(other); err != nil {
			return err
		}
	}

	ctx := m.editor.NewContext(b)
	err := ctx.Hooks().Run(HookBufClose, b.name, ctx)
	ctx.Close()

	m.buffers = append(m.buffers[:idx], m.buffers[idx+1:]...)
	b.scope.Close()
	return err
}

// fallback picks the buffer shown instead of b.
func (m *BufferManager) fallback(b *Buffer) *Buffer {
	for i := len(m.buffers) - 1; i >= 0; i-- {
		if m.buffers[i] != b && m.buffers[i] != m.editor.debug {
			return m.buffers[i]
		}
	}
	for _, cur := range m.buffers {
		if cur != b {
			return cur
		}
	}
	return nil
}

// List returns the buffers in creation order.
func (m *BufferManager) List() []*Buffer {
	return append([]*Buffer(nil), m.buffers...)
}

// Count returns the number of buffers.
func (m *BufferManager) Count() int {
	return len(m.buffers)
}

// Complete returns buffer names starting with prefix[:pos].
func (m *BufferManager) Complete(prefix string, pos int) []string {
	if pos >= 0 && pos < len(prefix) {
		prefix = prefix[:pos]
	}
	var out []string
	for _, b := range m.buffers {
		if strings.HasPrefix(b.name, prefix) {
			out = append(out, b.name)
		}
	}
	return out
}
