package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/keyscope/internal/history"
	"github.com/dshills/keyscope/internal/key"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/regex"
	"github.com/dshills/keyscope/internal/register"
)

// Input hook points.
const (
	HookNormalKey   = "NormalKey"
	HookInsertChar  = "InsertChar"
	HookInsertBegin = "InsertBegin"
	HookInsertEnd   = "InsertEnd"
)

// ErrNothingSelected indicates a selection command matched nothing.
var ErrNothingSelected = errors.New("nothing selected")

// PromptEvent tells a prompt callback why it runs.
type PromptEvent int

const (
	PromptValidate PromptEvent = iota
	PromptAbort
)

// PromptFunc receives the text of a finished prompt.
type PromptFunc func(text string, event PromptEvent, ctx *Context) error

// MenuEvent tells a menu callback why it runs.
type MenuEvent int

const (
	MenuSelect MenuEvent = iota
	MenuValidate
	MenuAbort
)

// MenuFunc receives the highlighted choice of a menu.
type MenuFunc func(index int, event MenuEvent, ctx *Context) error

// inputMode interprets keys for one input mode.
type inputMode interface {
	kind() keymap.Mode
	handleKey(k key.Key) error
}

// InputHandler turns keys into edits for one context. Each mode keeps its
// own state; keys mapped in the context's keymaps are replaced by their
// mapping, except while a mapping is being replayed.
type InputHandler struct {
	ctx     *Context
	mode    inputMode
	mapping int
}

func newInputHandler(ctx *Context) *InputHandler {
	h := &InputHandler{ctx: ctx}
	h.mode = &normalMode{h: h}
	return h
}

// Mode returns the current input mode.
func (h *InputHandler) Mode() keymap.Mode {
	return h.mode.kind()
}

// HandleKey processes one key.
func (h *InputHandler) HandleKey(k key.Key) error {
	if h.mapping == 0 {
		if keys, ok := h.ctx.Keymaps().Mapping(k, h.mode.kind()); ok {
			h.mapping++
			defer func() { h.mapping-- }()
			for _, mk := range keys {
				if err := h.HandleKey(mk); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return h.mode.handleKey(k)
}

// Prompt switches to prompt mode. fn runs once the prompt is validated or
// aborted, after the handler is back in normal mode.
func (h *InputHandler) Prompt(prompt string, fn PromptFunc) {
	h.mode = &promptMode{h: h, prompt: prompt, callback: fn}
	h.ctx.PrintStatus(prompt, "Prompt")
}

// Menu switches to menu mode with the first choice highlighted.
func (h *InputHandler) Menu(choices []string, fn MenuFunc) {
	h.mode = &menuMode{h: h, choices: choices, callback: fn}
	if h.ctx.client != nil {
		h.ctx.client.ui.MenuShow(choices)
		h.ctx.client.ui.MenuSelect(0)
	}
}

// Reset leaves any pending mode for normal mode, closing an insertion.
func (h *InputHandler) Reset() error {
	if _, ok := h.mode.(*insertMode); ok {
		return h.leaveInsert()
	}
	h.mode = &normalMode{h: h}
	return nil
}

func (h *InputHandler) enterInsert(setup func() error) error {
	h.ctx.BeginEdition()
	h.mode = &insertMode{h: h}
	if setup != nil {
		if err := setup(); err != nil {
			return err
		}
	}
	return h.ctx.FireHook(HookInsertBegin, "")
}

func (h *InputHandler) leaveInsert() error {
	h.mode = &normalMode{h: h}
	h.ctx.EndEdition()
	return h.ctx.FireHook(HookInsertEnd, "")
}

type normalCommand func(h *InputHandler, reg rune) error

var normalCommands map[key.Key]normalCommand

func init() {
	normalCommands = map[key.Key]normalCommand{
		key.Rune('h'): moveSelections(prevChar),
		key.Rune('l'): moveSelections(nextChar),
		key.Rune('j'): moveSelections(lineDown),
		key.Rune('k'): moveSelections(lineUp),
		key.Rune('x'): selectLines,
		key.Rune('%'): selectAll,
		key.Rune(';'): collapseSelections,
		key.Rune(','): keepMainSelection,
		key.Rune('i'): insertBefore,
		key.Rune('a'): insertAfter,
		key.Rune('o'): openBelow,
		key.Rune('y'): yank,
		key.Rune('d'): erase,
		key.Rune('c'): change,
		key.Rune('p'): pasteAfter,
		key.Rune('P'): pasteBefore,
		key.Rune('u'): undo,
		key.Rune('U'): redo,
		key.Rune('/'): searchPrompt,
		key.Rune('n'): searchNextMatch,
		key.Rune('s'): selectPrompt,
		key.Rune(':'): commandPrompt,
		key.Escape:    func(*InputHandler, rune) error { return nil },
	}
}

type normalMode struct {
	h               *InputHandler
	register        rune
	pendingRegister bool
}

func (m *normalMode) kind() keymap.Mode { return keymap.ModeNormal }

func (m *normalMode) handleKey(k key.Key) error {
	if m.pendingRegister {
		m.pendingRegister = false
		if k.IsRune() {
			m.register = k.Rune
		}
		return nil
	}
	if k == key.Rune('"') {
		m.pendingRegister = true
		return nil
	}

	reg := m.register
	m.register = 0
	if reg == 0 {
		reg = register.Default
	}

	var err error
	if cmd, ok := normalCommands[k]; ok {
		err = cmd(m.h, reg)
	}
	if hookErr := m.h.ctx.FireHook(HookNormalKey, k.String()); err == nil {
		err = hookErr
	}
	return err
}

// moveSelections collapses every selection onto the cursor moved by fn.
func moveSelections(fn func(b *Buffer, off int) int) normalCommand {
	return func(h *InputHandler, _ rune) error {
		b := h.ctx.buffer
		sels := h.ctx.Selections()
		for i := 0; i < sels.Len(); i++ {
			sels.Update(i, Point(fn(b, sels.At(i).Cursor)))
		}
		sels.Clamp(b.text)
		return nil
	}
}

func prevChar(b *Buffer, off int) int {
	if off <= 0 {
		return 0
	}
	_, size := utf8.DecodeLastRuneInString(b.text[:off])
	return off - size
}

func nextChar(b *Buffer, off int) int {
	if off >= len(b.text)-1 {
		return off
	}
	_, size := utf8.DecodeRuneInString(b.text[off:])
	return off + size
}

func lineDown(b *Buffer, off int) int {
	return moveLine(b, off, 1)
}

func lineUp(b *Buffer, off int) int {
	return moveLine(b, off, -1)
}

func moveLine(b *Buffer, off, delta int) int {
	line, col := b.LineOf(off)
	target := min(max(line+delta, 0), b.LineCount()-1)
	start := b.LineStart(target)
	end := b.LineEnd(start)
	return clampOffset(b.text, start+min(col, end-start))
}

func selectLines(h *InputHandler, _ rune) error {
	b := h.ctx.buffer
	sels := h.ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		s := sels.At(i)
		line, _ := b.LineOf(s.Min())
		sels.Update(i, Selection{Anchor: b.LineStart(line), Cursor: b.LineEnd(s.Max())})
	}
	sels.Normalize()
	return nil
}

func selectAll(h *InputHandler, _ rune) error {
	h.ctx.Selections().Set([]Selection{{Anchor: 0, Cursor: h.ctx.buffer.Len() - 1}}, 0)
	return nil
}

func collapseSelections(h *InputHandler, _ rune) error {
	sels := h.ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		sels.Update(i, Point(sels.At(i).Cursor))
	}
	return nil
}

func keepMainSelection(h *InputHandler, _ rune) error {
	h.ctx.Selections().KeepMain()
	return nil
}

func insertBefore(h *InputHandler, _ rune) error {
	return h.enterInsert(func() error {
		sels := h.ctx.Selections()
		for i := 0; i < sels.Len(); i++ {
			sels.Update(i, Point(sels.At(i).Min()))
		}
		return nil
	})
}

func insertAfter(h *InputHandler, _ rune) error {
	return h.enterInsert(func() error {
		text := h.ctx.buffer.text
		sels := h.ctx.Selections()
		for i := 0; i < sels.Len(); i++ {
			_, end := sels.At(i).Range(text)
			sels.Update(i, Point(min(end, len(text)-1)))
		}
		return nil
	})
}

func openBelow(h *InputHandler, _ rune) error {
	return h.enterInsert(func() error {
		b := h.ctx.buffer
		sels := h.ctx.Selections()
		for i := 0; i < sels.Len(); i++ {
			eol := b.LineEnd(sels.At(i).Max())
			if err := b.Insert(eol, "\n"); err != nil {
				return err
			}
			sels.Update(i, Point(eol+1))
		}
		return nil
	})
}

func yank(h *InputHandler, reg rune) error {
	text := h.ctx.buffer.text
	sels := h.ctx.Selections()
	values := make([]string, sels.Len())
	for i := range values {
		values[i] = sels.At(i).Content(text)
	}
	return h.ctx.editor.Registers.Set(reg, values)
}

func eraseSelections(ctx *Context) error {
	b := ctx.buffer
	sels := ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		begin, end := sels.At(i).Range(b.text)
		if err := b.Erase(begin, end); err != nil {
			return err
		}
	}
	return nil
}

func erase(h *InputHandler, reg rune) error {
	defer h.ctx.ScopedEdition().End()
	if err := yank(h, reg); err != nil {
		return err
	}
	return eraseSelections(h.ctx)
}

func change(h *InputHandler, reg rune) error {
	if err := yank(h, reg); err != nil {
		return err
	}
	return h.enterInsert(func() error {
		return eraseSelections(h.ctx)
	})
}

// paste inserts register values next to each selection. Values ending
// with a newline are pasted as whole lines.
func paste(h *InputHandler, reg rune, after bool) error {
	values := h.ctx.editor.Registers.Get(reg, h.ctx)
	if len(values) == 0 {
		return nil
	}
	defer h.ctx.ScopedEdition().End()

	b := h.ctx.buffer
	sels := h.ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		s := sels.At(i)
		value := values[min(i, len(values)-1)]
		var off int
		switch {
		case strings.HasSuffix(value, "\n") && after:
			off = b.LineEnd(s.Max()) + 1
		case strings.HasSuffix(value, "\n"):
			line, _ := b.LineOf(s.Min())
			off = b.LineStart(line)
		case after:
			_, off = s.Range(b.text)
		default:
			off = s.Min()
		}
		if err := b.Insert(off, value); err != nil {
			return err
		}
	}
	return nil
}

func pasteAfter(h *InputHandler, reg rune) error  { return paste(h, reg, true) }
func pasteBefore(h *InputHandler, reg rune) error { return paste(h, reg, false) }

func undo(h *InputHandler, _ rune) error {
	if err := h.ctx.buffer.Undo(); errors.Is(err, history.ErrNothingToUndo) {
		h.ctx.PrintStatus("nothing left to undo", "Information")
	}
	return nil
}

func redo(h *InputHandler, _ rune) error {
	if err := h.ctx.buffer.Redo(); errors.Is(err, history.ErrNothingToRedo) {
		h.ctx.PrintStatus("nothing left to redo", "Information")
	}
	return nil
}

func searchPrompt(h *InputHandler, _ rune) error {
	h.Prompt("/", func(text string, event PromptEvent, ctx *Context) error {
		if event != PromptValidate {
			return nil
		}
		if text == "" {
			values := ctx.editor.Registers.Get(register.Search, ctx)
			if len(values) == 0 {
				return nil
			}
			text = values[0]
		}
		re, err := regex.Compile(text)
		if err != nil {
			return err
		}
		if err := ctx.editor.Registers.Set(register.Search, []string{text}); err != nil {
			return err
		}
		return selectNextMatch(ctx, re)
	})
	return nil
}

func searchNextMatch(h *InputHandler, _ rune) error {
	values := h.ctx.editor.Registers.Get(register.Search, h.ctx)
	if len(values) == 0 || values[0] == "" {
		return fmt.Errorf("no search pattern: %w", ErrNothingSelected)
	}
	re, err := regex.Compile(values[0])
	if err != nil {
		return err
	}
	return selectNextMatch(h.ctx, re)
}

// selectNextMatch selects the first non empty match after the main
// selection, wrapping around the end of the buffer.
func selectNextMatch(ctx *Context, re regex.Regex) error {
	text := ctx.buffer.text
	_, from := ctx.Selections().Main().Range(text)

	r, ok := re.FindNext(text, from)
	if !ok || r.Len() == 0 {
		r, ok = re.FindNext(text, 0)
	}
	if !ok || r.Len() == 0 {
		return fmt.Errorf("'%s': %w", re, ErrNothingSelected)
	}
	ctx.Selections().Set([]Selection{{Anchor: r.Begin, Cursor: lastCharStart(text, r.End)}}, 0)
	return nil
}

func selectPrompt(h *InputHandler, _ rune) error {
	h.Prompt("select:", func(text string, event PromptEvent, ctx *Context) error {
		if event != PromptValidate {
			return nil
		}
		re, err := regex.Compile(text)
		if err != nil {
			return err
		}
		return SelectMatches(ctx, re)
	})
	return nil
}

// SelectMatches replaces every selection with the non empty matches of re
// inside it.
func SelectMatches(ctx *Context, re regex.Regex) error {
	text := ctx.buffer.text
	sels := ctx.Selections()
	var out []Selection
	for i := 0; i < sels.Len(); i++ {
		begin, end := sels.At(i).Range(text)
		content := text[begin:end]
		for _, r := range re.FindAll(content) {
			if r.Len() == 0 {
				continue
			}
			out = append(out, Selection{Anchor: begin + r.Begin, Cursor: begin + lastCharStart(content, r.End)})
		}
	}
	if len(out) == 0 {
		return ErrNothingSelected
	}
	sels.Set(out, len(out)-1)
	return nil
}

func lastCharStart(text string, end int) int {
	_, size := utf8.DecodeLastRuneInString(text[:end])
	return end - size
}

func commandPrompt(h *InputHandler, _ rune) error {
	h.Prompt(":", func(text string, event PromptEvent, ctx *Context) error {
		if event != PromptValidate || text == "" {
			return nil
		}
		if ctx.editor.Commands == nil {
			return errors.New("no command executor")
		}
		return ctx.editor.Commands.Evaluate(ctx, text)
	})
	return nil
}

type insertMode struct {
	h *InputHandler
}

func (m *insertMode) kind() keymap.Mode { return keymap.ModeInsert }

func (m *insertMode) handleKey(k key.Key) error {
	switch {
	case k == key.Escape:
		return m.h.leaveInsert()
	case k == key.Return:
		return m.insert("\n")
	case k == key.Tab:
		return m.insert("\t")
	case k == key.Backspace:
		return m.backspace()
	case k.IsRune():
		if err := m.insert(string(k.Rune)); err != nil {
			return err
		}
		return m.h.ctx.FireHook(HookInsertChar, string(k.Rune))
	}
	return nil
}

// insert adds s before every cursor. The selections move past the
// inserted text.
func (m *insertMode) insert(s string) error {
	b := m.h.ctx.buffer
	sels := m.h.ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		if err := b.Insert(sels.At(i).Min(), s); err != nil {
			return err
		}
	}
	return nil
}

func (m *insertMode) backspace() error {
	b := m.h.ctx.buffer
	sels := m.h.ctx.Selections()
	for i := 0; i < sels.Len(); i++ {
		off := sels.At(i).Min()
		if off == 0 {
			continue
		}
		if err := b.Erase(prevChar(b, off), off); err != nil {
			return err
		}
	}
	return nil
}

type promptMode struct {
	h        *InputHandler
	prompt   string
	text     []rune
	callback PromptFunc
}

func (m *promptMode) kind() keymap.Mode { return keymap.ModePrompt }

func (m *promptMode) handleKey(k key.Key) error {
	switch {
	case k == key.Return:
		return m.finish(PromptValidate)
	case k == key.Escape:
		return m.finish(PromptAbort)
	case k == key.Backspace:
		if len(m.text) == 0 {
			return m.finish(PromptAbort)
		}
		m.text = m.text[:len(m.text)-1]
	case k.IsRune():
		m.text = append(m.text, k.Rune)
	default:
		return nil
	}
	m.h.ctx.PrintStatus(m.prompt+string(m.text), "Prompt")
	return nil
}

func (m *promptMode) finish(event PromptEvent) error {
	m.h.mode = &normalMode{h: m.h}
	text := string(m.text)
	if event == PromptAbort {
		text = ""
	}
	return m.callback(text, event, m.h.ctx)
}

type menuMode struct {
	h        *InputHandler
	choices  []string
	selected int
	callback MenuFunc
}

func (m *menuMode) kind() keymap.Mode { return keymap.ModeMenu }

func (m *menuMode) handleKey(k key.Key) error {
	switch k {
	case key.Return:
		return m.finish(MenuValidate)
	case key.Escape:
		return m.finish(MenuAbort)
	case key.Tab, key.Ctrl('n'), key.Down:
		return m.move(1)
	case key.Ctrl('p'), key.Up:
		return m.move(-1)
	}
	return nil
}

func (m *menuMode) move(delta int) error {
	if len(m.choices) == 0 {
		return nil
	}
	m.selected = (m.selected + delta + len(m.choices)) % len(m.choices)
	if c := m.h.ctx.client; c != nil {
		c.ui.MenuSelect(m.selected)
	}
	return m.callback(m.selected, MenuSelect, m.h.ctx)
}

func (m *menuMode) finish(event MenuEvent) error {
	m.h.mode = &normalMode{h: m.h}
	if c := m.h.ctx.client; c != nil {
		c.ui.MenuHide()
	}
	return m.callback(m.selected, event, m.h.ctx)
}

// ExecKeys feeds keys to the context's input handler as one undo group.
// The '"' and '/' registers are restored afterwards, whether or not a key
// failed.
func ExecKeys(keys []key.Key, ctx *Context) error {
	regs := ctx.editor.Registers
	defer regs.Snapshot(register.Default).Restore()
	defer regs.Snapshot(register.Search).Restore()
	defer ctx.ScopedEdition().End()

	h := ctx.InputHandler()
	for _, k := range keys {
		if err := h.HandleKey(k); err != nil {
			return err
		}
	}
	return nil
}
