package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/shell"
)

// ErrUnknownExpansion indicates a %type{} block of an unsupported type.
var ErrUnknownExpansion = errors.New("unknown expansion type")

// ErrNoSuchValue indicates %val{} of an unknown name.
var ErrNoSuchValue = errors.New("no such value")

// evaluation holds what the statements of one Execute call expand
// against.
type evaluation struct {
	manager *Manager
	ctx     *editor.Context
	args    []string
	env     map[string]string
}

func (ev *evaluation) expandStatement(stmt statement) ([]string, error) {
	var out []string
	for _, w := range stmt {
		values, err := ev.expandWord(w)
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
	}
	return out, nil
}

// expandWord returns the arguments w stands for. A word made of a single
// %sh{} or %arg{@} may splice into several arguments; any other word is
// exactly one.
func (ev *evaluation) expandWord(w word) ([]string, error) {
	if p, ok := w.standalone(); ok {
		switch {
		case p.typ == "sh":
			out, err := ev.shell(p.text)
			if err != nil {
				return nil, err
			}
			return splitWords(out)
		case p.typ == "arg" && p.text == "@":
			return append([]string(nil), ev.args...), nil
		}
	}

	var b strings.Builder
	for _, p := range w {
		if p.kind == textPart {
			b.WriteString(p.text)
			continue
		}
		value, err := ev.expand(p)
		if err != nil {
			return nil, err
		}
		b.WriteString(value)
	}
	return []string{b.String()}, nil
}

func (ev *evaluation) expand(p part) (string, error) {
	switch p.typ {
	case "sh":
		out, err := ev.shell(p.text)
		return strings.TrimRight(out, "\n"), err
	case "opt":
		opt, err := ev.ctx.Options().Get(p.text)
		if err != nil {
			return "", err
		}
		return opt.String(), nil
	case "reg":
		r, size := utf8.DecodeRuneInString(p.text)
		if size == 0 || size != len(p.text) {
			return "", fmt.Errorf("register names are single character: '%s'", p.text)
		}
		return registerValue(ev.ctx, r), nil
	case "val":
		value, ok := ev.value(p.text)
		if !ok {
			return "", fmt.Errorf("%w '%s'", ErrNoSuchValue, p.text)
		}
		return value, nil
	case "arg":
		if p.text == "@" {
			return strings.Join(ev.args, " "), nil
		}
		n, err := strconv.Atoi(p.text)
		if err != nil || n < 1 {
			return "", fmt.Errorf("invalid argument index '%s'", p.text)
		}
		if n > len(ev.args) {
			return "", nil
		}
		return ev.args[n-1], nil
	default:
		return "", fmt.Errorf("%w '%s'", ErrUnknownExpansion, p.typ)
	}
}

func (ev *evaluation) shell(script string) (string, error) {
	return ev.manager.Shell(ev.ctx, script, ev.args, ev.env)
}

// Shell runs script with args as positional parameters. The kak_ variables
// it references resolve to env values first, then editor values.
func (m *Manager) Shell(ctx *editor.Context, script string, args []string, env map[string]string) (string, error) {
	ev := &evaluation{manager: m, ctx: ctx, args: args, env: env}
	return ctx.Editor().Shell.Eval(m.base, shell.Request{
		Script:  script,
		Params:  args,
		Resolve: ev.value,
	})
}

// value resolves a %val{} or kak_ name. Extra values given to Execute
// shadow editor values.
func (ev *evaluation) value(name string) (string, bool) {
	if v, ok := ev.env[name]; ok {
		return v, true
	}
	return Value(ev.ctx, name)
}

// Value returns the editor value name as seen from ctx: bufname, buflist,
// timestamp, selection, selections, session, client, cursor_line,
// cursor_column, opt_<option> or reg_<register>.
func Value(ctx *editor.Context, name string) (string, bool) {
	ed := ctx.Editor()
	b := ctx.Buffer()
	switch name {
	case "bufname":
		return b.Name(), true
	case "buflist":
		var names []string
		for _, other := range ed.Buffers.List() {
			names = append(names, other.Name())
		}
		return strings.Join(names, ":"), true
	case "timestamp":
		return strconv.Itoa(b.Timestamp()), true
	case "selection":
		return ctx.Selections().Main().Content(b.Text()), true
	case "selections":
		sels := ctx.Selections()
		contents := make([]string, sels.Len())
		for i := range contents {
			contents[i] = sels.At(i).Content(b.Text())
		}
		return strings.Join(contents, ":"), true
	case "session":
		return ed.Session(), true
	case "client":
		c, err := ctx.Client()
		if err != nil {
			return "", false
		}
		return c.Name(), true
	case "cursor_line", "cursor_column":
		line, column := b.LineOf(ctx.Selections().Main().Cursor)
		if name == "cursor_line" {
			return strconv.Itoa(line + 1), true
		}
		return strconv.Itoa(column + 1), true
	}

	if opt, ok := strings.CutPrefix(name, "opt_"); ok {
		o, err := ctx.Options().Get(opt)
		if err != nil {
			return "", false
		}
		return o.String(), true
	}
	if reg, ok := strings.CutPrefix(name, "reg_"); ok {
		r, size := utf8.DecodeRuneInString(reg)
		if size == 0 || size != len(reg) {
			return "", false
		}
		return registerValue(ctx, r), true
	}
	return "", false
}

// registerValue returns the value of register r for the main selection.
// Registers with fewer values than selections repeat their last value.
func registerValue(ctx *editor.Context, r rune) string {
	values := ctx.Editor().Registers.Get(r, ctx)
	if len(values) == 0 {
		return ""
	}
	i := ctx.Selections().MainIndex()
	if i >= len(values) {
		i = len(values) - 1
	}
	return values[i]
}

// splitWords tokenizes shell output into arguments. Quoting applies;
// statement separators only break words and expansions are kept as text.
func splitWords(text string) ([]string, error) {
	stmts, err := parse(text)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, stmt := range stmts {
		for _, w := range stmt {
			out = append(out, w.literal())
		}
	}
	return out, nil
}
