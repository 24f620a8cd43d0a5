package builtin

import (
	"errors"
	"strings"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/params"
)

var menuSpec = params.Spec{
	Options: map[string]bool{"auto-single": false, "select-cmds": false},
	Max:     params.Unbounded,
}

var infoSpec = params.Spec{
	Options: map[string]bool{"anchor": true, "title": true},
	Max:     1,
}

var echoSpec = params.Spec{
	Options: map[string]bool{"color": true},
	Flags:   params.FlagOptionsOnlyAtStart,
	Max:     params.Unbounded,
}

// menu shows choices, each followed by the command text run when it is
// validated and, with -select-cmds, the text run when it is highlighted.
func (b *builtins) menu(p *params.Parser, ctx *editor.Context) error {
	stride := 2
	if p.HasOption("select-cmds") {
		stride = 3
	}
	count := p.Count()
	if count == 0 || count%stride != 0 {
		return &params.ArityError{Min: stride, Max: params.Unbounded, Got: count}
	}
	if count == stride && p.HasOption("auto-single") {
		return b.cm.Execute(p.Arg(1), ctx, nil, nil)
	}

	var choices, commands, selectCommands []string
	for i := 0; i < count; i += stride {
		choices = append(choices, p.Arg(i))
		commands = append(commands, p.Arg(i+1))
		if stride == 3 {
			selectCommands = append(selectCommands, p.Arg(i+2))
		}
	}

	ctx.InputHandler().Menu(choices, func(index int, event editor.MenuEvent, c *editor.Context) error {
		switch {
		case event == editor.MenuValidate && index >= 0 && index < len(commands):
			return b.cm.Execute(commands[index], c, nil, nil)
		case event == editor.MenuSelect && index >= 0 && index < len(selectCommands):
			return b.cm.Execute(selectCommands[index], c, nil, nil)
		}
		return nil
	})
	return nil
}

var anchors = map[string]editor.InfoAnchor{
	"left":   editor.InfoLeft,
	"right":  editor.InfoRight,
	"cursor": editor.InfoCursor,
}

// info hides the client's info box, then shows the given text if any.
func info(p *params.Parser, ctx *editor.Context) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	ui := c.UI()
	ui.InfoHide()
	if p.Count() == 0 {
		return nil
	}

	anchor := editor.InfoCentered
	if p.HasOption("anchor") {
		var ok bool
		if anchor, ok = anchors[p.OptionValue("anchor")]; !ok {
			return errors.New("anchor param must be one of [left, right, cursor]")
		}
	}
	ui.InfoShow(p.OptionValue("title"), p.Arg(0), anchor)
	return nil
}

func echo(p *params.Parser, ctx *editor.Context) error {
	face := "StatusLine"
	if p.HasOption("color") {
		face = p.OptionValue("color")
	}
	ctx.PrintStatus(strings.Join(p.Positionals(), " "), face)
	return nil
}

func debug(p *params.Parser, ctx *editor.Context) error {
	ctx.Editor().WriteDebug(strings.Join(p.Positionals(), " "))
	return nil
}

func setClientName(p *params.Parser, ctx *editor.Context) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	return ctx.Editor().Clients.Rename(c, p.Arg(0))
}

func colorAlias(p *params.Parser, ctx *editor.Context) error {
	return ctx.Editor().Colors.Alias(p.Arg(0), p.Arg(1))
}
