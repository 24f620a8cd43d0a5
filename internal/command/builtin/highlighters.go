package builtin

import (
	"errors"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/highlight"
	"github.com/dshills/keyscope/internal/params"
)

var addHighlighterSpec = params.Spec{
	Options: map[string]bool{"group": true, "def-group": true},
	Min:     1,
	Max:     params.Unbounded,
}

var rmHighlighterSpec = params.Spec{
	Options: map[string]bool{"group": true},
	Min:     1,
	Max:     1,
}

// windowHighlighters returns the window highlighter group of ctx, or the
// sub group path names.
func windowHighlighters(ctx *editor.Context, path string) (*highlight.Group, error) {
	w, err := ctx.Window()
	if err != nil {
		return nil, err
	}
	return w.Highlighters().Group(path, highlight.PathSeparator)
}

func addHighlighter(p *params.Parser, ctx *editor.Context) error {
	if p.HasOption("group") && p.HasOption("def-group") {
		return errors.New("-group and -def-group cannot be specified together")
	}

	ed := ctx.Editor()
	var (
		g   *highlight.Group
		err error
	)
	if p.HasOption("def-group") {
		g, err = ed.DefinedHighlighters.Group(p.OptionValue("def-group"), highlight.PathSeparator)
	} else {
		g, err = windowHighlighters(ctx, p.OptionValue("group"))
	}
	if err != nil {
		return err
	}
	return highlight.Add(ed.Highlighters, g, p.Arg(0), p.Rest(1))
}

func rmHighlighter(p *params.Parser, ctx *editor.Context) error {
	g, err := windowHighlighters(ctx, p.OptionValue("group"))
	if err != nil {
		return err
	}
	g.Remove(p.Arg(0))
	return nil
}

func defineHighlighter(p *params.Parser, ctx *editor.Context) error {
	_, err := ctx.Editor().DefinedHighlighters.AppendGroup(p.Arg(0))
	return err
}
