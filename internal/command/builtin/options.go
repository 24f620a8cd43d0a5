package builtin

import (
	"errors"
	"unicode/utf8"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/key"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/params"
	"github.com/dshills/keyscope/internal/scope"
)

var setSpec = params.Spec{
	Options: map[string]bool{"add": false},
	Flags:   params.FlagOptionsOnlyAtStart,
	Min:     3,
	Max:     3,
}

var declareSpec = params.Spec{
	Options: map[string]bool{"hidden": false},
	Flags:   params.FlagOptionsOnlyAtStart,
	Min:     2,
	Max:     3,
}

// setOption sets, or with -add extends, the option in the given scope,
// overriding the inherited value there.
func setOption(p *params.Parser, ctx *editor.Context) error {
	opts, err := scope.Options[*editor.Context](p.Arg(0), ctx)
	if err != nil {
		return err
	}
	opt, err := opts.Local(p.Arg(1))
	if err != nil {
		return err
	}
	if p.HasOption("add") {
		return opt.Add(p.Arg(2))
	}
	return opt.Set(p.Arg(2))
}

// declareOption declares a global option: decl <type> <name> [<value>].
func declareOption(p *params.Parser, ctx *editor.Context) error {
	typ, err := option.ParseType(p.Arg(0))
	if err != nil {
		return err
	}
	flags := option.FlagNone
	if p.HasOption("hidden") {
		flags = option.FlagHidden
	}
	opt, err := ctx.Editor().Global.Options.Declare(p.Arg(1), typ, flags)
	if err != nil {
		return err
	}
	if p.Count() == 3 {
		return opt.Set(p.Arg(2))
	}
	return nil
}

func setRegister(p *params.Parser, ctx *editor.Context) error {
	name := p.Arg(0)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || size != len(name) {
		return errors.New("register names are single character")
	}
	return ctx.Editor().Registers.Set(r, []string{p.Arg(1)})
}

// keymapTarget resolves the scope and mode arguments of map and unmap, and
// the single key being bound.
func keymapTarget(p *params.Parser, ctx *editor.Context) (*keymap.Manager, keymap.Mode, key.Key, error) {
	keymaps, err := scope.Keymaps[*editor.Context](p.Arg(0), ctx)
	if err != nil {
		return nil, 0, key.Key{}, err
	}
	mode, err := keymap.ParseMode(p.Arg(1))
	if err != nil {
		return nil, 0, key.Key{}, err
	}
	keys := key.ParseKeys(p.Arg(2))
	if len(keys) != 1 {
		return nil, 0, key.Key{}, errors.New("only a single key can be mapped")
	}
	return keymaps, mode, keys[0], nil
}

func mapKey(p *params.Parser, ctx *editor.Context) error {
	keymaps, mode, k, err := keymapTarget(p, ctx)
	if err != nil {
		return err
	}
	keymaps.Map(k, mode, key.ParseKeys(p.Arg(3)))
	return nil
}

func unmapKey(p *params.Parser, ctx *editor.Context) error {
	keymaps, mode, k, err := keymapTarget(p, ctx)
	if err != nil {
		return err
	}
	keymaps.Unmap(k, mode)
	return nil
}
