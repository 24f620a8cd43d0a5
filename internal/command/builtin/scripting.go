package builtin

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/draft"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/key"
	"github.com/dshills/keyscope/internal/params"
	"github.com/dshills/keyscope/internal/regex"
	"github.com/dshills/keyscope/internal/scope"
)

var hookSpec = params.Spec{
	Options: map[string]bool{"id": true},
	Min:     4,
	Max:     4,
}

var wrapSpec = params.Spec{
	Options: draft.Options(),
	Flags:   params.FlagOptionsOnlyAtStart,
	Min:     1,
	Max:     params.Unbounded,
}

var defineSpec = params.Spec{
	Options: map[string]bool{
		"env-params":       false,
		"shell-params":     false,
		"allow-override":   false,
		"file-completion":  false,
		"hidden":           false,
		"shell-completion": true,
	},
	Min: 2,
	Max: 2,
}

// addHook registers command text to run at a hook point. The text sees the
// hook parameter as %val{hook_param}.
func (b *builtins) addHook(p *params.Parser, ctx *editor.Context) error {
	hooks, err := scope.Hooks[*editor.Context](p.Arg(0), ctx)
	if err != nil {
		return err
	}
	filter, err := regex.Compile(p.Arg(2))
	if err != nil {
		return err
	}
	text := p.Arg(3)
	hooks.Add(p.Arg(1), p.OptionValue("id"), filter, func(param string, c *editor.Context) error {
		return b.cm.Execute(text, c, nil, map[string]string{"hook_param": param})
	})
	return nil
}

func rmHooks(p *params.Parser, ctx *editor.Context) error {
	hooks, err := scope.Hooks[*editor.Context](p.Arg(0), ctx)
	if err != nil {
		return err
	}
	hooks.Remove(p.Arg(1))
	return nil
}

// source executes a command file. Failures are noted in the debug buffer
// before being returned.
func (b *builtins) source(p *params.Parser, ctx *editor.Context) error {
	path := p.Arg(0)
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	err = b.cm.Execute(string(data), ctx, nil, nil)
	if err != nil && !command.IsControlSignal(err) {
		ctx.Editor().WriteDebug(fmt.Sprintf("error while executing commands in file '%s'\n    %v", path, err))
	}
	return err
}

func execKeys(p *params.Parser, ctx *editor.Context) error {
	return draft.Wrap(p, ctx, func(c *editor.Context) error {
		var keys []key.Key
		for _, arg := range p.Positionals() {
			keys = append(keys, key.ParseKeys(arg)...)
		}
		return editor.ExecKeys(keys, c)
	})
}

func (b *builtins) eval(p *params.Parser, ctx *editor.Context) error {
	return draft.Wrap(p, ctx, func(c *editor.Context) error {
		return b.cm.Execute(strings.Join(p.Positionals(), " "), c, nil, nil)
	})
}

// tryCatch runs its first argument and, if it fails, the text after
// "catch". Control signals are never caught.
func (b *builtins) tryCatch(p *params.Parser, ctx *editor.Context) error {
	if p.Count() == 2 {
		return &params.ArityError{Min: 1, Max: 3, Got: 2}
	}
	catch := p.Count() == 3
	if catch && p.Arg(1) != "catch" {
		return errors.New("usage: try <commands> [catch <on error commands>]")
	}

	err := b.cm.Execute(p.Arg(0), ctx, nil, nil)
	if err == nil || command.IsControlSignal(err) {
		return err
	}
	b.cm.Logger().Debug("caught", "error", err)
	if catch {
		return b.cm.Execute(p.Arg(2), ctx, nil, nil)
	}
	return nil
}

// defineCommand registers a script command. Its arguments are refused,
// bound to param0, param1 and so on with -env-params, or forwarded with
// -shell-params.
func (b *builtins) defineCommand(p *params.Parser, ctx *editor.Context) error {
	name := p.Arg(0)

	if p.HasOption("env-params") && p.HasOption("shell-params") {
		return errors.New("-env-params and -shell-params cannot be specified together")
	}
	script := &command.Script{Text: p.Arg(1)}
	switch {
	case p.HasOption("env-params"):
		script.Params = command.ParamsEnv
	case p.HasOption("shell-params"):
		script.Params = command.ParamsShell
	}

	cmd := &command.Command{Names: []string{name}, Script: script}
	if p.HasOption("hidden") {
		cmd.Flags |= command.FlagHidden
	}
	if p.HasOption("allow-override") {
		cmd.Flags |= command.FlagAllowOverride
	}
	switch {
	case p.HasOption("file-completion"):
		cmd.Completer = filenameCompleter
	case p.HasOption("shell-completion"):
		cmd.Completer = b.shellCompleter(p.OptionValue("shell-completion"))
	}
	return b.cm.Register(cmd)
}

func (b *builtins) runLua(p *params.Parser, ctx *editor.Context) error {
	return b.lua.DoString(ctx, strings.Join(p.Positionals(), " "))
}
