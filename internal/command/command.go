// Package command implements the command registry: parsing command text
// into statements, expanding them, and dispatching each statement to a
// registered command.
//
// Commands are either builtins, whose handler receives parameters already
// validated against the command's Spec, or scripts defined at run time,
// whose captured text is executed again with the invocation arguments
// bound according to the script's ParamStrategy.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/logging"
	"github.com/dshills/keyscope/internal/params"
)

// UnknownCommandError reports a statement naming no registered command.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("no such command '%s'", e.Name)
}

// NameCollisionError reports a registration over an existing name without
// FlagAllowOverride.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("command '%s' already defined", e.Name)
}

// ControlSignal ends a client session. It travels as an error so it
// unwinds through every caller, but it is not a failure: try does not
// catch it and only the client loop consumes it.
type ControlSignal struct {
	Name string
}

func (s *ControlSignal) Error() string {
	return s.Name
}

// ErrQuit is raised by the quit commands.
var ErrQuit = &ControlSignal{Name: "quit"}

// IsControlSignal reports whether err is or wraps a ControlSignal.
func IsControlSignal(err error) bool {
	var s *ControlSignal
	return errors.As(err, &s)
}

// Flags alter how a command is registered and presented.
type Flags uint8

const (
	FlagNone Flags = 0
	// FlagHidden excludes the command from name completion.
	FlagHidden Flags = 1 << iota
	// FlagAllowOverride lets the registration replace existing names.
	FlagAllowOverride
)

// Handler runs a builtin command.
type Handler func(p *params.Parser, ctx *editor.Context) error

// Completer returns candidates for args[token], of which the first pos
// bytes have been typed.
type Completer func(ctx *editor.Context, args []string, token, pos int) []string

// ParamStrategy decides how a script command sees its invocation
// arguments.
type ParamStrategy int

const (
	// ParamsNone rejects any argument.
	ParamsNone ParamStrategy = iota
	// ParamsEnv binds arguments to the values param0, param1 and so on.
	ParamsEnv
	// ParamsShell forwards arguments as %arg{} and shell positional
	// parameters.
	ParamsShell
)

// Script is the body of a command defined at run time.
type Script struct {
	Text   string
	Params ParamStrategy
}

// Command is a registry entry. Exactly one of Handler and Script is set.
type Command struct {
	Names []string
	// Spec validates the arguments of a builtin before Handler runs.
	Spec params.Spec
	// Raw makes every argument positional, even those starting with '-'.
	Raw       bool
	Handler   Handler
	Script    *Script
	Flags     Flags
	Completer Completer
}

// Manager is the command registry.
type Manager struct {
	commands map[string]*Command
	base     context.Context
	logger   *logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent("command") }
}

// WithContext sets the context shell expansions run under.
func WithContext(ctx context.Context) Option {
	return func(m *Manager) { m.base = ctx }
}

// NewManager creates an empty registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		commands: make(map[string]*Command),
		base:     context.Background(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Logger returns the registry logger.
func (m *Manager) Logger() *logging.Logger {
	return m.logger
}

// Register adds cmd under each of its names. Nothing is registered if
// one of the names is taken and cmd lacks FlagAllowOverride.
func (m *Manager) Register(cmd *Command) error {
	if len(cmd.Names) == 0 {
		return errors.New("command: no name")
	}
	if (cmd.Handler == nil) == (cmd.Script == nil) {
		return fmt.Errorf("command: '%s' needs exactly one of handler and script", cmd.Names[0])
	}
	if cmd.Flags&FlagAllowOverride == 0 {
		for _, name := range cmd.Names {
			if _, ok := m.commands[name]; ok {
				return &NameCollisionError{Name: name}
			}
		}
	}
	for _, name := range cmd.Names {
		m.commands[name] = cmd
	}
	return nil
}

// Get returns the command registered as name.
func (m *Manager) Get(name string) (*Command, error) {
	cmd, ok := m.commands[name]
	if !ok {
		return nil, &UnknownCommandError{Name: name}
	}
	return cmd, nil
}

// Defined returns true if name is registered.
func (m *Manager) Defined(name string) bool {
	_, ok := m.commands[name]
	return ok
}

// Names returns every registered name, sorted.
func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.commands))
	for name := range m.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute runs every statement of text in ctx, stopping at the first
// error. args are the values of %arg{} and the positional parameters of
// shell expansions. env adds values to %val{} and to the kak_ shell
// variables, shadowing editor values of the same name.
func (m *Manager) Execute(text string, ctx *editor.Context, args []string, env map[string]string) error {
	stmts, err := parse(text)
	if err != nil {
		return err
	}
	ev := &evaluation{manager: m, ctx: ctx, args: args, env: env}
	for _, stmt := range stmts {
		words, err := ev.expandStatement(stmt)
		if err != nil {
			return err
		}
		if len(words) == 0 {
			continue
		}
		if err := m.run(words[0], words[1:], ctx); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs text with no arguments or extra values.
func (m *Manager) Evaluate(ctx *editor.Context, text string) error {
	return m.Execute(text, ctx, nil, nil)
}

func (m *Manager) run(name string, args []string, ctx *editor.Context) error {
	cmd, err := m.Get(name)
	if err != nil {
		return err
	}
	m.logger.Debug("execute", "command", name, "args", len(args))

	if cmd.Script != nil {
		return m.runScript(cmd.Script, args, ctx)
	}

	if cmd.Raw {
		args = append([]string{"--"}, args...)
	}
	p, err := params.Parse(args, cmd.Spec)
	if err != nil {
		return err
	}
	return cmd.Handler(p, ctx)
}

func (m *Manager) runScript(s *Script, args []string, ctx *editor.Context) error {
	switch s.Params {
	case ParamsEnv:
		return m.Execute(s.Text, ctx, nil, ParamEnv(args))
	case ParamsShell:
		return m.Execute(s.Text, ctx, args, nil)
	default:
		if len(args) > 0 {
			return &params.ArityError{Min: 0, Max: 0, Got: len(args)}
		}
		return m.Execute(s.Text, ctx, nil, nil)
	}
}

// ParamEnv names args param0, param1 and so on.
func ParamEnv(args []string) map[string]string {
	env := make(map[string]string, len(args))
	for i, arg := range args {
		env["param"+strconv.Itoa(i)] = arg
	}
	return env
}
