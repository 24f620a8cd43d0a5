// Package app wires the editor, the command registry and the startup
// configuration into a running session.
//
// The session reads command lines from its input and executes them on a
// single goroutine. Watched rc files are re-sourced on that same goroutine,
// so command execution never runs concurrently.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/command/builtin"
	"github.com/dshills/keyscope/internal/config"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/logging"
	"github.com/dshills/keyscope/internal/lua"
	"github.com/dshills/keyscope/internal/shell"
	"github.com/dshills/keyscope/internal/watcher"
)

// ScratchBufferName is the buffer a session starts on.
const ScratchBufferName = "*scratch*"

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty uses the
	// per user default.
	ConfigPath string

	// RC lists command files sourced after the configured ones.
	RC []string

	// Execute lists commands run after the configured ones.
	Execute []string

	// Files are opened with edit on startup.
	Files []string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Session overrides the configured session name when set.
	Session string

	// Watch re-sources rc files when they change.
	Watch bool

	// Display writes the buffer after each change.
	Display bool

	// Input is read for command lines. Defaults to os.Stdin.
	Input io.Reader

	// Output receives status messages. Defaults to os.Stdout.
	Output io.Writer

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer
}

// Application is a running editing session with one client.
type Application struct {
	opts   Options
	config *config.Config
	logger *logging.Logger

	editor   *editor.Editor
	commands *command.Manager
	lua      *lua.Runtime
	watcher  *watcher.Watcher
	client   *editor.Client
	ui       *lineUI

	ctx      context.Context
	cancel   context.CancelFunc
	running  atomic.Bool
	shutdown sync.Once
}

// New loads the configuration and builds the session. Nothing is executed
// until Run.
func New(opts Options) (*Application, error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	app := &Application{opts: opts}
	app.ctx, app.cancel = context.WithCancel(context.Background())
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	cfg, err := app.loadConfig()
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg

	app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: app.opts.LogOutput,
		Prefix: "keyscope",
	})
	log := app.logger.WithComponent("app")

	edOpts := []editor.Option{
		editor.WithLogger(app.logger),
		editor.WithShell(shell.NewManager(shell.WithLogger(app.logger))),
	}
	if cfg.Session != "" {
		edOpts = append(edOpts, editor.WithSession(cfg.Session))
	}
	ed, err := editor.New(edOpts...)
	if err != nil {
		return &InitError{Component: "editor", Err: err}
	}
	app.editor = ed

	app.commands = command.NewManager(command.WithLogger(app.logger), command.WithContext(app.ctx))
	app.lua = lua.New(lua.WithLogger(app.logger))
	if err := builtin.Register(app.commands, app.lua); err != nil {
		return &InitError{Component: "commands", Err: err}
	}
	ed.Commands = app.commands

	if err := app.applyOptions(); err != nil {
		return &InitError{Component: "options", Err: err}
	}

	scratch, err := ed.Buffers.Create(ScratchBufferName, editor.BufferScratch, "")
	if err != nil {
		return &InitError{Component: "buffer", Err: err}
	}
	app.ui = &lineUI{out: app.opts.Output, colors: ed.Colors, display: app.opts.Display}
	if app.client, err = ed.Clients.Create("", app.ui, scratch); err != nil {
		return &InitError{Component: "client", Err: err}
	}

	if cfg.Watch && len(cfg.RC) > 0 {
		w, err := watcher.New(watcher.WithLogger(app.logger))
		if err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
		app.watcher = w
		for _, rc := range cfg.RC {
			if err := w.Add(rc); err != nil {
				return &InitError{Component: "watcher", Err: err}
			}
		}
	}

	log.Debug("session ready", "session", ed.Session(), "client", app.client.Name())
	return nil
}

// loadConfig merges the configuration file, the environment and the
// options, in increasing precedence.
func (app *Application) loadConfig() (*config.Config, error) {
	path := app.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if app.opts.LogLevel != "" {
		cfg.LogLevel = app.opts.LogLevel
	}
	if app.opts.Session != "" {
		cfg.Session = app.opts.Session
	}
	cfg.Watch = cfg.Watch || app.opts.Watch
	cfg.RC = append(cfg.RC, app.opts.RC...)
	for i, rc := range cfg.RC {
		cfg.RC[i] = config.ExpandHome(rc)
	}
	cfg.Commands = append(cfg.Commands, app.opts.Execute...)
	return cfg, cfg.Validate()
}

func (app *Application) applyOptions() error {
	values, err := app.config.OptionValues()
	if err != nil {
		return err
	}
	for _, v := range values {
		opt, err := app.editor.Global.Options.Get(v.Name)
		if err != nil {
			return err
		}
		if err := opt.Set(v.Value); err != nil {
			return err
		}
	}
	return nil
}

// Run sources the rc files, opens the files, runs the startup commands and
// then serves input until it ends, the client quits or ctx is done.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.startup(); err != nil {
		if errors.Is(err, command.ErrQuit) {
			return nil
		}
		return err
	}
	return app.eventLoop(ctx)
}

func (app *Application) startup() error {
	for _, rc := range app.config.RC {
		if err := app.execute("source " + quote(rc)); err != nil {
			return err
		}
	}
	for _, file := range app.opts.Files {
		if err := app.execute("edit " + quote(file)); err != nil {
			return err
		}
	}
	for _, text := range app.config.Commands {
		if err := app.execute(text); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops the watcher and the scripting runtime and cancels running
// shell commands. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.shutdown.Do(func() {
		app.cancel()
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil && app.logger != nil {
				app.logger.Warn("closing watcher", "err", err)
			}
		}
		if app.lua != nil {
			app.lua.Close()
		}
	})
}

// Editor returns the session editor.
func (app *Application) Editor() *editor.Editor { return app.editor }

// Client returns the session client.
func (app *Application) Client() *editor.Client { return app.client }

// Config returns the effective configuration.
func (app *Application) Config() *config.Config { return app.config }

// quote renders s as a single quoted command word.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
