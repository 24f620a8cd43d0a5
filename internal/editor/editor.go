// Package editor holds the editing session model the command engine runs
// against: buffers, windows, clients, selections, execution contexts and
// the input handler, plus the guards that make synthetic key execution
// transactional.
package editor

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/dshills/keyscope/internal/color"
	"github.com/dshills/keyscope/internal/highlight"
	"github.com/dshills/keyscope/internal/logging"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/register"
	"github.com/dshills/keyscope/internal/scope"
	"github.com/dshills/keyscope/internal/shell"
)

// DebugBufferName is the buffer debug messages are appended to.
const DebugBufferName = "*debug*"

// CommandExecutor runs command text. It is implemented by the command
// registry and called for prompt input.
type CommandExecutor interface {
	Evaluate(ctx *Context, text string) error
}

// Editor is the process wide state every entry point reaches through a
// Context.
type Editor struct {
	Global       *scope.Container[*Context]
	Buffers      *BufferManager
	Clients      *ClientManager
	Registers    *register.Manager[*Context]
	Highlighters *highlight.Registry
	// DefinedHighlighters holds the groups ref highlighters point into.
	DefinedHighlighters *highlight.Group
	Colors              *color.Registry
	Shell               *shell.Manager
	Logger              *logging.Logger
	Commands            CommandExecutor

	session string
	debug   *Buffer
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) { e.Logger = l }
}

// WithSession sets the session name. A random one is used by default.
func WithSession(name string) Option {
	return func(e *Editor) { e.session = name }
}

// WithShell sets the shell manager.
func WithShell(m *shell.Manager) Option {
	return func(e *Editor) { e.Shell = m }
}

// New creates an editor with builtin options, registers and highlighter
// factories, and the debug buffer.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		Global:              scope.NewContainer[*Context](scope.Global, nil),
		Registers:           register.NewManager[*Context](),
		Highlighters:        highlight.NewRegistry(),
		DefinedHighlighters: highlight.NewGroup(""),
		Colors:              color.NewRegistry(),
		Logger:              logging.Nop(),
		session:             uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Shell == nil {
		e.Shell = shell.NewManager(shell.WithLogger(e.Logger))
	}
	e.Buffers = newBufferManager(e)
	e.Clients = newClientManager(e)

	if err := option.RegisterBuiltins(e.Global.Options); err != nil {
		return nil, err
	}
	if err := highlight.RegisterBuiltins(e.Highlighters, e.DefinedHighlighters); err != nil {
		return nil, err
	}
	e.registerDynamicRegisters()

	debug, err := e.Buffers.Create(DebugBufferName, BufferNoUndo|BufferScratch, "")
	if err != nil {
		return nil, err
	}
	e.debug = debug
	return e, nil
}

func (e *Editor) registerDynamicRegisters() {
	e.Registers.RegisterDynamic(register.BufName, func(ctx *Context) []string {
		return []string{ctx.Buffer().Name()}
	})
	e.Registers.RegisterDynamic(register.Selection, func(ctx *Context) []string {
		text := ctx.Buffer().Text()
		sels := ctx.Selections()
		out := make([]string, sels.Len())
		for i := range out {
			out[i] = sels.At(i).Content(text)
		}
		return out
	})
	e.Registers.RegisterDynamic(register.Index, func(ctx *Context) []string {
		out := make([]string, ctx.Selections().Len())
		for i := range out {
			out[i] = strconv.Itoa(i + 1)
		}
		return out
	})
}

// Session returns the session name.
func (e *Editor) Session() string {
	return e.session
}

// DebugBuffer returns the buffer debug messages go to.
func (e *Editor) DebugBuffer() *Buffer {
	return e.debug
}

// WriteDebug appends msg as a line of the debug buffer and logs it. The
// buffer is created again if it was deleted.
func (e *Editor) WriteDebug(msg string) {
	e.Logger.Debug(msg)
	if e.debug == nil {
		return
	}
	if b, ok := e.Buffers.Find(DebugBufferName); ok {
		e.debug = b
	} else {
		b, err := e.Buffers.Create(DebugBufferName, BufferNoUndo|BufferScratch, "")
		if err != nil {
			e.Logger.Warn("creating debug buffer", "err", err)
		}
		if b == nil {
			return
		}
		e.debug = b
	}

	offset, text := e.debug.Len(), msg+"\n"
	if offset == 1 {
		// The initial empty line is reused.
		offset, text = 0, msg
	}
	if err := e.debug.Insert(offset, text); err != nil {
		e.Logger.Warn("writing debug buffer", "err", err)
	}
}
