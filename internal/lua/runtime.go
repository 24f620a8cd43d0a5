// Package lua embeds a Lua interpreter that scripts the editor through the
// keyscope module.
//
// A Runtime keeps one interpreter for the whole session, so globals set by
// one chunk are visible to the next. It is not safe for concurrent use;
// chunks run on the goroutine executing commands.
package lua

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/logging"
	"github.com/dshills/keyscope/internal/scope"
)

// ModuleName is the name the editor module is loaded under.
const ModuleName = "keyscope"

// errorTypeName names the metatable of raised editor errors.
const errorTypeName = ModuleName + ".error"

// ErrClosed is returned when running code on a closed Runtime.
var ErrClosed = errors.New("lua runtime is closed")

// Runtime is a persistent Lua interpreter.
type Runtime struct {
	L      *lua.LState
	logger *logging.Logger

	// current is the context of the running chunk; chunks nest when Lua
	// executes a command that runs Lua again.
	current *editor.Context

	// signal is a control signal raised by the running chunk. It stays
	// pending when Lua code catches the error with pcall.
	signal error
	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) { r.logger = l.WithComponent("lua") }
}

// New creates a runtime with the base, table, string and math libraries
// and the keyscope module loaded as a global.
func New(opts ...Option) *Runtime {
	r := &Runtime{logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}

	mt := L.NewTypeMetatable(errorTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(errorString))

	L.SetGlobal(ModuleName, r.module(L))
	r.L = L
	return r
}

// Close releases the interpreter.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

// DoString runs code against ctx. Errors raised by editor commands the
// code executes are returned as is. A control signal raised during the
// chunk is returned even when the chunk caught it.
func (r *Runtime) DoString(ctx *editor.Context, code string) (err error) {
	if r.closed {
		return ErrClosed
	}

	prev, prevSignal := r.current, r.signal
	r.current, r.signal = ctx, nil
	defer func() {
		r.current, r.signal = prev, prevSignal
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()

	r.logger.Debug("run chunk", "bytes", len(code))
	runErr := r.L.DoString(code)
	if r.signal != nil {
		return r.signal
	}
	if runErr != nil {
		if raised, ok := raisedError(runErr); ok {
			return raised
		}
		return fmt.Errorf("lua: %w", runErr)
	}
	return nil
}

// raisedError unwraps an error raised by raise.
func raisedError(err error) (error, bool) {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	ud, ok := apiErr.Object.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	raised, ok := ud.Value.(error)
	return raised, ok
}

// errorString is the __tostring of raised errors.
func errorString(L *lua.LState) int {
	if err, ok := L.CheckUserData(1).Value.(error); ok {
		L.Push(lua.LString(err.Error()))
		return 1
	}
	L.Push(lua.LString("error"))
	return 1
}

func (r *Runtime) module(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"execute":      r.execute,
		"echo":         r.echo,
		"option":       r.option,
		"set_option":   r.setOption,
		"register":     r.register,
		"set_register": r.setRegister,
		"value":        r.value,
	})
}

// raise aborts the running chunk with err as the Lua error value.
func (r *Runtime) raise(L *lua.LState, err error) int {
	if command.IsControlSignal(err) && r.signal == nil {
		r.signal = err
	}
	ud := L.NewUserData()
	ud.Value = err
	L.SetMetatable(ud, L.GetTypeMetatable(errorTypeName))
	L.Error(ud, 1)
	return 0
}

func (r *Runtime) context(L *lua.LState) *editor.Context {
	if r.current == nil {
		L.RaiseError("no editor context")
	}
	return r.current
}

// execute(text)
func (r *Runtime) execute(L *lua.LState) int {
	text := L.CheckString(1)
	ctx := r.context(L)
	if r.signal != nil {
		return r.raise(L, r.signal)
	}
	if err := ctx.Editor().Commands.Evaluate(ctx, text); err != nil {
		return r.raise(L, err)
	}
	return 0
}

// echo(...)
func (r *Runtime) echo(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.context(L).PrintStatus(strings.Join(parts, " "), "StatusLine")
	return 0
}

// option(name) -> string
func (r *Runtime) option(L *lua.LState) int {
	opt, err := r.context(L).Options().Get(L.CheckString(1))
	if err != nil {
		return r.raise(L, err)
	}
	L.Push(lua.LString(opt.String()))
	return 1
}

// set_option(scope, name, value)
func (r *Runtime) setOption(L *lua.LState) int {
	keyword, name, value := L.CheckString(1), L.CheckString(2), L.CheckString(3)
	opts, err := scope.Options[*editor.Context](keyword, r.context(L))
	if err != nil {
		return r.raise(L, err)
	}
	opt, err := opts.Local(name)
	if err != nil {
		return r.raise(L, err)
	}
	if err := opt.Set(value); err != nil {
		return r.raise(L, err)
	}
	return 0
}

func checkRegister(L *lua.LState, n int) rune {
	name := L.CheckString(n)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || size != len(name) {
		L.ArgError(n, "register names are single character")
	}
	return r
}

// register(name) -> {values}
func (r *Runtime) register(L *lua.LState) int {
	name := checkRegister(L, 1)
	ctx := r.context(L)
	tbl := L.NewTable()
	for _, v := range ctx.Editor().Registers.Get(name, ctx) {
		tbl.Append(lua.LString(v))
	}
	L.Push(tbl)
	return 1
}

// set_register(name, value | {values})
func (r *Runtime) setRegister(L *lua.LState) int {
	name := checkRegister(L, 1)
	var values []string
	switch v := L.Get(2).(type) {
	case *lua.LTable:
		v.ForEach(func(_, item lua.LValue) {
			values = append(values, item.String())
		})
	case lua.LString:
		values = []string{string(v)}
	default:
		L.ArgError(2, "string or table expected")
	}
	if err := r.context(L).Editor().Registers.Set(name, values); err != nil {
		return r.raise(L, err)
	}
	return 0
}

// value(name) -> string | nil
func (r *Runtime) value(L *lua.LState) int {
	v, ok := command.Value(r.context(L), L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}
