// Package builtin registers the commands every session starts with.
package builtin

import (
	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/lua"
	"github.com/dshills/keyscope/internal/params"
)

// builtins carries what command handlers need beyond their context.
type builtins struct {
	cm  *command.Manager
	lua *lua.Runtime
}

// Register adds the builtin commands to cm. The lua command is only
// registered when rt is not nil.
func Register(cm *command.Manager, rt *lua.Runtime) error {
	b := &builtins{cm: cm, lua: rt}
	for _, cmd := range b.commands() {
		if err := cm.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// anyArgs accepts any number of positional arguments.
var anyArgs = params.Spec{Max: params.Unbounded}

// exactly accepts n positional arguments.
func exactly(n int) params.Spec {
	return params.Spec{Min: n, Max: n}
}

func (b *builtins) commands() []*command.Command {
	cmds := []*command.Command{
		{Names: []string{"nop"}, Spec: anyArgs, Raw: true, Handler: nop},

		{Names: []string{"edit", "e"}, Spec: editSpec, Handler: edit(false), Completer: filenameCompleter},
		{Names: []string{"edit!", "e!"}, Spec: editSpec, Handler: edit(true), Completer: filenameCompleter},
		{Names: []string{"write", "w"}, Spec: params.Spec{Max: 1}, Raw: true, Handler: writeBuffer, Completer: filenameCompleter},
		{Names: []string{"writeall", "wa"}, Handler: writeAllBuffers},
		{Names: []string{"quit", "q"}, Handler: quit(false)},
		{Names: []string{"quit!", "q!"}, Handler: quit(true)},
		{Names: []string{"wq"}, Spec: params.Spec{Max: 1}, Raw: true, Handler: writeAndQuit(false)},
		{Names: []string{"wq!"}, Spec: params.Spec{Max: 1}, Raw: true, Handler: writeAndQuit(true)},
		{Names: []string{"buffer", "b"}, Spec: exactly(1), Raw: true, Handler: showBuffer, Completer: bufferCompleter},
		{Names: []string{"delbuf", "db"}, Spec: params.Spec{Max: 1}, Raw: true, Handler: deleteBuffer(false), Completer: bufferCompleter},
		{Names: []string{"delbuf!", "db!"}, Spec: params.Spec{Max: 1}, Raw: true, Handler: deleteBuffer(true), Completer: bufferCompleter},
		{Names: []string{"namebuf", "nb"}, Spec: exactly(1), Handler: setBufferName},
		{Names: []string{"cd"}, Spec: exactly(1), Raw: true, Handler: changeDirectory, Completer: filenameCompleter},

		{Names: []string{"addhl", "ah"}, Spec: addHighlighterSpec, Handler: addHighlighter, Completer: highlighterAddCompleter},
		{Names: []string{"rmhl", "rh"}, Spec: rmHighlighterSpec, Handler: rmHighlighter, Completer: highlighterRmCompleter},
		{Names: []string{"defhl", "dh"}, Spec: exactly(1), Raw: true, Handler: defineHighlighter},

		{Names: []string{"hook"}, Spec: hookSpec, Handler: b.addHook, Completer: scopeCompleter},
		{Names: []string{"rmhooks"}, Spec: exactly(2), Handler: rmHooks, Completer: scopeCompleter},
		{Names: []string{"source"}, Spec: exactly(1), Raw: true, Handler: b.source, Completer: filenameCompleter},
		{Names: []string{"exec"}, Spec: wrapSpec, Handler: execKeys},
		{Names: []string{"eval"}, Spec: wrapSpec, Handler: b.eval},
		{Names: []string{"try"}, Spec: params.Spec{Min: 1, Max: 3}, Raw: true, Handler: b.tryCatch},
		{Names: []string{"def"}, Spec: defineSpec, Handler: b.defineCommand},

		{Names: []string{"menu"}, Spec: menuSpec, Handler: b.menu},
		{Names: []string{"info"}, Spec: infoSpec, Handler: info},
		{Names: []string{"echo"}, Spec: echoSpec, Handler: echo},
		{Names: []string{"debug"}, Spec: anyArgs, Raw: true, Handler: debug},
		{Names: []string{"nameclient", "nc"}, Spec: exactly(1), Raw: true, Handler: setClientName},
		{Names: []string{"colalias", "ca"}, Spec: exactly(2), Raw: true, Handler: colorAlias},

		{Names: []string{"set"}, Spec: setSpec, Handler: setOption, Completer: setCompleter},
		{Names: []string{"decl"}, Spec: declareSpec, Handler: declareOption},
		{Names: []string{"reg"}, Spec: exactly(2), Raw: true, Handler: setRegister},
		{Names: []string{"map"}, Spec: exactly(4), Raw: true, Handler: mapKey, Completer: scopeCompleter},
		{Names: []string{"unmap"}, Spec: exactly(3), Raw: true, Handler: unmapKey, Completer: scopeCompleter},
	}
	if b.lua != nil {
		cmds = append(cmds, &command.Command{
			Names: []string{"lua"}, Spec: params.Spec{Min: 1, Max: params.Unbounded}, Raw: true, Handler: b.runLua,
		})
	}
	return cmds
}
