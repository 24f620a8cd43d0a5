package lua_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/lua"
	"github.com/dshills/keyscope/internal/params"
)

func setup(t *testing.T) (*lua.Runtime, *editor.Context, *[]string) {
	t.Helper()
	ed, err := editor.New(editor.WithSession("lua"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := ed.Buffers.Create("scratch", editor.BufferScratch, "abc\n")
	if err != nil {
		t.Fatal(err)
	}

	var said []string
	cm := command.NewManager()
	err = cm.Register(&command.Command{
		Names: []string{"say"},
		Spec:  params.Spec{Min: 1, Max: 1},
		Handler: func(p *params.Parser, _ *editor.Context) error {
			said = append(said, p.Arg(0))
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = cm.Register(&command.Command{
		Names:   []string{"bye"},
		Handler: func(*params.Parser, *editor.Context) error { return command.ErrQuit },
	})
	if err != nil {
		t.Fatal(err)
	}
	ed.Commands = cm

	rt := lua.New()
	t.Cleanup(rt.Close)
	return rt, ed.NewContext(b), &said
}

func TestExecute(t *testing.T) {
	rt, ctx, said := setup(t)

	err := rt.DoString(ctx, `
		for i = 1, 3 do
			keyscope.execute("say " .. i)
		end
		keyscope.execute("say %val{bufname}")
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "scratch"}, *said); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandErrorsKeepTheirType(t *testing.T) {
	rt, ctx, _ := setup(t)

	err := rt.DoString(ctx, `keyscope.execute("nope")`)
	var unknown *command.UnknownCommandError
	if !errors.As(err, &unknown) {
		t.Errorf("expected UnknownCommandError, got %v", err)
	}

	err = rt.DoString(ctx, `keyscope.execute("bye")`)
	if !command.IsControlSignal(err) {
		t.Errorf("expected the quit signal, got %v", err)
	}

	if err := rt.DoString(ctx, `error("boom")`); err == nil {
		t.Error("expected a Lua error")
	}
}

func TestControlSignalSurvivesPcall(t *testing.T) {
	rt, ctx, said := setup(t)

	err := rt.DoString(ctx, `
		local ok = pcall(keyscope.execute, "bye")
		pcall(keyscope.execute, "say after")
	`)
	if !command.IsControlSignal(err) {
		t.Fatalf("expected the quit signal, got %v", err)
	}
	if len(*said) != 0 {
		t.Errorf("commands ran after the quit signal: %v", *said)
	}

	if err := rt.DoString(ctx, `keyscope.execute("say next")`); err != nil {
		t.Errorf("a signal must not leak into the next chunk, got %v", err)
	}
}

func TestCaughtErrorDoesNotMaskLaterFailure(t *testing.T) {
	rt, ctx, _ := setup(t)

	err := rt.DoString(ctx, `
		local ok, e = pcall(keyscope.execute, "nope")
		if ok or tostring(e) ~= "no such command 'nope'" then
			error("unexpected catch: " .. tostring(e))
		end
		error("lua failure")
	`)
	var unknown *command.UnknownCommandError
	if errors.As(err, &unknown) {
		t.Fatalf("a caught command error was returned: %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "lua failure") {
		t.Errorf("expected the Lua failure, got %v", err)
	}
}

func TestOptionsAndRegisters(t *testing.T) {
	rt, ctx, said := setup(t)

	err := rt.DoString(ctx, `
		keyscope.set_option("buffer", "tabstop", "3")
		keyscope.set_register("a", {"x", "y"})
		local r = keyscope.register("a")
		keyscope.execute("say " .. keyscope.option("tabstop") .. #r .. r[2])
		keyscope.execute("say " .. keyscope.value("selection"))
	`)
	if err != nil {
		t.Fatalf("DoString failed: %v", err)
	}
	if diff := cmp.Diff([]string{"32y", "a"}, *said); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	global, _ := ctx.Editor().Global.Options.Get("tabstop")
	if global.Int() != 8 {
		t.Errorf("a buffer option must not change the global value, got %d", global.Int())
	}
}

func TestGlobalsPersist(t *testing.T) {
	rt, ctx, said := setup(t)

	if err := rt.DoString(ctx, `greeting = "hi"`); err != nil {
		t.Fatal(err)
	}
	if err := rt.DoString(ctx, `keyscope.execute("say " .. greeting)`); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hi"}, *said); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestClosed(t *testing.T) {
	rt, ctx, _ := setup(t)
	rt.Close()
	if err := rt.DoString(ctx, `x = 1`); !errors.Is(err, lua.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
