package command_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/params"
	"github.com/dshills/keyscope/internal/shell"
)

// harness is an editor with a command registry holding a "rec" command
// that records the arguments of each call.
type harness struct {
	ed    *editor.Editor
	cm    *command.Manager
	ctx   *editor.Context
	calls [][]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ed, err := editor.New(
		editor.WithSession("test"),
		editor.WithShell(shell.NewManager(shell.WithEnviron(nil))),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := ed.Buffers.Create("main", 0, "hello world\n")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	h := &harness{ed: ed, cm: command.NewManager(), ctx: ed.NewContext(b)}
	ed.Commands = h.cm
	err = h.cm.Register(&command.Command{
		Names: []string{"rec"},
		Spec:  params.Spec{Max: params.Unbounded},
		Raw:   true,
		Handler: func(p *params.Parser, _ *editor.Context) error {
			h.calls = append(h.calls, p.Positionals())
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return h
}

func (h *harness) run(t *testing.T, text string) {
	t.Helper()
	if err := h.cm.Evaluate(h.ctx, text); err != nil {
		t.Fatalf("Evaluate(%q) failed: %v", text, err)
	}
}

func TestTokenizer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{"words", "rec a  b", [][]string{{"a", "b"}}},
		{"semicolon", "rec a; rec b", [][]string{{"a"}, {"b"}}},
		{"newline", "rec a\nrec b\n", [][]string{{"a"}, {"b"}}},
		{"no arguments", "rec", [][]string{{}}},
		{"single quotes", `rec 'a b' 'c;d'`, [][]string{{"a b", "c;d"}}},
		{"double quotes", `rec "a 'b'"`, [][]string{{"a 'b'"}}},
		{"escaped quote", `rec 'it\'s'`, [][]string{{"it's"}}},
		{"adjacent quotes join", `rec a'b c'd`, [][]string{{"ab cd"}}},
		{"braces nest", "rec %{a {b} c}", [][]string{{"a {b} c"}}},
		{"parens", "rec %(x;y)", [][]string{{"x;y"}}},
		{"same char delimiter", "rec %|a}b|", [][]string{{"a}b"}}},
		{"escaped blank", `rec a\ b \;`, [][]string{{"a b", ";"}}},
		{"other escapes kept", `rec \d+`, [][]string{{`\d+`}}},
		{"line continuation", "rec a \\\n b", [][]string{{"a", "b"}}},
		{"comment", "rec a # rec b\nrec c", [][]string{{"a"}, {"c"}}},
		{"hash inside word", "rec a#b", [][]string{{"a#b"}}},
		{"literal percent", "rec 50% %", [][]string{{"50%", "%"}}},
		{"empty quotes", `rec ''`, [][]string{{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.run(t, tt.text)
			if diff := cmp.Diff(tt.want, h.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{`rec 'abc`, `rec "abc`, `rec %{abc`, `rec %sh(a(b)`} {
		h := newHarness(t)
		err := h.cm.Evaluate(h.ctx, text)

		var perr *command.ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected ParseError, got %v", text, err)
		}
		if len(h.calls) != 0 {
			t.Errorf("%q: nothing should run on a parse error", text)
		}
	}
}

func TestUnknownCommandStopsExecution(t *testing.T) {
	h := newHarness(t)
	err := h.cm.Evaluate(h.ctx, "rec a; bogus x; rec b")

	var unknown *command.UnknownCommandError
	if !errors.As(err, &unknown) || unknown.Name != "bogus" {
		t.Fatalf("expected UnknownCommandError for bogus, got %v", err)
	}
	if err.Error() != "no such command 'bogus'" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if diff := cmp.Diff([][]string{{"a"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestExpansions(t *testing.T) {
	tests := []struct {
		name string
		text string
		args []string
		env  map[string]string
		want []string
	}{
		{"val", "rec %val{bufname} %val{session}", nil, nil, []string{"main", "test"}},
		{"val embedded", "rec <%val{bufname}>", nil, nil, []string{"<main>"}},
		{"env shadows val", "rec %val{bufname}", nil, map[string]string{"bufname": "x"}, []string{"x"}},
		{"opt", "rec %opt{tabstop}", nil, nil, []string{"8"}},
		{"selection", "rec %val{selection} %val{cursor_line} %val{cursor_column}", nil, nil, []string{"h", "1", "1"}},
		{"arg", "rec %arg{2} %arg{1} %arg{9}", []string{"a", "b"}, nil, []string{"b", "a", ""}},
		{"arg splice", "rec x %arg{@}", []string{"a", "b c"}, nil, []string{"x", "a", "b c"}},
		{"arg joined", "rec <%arg{@}>", []string{"a", "b"}, nil, []string{"<a b>"}},
		{"sh splices", "rec %sh{echo a \"'b c'\"}", nil, nil, []string{"a", "b c"}},
		{"sh embedded", "rec x%sh{echo y}z", nil, nil, []string{"xyz"}},
		{"sh params", "rec %sh{echo $2}", []string{"a", "b"}, nil, []string{"b"}},
		{"sh values", "rec %sh{echo $kak_bufname $kak_param0}", nil, map[string]string{"param0": "p"}, []string{"main", "p"}},
		{"sh output not expanded", `rec %sh{echo '%val{bufname}'}`, nil, nil, []string{"%val{bufname}"}},
		{"raw block", "rec %{%val{bufname}}", nil, nil, []string{"%val{bufname}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if err := h.cm.Execute(tt.text, h.ctx, tt.args, tt.env); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if len(h.calls) != 1 {
				t.Fatalf("expected one call, got %v", h.calls)
			}
			if diff := cmp.Diff(tt.want, h.calls[0]); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegisterExpansion(t *testing.T) {
	h := newHarness(t)
	if err := h.ed.Registers.Set('a', []string{"first", "second"}); err != nil {
		t.Fatal(err)
	}
	h.run(t, "rec %reg{a} %val{reg_a}")
	if diff := cmp.Diff([][]string{{"first", "first"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	if err := h.cm.Evaluate(h.ctx, "rec %reg{ab}"); err == nil {
		t.Error("expected an error for a multi character register")
	}
}

func TestExpansionErrors(t *testing.T) {
	h := newHarness(t)

	if err := h.cm.Evaluate(h.ctx, "rec %val{nope}"); !errors.Is(err, command.ErrNoSuchValue) {
		t.Errorf("expected ErrNoSuchValue, got %v", err)
	}
	if err := h.cm.Evaluate(h.ctx, "rec %foo{x}"); !errors.Is(err, command.ErrUnknownExpansion) {
		t.Errorf("expected ErrUnknownExpansion, got %v", err)
	}
	if len(h.calls) != 0 {
		t.Errorf("no call expected, got %v", h.calls)
	}
}

func TestStatementsExpandInOrder(t *testing.T) {
	h := newHarness(t)
	err := h.cm.Register(&command.Command{
		Names: []string{"setreg"},
		Spec:  params.Spec{Min: 2, Max: 2},
		Handler: func(p *params.Parser, ctx *editor.Context) error {
			return ctx.Editor().Registers.Set([]rune(p.Arg(0))[0], []string{p.Arg(1)})
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	h.run(t, "setreg a one; rec %reg{a}")
	if diff := cmp.Diff([][]string{{"one"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterCollision(t *testing.T) {
	h := newHarness(t)
	noop := func(*params.Parser, *editor.Context) error { return nil }

	err := h.cm.Register(&command.Command{Names: []string{"other", "rec"}, Handler: noop})
	var collision *command.NameCollisionError
	if !errors.As(err, &collision) || collision.Name != "rec" {
		t.Fatalf("expected NameCollisionError for rec, got %v", err)
	}
	if h.cm.Defined("other") {
		t.Error("a failed registration must not register any name")
	}

	err = h.cm.Register(&command.Command{Names: []string{"rec"}, Handler: noop, Flags: command.FlagAllowOverride})
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	h.run(t, "rec a")
	if len(h.calls) != 0 {
		t.Error("the overriding command should have run")
	}
}

func TestBuiltinArityHasNoSideEffect(t *testing.T) {
	h := newHarness(t)
	called := false
	err := h.cm.Register(&command.Command{
		Names: []string{"two"},
		Spec:  params.Spec{Options: map[string]bool{"x": false}, Min: 2, Max: 2},
		Handler: func(*params.Parser, *editor.Context) error {
			called = true
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"two a", "two a b c", "two -x a", "two -y a b"} {
		if err := h.cm.Evaluate(h.ctx, text); err == nil {
			t.Errorf("%q: expected an error", text)
		}
	}
	if called {
		t.Error("handler must not run when parameters are invalid")
	}
	if err := h.cm.Evaluate(h.ctx, "two -x a b"); err != nil || !called {
		t.Errorf("valid call failed: %v", err)
	}
}

func TestScriptParamsNumbered(t *testing.T) {
	h := newHarness(t)
	err := h.cm.Register(&command.Command{
		Names:  []string{"show"},
		Script: &command.Script{Text: "rec %val{param0} %val{param1}", Params: command.ParamsEnv},
	})
	if err != nil {
		t.Fatal(err)
	}

	h.run(t, "show foo bar")
	if diff := cmp.Diff([][]string{{"foo", "bar"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptParamsShell(t *testing.T) {
	h := newHarness(t)
	err := h.cm.Register(&command.Command{
		Names:  []string{"fwd"},
		Script: &command.Script{Text: "rec %arg{@} %sh{echo $#}", Params: command.ParamsShell},
	})
	if err != nil {
		t.Fatal(err)
	}

	h.run(t, "fwd a 'b c'")
	if diff := cmp.Diff([][]string{{"a", "b c", "2"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptParamsNoneRejectsArguments(t *testing.T) {
	h := newHarness(t)
	err := h.cm.Register(&command.Command{
		Names:  []string{"plain"},
		Script: &command.Script{Text: "rec x"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.cm.Evaluate(h.ctx, "plain a"); !errors.Is(err, params.ErrWrongArgumentCount) {
		t.Fatalf("expected ErrWrongArgumentCount, got %v", err)
	}
	if len(h.calls) != 0 {
		t.Error("the script must not run")
	}
	h.run(t, "plain")
	if len(h.calls) != 1 {
		t.Errorf("expected one call, got %v", h.calls)
	}
}

func TestControlSignal(t *testing.T) {
	if !command.IsControlSignal(command.ErrQuit) {
		t.Error("ErrQuit is a control signal")
	}
	if !command.IsControlSignal(fmt.Errorf("client: %w", command.ErrQuit)) {
		t.Error("a wrapped ErrQuit is a control signal")
	}
	if command.IsControlSignal(errors.New("quit")) {
		t.Error("an ordinary error is not a control signal")
	}
}

func TestEvaluateFromPrompt(t *testing.T) {
	h := newHarness(t)
	var exec editor.CommandExecutor = h.cm
	if err := exec.Evaluate(h.ctx, "rec %val{bufname}"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]string{{"main"}}, h.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}
