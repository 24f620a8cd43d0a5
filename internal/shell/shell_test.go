package shell_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/keyscope/internal/shell"
)

func TestEvalCapturesStdout(t *testing.T) {
	m := shell.NewManager(shell.WithEnviron(nil))

	out, err := m.Eval(context.Background(), shell.Request{Script: "echo hello; echo world"})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out != "hello\nworld\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEvalParams(t *testing.T) {
	m := shell.NewManager(shell.WithEnviron(nil))

	out, err := m.Eval(context.Background(), shell.Request{
		Script: `printf '%s|' "$@"; echo $#`,
		Params: []string{"-x", "two words"},
	})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out != "-x|two words|2\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEvalEnvAndResolver(t *testing.T) {
	m := shell.NewManager(shell.WithEnviron(nil))
	var asked []string

	out, err := m.Eval(context.Background(), shell.Request{
		Script: `echo "$param0 $kak_bufname $kak_bufname $kak_missing."`,
		Env:    map[string]string{"param0": "foo"},
		Resolve: func(name string) (string, bool) {
			asked = append(asked, name)
			if name == "bufname" {
				return "notes.txt", true
			}
			return "", false
		},
	})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out != "foo notes.txt notes.txt .\n" {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Join(asked, ",") != "bufname,missing" {
		t.Errorf("expected each variable resolved once, got %v", asked)
	}
}

func TestEvalExitStatusIsNotAnError(t *testing.T) {
	m := shell.NewManager(shell.WithEnviron(nil))

	out, err := m.Eval(context.Background(), shell.Request{Script: "echo partial; exit 3"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "partial\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEvalParseError(t *testing.T) {
	m := shell.NewManager(shell.WithEnviron(nil))

	_, err := m.Eval(context.Background(), shell.Request{Script: "if then fi ("})
	if !errors.Is(err, shell.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestEvalStderr(t *testing.T) {
	var stderr strings.Builder
	m := shell.NewManager(shell.WithEnviron(nil), shell.WithStderr(&stderr))

	out, err := m.Eval(context.Background(), shell.Request{Script: "echo oops >&2"})
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if out != "" || stderr.String() != "oops\n" {
		t.Errorf("stdout %q stderr %q", out, stderr.String())
	}
}
