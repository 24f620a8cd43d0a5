package option_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/option"
)

func newChain(t *testing.T) (global, buffer, window *option.Manager) {
	t.Helper()
	global = option.NewManager(nil)
	if err := option.RegisterBuiltins(global); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	buffer = option.NewManager(global)
	window = option.NewManager(buffer)
	return global, buffer, window
}

func TestBuiltins(t *testing.T) {
	global, _, window := newChain(t)

	opt, err := window.Get("tabstop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if opt.Int() != 8 {
		t.Errorf("expected tabstop 8, got %d", opt.Int())
	}

	ignored, _ := global.Get("ignored_files")
	if !ignored.Regex().Match(".git") || ignored.Regex().Match("main.go") {
		t.Error("ignored_files regex does not behave as expected")
	}
}

func TestLocalOverrideDoesNotLeak(t *testing.T) {
	global, buffer, window := newChain(t)

	local, err := buffer.Local("tabstop")
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if err := local.Set("2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	g, _ := global.Get("tabstop")
	if g.Int() != 8 {
		t.Errorf("global changed to %d", g.Int())
	}
	w, _ := window.Get("tabstop")
	if w.Int() != 2 {
		t.Errorf("window should inherit buffer override, got %d", w.Int())
	}

	buffer.Unset("tabstop")
	w, _ = window.Get("tabstop")
	if w.Int() != 8 {
		t.Errorf("expected global value after Unset, got %d", w.Int())
	}
}

func TestWatchersPropagate(t *testing.T) {
	global, buffer, window := newChain(t)

	var seen []string
	window.Watch(func(opt *option.Option) {
		seen = append(seen, opt.Name()+"="+opt.String())
	})

	g, _ := global.Get("indentwidth")
	_ = g.Set("2")

	local, _ := buffer.Local("indentwidth")
	_ = local.Set("3")

	// Shadowed by the buffer override now.
	_ = g.Set("7")

	want := []string{"indentwidth=2", "indentwidth=3"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("watcher calls mismatch (-want +got):\n%s", diff)
	}
}

func TestClosedManagerStopsReceiving(t *testing.T) {
	global, buffer, _ := newChain(t)

	calls := 0
	buffer.Watch(func(*option.Option) { calls++ })
	buffer.Close()

	g, _ := global.Get("tabstop")
	_ = g.Set("4")
	if calls != 0 {
		t.Errorf("expected no notifications after Close, got %d", calls)
	}
}

func TestDeclare(t *testing.T) {
	m := option.NewManager(nil)

	opt, err := m.Declare("lint_flags", option.TypeLineFlagList, option.FlagNone)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := opt.Set("3|red|!:10|yellow|?"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	want := []option.LineFlag{{Line: 3, Face: "red", Text: "!"}, {Line: 10, Face: "yellow", Text: "?"}}
	if diff := cmp.Diff(want, opt.LineFlags()); diff != "" {
		t.Errorf("line flags mismatch (-want +got):\n%s", diff)
	}

	again, err := m.Declare("lint_flags", option.TypeLineFlagList, option.FlagNone)
	if err != nil || again != opt {
		t.Errorf("redeclaring with the same type should return the option, got %v", err)
	}

	if _, err := m.Declare("lint_flags", option.TypeInt, option.FlagNone); !errors.Is(err, option.ErrAlreadyDeclared) {
		t.Errorf("expected ErrAlreadyDeclared, got %v", err)
	}
}

func TestSetAndAdd(t *testing.T) {
	tests := []struct {
		name    string
		typ     option.Type
		set     string
		add     string
		want    string
		wantErr error
	}{
		{"int", option.TypeInt, "4", "3", "7", nil},
		{"int-list", option.TypeIntList, "1:2", "3", "1:2:3", nil},
		{"str-list", option.TypeStringList, "a:b", `c\:d`, `a:b:c\:d`, nil},
		{"str", option.TypeString, "x", "y", "", option.ErrAddUnsupported},
		{"bool", option.TypeBool, "yes", "true", "", option.ErrAddUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := option.NewManager(nil)
			opt, _ := m.Declare("o", tt.typ, option.FlagNone)
			if err := opt.Set(tt.set); err != nil {
				t.Fatalf("Set: %v", err)
			}
			err := opt.Add(tt.add)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if got := opt.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInvalidValues(t *testing.T) {
	m := option.NewManager(nil)
	n, _ := m.Declare("n", option.TypeInt, option.FlagNone)
	b, _ := m.Declare("b", option.TypeBool, option.FlagNone)

	if err := n.Set("abc"); !errors.Is(err, option.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if err := b.Set("maybe"); !errors.Is(err, option.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if n.Int() != 0 {
		t.Errorf("failed Set modified value: %d", n.Int())
	}
}

func TestCompleteSkipsHidden(t *testing.T) {
	m := option.NewManager(nil)
	_, _ = m.Declare("tabstop", option.TypeInt, option.FlagNone)
	_, _ = m.Declare("tab_secret", option.TypeInt, option.FlagHidden)
	_, _ = m.Declare("filetype", option.TypeString, option.FlagNone)

	if diff := cmp.Diff([]string{"tabstop"}, m.Complete("tab", 3)); diff != "" {
		t.Errorf("Complete mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissing(t *testing.T) {
	m := option.NewManager(nil)
	if _, err := m.Get("nope"); !errors.Is(err, option.ErrNoSuchOption) {
		t.Errorf("expected ErrNoSuchOption, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	for _, name := range option.TypeNames() {
		typ, err := option.ParseType(name)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", name, err)
		}
		if typ.String() != name {
			t.Errorf("round trip of %q gave %q", name, typ.String())
		}
	}
	if _, err := option.ParseType("float"); !errors.Is(err, option.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}
