package scope_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/scope"
)

var errNoBuffer = errors.New("no such buffer")

type fakeSource struct {
	global  *scope.Container[struct{}]
	buffer  *scope.Container[struct{}]
	window  *scope.Container[struct{}]
	buffers map[string]*scope.Container[struct{}]
}

func newFakeSource() *fakeSource {
	g := scope.NewContainer[struct{}](scope.Global, nil)
	b := scope.NewContainer(scope.Buffer, g)
	w := scope.NewContainer(scope.Window, b)
	return &fakeSource{
		global: g,
		buffer: b,
		window: w,
		buffers: map[string]*scope.Container[struct{}]{
			"log": scope.NewContainer(scope.Buffer, g),
		},
	}
}

func (f *fakeSource) GlobalScope() *scope.Container[struct{}] { return f.global }

func (f *fakeSource) BufferScope() (*scope.Container[struct{}], error) { return f.buffer, nil }

func (f *fakeSource) WindowScope() (*scope.Container[struct{}], error) { return f.window, nil }

func (f *fakeSource) NamedBufferScope(name string) (*scope.Container[struct{}], error) {
	if c, ok := f.buffers[name]; ok {
		return c, nil
	}
	return nil, errNoBuffer
}

func TestResolvePrefixes(t *testing.T) {
	src := newFakeSource()

	tests := []struct {
		keyword string
		want    *scope.Container[struct{}]
	}{
		{"global", src.global},
		{"g", src.global},
		{"buf", src.buffer},
		{"buffer", src.buffer},
		{"win", src.window},
		{"window", src.window},
	}

	for _, tt := range tests {
		got, err := scope.Resolve(tt.keyword, src)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.keyword, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) returned the wrong container", tt.keyword)
		}
	}
}

func TestResolveNamedBuffer(t *testing.T) {
	src := newFakeSource()

	got, err := scope.Resolve("buffer=log", src)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != src.buffers["log"] {
		t.Error("expected the log buffer container")
	}

	if _, err := scope.Resolve("buffer=missing", src); !errors.Is(err, errNoBuffer) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestResolveUnknown(t *testing.T) {
	src := newFakeSource()

	for _, kw := range []string{"", "windows", "local", "Global"} {
		_, err := scope.Resolve(kw, src)
		var unknown *scope.UnknownScopeError
		if !errors.As(err, &unknown) {
			t.Errorf("Resolve(%q): expected UnknownScopeError, got %v", kw, err)
		}
	}
}

func TestContainerChaining(t *testing.T) {
	src := newFakeSource()

	opt, err := src.global.Options.Declare("tabstop", option.TypeInt, option.FlagNone)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	_ = opt.Set("3")

	opts, err := scope.Options("window", src)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	got, err := opts.Get("tabstop")
	if err != nil || got.Int() != 3 {
		t.Errorf("window should see the global option, got %v, %v", got, err)
	}
}

func TestComplete(t *testing.T) {
	if diff := cmp.Diff([]string{"global", "buffer", "window"}, scope.Complete("", 0)); diff != "" {
		t.Errorf("empty completion mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"window"}, scope.Complete("wi", 2)); diff != "" {
		t.Errorf("prefix completion mismatch (-want +got):\n%s", diff)
	}
}
