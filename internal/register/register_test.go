package register_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/register"
)

type ctx struct {
	bufname string
}

func TestStaticRegisters(t *testing.T) {
	m := register.NewManager[*ctx]()

	if err := m.Set('a', []string{"x", "y"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, m.Get('a', nil)); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	if got := m.Get('b', nil); len(got) != 0 {
		t.Errorf("expected empty register, got %v", got)
	}
}

func TestDynamicRegisters(t *testing.T) {
	m := register.NewManager[*ctx]()
	m.RegisterDynamic(register.BufName, func(c *ctx) []string { return []string{c.bufname} })

	got := m.Get(register.BufName, &ctx{bufname: "notes.txt"})
	if diff := cmp.Diff([]string{"notes.txt"}, got); diff != "" {
		t.Errorf("dynamic mismatch (-want +got):\n%s", diff)
	}

	if err := m.Set(register.BufName, []string{"x"}); !errors.Is(err, register.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestNullRegister(t *testing.T) {
	m := register.NewManager[*ctx]()

	if err := m.Set(register.Null, []string{"dropped"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := m.Get(register.Null, nil); got != nil {
		t.Errorf("null register should read empty, got %v", got)
	}
}

func TestSnapshotRestoresAfterError(t *testing.T) {
	m := register.NewManager[*ctx]()
	_ = m.Set(register.Default, []string{"a", "b"})

	errGuarded := errors.New("guarded failure")
	guarded := func() error {
		defer m.Snapshot(register.Default).Restore()
		_ = m.Set(register.Default, []string{"c"})
		return errGuarded
	}

	if err := guarded(); !errors.Is(err, errGuarded) {
		t.Fatalf("expected guarded error, got %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, m.Get(register.Default, nil)); diff != "" {
		t.Errorf("register not restored (-want +got):\n%s", diff)
	}
}

func TestSnapshotOfEmptyRegister(t *testing.T) {
	m := register.NewManager[*ctx]()

	snap := m.Snapshot(register.Search)
	_ = m.Set(register.Search, []string{"foo"})
	snap.Restore()

	if got := m.Get(register.Search, nil); len(got) != 0 {
		t.Errorf("expected empty register after restore, got %v", got)
	}
	for _, name := range m.Names() {
		if name == register.Search {
			t.Error("restored empty register should not be listed")
		}
	}
}
