package group_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/group"
)

func names[T any](g *group.Group[T]) []string {
	var out []string
	for _, e := range g.Entries() {
		out = append(out, e.Name)
	}
	return out
}

func TestAppendAndFind(t *testing.T) {
	g := group.New[int]("root")

	if err := g.Append("a", 1); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, ok := g.Find("a")
	if !ok {
		t.Fatal("expected to find appended item")
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}

	if _, ok := g.Find("missing"); ok {
		t.Error("expected missing item to be absent")
	}
}

func TestAppendDuplicateLeaf(t *testing.T) {
	g := group.New[int]("root")
	_ = g.Append("a", 1)

	err := g.Append("a", 2)
	if !errors.Is(err, group.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, _ := g.Find("a")
	if got != 1 {
		t.Errorf("original item replaced: got %d", got)
	}
}

func TestAppendGroupIdempotent(t *testing.T) {
	g := group.New[int]("root")

	first, err := g.AppendGroup("sub")
	if err != nil {
		t.Fatalf("AppendGroup: %v", err)
	}
	second, err := g.AppendGroup("sub")
	if err != nil {
		t.Fatalf("AppendGroup again: %v", err)
	}
	if first != second {
		t.Error("expected the same group on repeated AppendGroup")
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 child, got %d", g.Len())
	}
}

func TestAppendGroupOverLeaf(t *testing.T) {
	g := group.New[int]("root")
	_ = g.Append("x", 1)

	if _, err := g.AppendGroup("x"); !errors.Is(err, group.ErrNotAGroup) {
		t.Errorf("expected ErrNotAGroup, got %v", err)
	}
}

func TestRemoveWildcard(t *testing.T) {
	g := group.New[string]("root")
	_ = g.Append("xa", "1")
	_ = g.Append("xb", "2")
	_ = g.Append("y", "3")

	if n := g.Remove("x*"); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if diff := cmp.Diff([]string{"y"}, names(g)); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveNoMatchIsNoop(t *testing.T) {
	g := group.New[string]("root")
	_ = g.Append("a", "1")
	_ = g.Append("b", "2")

	if n := g.Remove("zzz"); n != 0 {
		t.Errorf("expected nothing removed, got %d", n)
	}
	if n := g.Remove("q*"); n != 0 {
		t.Errorf("expected nothing removed, got %d", n)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names(g)); diff != "" {
		t.Errorf("group changed (-want +got):\n%s", diff)
	}
}

func TestRemoveExact(t *testing.T) {
	g := group.New[string]("root")
	_ = g.Append("ab", "1")
	_ = g.Append("abc", "2")

	g.Remove("ab")
	if diff := cmp.Diff([]string{"abc"}, names(g)); diff != "" {
		t.Errorf("exact remove mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupPath(t *testing.T) {
	g := group.New[int]("root")

	if _, err := g.Group("code/comments", '/'); !errors.Is(err, group.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound at use time, got %v", err)
	}

	created, err := g.EnsureGroup("code/comments", '/')
	if err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}
	_ = created.Append("todo", 7)

	found, err := g.Group("code/comments", '/')
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if found != created {
		t.Error("expected lookup to return the created group")
	}

	self, err := g.Group("", '/')
	if err != nil || self != g {
		t.Errorf("expected empty path to resolve to root, got %v, %v", self, err)
	}
}

func TestGroupPathThroughLeaf(t *testing.T) {
	g := group.New[int]("root")
	_ = g.Append("leaf", 1)

	if _, err := g.Group("leaf/x", '/'); !errors.Is(err, group.ErrNotAGroup) {
		t.Errorf("expected ErrNotAGroup, got %v", err)
	}
}

func TestCompleteIDInsertionOrder(t *testing.T) {
	g := group.New[int]("root")
	_ = g.Append("number_lines", 1)
	_, _ = g.AppendGroup("nested")
	_ = g.Append("name", 2)
	_ = g.Append("regex", 3)

	got := g.CompleteID("n", 1)
	want := []string{"number_lines", "nested", "name"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompleteID mismatch (-want +got):\n%s", diff)
	}

	// Cursor position limits the prefix.
	got = g.CompleteID("nex", 2)
	want = []string{"nested"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompleteID with cursor mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteGroupID(t *testing.T) {
	g := group.New[int]("root")
	_, _ = g.EnsureGroup("code/comments", '/')
	_, _ = g.EnsureGroup("code/strings", '/')
	_, _ = g.EnsureGroup("cursor", '/')
	_ = g.Append("cleaf", 1)

	got := g.CompleteGroupID("c", 1)
	if diff := cmp.Diff([]string{"code", "cursor"}, got); diff != "" {
		t.Errorf("top level mismatch (-want +got):\n%s", diff)
	}

	got = g.CompleteGroupID("code/s", 6)
	if diff := cmp.Diff([]string{"code/strings"}, got); diff != "" {
		t.Errorf("nested mismatch (-want +got):\n%s", diff)
	}

	if got := g.CompleteGroupID("nope/x", 6); len(got) != 0 {
		t.Errorf("expected no candidates under a missing group, got %v", got)
	}
}

func TestWalk(t *testing.T) {
	g := group.New[int]("root")
	_ = g.Append("a", 1)
	sub, _ := g.AppendGroup("sub")
	_ = sub.Append("b", 2)
	_ = g.Append("c", 3)

	var paths []string
	var sum int
	g.Walk(func(path string, item int) {
		paths = append(paths, path)
		sum += item
	})

	if diff := cmp.Diff([]string{"a", "sub/b", "c"}, paths); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
	if sum != 6 {
		t.Errorf("expected sum 6, got %d", sum)
	}
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"abc", "abc", true},
		{"abc", "abcd", false},
		{"ab*", "abcd", true},
		{"ab*", "a", false},
		{"*", "anything", true},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := group.MatchName(tt.pattern, tt.name); got != tt.want {
			t.Errorf("MatchName(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}
