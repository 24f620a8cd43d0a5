// Package highlight transforms a Display before it is drawn. Highlighters
// are created by name through a factory registry and stored in nested
// groups, either per window or in the shared set of defined groups that
// the ref highlighter points into.
package highlight

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/keyscope/internal/factory"
	"github.com/dshills/keyscope/internal/group"
	"github.com/dshills/keyscope/internal/option"
	"github.com/dshills/keyscope/internal/regex"
)

// Highlighter errors.
var (
	// ErrParams indicates wrong factory parameters.
	ErrParams = errors.New("highlight: wrong parameters")
)

// PathSeparator separates group names in highlighter paths.
const PathSeparator = '/'

// Env gives highlighters access to the window they draw.
type Env interface {
	Option(name string) (*option.Option, error)
}

// Highlighter transforms a display.
type Highlighter func(d *Display, env Env)

// Group is a tree of highlighters.
type Group = group.Group[Highlighter]

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return group.New[Highlighter](name)
}

// Named is what a factory produces. A Named with Group set creates a sub
// group instead of a leaf.
type Named struct {
	ID          string
	Highlighter Highlighter
	Group       bool
}

// Factory builds a highlighter from its parameters.
type Factory func(params []string) (Named, error)

// Registry maps highlighter names to factories.
type Registry = factory.Registry[Factory]

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return factory.NewRegistry[Factory]("highlighter")
}

// Add creates a highlighter with the factory called name and appends it
// to g.
func Add(reg *Registry, g *Group, name string, params []string) error {
	f, err := reg.Get(name)
	if err != nil {
		return err
	}
	n, err := f(params)
	if err != nil {
		return err
	}
	if n.Group {
		_, err = g.AppendGroup(n.ID)
		return err
	}
	return g.Append(n.ID, n.Highlighter)
}

// Apply runs every highlighter of g and its sub groups in order.
func Apply(g *Group, d *Display, env Env) {
	for _, e := range g.Entries() {
		if e.IsGroup() {
			Apply(e.Group, d, env)
			continue
		}
		e.Item(d, env)
	}
}

// RegisterBuiltins registers the standard factories. defined is the root
// of the groups the ref highlighter resolves against.
func RegisterBuiltins(reg *Registry, defined *Group) error {
	builtins := []struct {
		name string
		f    Factory
	}{
		{"number_lines", numberLinesFactory},
		{"regex", regexFactory},
		{"fill", fillFactory},
		{"flag_lines", flagLinesFactory},
		{"group", groupFactory},
		{"ref", refFactory(defined)},
	}
	for _, b := range builtins {
		if err := reg.Register(b.name, b.f); err != nil {
			return err
		}
	}
	return nil
}

func numberLinesFactory(params []string) (Named, error) {
	if len(params) != 0 {
		return Named{}, fmt.Errorf("%w: number_lines takes no parameters", ErrParams)
	}
	return Named{ID: "number_lines", Highlighter: numberLines}, nil
}

func numberLines(d *Display, _ Env) {
	last := 0
	for _, l := range d.Lines {
		last = max(last, l.Index+1)
	}
	width := len(strconv.Itoa(last))
	for i := range d.Lines {
		d.Lines[i].Prepend(fmt.Sprintf("%*d│", width, d.Lines[i].Index+1), "LineNumbers")
	}
}

// regexFactory takes a pattern followed by faces. A face may be prefixed
// with a capture index, "1:Keyword"; a bare face colors the whole match.
func regexFactory(params []string) (Named, error) {
	if len(params) < 2 {
		return Named{}, fmt.Errorf("%w: regex <pattern> <capture>:<face>...", ErrParams)
	}
	re, err := regex.Compile(params[0])
	if err != nil {
		return Named{}, err
	}
	faces := make(map[int]string)
	for _, spec := range params[1:] {
		capture, face := 0, spec
		if idx, rest, ok := strings.Cut(spec, ":"); ok {
			n, err := strconv.Atoi(idx)
			if err != nil {
				return Named{}, fmt.Errorf("%w: invalid capture '%s'", ErrParams, idx)
			}
			capture, face = n, rest
		}
		faces[capture] = face
	}

	h := func(d *Display, _ Env) {
		for i := range d.Lines {
			line := &d.Lines[i]
			for _, groups := range re.FindAllGroups(line.Content()) {
				for capture, r := range groups {
					face, ok := faces[capture]
					if !ok || r.Begin < 0 {
						continue
					}
					line.SetFace(r.Begin, r.End, face)
				}
			}
		}
	}
	return Named{ID: "hlregex'" + params[0] + "'", Highlighter: h}, nil
}

func fillFactory(params []string) (Named, error) {
	if len(params) != 1 {
		return Named{}, fmt.Errorf("%w: fill <face>", ErrParams)
	}
	face := params[0]
	h := func(d *Display, _ Env) {
		for i := range d.Lines {
			line := &d.Lines[i]
			line.SetFace(0, len(line.Content()), face)
		}
	}
	return Named{ID: "fill_" + face, Highlighter: h}, nil
}

// flagLinesFactory prefixes every line with the flag text the named
// line-flag-list option holds for it. Lines without a flag get padding
// drawn with the given face.
func flagLinesFactory(params []string) (Named, error) {
	if len(params) != 2 {
		return Named{}, fmt.Errorf("%w: flag_lines <face> <option>", ErrParams)
	}
	face, name := params[0], params[1]
	h := func(d *Display, env Env) {
		opt, err := env.Option(name)
		if err != nil || opt.Type() != option.TypeLineFlagList {
			return
		}
		flags := make(map[int]option.LineFlag)
		width := 0
		for _, f := range opt.LineFlags() {
			flags[f.Line] = f
			width = max(width, len([]rune(f.Text)))
		}
		if width == 0 {
			return
		}
		for i := range d.Lines {
			line := &d.Lines[i]
			f, ok := flags[line.Index+1]
			if !ok {
				line.Prepend(strings.Repeat(" ", width), face)
				continue
			}
			text := f.Text + strings.Repeat(" ", width-len([]rune(f.Text)))
			line.Prepend(text, f.Face)
		}
	}
	return Named{ID: "hlflags_" + name, Highlighter: h}, nil
}

func groupFactory(params []string) (Named, error) {
	if len(params) != 1 || params[0] == "" {
		return Named{}, fmt.Errorf("%w: group <name>", ErrParams)
	}
	if strings.ContainsRune(params[0], PathSeparator) {
		return Named{}, fmt.Errorf("%w: group name cannot contain '%c'", ErrParams, PathSeparator)
	}
	return Named{ID: params[0], Group: true}, nil
}

// refFactory resolves its target at draw time so a ref may be added
// before the group it names is defined.
func refFactory(defined *Group) Factory {
	return func(params []string) (Named, error) {
		if len(params) != 1 {
			return Named{}, fmt.Errorf("%w: ref <group>", ErrParams)
		}
		path := params[0]
		h := func(d *Display, env Env) {
			g, err := defined.Group(path, PathSeparator)
			if err != nil {
				return
			}
			Apply(g, d, env)
		}
		return Named{ID: path, Highlighter: h}, nil
	}
}
