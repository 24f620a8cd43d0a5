package builtin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/params"
)

var editSpec = params.Spec{
	Options: map[string]bool{"scratch": false},
	Min:     1,
	Max:     3,
}

func nop(*params.Parser, *editor.Context) error { return nil }

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// edit opens a buffer and shows it in the client. With force an already
// open file buffer is reloaded from disk.
func edit(force bool) command.Handler {
	return func(p *params.Parser, ctx *editor.Context) error {
		ed := ctx.Editor()
		name := p.Arg(0)

		var b *editor.Buffer
		if existing, ok := ed.Buffers.Find(name); ok {
			b = existing
			if force && p.HasOption("scratch") {
				b.Reset("")
			} else if force && b.HasFlag(editor.BufferFile) {
				if err := ed.Buffers.Reload(b); err != nil {
					return err
				}
			}
		} else if p.HasOption("scratch") {
			created, err := ed.Buffers.Create(name, editor.BufferScratch, "")
			if err != nil {
				return err
			}
			b = created
		} else {
			opened, err := ed.Buffers.Open(expandHome(name))
			if err != nil {
				return err
			}
			b = opened
			if b.HasFlag(editor.BufferNew) {
				ctx.PrintStatus("new file "+name, "StatusLine")
			}
		}

		if ctx.HasClient() {
			c, _ := ctx.Client()
			if err := c.ChangeBuffer(b); err != nil {
				return err
			}
		}

		if p.Count() > 1 && p.Arg(1) != "" && ctx.Buffer() == b {
			line, err := strconv.Atoi(p.Arg(1))
			if err != nil {
				return fmt.Errorf("invalid line '%s'", p.Arg(1))
			}
			column := 1
			if p.Count() > 2 && p.Arg(2) != "" {
				if column, err = strconv.Atoi(p.Arg(2)); err != nil {
					return fmt.Errorf("invalid column '%s'", p.Arg(2))
				}
			}
			jump(ctx, max(line-1, 0), max(column-1, 0))
		}
		return nil
	}
}

// jump moves the context to a single selection at line and column,
// clamped to the buffer.
func jump(ctx *editor.Context, line, column int) {
	b := ctx.Buffer()
	line = min(line, b.LineCount()-1)
	start := b.LineStart(line)
	off := min(start+column, b.LineEnd(start))
	ctx.Selections().Set([]editor.Selection{editor.Point(off)}, 0)
}

func writeBuffer(p *params.Parser, ctx *editor.Context) error {
	b := ctx.Buffer()
	if p.Count() == 0 && !b.HasFlag(editor.BufferFile) {
		return errors.New("cannot write a non file buffer without a filename")
	}
	path := b.Name()
	if p.Count() == 1 {
		path = expandHome(p.Arg(0))
	}
	return b.Save(path)
}

func writeAllBuffers(_ *params.Parser, ctx *editor.Context) error {
	for _, b := range ctx.Editor().Buffers.List() {
		if b.HasFlag(editor.BufferFile) && b.IsModified() {
			if err := b.Save(b.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

// quit ends the client session. Unless forced, the last client cannot quit
// while file buffers have unsaved changes.
func quit(force bool) command.Handler {
	return func(_ *params.Parser, ctx *editor.Context) error {
		ed := ctx.Editor()
		if !force && ed.Clients.Count() == 1 {
			var names []string
			for _, b := range ed.Buffers.List() {
				if b.HasFlag(editor.BufferFile) && b.IsModified() {
					names = append(names, b.Name())
				}
			}
			if len(names) > 0 {
				return fmt.Errorf("modified buffers remaining: [%s]", strings.Join(names, ", "))
			}
		}
		return command.ErrQuit
	}
}

func writeAndQuit(force bool) command.Handler {
	q := quit(force)
	return func(p *params.Parser, ctx *editor.Context) error {
		if err := writeBuffer(p, ctx); err != nil {
			return err
		}
		return q(p, ctx)
	}
}

func showBuffer(p *params.Parser, ctx *editor.Context) error {
	b, err := ctx.Editor().Buffers.Get(p.Arg(0))
	if err != nil {
		return err
	}
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	return c.ChangeBuffer(b)
}

// deleteBuffer deletes the named buffer, or the context's. Unless forced a
// modified file buffer is kept. The last buffer is never deleted.
func deleteBuffer(force bool) command.Handler {
	return func(p *params.Parser, ctx *editor.Context) error {
		buffers := ctx.Editor().Buffers
		b := ctx.Buffer()
		if p.Count() == 1 {
			var err error
			if b, err = buffers.Get(p.Arg(0)); err != nil {
				return err
			}
		}
		if !force && b.HasFlag(editor.BufferFile) && b.IsModified() {
			return fmt.Errorf("buffer %s is modified", b.Name())
		}
		if buffers.Count() == 1 {
			return fmt.Errorf("buffer %s is the last one", b.Name())
		}
		return buffers.Delete(b)
	}
}

func setBufferName(p *params.Parser, ctx *editor.Context) error {
	if err := ctx.Editor().Buffers.Rename(ctx.Buffer(), p.Arg(0)); err != nil {
		return fmt.Errorf("unable to change buffer name to %s: %w", p.Arg(0), err)
	}
	return nil
}

func changeDirectory(p *params.Parser, _ *editor.Context) error {
	if err := os.Chdir(expandHome(p.Arg(0))); err != nil {
		return fmt.Errorf("cannot change to directory %s: %w", p.Arg(0), err)
	}
	return nil
}
