// Package draft selects the context a command runs in. Commands accepting
// the -client, -try-client, -draft and -itersel switches hand their parsed
// parameters to Wrap, which resolves the target client and optionally
// forks a throwaway context so the command cannot disturb the live
// selections.
package draft

import (
	"errors"
	"maps"

	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/params"
)

// ErrIterselWithoutDraft is returned when -itersel is given without -draft.
var ErrIterselWithoutDraft = errors.New("-itersel makes no sense without -draft")

var switches = map[string]bool{
	"client":     true,
	"try-client": true,
	"draft":      false,
	"itersel":    false,
}

// Options returns the switches Wrap understands, suitable for a
// params.Spec. The caller may add its own to the returned map.
func Options() map[string]bool {
	return maps.Clone(switches)
}

// Wrap runs fn in the context the parsed switches designate:
//
//   - -client NAME uses that client's context and fails if it is missing.
//   - -try-client NAME uses it when present and ctx otherwise.
//   - -draft runs fn in a fork of that context.
//   - -itersel with -draft runs fn once per selection, each time in a fork
//     holding only that selection.
//
// When fn ran directly in another client's context its window is marked
// for redraw.
func Wrap(p *params.Parser, ctx *editor.Context, fn func(*editor.Context) error) error {
	if p.HasOption("itersel") && !p.HasOption("draft") {
		return ErrIterselWithoutDraft
	}

	target, err := effective(p, ctx)
	if err != nil {
		return err
	}

	if !p.HasOption("draft") {
		err := fn(target)
		if target != ctx {
			if w, werr := target.Window(); werr == nil {
				w.ForgetTimestamp()
			}
		}
		return err
	}

	if !p.HasOption("itersel") {
		d := target.Fork(target.Selections())
		defer d.Close()
		return fn(d)
	}

	// The iteration list follows the edits earlier iterations make.
	iter := target.Fork(target.Selections())
	defer iter.Close()
	sels := iter.Selections()
	for i := 0; i < sels.Len(); i++ {
		d := target.Fork(editor.NewSelectionList(sels.At(i)))
		err := fn(d)
		d.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func effective(p *params.Parser, ctx *editor.Context) (*editor.Context, error) {
	clients := ctx.Editor().Clients
	if p.HasOption("client") {
		c, err := clients.Get(p.OptionValue("client"))
		if err != nil {
			return nil, err
		}
		return c.Context(), nil
	}
	if p.HasOption("try-client") {
		if c, ok := clients.Find(p.OptionValue("try-client")); ok {
			return c.Context(), nil
		}
	}
	return ctx, nil
}
