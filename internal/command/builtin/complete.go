package builtin

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/highlight"
	"github.com/dshills/keyscope/internal/scope"
)

func prefixOf(s string, pos int) string {
	if pos >= 0 && pos < len(s) {
		return s[:pos]
	}
	return s
}

// completeFilename lists the entries of the directory prefix points into.
// Names matching the ignored_files option are skipped unless the prefix
// already names them partially. Directories end with '/'.
func completeFilename(ctx *editor.Context, prefix string, pos int) []string {
	prefix = prefixOf(prefix, pos)
	dir, base := filepath.Split(prefix)
	entries, err := os.ReadDir(expandHome(dirOrDot(dir)))
	if err != nil {
		return nil
	}

	ignored, _ := ctx.Options().Get("ignored_files")
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if base == "" && ignored != nil && ignored.Regex().Match(name) {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		out = append(out, dir+name)
	}
	sort.Strings(out)
	return out
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func filenameCompleter(ctx *editor.Context, args []string, token, pos int) []string {
	return completeFilename(ctx, args[token], pos)
}

var bufferCompleter = command.PerArgument(func(ctx *editor.Context, prefix string, pos int) []string {
	return ctx.Editor().Buffers.Complete(prefix, pos)
})

var scopeCompleter = command.PerArgument(func(_ *editor.Context, prefix string, pos int) []string {
	return scope.Complete(prefix, pos)
})

// setCompleter completes the scope, then the options visible in it.
func setCompleter(ctx *editor.Context, args []string, token, pos int) []string {
	switch token {
	case 0:
		return scope.Complete(args[0], pos)
	case 1:
		opts, err := scope.Options[*editor.Context](args[0], ctx)
		if err != nil {
			return nil
		}
		return opts.Complete(args[1], pos)
	}
	return nil
}

// highlighterAddCompleter completes addhl: the group path after -group,
// and the factory name.
func highlighterAddCompleter(ctx *editor.Context, args []string, token, pos int) []string {
	root, err := windowHighlighters(ctx, "")
	if err != nil {
		return nil
	}
	arg := args[token]
	switch {
	case token == 1 && args[0] == "-group":
		return root.CompleteGroupID(arg, pos)
	case token == 0 || (token == 2 && args[0] == "-group"):
		return ctx.Editor().Highlighters.Complete(arg, pos)
	}
	return nil
}

// highlighterRmCompleter completes rmhl: the group path after -group, and
// the highlighter id in that group.
func highlighterRmCompleter(ctx *editor.Context, args []string, token, pos int) []string {
	root, err := windowHighlighters(ctx, "")
	if err != nil {
		return nil
	}
	arg := args[token]
	switch {
	case token == 1 && args[0] == "-group":
		return root.CompleteGroupID(arg, pos)
	case token == 2 && args[0] == "-group":
		g, err := root.Group(args[1], highlight.PathSeparator)
		if err != nil {
			return nil
		}
		return g.CompleteID(arg, pos)
	}
	return root.CompleteID(arg, pos)
}

// shellCompleter runs script with the arguments as positional parameters
// and kak_token_to_complete and kak_pos_in_token set. Each output line is
// a candidate.
func (b *builtins) shellCompleter(script string) command.Completer {
	return func(ctx *editor.Context, args []string, token, pos int) []string {
		env := map[string]string{
			"token_to_complete": strconv.Itoa(token),
			"pos_in_token":      strconv.Itoa(pos),
		}
		out, err := b.cm.Shell(ctx, script, args, env)
		if err != nil {
			b.cm.Logger().Debug("shell completion failed", "error", err)
			return nil
		}
		var candidates []string
		for _, line := range strings.Split(out, "\n") {
			if line != "" {
				candidates = append(candidates, line)
			}
		}
		return candidates
	}
}
