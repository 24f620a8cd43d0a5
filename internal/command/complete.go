package command

import (
	"strings"

	"github.com/dshills/keyscope/internal/editor"
)

// Completions are candidates for the token ending at the cursor. Start is
// the byte offset the token begins at.
type Completions struct {
	Start      int
	Candidates []string
}

// Complete completes text[:pos]. The first word of a statement completes
// to command names; later words are handed to the command's Completer.
func (m *Manager) Complete(ctx *editor.Context, text string, pos int) Completions {
	if pos > len(text) {
		pos = len(text)
	}
	start := tokenStart(text, pos)
	stmts, err := parse(text[:start])
	if err != nil {
		return Completions{Start: pos}
	}

	prefix := text[start:pos]
	if head := strings.TrimRight(text[:start], " \t"); strings.HasSuffix(head, ";") || strings.HasSuffix(head, "\n") {
		stmts = nil
	}
	var words []string
	if len(stmts) > 0 {
		for _, w := range stmts[len(stmts)-1] {
			words = append(words, w.literal())
		}
	}

	if len(words) == 0 {
		return Completions{Start: start, Candidates: m.completeName(prefix)}
	}
	cmd, ok := m.commands[words[0]]
	if !ok || cmd.Completer == nil {
		return Completions{Start: start}
	}
	args := append(words[1:len(words):len(words)], prefix)
	return Completions{
		Start:      start,
		Candidates: cmd.Completer(ctx, args, len(args)-1, len(prefix)),
	}
}

func (m *Manager) completeName(prefix string) []string {
	var out []string
	for _, name := range m.Names() {
		if m.commands[name].Flags&FlagHidden != 0 {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// tokenStart returns where the unquoted word ending at pos starts.
func tokenStart(text string, pos int) int {
	i := pos
	for i > 0 {
		c := text[i-1]
		if c == ' ' || c == '\t' || c == ';' || c == '\n' {
			if i >= 2 && text[i-2] == '\\' {
				i -= 2
				continue
			}
			break
		}
		i--
	}
	return i
}

// ArgumentCompleter completes a single argument.
type ArgumentCompleter func(ctx *editor.Context, prefix string, pos int) []string

// PerArgument returns a Completer using completers[i] for the i-th
// argument. Arguments past the last completer get no candidates.
func PerArgument(completers ...ArgumentCompleter) Completer {
	return func(ctx *editor.Context, args []string, token, pos int) []string {
		if token >= len(completers) || completers[token] == nil {
			return nil
		}
		prefix := ""
		if token < len(args) {
			prefix = args[token]
		}
		return completers[token](ctx, prefix, pos)
	}
}
