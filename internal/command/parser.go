package command

import (
	"fmt"
	"strings"
)

// ParseError reports malformed command text.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

type partKind uint8

const (
	textPart partKind = iota
	expansionPart
)

// part is a piece of a word: literal text, or an expansion such as
// %sh{...} evaluated when the statement runs.
type part struct {
	kind partKind
	typ  string
	text string
}

type word []part

// standalone returns the expansion a word consists of, if it is only that.
func (w word) standalone() (part, bool) {
	if len(w) == 1 && w[0].kind == expansionPart {
		return w[0], true
	}
	return part{}, false
}

type statement []word

// escapable lists what a backslash makes literal outside quotes. Any other
// backslash is kept, so regex escapes pass through untouched.
const escapable = " \t;'\"%#\\"

// parse splits text into statements of unexpanded words. Statements are
// separated by ';' or newlines, words by blanks. '#' at the start of a
// word comments out the rest of the line.
func parse(text string) ([]statement, error) {
	var (
		stmts  []statement
		cur    statement
		w      word
		buf    strings.Builder
		inWord bool
	)
	flushText := func() {
		if buf.Len() > 0 {
			w = append(w, part{kind: textPart, text: buf.String()})
			buf.Reset()
		}
	}
	endWord := func() {
		flushText()
		if inWord {
			cur = append(cur, w)
		}
		w, inWord = nil, false
	}
	endStatement := func() {
		endWord()
		if len(cur) > 0 {
			stmts = append(stmts, cur)
		}
		cur = nil
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			endWord()
			i++
		case c == '\n' || c == ';':
			endStatement()
			i++
		case c == '#' && !inWord:
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == '\\' && i+1 < len(text):
			next := text[i+1]
			switch {
			case next == '\n':
				endWord()
			case strings.IndexByte(escapable, next) >= 0:
				buf.WriteByte(next)
				inWord = true
			default:
				buf.WriteByte(c)
				buf.WriteByte(next)
				inWord = true
			}
			i += 2
		case c == '\'' || c == '"':
			content, end, err := readQuoted(text, i)
			if err != nil {
				return nil, err
			}
			buf.WriteString(content)
			inWord = true
			i = end
		case c == '%':
			typ, content, end, ok, err := readExpansion(text, i)
			if err != nil {
				return nil, err
			}
			inWord = true
			if !ok {
				buf.WriteByte(c)
				i++
				continue
			}
			if typ == "" {
				buf.WriteString(content)
			} else {
				flushText()
				w = append(w, part{kind: expansionPart, typ: typ, text: content})
			}
			i = end
		default:
			buf.WriteByte(c)
			inWord = true
			i++
		}
	}
	endStatement()
	return stmts, nil
}

// readQuoted reads the quoted string starting at text[start]. Inside, a
// backslash only escapes the quote character itself.
func readQuoted(text string, start int) (string, int, error) {
	quote := text[start]
	var b strings.Builder
	for i := start + 1; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, &ParseError{Pos: start, Msg: fmt.Sprintf("unterminated string %c...%c", quote, quote)}
}

var closing = map[byte]byte{'{': '}', '(': ')', '[': ']', '<': '>'}

const sameCloseDelimiters = "|/!\"'"

// readExpansion reads %type{content} at text[start]. ok is false when the
// '%' does not start an expansion and must be taken literally. Bracket
// delimiters nest; other delimiters end at their next occurrence.
func readExpansion(text string, start int) (typ, content string, end int, ok bool, err error) {
	i := start + 1
	for i < len(text) && (text[i] >= 'a' && text[i] <= 'z' || text[i] == '_') {
		i++
	}
	if i >= len(text) {
		return "", "", 0, false, nil
	}
	typ = text[start+1 : i]
	open := text[i]
	closeBy, nests := closing[open]
	if !nests {
		if strings.IndexByte(sameCloseDelimiters, open) < 0 {
			return "", "", 0, false, nil
		}
		closeBy = open
	}

	depth := 0
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case closeBy:
			if depth == 0 {
				return typ, text[i+1 : j], j + 1, true, nil
			}
			depth--
		case open:
			if nests {
				depth++
			}
		}
	}
	return "", "", 0, false, &ParseError{Pos: start, Msg: fmt.Sprintf("unterminated %%%s%c...%c", typ, open, closeBy)}
}

// literal renders w without evaluating its expansions.
func (w word) literal() string {
	var b strings.Builder
	for _, p := range w {
		if p.kind == textPart {
			b.WriteString(p.text)
			continue
		}
		b.WriteString("%" + p.typ + "{" + p.text + "}")
	}
	return b.String()
}
