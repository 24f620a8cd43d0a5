// Package key represents keystrokes and parses the angle bracket key
// notation used by the exec and map commands, e.g. "d<c-a><ret>".
package key

import (
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Key is a single keystroke. Printable keys use Code tcell.KeyRune and
// carry the character in Rune.
type Key struct {
	Mod  tcell.ModMask
	Code tcell.Key
	Rune rune
}

// Rune returns a plain key for r.
func Rune(r rune) Key {
	return Key{Code: tcell.KeyRune, Rune: r}
}

// Ctrl returns r with the control modifier.
func Ctrl(r rune) Key {
	return Key{Mod: tcell.ModCtrl, Code: tcell.KeyRune, Rune: r}
}

// Alt returns r with the alt modifier.
func Alt(r rune) Key {
	return Key{Mod: tcell.ModAlt, Code: tcell.KeyRune, Rune: r}
}

// Common special keys.
var (
	Escape    = Key{Code: tcell.KeyEsc}
	Return    = Key{Code: tcell.KeyEnter}
	Tab       = Key{Code: tcell.KeyTab}
	Backspace = Key{Code: tcell.KeyBackspace}
	Up        = Key{Code: tcell.KeyUp}
	Down      = Key{Code: tcell.KeyDown}
)

// IsRune returns true for an unmodified printable key.
func (k Key) IsRune() bool {
	return k.Code == tcell.KeyRune && k.Mod == tcell.ModNone
}

var specialNames = []struct {
	name string
	code tcell.Key
}{
	{"ret", tcell.KeyEnter},
	{"esc", tcell.KeyEsc},
	{"tab", tcell.KeyTab},
	{"backspace", tcell.KeyBackspace},
	{"del", tcell.KeyDelete},
	{"up", tcell.KeyUp},
	{"down", tcell.KeyDown},
	{"left", tcell.KeyLeft},
	{"right", tcell.KeyRight},
	{"pageup", tcell.KeyPgUp},
	{"pagedown", tcell.KeyPgDn},
	{"home", tcell.KeyHome},
	{"end", tcell.KeyEnd},
	{"F1", tcell.KeyF1},
	{"F2", tcell.KeyF2},
	{"F3", tcell.KeyF3},
	{"F4", tcell.KeyF4},
	{"F5", tcell.KeyF5},
	{"F6", tcell.KeyF6},
	{"F7", tcell.KeyF7},
	{"F8", tcell.KeyF8},
	{"F9", tcell.KeyF9},
	{"F10", tcell.KeyF10},
	{"F11", tcell.KeyF11},
	{"F12", tcell.KeyF12},
}

// Printable characters that need a name inside angle brackets.
var runeNames = []struct {
	name string
	r    rune
}{
	{"space", ' '},
	{"lt", '<'},
	{"gt", '>'},
	{"minus", '-'},
	{"plus", '+'},
	{"semicolon", ';'},
	{"percent", '%'},
}

var modifierPrefixes = []struct {
	prefix string
	mod    tcell.ModMask
}{
	{"c-", tcell.ModCtrl},
	{"a-", tcell.ModAlt},
	{"s-", tcell.ModShift},
}

// ParseKeys parses key notation. Text inside '<' '>' names a special key,
// optionally prefixed by modifiers: "<c-a>", "<a-s-x>", "<ret>". A '<' that
// does not start a valid name is taken literally.
func ParseKeys(s string) []Key {
	var keys []Key
	for i := 0; i < len(s); {
		if s[i] == '<' {
			if end := strings.IndexByte(s[i+1:], '>'); end >= 0 {
				if k, ok := parseNamed(s[i+1 : i+1+end]); ok {
					keys = append(keys, k)
					i += end + 2
					continue
				}
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		keys = append(keys, Rune(r))
		i += size
	}
	return keys
}

func parseNamed(inner string) (Key, bool) {
	var mod tcell.ModMask
	for {
		matched := false
		for _, m := range modifierPrefixes {
			if strings.HasPrefix(inner, m.prefix) && len(inner) > len(m.prefix) {
				mod |= m.mod
				inner = inner[len(m.prefix):]
				matched = true
			}
		}
		if !matched {
			break
		}
	}

	for _, n := range specialNames {
		if n.name == inner {
			return Key{Mod: mod, Code: n.code}, true
		}
	}
	for _, n := range runeNames {
		if n.name == inner {
			return Key{Mod: mod, Code: tcell.KeyRune, Rune: n.r}, true
		}
	}
	if r, size := utf8.DecodeRuneInString(inner); size > 0 && size == len(inner) && mod != tcell.ModNone {
		return Key{Mod: mod, Code: tcell.KeyRune, Rune: r}, true
	}
	return Key{}, false
}

// String returns the key in the notation ParseKeys accepts.
func (k Key) String() string {
	var name string
	if k.Code == tcell.KeyRune {
		name = string(k.Rune)
		for _, n := range runeNames {
			if n.r == k.Rune {
				name = n.name
				break
			}
		}
		if k.Mod == tcell.ModNone && utf8.RuneLen(k.Rune) > 0 && name == string(k.Rune) {
			return name
		}
	} else {
		name = "unknown"
		for _, n := range specialNames {
			if n.code == k.Code {
				name = n.name
				break
			}
		}
	}

	var b strings.Builder
	b.WriteByte('<')
	for _, m := range modifierPrefixes {
		if k.Mod&m.mod != 0 {
			b.WriteString(m.prefix)
		}
	}
	b.WriteString(name)
	b.WriteByte('>')
	return b.String()
}

// Format renders a key sequence.
func Format(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k.String())
	}
	return b.String()
}

// FromEvent converts a terminal key event. Control characters that tcell
// reports as dedicated codes are normalized to Ctrl plus a letter.
func FromEvent(ev *tcell.EventKey) Key {
	code := ev.Key()
	mod := ev.Modifiers()
	if code == tcell.KeyRune {
		return Key{Mod: mod, Code: tcell.KeyRune, Rune: ev.Rune()}
	}
	if code >= tcell.KeyCtrlA && code <= tcell.KeyCtrlZ &&
		code != tcell.KeyTab && code != tcell.KeyEnter && code != tcell.KeyBackspace {
		return Key{Mod: mod | tcell.ModCtrl, Code: tcell.KeyRune, Rune: rune('a' + code - tcell.KeyCtrlA)}
	}
	if code == tcell.KeyBackspace2 {
		code = tcell.KeyBackspace
	}
	return Key{Mod: mod, Code: code}
}
