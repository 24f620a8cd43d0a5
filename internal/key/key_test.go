package key_test

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/key"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		input string
		want  []key.Key
	}{
		{"ab", []key.Key{key.Rune('a'), key.Rune('b')}},
		{"<ret>", []key.Key{key.Return}},
		{"<esc>i", []key.Key{key.Escape, key.Rune('i')}},
		{"<c-a>", []key.Key{key.Ctrl('a')}},
		{"<a-x>", []key.Key{key.Alt('x')}},
		{"<c-a-x>", []key.Key{{Mod: tcell.ModCtrl | tcell.ModAlt, Code: tcell.KeyRune, Rune: 'x'}}},
		{"<lt>", []key.Key{key.Rune('<')}},
		{"<space>", []key.Key{key.Rune(' ')}},
		{"<c-up>", []key.Key{{Mod: tcell.ModCtrl, Code: tcell.KeyUp}}},
		{"<F5>", []key.Key{{Code: tcell.KeyF5}}},
		{"<", []key.Key{key.Rune('<')}},
		{"<bogus>", []key.Key{key.Rune('<'), key.Rune('b'), key.Rune('o'), key.Rune('g'), key.Rune('u'), key.Rune('s'), key.Rune('>')}},
		{"é", []key.Key{key.Rune('é')}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := key.ParseKeys(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseKeys(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{"x", "<ret>", "<c-a>", "<a-s-x>", "<lt>", "<space>", "<pagedown>", "<esc>"}

	for _, in := range inputs {
		keys := key.ParseKeys(in)
		if len(keys) != 1 {
			t.Fatalf("ParseKeys(%q) returned %d keys", in, len(keys))
		}
		if got := keys[0].String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}

	if got := key.Format(key.ParseKeys("d<c-a>x")); got != "d<c-a>x" {
		t.Errorf("Format = %q", got)
	}
}

func TestFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want key.Key
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), key.Rune('q')},
		{"ctrl letter", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModCtrl), key.Ctrl('w')},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), key.Return},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), key.Escape},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModAlt), key.Alt('j')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := key.FromEvent(tt.ev); got != tt.want {
				t.Errorf("FromEvent = %+v, want %+v", got, tt.want)
			}
		})
	}
}
