package highlight

import (
	"strings"

	"github.com/dshills/keyscope/internal/color"
)

// Atom is a run of text drawn with one face. Begin is the byte offset of
// the text inside its buffer line, or -1 for text that is not buffer
// content, such as line numbers.
type Atom struct {
	Text  string
	Face  string
	Begin int
}

// IsBuffer returns true for atoms holding buffer content.
func (a Atom) IsBuffer() bool {
	return a.Begin >= 0
}

// Line is one buffer line being displayed.
type Line struct {
	// Index is the zero based buffer line.
	Index int
	Atoms []Atom
}

// Content returns the buffer text of the line.
func (l *Line) Content() string {
	var b strings.Builder
	for _, a := range l.Atoms {
		if a.IsBuffer() {
			b.WriteString(a.Text)
		}
	}
	return b.String()
}

// Prepend inserts a non buffer atom at the start of the line.
func (l *Line) Prepend(text, face string) {
	l.Atoms = append([]Atom{{Text: text, Face: face, Begin: -1}}, l.Atoms...)
}

// SetFace applies face to the buffer bytes [begin, end) of the line,
// splitting atoms at the boundaries.
func (l *Line) SetFace(begin, end int, face string) {
	if begin >= end {
		return
	}
	var out []Atom
	for _, a := range l.Atoms {
		if !a.IsBuffer() {
			out = append(out, a)
			continue
		}
		aEnd := a.Begin + len(a.Text)
		if aEnd <= begin || a.Begin >= end {
			out = append(out, a)
			continue
		}
		lo := max(begin, a.Begin) - a.Begin
		hi := min(end, aEnd) - a.Begin
		if lo > 0 {
			out = append(out, Atom{Text: a.Text[:lo], Face: a.Face, Begin: a.Begin})
		}
		out = append(out, Atom{Text: a.Text[lo:hi], Face: face, Begin: a.Begin + lo})
		if hi < len(a.Text) {
			out = append(out, Atom{Text: a.Text[hi:], Face: a.Face, Begin: a.Begin + hi})
		}
	}
	l.Atoms = out
}

// Display is the highlighted form of a buffer about to be drawn.
type Display struct {
	Lines []Line
}

// NewDisplay splits text into one unhighlighted line per buffer line. The
// trailing newline of each line is not displayed.
func NewDisplay(text string) *Display {
	text = strings.TrimSuffix(text, "\n")
	d := &Display{}
	for i, line := range strings.Split(text, "\n") {
		d.Lines = append(d.Lines, Line{Index: i, Atoms: []Atom{{Text: line, Begin: 0}}})
	}
	return d
}

// Render draws the display using colors to resolve faces.
func (d *Display) Render(colors *color.Registry) string {
	var b strings.Builder
	for _, line := range d.Lines {
		for _, a := range line.Atoms {
			if a.Face == "" || colors == nil {
				b.WriteString(a.Text)
				continue
			}
			b.WriteString(colors.Style(a.Face).Render(a.Text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
