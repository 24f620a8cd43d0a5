package editor

import (
	"sort"
	"unicode/utf8"
)

// Selection is the inclusive character range between Anchor and Cursor.
// Both are byte offsets of the first byte of a character.
type Selection struct {
	Anchor int
	Cursor int
}

// Point returns a selection of the single character at off.
func Point(off int) Selection {
	return Selection{Anchor: off, Cursor: off}
}

// Min returns the lower bound.
func (s Selection) Min() int {
	return min(s.Anchor, s.Cursor)
}

// Max returns the upper bound. It is the start of the last selected
// character, not the end of the range.
func (s Selection) Max() int {
	return max(s.Anchor, s.Cursor)
}

// Range returns the half open byte range the selection covers in text.
func (s Selection) Range(text string) (begin, end int) {
	begin, end = s.Min(), s.Max()
	if end >= len(text) {
		return min(begin, len(text)), len(text)
	}
	_, size := utf8.DecodeRuneInString(text[end:])
	return begin, end + size
}

// Content returns the selected text.
func (s Selection) Content(text string) string {
	b, e := s.Range(text)
	return text[b:e]
}

// SelectionList is an ordered list of selections with one main selection.
// It always holds at least one selection.
type SelectionList struct {
	items []Selection
	main  int
}

// NewSelectionList creates a list whose main selection is the last one.
// An empty call yields a single selection at offset 0.
func NewSelectionList(items ...Selection) *SelectionList {
	if len(items) == 0 {
		items = []Selection{Point(0)}
	}
	return &SelectionList{items: append([]Selection(nil), items...), main: len(items) - 1}
}

// Len returns the number of selections.
func (l *SelectionList) Len() int {
	return len(l.items)
}

// At returns selection i.
func (l *SelectionList) At(i int) Selection {
	return l.items[i]
}

// Main returns the main selection.
func (l *SelectionList) Main() Selection {
	return l.items[l.main]
}

// MainIndex returns the index of the main selection.
func (l *SelectionList) MainIndex() int {
	return l.main
}

// SetMain changes the main selection. Out of range indices are ignored.
func (l *SelectionList) SetMain(i int) {
	if i >= 0 && i < len(l.items) {
		l.main = i
	}
}

// Items returns a copy of the selections.
func (l *SelectionList) Items() []Selection {
	return append([]Selection(nil), l.items...)
}

// Set replaces the selections. An empty slice is ignored so the list is
// never empty.
func (l *SelectionList) Set(items []Selection, main int) {
	if len(items) == 0 {
		return
	}
	l.items = append(l.items[:0], items...)
	l.main = min(max(main, 0), len(items)-1)
}

// Update replaces selection i.
func (l *SelectionList) Update(i int, s Selection) {
	l.items[i] = s
}

// KeepMain drops every selection but the main one.
func (l *SelectionList) KeepMain() {
	l.items = []Selection{l.items[l.main]}
	l.main = 0
}

// Clone returns an independent copy.
func (l *SelectionList) Clone() *SelectionList {
	return &SelectionList{items: append([]Selection(nil), l.items...), main: l.main}
}

// Clamp moves every position inside text onto a character start.
func (l *SelectionList) Clamp(text string) {
	for i, s := range l.items {
		l.items[i] = Selection{Anchor: clampOffset(text, s.Anchor), Cursor: clampOffset(text, s.Cursor)}
	}
}

// Normalize sorts selections by position and merges overlapping ones,
// keeping track of the main selection.
func (l *SelectionList) Normalize() {
	main := l.items[l.main]
	sort.SliceStable(l.items, func(i, j int) bool { return l.items[i].Min() < l.items[j].Min() })

	merged := l.items[:1]
	for _, s := range l.items[1:] {
		last := &merged[len(merged)-1]
		if s.Min() <= last.Max() {
			if s.Max() > last.Max() {
				last.Cursor, last.Anchor = s.Max(), last.Min()
			}
			continue
		}
		merged = append(merged, s)
	}
	l.items = merged

	l.main = 0
	for i, s := range l.items {
		if s.Min() <= main.Min() && main.Min() <= s.Max() {
			l.main = i
			break
		}
	}
}

func clampOffset(text string, off int) int {
	if len(text) == 0 {
		return 0
	}
	off = min(max(off, 0), len(text)-1)
	for off > 0 && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}

// DynamicSelectionList is a selection list kept valid across buffer
// modifications. It must be closed when no longer used.
type DynamicSelectionList struct {
	*SelectionList
	buffer *Buffer
}

func newDynamicSelectionList(b *Buffer, l *SelectionList) *DynamicSelectionList {
	d := &DynamicSelectionList{SelectionList: l, buffer: b}
	d.Clamp(b.Text())
	b.addListener(d)
	return d
}

// OnInsert shifts positions at or after offset.
func (d *DynamicSelectionList) OnInsert(offset, length int) {
	shift := func(p int) int {
		if p >= offset {
			return p + length
		}
		return p
	}
	for i, s := range d.items {
		d.items[i] = Selection{Anchor: shift(s.Anchor), Cursor: shift(s.Cursor)}
	}
}

// OnErase moves positions inside the erased range to its start and shifts
// the ones after it.
func (d *DynamicSelectionList) OnErase(begin, end int) {
	shift := func(p int) int {
		switch {
		case p >= end:
			return p - (end - begin)
		case p >= begin:
			return begin
		}
		return p
	}
	for i, s := range d.items {
		d.items[i] = Selection{Anchor: shift(s.Anchor), Cursor: shift(s.Cursor)}
	}
	d.Clamp(d.buffer.Text())
}

// Close stops tracking buffer changes.
func (d *DynamicSelectionList) Close() {
	d.buffer.removeListener(d)
}
