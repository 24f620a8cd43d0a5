// Package regex wraps github.com/dlclark/regexp2 with the two matching modes
// the editor needs: whole string matching for hook filters and option
// values, and incremental searching over buffer text with byte offsets.
package regex

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultTimeout bounds a single match attempt.
const DefaultTimeout = 2 * time.Second

// CompileError reports a malformed pattern.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("regex error in '%s': %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Range is a half open byte range [Begin, End) inside the searched text.
type Range struct {
	Begin int
	End   int
}

// Len returns the byte length of the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Regex is a compiled pattern. The zero value holds the empty pattern, which
// matches only the empty string as a whole and everywhere as a search.
type Regex struct {
	src   string
	re    *regexp2.Regexp
	whole *regexp2.Regexp
}

// Compile parses src. '^' and '$' match at line boundaries when searching.
func Compile(src string) (Regex, error) {
	if src == "" {
		return Regex{}, nil
	}
	re, err := regexp2.Compile(src, regexp2.Multiline)
	if err != nil {
		return Regex{}, &CompileError{Pattern: src, Err: err}
	}
	whole, err := regexp2.Compile(`\A(?:`+src+`)\z`, regexp2.None)
	if err != nil {
		return Regex{}, &CompileError{Pattern: src, Err: err}
	}
	re.MatchTimeout = DefaultTimeout
	whole.MatchTimeout = DefaultTimeout
	return Regex{src: src, re: re, whole: whole}, nil
}

// MustCompile is like Compile but panics on error. Intended for patterns
// known at build time.
func MustCompile(src string) Regex {
	r, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the source pattern.
func (r Regex) String() string {
	return r.src
}

// Empty returns true for the empty pattern.
func (r Regex) Empty() bool {
	return r.re == nil
}

// Match reports whether the pattern matches the entire string s.
// A match that times out counts as no match.
func (r Regex) Match(s string) bool {
	if r.whole == nil {
		return s == ""
	}
	ok, err := r.whole.MatchString(s)
	return err == nil && ok
}

// FindNext returns the first match starting at or after byte offset from.
func (r Regex) FindNext(s string, from int) (Range, bool) {
	if from < 0 || from > len(s) {
		return Range{}, false
	}
	if r.re == nil {
		return Range{Begin: from, End: from}, true
	}

	runes, offsets := decode(s)
	start := runeIndex(offsets, from)
	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil || m == nil {
		return Range{}, false
	}
	return Range{Begin: offsets[m.Index], End: offsets[m.Index+m.Length]}, true
}

// FindAll returns every non-overlapping match in s.
func (r Regex) FindAll(s string) []Range {
	if r.re == nil {
		return nil
	}

	runes, offsets := decode(s)
	var out []Range
	m, err := r.re.FindRunesMatch(runes)
	for err == nil && m != nil {
		out = append(out, Range{Begin: offsets[m.Index], End: offsets[m.Index+m.Length]})
		m, err = r.re.FindNextMatch(m)
	}
	return out
}

// FindAllGroups returns the capture ranges of every non-overlapping match in
// s, group 0 first. Groups that did not participate have Begin == -1.
func (r Regex) FindAllGroups(s string) [][]Range {
	if r.re == nil {
		return nil
	}

	runes, offsets := decode(s)
	var out [][]Range
	m, err := r.re.FindRunesMatch(runes)
	for err == nil && m != nil {
		groups := m.Groups()
		ranges := make([]Range, len(groups))
		for i, g := range groups {
			if len(g.Captures) == 0 {
				ranges[i] = Range{Begin: -1, End: -1}
				continue
			}
			ranges[i] = Range{Begin: offsets[g.Index], End: offsets[g.Index+g.Length]}
		}
		out = append(out, ranges)
		m, err = r.re.FindNextMatch(m)
	}
	return out
}

// Submatches returns the text of every capture group for the first match in
// s, group 0 first. It returns nil if nothing matches.
func (r Regex) Submatches(s string) []string {
	if r.re == nil {
		return nil
	}
	m, err := r.re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil
	}
	groups := m.Groups()
	out := make([]string, len(groups))
	for i := range groups {
		out[i] = groups[i].String()
	}
	return out
}

// decode splits s into runes and returns the byte offset of every rune
// index, plus one trailing entry for len(s).
func decode(s string) ([]rune, []int) {
	runes := make([]rune, 0, utf8.RuneCountInString(s))
	offsets := make([]int, 0, cap(runes)+1)
	for i, c := range s {
		runes = append(runes, c)
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return runes, offsets
}

// runeIndex maps a byte offset to the index of the rune containing it.
func runeIndex(offsets []int, byteOff int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= byteOff {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
