// Package color maps face names to foreground and background colors and
// renders text with them.
//
// A face is written "fg" or "fg,bg" where each color is one of the eight
// terminal color names, "default", or "rgb:RRGGBB". Named faces and user
// aliases resolve to such values.
package color

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color errors.
var (
	// ErrInvalidColor indicates an unparsable color or face value.
	ErrInvalidColor = errors.New("color: unable to parse color")

	// ErrInvalidAlias indicates an alias name that cannot be used.
	ErrInvalidAlias = errors.New("color: invalid alias name")
)

// Color is a single terminal color. The empty Color is the terminal default.
type Color string

var names = map[string]Color{
	"default": "",
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// ParseColor parses a color name or "rgb:RRGGBB".
func ParseColor(s string) (Color, error) {
	if c, ok := names[s]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(s, "rgb:"); ok && len(hex) == 6 {
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return "", fmt.Errorf("%w '%s'", ErrInvalidColor, s)
			}
		}
		return Color("#" + hex), nil
	}
	return "", fmt.Errorf("%w '%s'", ErrInvalidColor, s)
}

// Face is a foreground and background pair.
type Face struct {
	Fg Color
	Bg Color
}

// Style returns the lipgloss style drawing the face.
func (f Face) Style() lipgloss.Style {
	s := lipgloss.NewStyle()
	if f.Fg != "" {
		s = s.Foreground(lipgloss.Color(f.Fg))
	}
	if f.Bg != "" {
		s = s.Background(lipgloss.Color(f.Bg))
	}
	return s
}

var builtinFaces = map[string]string{
	"Error":              "default,red",
	"StatusLine":         "cyan",
	"Information":        "black,yellow",
	"LineNumbers":        "black,white",
	"MenuForeground":     "white,blue",
	"MenuBackground":     "blue,white",
	"PrimarySelection":   "cyan,blue",
	"SecondarySelection": "black,blue",
	"Prompt":             "yellow",
	"Identifier":         "red",
	"Keyword":            "blue",
	"Comment":            "cyan",
	"String":             "magenta",
	"Value":              "green",
}

// Registry holds face aliases.
type Registry struct {
	aliases map[string]string
}

// NewRegistry creates a registry seeded with the builtin faces.
func NewRegistry() *Registry {
	r := &Registry{aliases: make(map[string]string, len(builtinFaces))}
	for name, value := range builtinFaces {
		r.aliases[name] = value
	}
	return r
}

// Alias makes name resolve to value, which may itself be an alias or a
// face literal. An existing alias is replaced.
func (r *Registry) Alias(name, value string) error {
	if name == "" || strings.ContainsAny(name, ",:") {
		return fmt.Errorf("%w '%s'", ErrInvalidAlias, name)
	}
	if _, err := r.resolve(value, map[string]bool{name: true}); err != nil {
		return err
	}
	r.aliases[name] = value
	return nil
}

// Face resolves an alias or face literal.
func (r *Registry) Face(name string) (Face, error) {
	return r.resolve(name, map[string]bool{})
}

// Style is Face followed by Face.Style. Unresolvable names render with the
// default style.
func (r *Registry) Style(name string) lipgloss.Style {
	f, err := r.Face(name)
	if err != nil {
		return lipgloss.NewStyle()
	}
	return f.Style()
}

// Names returns all alias names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.aliases))
	for name := range r.aliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) resolve(name string, seen map[string]bool) (Face, error) {
	if value, ok := r.aliases[name]; ok {
		if seen[name] {
			return Face{}, fmt.Errorf("%w: alias loop on '%s'", ErrInvalidColor, name)
		}
		seen[name] = true
		return r.resolve(value, seen)
	}

	fg, bg, hasBg := strings.Cut(name, ",")
	var face Face
	var err error
	if face.Fg, err = ParseColor(fg); err != nil {
		return Face{}, err
	}
	if hasBg {
		if face.Bg, err = ParseColor(bg); err != nil {
			return Face{}, err
		}
	}
	return face, nil
}
