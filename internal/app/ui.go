package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/keyscope/internal/color"
	"github.com/dshills/keyscope/internal/editor"
	"github.com/dshills/keyscope/internal/highlight"
)

var (
	infoStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// lineUI is a line oriented client UI. Status messages, menus and info
// boxes are written to out as they arrive. Menus are answered by number on
// the next input line.
type lineUI struct {
	out      io.Writer
	colors   *color.Registry
	display  bool
	menu     []string
	selected int
}

func (u *lineUI) PrintStatus(text, face string) {
	if text == "" {
		return
	}
	fmt.Fprintln(u.out, u.colors.Style(face).Render(text))
}

func (u *lineUI) MenuShow(choices []string) {
	u.menu = choices
	u.selected = 0
	for i, c := range choices {
		fmt.Fprintf(u.out, "%d) %s\n", i+1, c)
	}
}

func (u *lineUI) MenuSelect(index int) { u.selected = index }

func (u *lineUI) MenuHide() { u.menu = nil }

func (u *lineUI) InfoShow(title, content string, _ editor.InfoAnchor) {
	body := content
	if title != "" {
		body = titleStyle.Render(title) + "\n" + content
	}
	fmt.Fprintln(u.out, infoStyle.Render(body))
}

func (u *lineUI) InfoHide() {}

func (u *lineUI) Draw(d *highlight.Display) {
	if !u.display {
		return
	}
	io.WriteString(u.out, d.Render(u.colors))
}

// menuChoice maps a typed line to a menu index.
func (u *lineUI) menuChoice(line string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(u.menu) {
		return 0, false
	}
	return n - 1, true
}
