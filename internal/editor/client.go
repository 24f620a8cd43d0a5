package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/keyscope/internal/highlight"
)

// Client errors.
var (
	// ErrClientNotFound indicates no client has the requested name.
	ErrClientNotFound = errors.New("no such client")

	// ErrClientNameTaken indicates a rename to a name already in use.
	ErrClientNameTaken = errors.New("client name is not unique")
)

// InfoAnchor places an info box.
type InfoAnchor int

const (
	InfoCentered InfoAnchor = iota
	InfoLeft
	InfoRight
	InfoCursor
)

// UI is the user interface a client drives.
type UI interface {
	PrintStatus(text, face string)
	MenuShow(choices []string)
	MenuSelect(index int)
	MenuHide()
	InfoShow(title, content string, anchor InfoAnchor)
	InfoHide()
	Draw(d *highlight.Display)
}

// Client is a user session: a UI showing one window, and the context its
// input executes in.
type Client struct {
	editor  *Editor
	name    string
	ui      UI
	window  *Window
	context *Context
}

// Name returns the client name.
func (c *Client) Name() string { return c.name }

// UI returns the user interface.
func (c *Client) UI() UI { return c.ui }

// Window returns the displayed window.
func (c *Client) Window() *Window { return c.window }

// Context returns the context client input executes in.
func (c *Client) Context() *Context { return c.context }

// ChangeBuffer shows b in a new window, closing the current one.
func (c *Client) ChangeBuffer(b *Buffer) error {
	if c.window.buffer == b {
		return nil
	}
	w, err := c.editor.NewWindow(b)
	old := c.window
	c.window = w
	c.context.rebind(w)
	old.Close()
	return err
}

// Redraw draws the window if it changed, firing WinDisplay first.
func (c *Client) Redraw() error {
	if !c.window.NeedsRedraw() {
		return nil
	}
	err := c.context.FireHook(HookWinDisplay, c.window.buffer.name)
	c.ui.Draw(c.window.Display())
	return err
}

// ClientManager tracks the connected clients.
type ClientManager struct {
	editor  *Editor
	clients []*Client
	next    int
}

func newClientManager(ed *Editor) *ClientManager {
	return &ClientManager{editor: ed}
}

// Create connects a client showing b. An empty name picks an unused
// "unnamedN" name.
func (m *ClientManager) Create(name string, ui UI, b *Buffer) (*Client, error) {
	if name == "" {
		name = m.unusedName()
	} else if _, ok := m.Find(name); ok {
		return nil, fmt.Errorf("client name '%s' is not unique: %w", name, ErrClientNameTaken)
	}

	w, err := m.editor.NewWindow(b)
	c := &Client{editor: m.editor, name: name, ui: ui, window: w}
	c.context = m.editor.NewWindowContext(w)
	c.context.client = c
	m.clients = append(m.clients, c)
	return c, err
}

func (m *ClientManager) unusedName() string {
	for {
		name := fmt.Sprintf("unnamed%d", m.next)
		m.next++
		if _, ok := m.Find(name); !ok {
			return name
		}
	}
}

// Get returns the client called name.
func (m *ClientManager) Get(name string) (*Client, error) {
	if c, ok := m.Find(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrClientNotFound, name)
}

// Find returns the client called name, if any.
func (m *ClientManager) Find(name string) (*Client, bool) {
	for _, c := range m.clients {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Rename changes a client name, which must stay unique.
func (m *ClientManager) Rename(c *Client, name string) error {
	if other, ok := m.Find(name); ok && other != c {
		return fmt.Errorf("client name '%s' is not unique: %w", name, ErrClientNameTaken)
	}
	c.name = name
	return nil
}

// Remove disconnects c and closes its window.
func (m *ClientManager) Remove(c *Client) {
	for i, cur := range m.clients {
		if cur == c {
			m.clients = append(m.clients[:i], m.clients[i+1:]...)
			c.context.Close()
			c.window.Close()
			return
		}
	}
}

// List returns the clients in connection order.
func (m *ClientManager) List() []*Client {
	return append([]*Client(nil), m.clients...)
}

// Count returns the number of clients.
func (m *ClientManager) Count() int {
	return len(m.clients)
}

// Complete returns client names starting with prefix[:pos].
func (m *ClientManager) Complete(prefix string, pos int) []string {
	if pos >= 0 && pos < len(prefix) {
		prefix = prefix[:pos]
	}
	var out []string
	for _, c := range m.clients {
		if strings.HasPrefix(c.name, prefix) {
			out = append(out, c.name)
		}
	}
	return out
}
