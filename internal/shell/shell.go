// Package shell evaluates shell snippets in process with mvdan.cc/sh and
// captures their standard output. Scripts see the caller's variables plus
// every kak_ prefixed variable they reference, resolved on demand.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/dshills/keyscope/internal/logging"
	"github.com/dshills/keyscope/internal/regex"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 30 * time.Second

// VarPrefix marks variables resolved from editor state.
const VarPrefix = "kak_"

// ErrParse indicates a script that does not parse.
var ErrParse = errors.New("shell: parse error")

// Resolver returns the value of an editor variable, named without
// VarPrefix. ok is false for unknown names, which stay unset.
type Resolver func(name string) (value string, ok bool)

var varPattern = regex.MustCompile(`\b` + VarPrefix + `\w+`)

// Manager runs shell snippets.
type Manager struct {
	logger  *logging.Logger
	stderr  io.Writer
	timeout time.Duration
	dir     string
	environ []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent("shell") }
}

// WithStderr sets where script diagnostics go. They are discarded by
// default.
func WithStderr(w io.Writer) Option {
	return func(m *Manager) { m.stderr = w }
}

// WithTimeout bounds each evaluation.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithDir sets the working directory. The process directory is used when
// empty.
func WithDir(dir string) Option {
	return func(m *Manager) { m.dir = dir }
}

// WithEnviron replaces the inherited process environment.
func WithEnviron(environ []string) Option {
	return func(m *Manager) { m.environ = environ }
}

// NewManager creates a manager inheriting the process environment.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:  logging.Nop(),
		stderr:  io.Discard,
		timeout: DefaultTimeout,
		environ: os.Environ(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Request describes one evaluation.
type Request struct {
	Script string
	// Params become $1, $2 and so on.
	Params []string
	// Env is exported as is.
	Env map[string]string
	// Resolve supplies kak_ variables referenced by Script. It may be nil.
	Resolve Resolver
	// Stdin feeds the script. It may be nil.
	Stdin io.Reader
}

// Eval runs req and returns what the script wrote to standard output.
// A non zero exit status is not an error.
func (m *Manager) Eval(ctx context.Context, req Request) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Script), "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(m.env(req)...)),
		interp.StdIO(req.Stdin, &stdout, m.stderr),
		interp.Dir(m.dir),
	}
	if len(req.Params) > 0 {
		// "--" keeps parameters that look like flags from being taken as
		// shell options.
		opts = append(opts, interp.Params(append([]string{"--"}, req.Params...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", fmt.Errorf("shell: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err != nil {
		var status interp.ExitStatus
		if !errors.As(err, &status) {
			return stdout.String(), fmt.Errorf("shell: %w", err)
		}
		m.logger.Debug("script exited", "status", int(status))
	}
	return stdout.String(), nil
}

// env builds the environment: inherited variables, then the request's own,
// then referenced editor variables. Later entries win.
func (m *Manager) env(req Request) []string {
	out := append([]string(nil), m.environ...)

	names := make([]string, 0, len(req.Env))
	for name := range req.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, name+"="+req.Env[name])
	}

	if req.Resolve == nil {
		return out
	}
	seen := make(map[string]bool)
	for _, r := range varPattern.FindAll(req.Script) {
		name := req.Script[r.Begin+len(VarPrefix) : r.End]
		if seen[name] {
			continue
		}
		seen[name] = true
		if value, ok := req.Resolve(name); ok {
			out = append(out, VarPrefix+name+"="+value)
		}
	}
	return out
}
