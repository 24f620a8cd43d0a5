package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keyscope/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFormats(t *testing.T) {
	want := []config.OptionValue{
		{Name: "autoinfo", Value: "false"},
		{Name: "completers", Value: "filename:word"},
		{Name: "tabstop", Value: "4"},
	}

	tests := []struct {
		name    string
		content string
	}{
		{"config.toml", `
log_level = "debug"
session = "work"
rc = ["a.kak", "b.kak"]
commands = ["echo ready"]
watch = true

[options]
tabstop = 4
autoinfo = false
completers = ["filename", "word"]
`},
		{"config.yaml", `
log_level: debug
session: work
rc: [a.kak, b.kak]
commands:
  - echo ready
watch: true
options:
  tabstop: 4
  autoinfo: false
  completers: [filename, word]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeFile(t, tt.name, tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.LogLevel != "debug" || cfg.Session != "work" || !cfg.Watch {
				t.Errorf("unexpected scalars %+v", cfg)
			}
			if diff := cmp.Diff([]string{"a.kak", "b.kak"}, cfg.RC); diff != "" {
				t.Errorf("rc (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"echo ready"}, cfg.Commands); diff != "" {
				t.Errorf("commands (-want +got):\n%s", diff)
			}
			got, err := cfg.OptionValues()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("options (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		target  error
	}{
		{"syntax", "bad.toml", "log_level = \n", nil},
		{"unknown key", "typo.toml", "log_levle = \"debug\"\n", nil},
		{"unknown yaml key", "typo.yaml", "sesion: x\n", nil},
		{"bad level", "level.toml", "log_level = \"loud\"\n", config.ErrInvalidValue},
		{"bad option", "opt.toml", "[options]\nratio = 1.5\n", config.ErrInvalidValue},
		{"format", "config.json", "{}", config.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.target != nil {
				if !errors.Is(err, tt.target) {
					t.Errorf("expected %v, got %v", tt.target, err)
				}
				return
			}
			var parseErr *config.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("expected a ParseError, got %v", err)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := config.Load(writeFile(t, "pos.toml", "session = \"a\"\nlog_level = = 1\n"))
	var parseErr *config.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a ParseError, got %v", err)
	}
	if parseErr.Line != 2 {
		t.Errorf("expected line 2, got %d", parseErr.Line)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"KEYSCOPE_LOG_LEVEL": "warn",
		"KEYSCOPE_SESSION":   "env",
		"KEYSCOPE_WATCH":     "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.Session != "env" || !cfg.Watch {
		t.Errorf("unexpected config %+v", cfg)
	}

	env["KEYSCOPE_WATCH"] = "sometimes"
	if err := cfg.ApplyEnv(lookup); !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := config.ExpandHome("~/rc.kak"); got != filepath.Join(home, "rc.kak") {
		t.Errorf("unexpected path %q", got)
	}
	if got := config.ExpandHome("/etc/rc.kak"); got != "/etc/rc.kak" {
		t.Errorf("unexpected path %q", got)
	}
}
