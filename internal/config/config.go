// Package config loads the startup configuration.
//
// A configuration file is TOML or YAML, chosen by extension:
//
//	log_level = "debug"
//	session = "work"
//	rc = ["~/.config/keyscope/kakrc"]
//	commands = ["echo ready"]
//	watch = true
//
//	[options]
//	tabstop = 4
//	completers = ["filename", "word"]
//
// A missing file is not an error. KEYSCOPE_ environment variables override
// file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYSCOPE_"

// Config is the startup configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Session names the editing session. Empty picks a random name.
	Session string `toml:"session" yaml:"session"`

	// RC lists command files sourced in order at startup.
	RC []string `toml:"rc" yaml:"rc"`

	// Commands run after the rc files.
	Commands []string `toml:"commands" yaml:"commands"`

	// Options are assigned to the global scope before the rc files run.
	Options map[string]any `toml:"options" yaml:"options"`

	// Watch re-sources rc files when they change.
	Watch bool `toml:"watch" yaml:"watch"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{LogLevel: "info"}
}

// DefaultPath returns the per user configuration file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "keyscope", "config.toml")
}

// Load reads the file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := Decode(path, data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Decode parses data into cfg, picking the format from the extension of
// path. Unknown keys are errors.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return tomlError(path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

func tomlError(path string, err error) error {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		line, column := decodeErr.Position()
		return &ParseError{Path: path, Line: line, Column: column, Message: decodeErr.Error(), Err: err}
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		line, column := strictErr.Errors[0].Position()
		return &ParseError{Path: path, Line: line, Column: column, Message: "unknown key " + strings.Join(strictErr.Errors[0].Key(), "."), Err: err}
	}
	return &ParseError{Path: path, Message: err.Error(), Err: err}
}

// ApplyEnv overrides settings from KEYSCOPE_LOG_LEVEL, KEYSCOPE_SESSION and
// KEYSCOPE_WATCH. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvPrefix + "SESSION"); ok {
		c.Session = v
	}
	if v, ok := lookup(EnvPrefix + "WATCH"); ok {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sWATCH=%q", ErrInvalidValue, EnvPrefix, v)
		}
		c.Watch = watch
	}
	return c.Validate()
}

// Validate checks the log level and option values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.LogLevel)
	}
	for _, rc := range c.RC {
		if rc == "" {
			return fmt.Errorf("%w: empty rc path", ErrInvalidValue)
		}
	}
	_, err := c.OptionValues()
	return err
}

// OptionValue is an option assignment in the textual form the set
// command accepts.
type OptionValue struct {
	Name  string
	Value string
}

// OptionValues returns the options table as textual assignments sorted by
// name. Lists are joined with ':'.
func (c *Config) OptionValues() ([]OptionValue, error) {
	names := make([]string, 0, len(c.Options))
	for name := range c.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]OptionValue, 0, len(names))
	for _, name := range names {
		text, err := formatValue(c.Options[name])
		if err != nil {
			return nil, fmt.Errorf("%w: options.%s: %v", ErrInvalidValue, name, err)
		}
		out = append(out, OptionValue{Name: name, Value: text})
	}
	return out, nil
}

func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		if v != float64(int64(v)) {
			return "", fmt.Errorf("non integer number %v", v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			s, err := formatValue(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ":"), nil
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}

// ExpandHome replaces a leading "~/" with the home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
