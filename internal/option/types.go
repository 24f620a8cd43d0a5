package option

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/keyscope/internal/regex"
)

// Type is the declared type of an option.
type Type int

const (
	TypeInt Type = iota
	TypeBool
	TypeString
	TypeRegex
	TypeIntList
	TypeStringList
	TypeLineFlagList
)

var typeNames = []string{
	TypeInt:          "int",
	TypeBool:         "bool",
	TypeString:       "str",
	TypeRegex:        "regex",
	TypeIntList:      "int-list",
	TypeStringList:   "str-list",
	TypeLineFlagList: "line-flag-list",
}

// String returns the type name as written in declarations.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ParseType parses a declaration type name such as "int-list".
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

// TypeNames returns every declarable type name.
func TypeNames() []string {
	return append([]string(nil), typeNames...)
}

// LineFlag attaches a face and a short text to a buffer line.
type LineFlag struct {
	Line int
	Face string
	Text string
}

// listSeparator splits list option values.
const listSeparator = ':'

// zero returns the default value for a type.
func zero(t Type) any {
	switch t {
	case TypeInt:
		return 0
	case TypeBool:
		return false
	case TypeString:
		return ""
	case TypeRegex:
		return regex.Regex{}
	case TypeIntList:
		return []int{}
	case TypeStringList:
		return []string{}
	case TypeLineFlagList:
		return []LineFlag{}
	}
	return nil
}

// parse converts the textual form of a value to its typed form.
func parse(t Type, s string) (any, error) {
	switch t {
	case TypeInt:
		return parseInt(s)
	case TypeBool:
		switch s {
		case "true", "yes":
			return true, nil
		case "false", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%w: '%s' is not a boolean", ErrInvalidValue, s)
	case TypeString:
		return s, nil
	case TypeRegex:
		return regex.Compile(s)
	case TypeIntList:
		out := []int{}
		for _, item := range splitList(s) {
			n, err := parseInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case TypeStringList:
		return append([]string{}, splitList(s)...), nil
	case TypeLineFlagList:
		out := []LineFlag{}
		for _, item := range splitList(s) {
			parts := strings.SplitN(item, "|", 3)
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: '%s' is not line|face|text", ErrInvalidValue, item)
			}
			line, err := parseInt(parts[0])
			if err != nil {
				return nil, err
			}
			out = append(out, LineFlag{Line: line, Face: parts[1], Text: parts[2]})
		}
		return out, nil
	}
	return nil, ErrUnknownType
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: '%s' is not an integer", ErrInvalidValue, s)
	}
	return n, nil
}

// format converts a typed value back to the textual form parse accepts.
func format(t Type, v any) string {
	switch t {
	case TypeInt:
		return strconv.Itoa(v.(int))
	case TypeBool:
		if v.(bool) {
			return "true"
		}
		return "false"
	case TypeString:
		return v.(string)
	case TypeRegex:
		return v.(regex.Regex).String()
	case TypeIntList:
		items := make([]string, 0, len(v.([]int)))
		for _, n := range v.([]int) {
			items = append(items, strconv.Itoa(n))
		}
		return strings.Join(items, string(listSeparator))
	case TypeStringList:
		items := make([]string, 0, len(v.([]string)))
		for _, s := range v.([]string) {
			items = append(items, escapeItem(s))
		}
		return strings.Join(items, string(listSeparator))
	case TypeLineFlagList:
		items := make([]string, 0, len(v.([]LineFlag)))
		for _, f := range v.([]LineFlag) {
			items = append(items, escapeItem(fmt.Sprintf("%d|%s|%s", f.Line, f.Face, f.Text)))
		}
		return strings.Join(items, string(listSeparator))
	}
	return ""
}

// add combines the current value with a parsed increment.
func add(t Type, cur any, s string) (any, error) {
	inc, err := parse(t, s)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeInt:
		return cur.(int) + inc.(int), nil
	case TypeIntList:
		return append(append([]int{}, cur.([]int)...), inc.([]int)...), nil
	case TypeStringList:
		return append(append([]string{}, cur.([]string)...), inc.([]string)...), nil
	case TypeLineFlagList:
		return append(append([]LineFlag{}, cur.([]LineFlag)...), inc.([]LineFlag)...), nil
	}
	return nil, fmt.Errorf("%w for %s options", ErrAddUnsupported, t)
}

// clone returns a copy of v that shares no mutable storage.
func clone(t Type, v any) any {
	switch t {
	case TypeIntList:
		return append([]int{}, v.([]int)...)
	case TypeStringList:
		return append([]string{}, v.([]string)...)
	case TypeLineFlagList:
		return append([]LineFlag{}, v.([]LineFlag)...)
	}
	return v
}

// splitList splits on unescaped ':'. "\:" yields a literal colon.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == listSeparator {
			cur.WriteByte(listSeparator)
			i++
			continue
		}
		if c == listSeparator {
			items = append(items, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(items, cur.String())
}

func escapeItem(s string) string {
	return strings.ReplaceAll(s, string(listSeparator), `\`+string(listSeparator))
}
