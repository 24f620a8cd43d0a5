// Package params splits a command's argument list into positional arguments
// and named switches.
//
// A switch token starts with '-'. Switches declared as taking a value consume
// the following token. "--" ends switch processing; every later token is
// positional. Arity is checked once the whole list is consumed, so a handler
// never observes a partially valid parameter set.
package params

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWrongArgumentCount is matched by every ArityError.
var ErrWrongArgumentCount = errors.New("wrong argument count")

// ErrOptionAfterPositional indicates a switch appeared after a positional
// argument while FlagOptionsOnlyAtStart was set.
var ErrOptionAfterPositional = errors.New("switches must precede positional arguments")

// Unbounded disables the upper arity bound.
const Unbounded = -1

// Flags alters parsing behavior.
type Flags uint8

const (
	// FlagNone recognizes switches anywhere in the list.
	FlagNone Flags = 0
	// FlagOptionsOnlyAtStart requires switches to form a contiguous prefix.
	FlagOptionsOnlyAtStart Flags = 1 << iota
)

// Spec declares the accepted switches and positional bounds.
type Spec struct {
	// Options maps switch names (without '-') to whether they take a value.
	Options map[string]bool

	// Flags alters parsing behavior.
	Flags Flags

	// Min is the minimum number of positional arguments.
	Min int

	// Max is the maximum number of positional arguments, or Unbounded.
	Max int
}

// ArityError reports a positional count outside the declared bounds.
type ArityError struct {
	Min, Max, Got int
}

func (e *ArityError) Error() string {
	return ErrWrongArgumentCount.Error()
}

// Is makes errors.Is(err, ErrWrongArgumentCount) hold.
func (e *ArityError) Is(target error) bool {
	return target == ErrWrongArgumentCount
}

// UnknownOptionError reports an undeclared switch.
type UnknownOptionError struct {
	Name string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option '%s'", e.Name)
}

// MissingValueError reports a value switch at the end of the list.
type MissingValueError struct {
	Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("missing value for option '%s'", e.Name)
}

// Parser is the immutable result of parsing a parameter list.
type Parser struct {
	positional []string
	options    map[string]string
}

// Parse validates args against spec.
func Parse(args []string, spec Spec) (*Parser, error) {
	p := &Parser{options: make(map[string]string)}

	onlyPositional := false
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if onlyPositional || !isSwitch(arg) {
			p.positional = append(p.positional, arg)
			continue
		}

		if arg == "--" {
			onlyPositional = true
			continue
		}

		if spec.Flags&FlagOptionsOnlyAtStart != 0 && len(p.positional) > 0 {
			return nil, fmt.Errorf("%w: '%s'", ErrOptionAfterPositional, arg)
		}

		name := arg[1:]
		takesValue, ok := spec.Options[name]
		if !ok {
			return nil, &UnknownOptionError{Name: name}
		}
		if !takesValue {
			p.options[name] = ""
			continue
		}
		if i+1 >= len(args) {
			return nil, &MissingValueError{Name: name}
		}
		i++
		p.options[name] = args[i]
	}

	count := len(p.positional)
	if count < spec.Min || (spec.Max != Unbounded && count > spec.Max) {
		return nil, &ArityError{Min: spec.Min, Max: spec.Max, Got: count}
	}

	return p, nil
}

func isSwitch(arg string) bool {
	return len(arg) > 1 && strings.HasPrefix(arg, "-")
}

// HasOption returns true if the switch was given.
func (p *Parser) HasOption(name string) bool {
	_, ok := p.options[name]
	return ok
}

// OptionValue returns the value of a value switch, or "" if absent.
func (p *Parser) OptionValue(name string) string {
	return p.options[name]
}

// Count returns the number of positional arguments.
func (p *Parser) Count() int {
	return len(p.positional)
}

// Arg returns the i-th positional argument.
func (p *Parser) Arg(i int) string {
	return p.positional[i]
}

// Positionals returns a copy of the positional arguments in order.
func (p *Parser) Positionals() []string {
	out := make([]string, len(p.positional))
	copy(out, p.positional)
	return out
}

// Rest returns positional arguments starting at index from.
func (p *Parser) Rest(from int) []string {
	if from >= len(p.positional) {
		return nil
	}
	return append([]string(nil), p.positional[from:]...)
}
