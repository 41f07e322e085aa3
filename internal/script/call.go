// Package script parses free-text action scripts and dispatches them
// against an emulator session through a single action catalogue.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/go3270/internal/emulator"
)

var intPattern = regexp.MustCompile(`^[-+]?(?:0|(?:[1-9][0-9]*))$`)

// Call is one parsed action invocation: a canonical action name and
// its positional arguments. Calls are immutable once built.
type Call struct {
	action string
	args   []string
}

// NewCall builds a Call. The argument slice is copied.
func NewCall(action string, args ...string) Call {
	return Call{action: action, args: append([]string(nil), args...)}
}

// Action returns the action name.
func (c Call) Action() string { return c.action }

// Args returns a copy of the arguments.
func (c Call) Args() []string {
	return append([]string(nil), c.args...)
}

// Len returns the argument count.
func (c Call) Len() int { return len(c.args) }

// Get returns argument i.
func (c Call) Get(i int) string { return c.args[i] }

// Int returns argument i as a decimal integer, rejecting anything but
// a plain optionally-signed decimal without leading zeros.
func (c Call) Int(i int) (int, error) {
	s := c.args[i]
	if !intPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid %s: argument %d is not an integer: %q", c, i, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", c, err)
	}
	return n, nil
}

// Equal reports whether two calls have the same name and arguments.
func (c Call) Equal(other Call) bool {
	if c.action != other.action || len(c.args) != len(other.args) {
		return false
	}
	for i := range c.args {
		if c.args[i] != other.args[i] {
			return false
		}
	}
	return true
}

// String renders the call in wire form without re-quoting arguments.
func (c Call) String() string {
	if len(c.args) == 0 {
		return c.action
	}
	var sb strings.Builder
	sb.WriteString(c.action)
	sep := byte('(')
	for _, a := range c.args {
		sb.WriteByte(sep)
		sb.WriteString(a)
		sep = ','
	}
	sb.WriteByte(')')
	return sb.String()
}

// Invoke dispatches the call against a session and returns the data
// lines its action produced.
func (c Call) Invoke(s *emulator.Session) ([]string, error) {
	a, err := Named(c.action)
	if err != nil {
		return nil, err
	}
	return a.Run(s, c)
}
