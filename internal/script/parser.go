package script

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	callPattern = regexp.MustCompile(`^\s*([a-zA-Z][a-zA-Z0-9]*)\s*(?:\(\s*(.*?)\s*\)\s*)?$`)
	argPattern  = regexp.MustCompile(`^\s*(?:([^",]*?)|(?:"([^"]*)"))\s*(?:,\s*(.*?)\s*)?$`)
)

// Parse splits free text into lines and parses each into a Call. An
// unknown action name or malformed syntax fails the whole text.
func Parse(text string) ([]Call, error) {
	var calls []Call
	lines := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
	for _, line := range lines {
		c, err := ParseCall(line)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

// ParseCall parses a single action line. The resulting Call carries
// the catalogue's canonical spelling of the action name.
func ParseCall(line string) (Call, error) {
	m := callPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return Call{}, fmt.Errorf("invalid call: %q", line)
	}
	name := line[m[2]:m[3]]
	action, err := Named(name)
	if err != nil {
		return Call{}, fmt.Errorf("invalid call %q: %w", line, err)
	}

	var args []string
	if m[4] >= 0 {
		body := line[m[4]:m[5]]
		if rawBody(action.Name) {
			// The whole parenthesized body is one shell-command
			// argument; commas and quotes inside it are literal.
			args = []string{body}
		} else if args, err = parseArguments(body); err != nil {
			return Call{}, fmt.Errorf("invalid call: %q", line)
		}
	}
	return Call{action: action.Name, args: args}, nil
}

// rawBody reports whether the action's argument list is passed through
// unsplit.
func rawBody(name string) bool {
	return strings.EqualFold(name, "Execute") ||
		strings.EqualFold(name, "Script") ||
		strings.EqualFold(name, "PrintText")
}

func parseArguments(body string) ([]string, error) {
	var args []string
	for {
		m := argPattern.FindStringSubmatchIndex(body)
		if m == nil {
			return nil, fmt.Errorf("invalid arguments: %q", body)
		}
		if m[2] >= 0 {
			args = append(args, body[m[2]:m[3]])
		} else {
			args = append(args, body[m[4]:m[5]])
		}
		if m[6] < 0 {
			return args, nil
		}
		body = body[m[6]:m[7]]
	}
}
