package emulator

import (
	"fmt"
	"regexp"
	"strings"
)

// dataMarker prefixes every reply payload line; the first line without
// it is the status trailer.
const dataMarker = "data: "

// quoteEscape is the two-character sequence standing in for an
// embedded double quote. The target grammar treats backslash-quote
// ambiguously, so the hex escape form is used instead.
const quoteEscape = `\u22`

// EscapeQuotes rewrites embedded double quotes into their wire escape.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, quoteEscape)
}

// CheckText validates free-form text against the printable subset and
// escape forms accepted by String-style actions, returning the text
// with quotes escaped.
func CheckText(s string) (string, error) {
	if !textPattern.MatchString(s) {
		return "", fmt.Errorf("invalid text: %q", s)
	}
	return EscapeQuotes(s), nil
}

// EncodeAction renders an action name and its ordered arguments in the
// wire grammar. Zero-argument actions omit the parenthesized list.
// Arguments containing reserved characters are double-quoted, with
// embedded quotes escaped first.
func EncodeAction(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	var sb strings.Builder
	sb.WriteString(name)
	sep := byte('(')
	for _, a := range args {
		sb.WriteByte(sep)
		sb.WriteString(quoteArg(a))
		sep = ','
	}
	sb.WriteByte(')')
	return sb.String()
}

func quoteArg(s string) string {
	if !strings.ContainsAny(s, `,()"`) {
		return s
	}
	return `"` + EscapeQuotes(s) + `"`
}

var newlineRun = regexp.MustCompile(`[\r\n]+`)

// normalizeNewlines collapses CR/LF sequences so both reply terminator
// styles decode identically.
func normalizeNewlines(s string) string {
	return newlineRun.ReplaceAllString(s, "\n")
}

// decodeReply splits a normalized raw reply into its data lines and
// the trailing status text. The data lines must form a contiguous
// marker-prefixed prefix and a status trailer must be present.
func decodeReply(msg string) ([]string, string, error) {
	s := msg
	var data []string
	for strings.HasPrefix(s, dataMarker) {
		rest := s[len(dataMarker):]
		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			data = append(data, rest)
			s = ""
			break
		}
		data = append(data, rest[:i])
		s = rest[i+1:]
	}
	if s == "" {
		return nil, "", fmt.Errorf("reply has no status trailer: %q", msg)
	}
	if i := strings.Index(s, "\n"+dataMarker); i >= 0 {
		return nil, "", fmt.Errorf("reply data lines are not contiguous: %q", msg)
	}
	return data, s, nil
}
