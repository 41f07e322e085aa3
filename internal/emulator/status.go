package emulator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeyboardState is the first status field.
type KeyboardState int

const (
	KeyboardUnlocked KeyboardState = iota
	KeyboardLocked
	KeyboardError
)

func (k KeyboardState) String() string {
	switch k {
	case KeyboardLocked:
		return "Locked"
	case KeyboardError:
		return "Error"
	default:
		return "Unlocked"
	}
}

// ScreenFormatting is the second status field.
type ScreenFormatting int

const (
	ScreenFormatted ScreenFormatting = iota
	ScreenUnformatted
)

func (s ScreenFormatting) String() string {
	if s == ScreenUnformatted {
		return "Unformatted"
	}
	return "Formatted"
}

// FieldProtection is the third status field.
type FieldProtection int

const (
	FieldUnprotected FieldProtection = iota
	FieldProtected
)

func (f FieldProtection) String() string {
	if f == FieldProtected {
		return "Protected"
	}
	return "Unprotected"
}

// ConnectionState is the fourth status field: unconnected, or
// connected with the host name the emulator reported.
type ConnectionState struct {
	Hostname string
}

// Connected reports whether the emulator has a host connection.
func (c ConnectionState) Connected() bool { return c.Hostname != "" }

func (c ConnectionState) String() string {
	if !c.Connected() {
		return "N"
	}
	return "C(" + c.Hostname + ")"
}

// EmulatorMode is the fifth status field.
type EmulatorMode int

const (
	Mode3270 EmulatorMode = iota
	ModeLine
	ModeCharacter
	ModeUnnegotiated
	ModeNotConnected
)

func (m EmulatorMode) String() string {
	switch m {
	case ModeLine:
		return "Line"
	case ModeCharacter:
		return "Character"
	case ModeUnnegotiated:
		return "Unnegotiated"
	case ModeNotConnected:
		return "NotConnected"
	default:
		return "3270"
	}
}

// Code is the reply outcome token.
type Code int

const (
	CodeOK Code = iota
	CodeError
)

func (c Code) String() string {
	if c == CodeError {
		return "error"
	}
	return "ok"
}

// ExecTime is the command-execution-time field: either "no host
// response" or a positive duration with millisecond precision.
type ExecTime struct {
	Duration   time.Duration
	NoResponse bool
}

func (e ExecTime) String() string {
	if e.NoResponse {
		return "-"
	}
	ms := e.Duration.Milliseconds()
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

// Status is the decoded fixed-field trailer of a reply.
type Status struct {
	Raw        string
	Keyboard   KeyboardState
	Formatting ScreenFormatting
	Protection FieldProtection
	Connection ConnectionState
	Mode       EmulatorMode
	Model      int
	Rows       int
	Cols       int
	CursorRow  int
	CursorCol  int
	WindowID   int64
	ExecTime   ExecTime
	Code       Code
}

func (s *Status) String() string { return s.Raw }

// ParseStatus decodes the status text of a reply: twelve
// space-separated fields followed by the ok/error code token. Any
// field failure rejects the whole record.
func ParseStatus(text string) (*Status, error) {
	if strings.Count(text, " ") != 11 {
		return nil, fmt.Errorf("invalid status %q: expected 11 spaces", text)
	}
	tok := &tokenizer{text: text, fields: strings.Fields(text)}

	st := &Status{Raw: text}
	var err error
	if st.Keyboard, err = parseKeyboard(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Formatting, err = parseFormatting(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Protection, err = parseProtection(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Connection, err = parseConnection(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Mode, err = parseMode(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Model, err = tok.intField("ModelNumber", 2, 5); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Rows, err = tok.intField("NumberOfRows", 1, maxInt); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Cols, err = tok.intField("NumberOfColumns", 1, maxInt); err != nil {
		return nil, statusErr(text, err)
	}
	if st.CursorRow, err = tok.intField("CursorRow", 0, st.Rows-1); err != nil {
		return nil, statusErr(text, err)
	}
	if st.CursorCol, err = tok.intField("CursorColumn", 0, st.Cols-1); err != nil {
		return nil, statusErr(text, err)
	}
	if st.WindowID, err = parseWindowID(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.ExecTime, err = parseExecTime(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if st.Code, err = parseCode(tok); err != nil {
		return nil, statusErr(text, err)
	}
	if tok.more() {
		return nil, fmt.Errorf("invalid status %q: trailing tokens", text)
	}
	return st, nil
}

func statusErr(text string, err error) error {
	return fmt.Errorf("invalid status %q: %w", text, err)
}

const maxInt = int(^uint(0) >> 1)

type tokenizer struct {
	text   string
	fields []string
	pos    int
}

func (t *tokenizer) next(field string) (string, error) {
	if t.pos >= len(t.fields) {
		return "", fmt.Errorf("insufficient data to parse %s", field)
	}
	s := t.fields[t.pos]
	t.pos++
	return s, nil
}

func (t *tokenizer) more() bool { return t.pos < len(t.fields) }

func (t *tokenizer) intField(field string, min, max int) (int, error) {
	s, err := t.next(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", field, s)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q", field, s)
	}
	return n, nil
}

func parseKeyboard(t *tokenizer) (KeyboardState, error) {
	s, err := t.next("KeyboardState")
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "U"):
		return KeyboardUnlocked, nil
	case strings.EqualFold(s, "L"):
		return KeyboardLocked, nil
	case strings.EqualFold(s, "E"):
		return KeyboardError, nil
	}
	return 0, fmt.Errorf("invalid KeyboardState: %q", s)
}

func parseFormatting(t *tokenizer) (ScreenFormatting, error) {
	s, err := t.next("ScreenFormatting")
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "F"):
		return ScreenFormatted, nil
	case strings.EqualFold(s, "U"):
		return ScreenUnformatted, nil
	}
	return 0, fmt.Errorf("invalid ScreenFormatting: %q", s)
}

func parseProtection(t *tokenizer) (FieldProtection, error) {
	s, err := t.next("FieldProtection")
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "P"):
		return FieldProtected, nil
	case strings.EqualFold(s, "U"):
		return FieldUnprotected, nil
	}
	return 0, fmt.Errorf("invalid FieldProtection: %q", s)
}

func parseConnection(t *tokenizer) (ConnectionState, error) {
	s, err := t.next("ConnectionState")
	if err != nil {
		return ConnectionState{}, err
	}
	if strings.EqualFold(s, "N") {
		return ConnectionState{}, nil
	}
	if (strings.HasPrefix(s, "C(") || strings.HasPrefix(s, "c(")) && strings.HasSuffix(s, ")") {
		host := s[2 : len(s)-1]
		if !hostPattern.MatchString(host) {
			return ConnectionState{}, fmt.Errorf("invalid ConnectionState: %q", s)
		}
		return ConnectionState{Hostname: host}, nil
	}
	return ConnectionState{}, fmt.Errorf("invalid ConnectionState: %q", s)
}

func parseMode(t *tokenizer) (EmulatorMode, error) {
	s, err := t.next("EmulatorMode")
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "I"):
		return Mode3270, nil
	case strings.EqualFold(s, "L"):
		return ModeLine, nil
	case strings.EqualFold(s, "C"):
		return ModeCharacter, nil
	case strings.EqualFold(s, "P"):
		return ModeUnnegotiated, nil
	case strings.EqualFold(s, "N"):
		return ModeNotConnected, nil
	}
	return 0, fmt.Errorf("invalid EmulatorMode: %q", s)
}

func parseWindowID(t *tokenizer) (int64, error) {
	s, err := t.next("WindowID")
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("invalid WindowID: %q", s)
	}
	n, err := strconv.ParseInt(s[2:], 16, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid WindowID: %q", s)
	}
	return n, nil
}

// Fraction digits scale asymmetrically: one digit is tenths of a
// second, two digits hundredths, three digits milliseconds.
func parseExecTime(t *tokenizer) (ExecTime, error) {
	s, err := t.next("CommandExecutionTime")
	if err != nil {
		return ExecTime{}, err
	}
	if s == "-" {
		return ExecTime{NoResponse: true}, nil
	}
	if !execTimePattern.MatchString(s) {
		return ExecTime{}, fmt.Errorf("invalid CommandExecutionTime: %q", s)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return ExecTime{}, fmt.Errorf("invalid CommandExecutionTime: %q", s)
	}
	if !hasFrac {
		return ExecTime{Duration: time.Duration(secs) * time.Second}, nil
	}
	ms, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return ExecTime{}, fmt.Errorf("invalid CommandExecutionTime: %q", s)
	}
	switch len(frac) {
	case 1:
		ms *= 100
	case 2:
		ms *= 10
	}
	d := time.Duration(secs)*time.Second + time.Duration(ms)*time.Millisecond
	return ExecTime{Duration: d}, nil
}

func parseCode(t *tokenizer) (Code, error) {
	s, err := t.next("Code")
	if err != nil {
		return 0, err
	}
	switch {
	case strings.EqualFold(s, "ok"):
		return CodeOK, nil
	case strings.EqualFold(s, "error"):
		return CodeError, nil
	}
	return 0, fmt.Errorf("invalid Code: %q", s)
}
