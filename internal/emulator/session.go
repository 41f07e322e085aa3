package emulator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/go3270/internal/piper"
)

// Default timeouts for the two action classes. Blocking actions wait
// on the host (Enter, Connect, Wait); non-blocking ones only round-trip
// to the emulator process.
const (
	DefaultBlocking    = 30 * time.Second
	DefaultNonBlocking = 3 * time.Second
)

// ErrUnsafe is returned when an operation gated behind Unsafe mode is
// attempted while the session is Safe.
var ErrUnsafe = errors.New("unsafe operation requires unsafe mode")

// Session drives a single terminal-emulation subprocess through its
// line-oriented scripting interface. It is a single-caller handle: at
// most one action may be in flight, and while a multi-step builder
// (Transfer, PrintText, Snap) is open no other action may be issued.
type Session struct {
	piper       piper.Piper
	blocking    time.Duration
	nonBlocking time.Duration
	safety      Safety
	builder     any
	logger      *slog.Logger

	data    []string
	message string
	status  *Status
}

// New wraps an existing transport in a Session with default timeouts
// and Safe mode.
func New(p piper.Piper) *Session {
	return &Session{
		piper:       p,
		blocking:    DefaultBlocking,
		nonBlocking: DefaultNonBlocking,
		safety:      Safe,
		logger:      slog.Default(),
	}
}

// Open starts the emulator subprocess and wraps it in a Session.
func Open(name string, args ...string) (*Session, error) {
	p, err := piper.Start(name, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start emulator process: %w", err)
	}
	return New(p), nil
}

// Close terminates the underlying transport and its subprocess.
func (s *Session) Close() error {
	return s.piper.Close()
}

// Message returns the raw normalized reply of the last action, or ""
// if no action completed yet.
func (s *Session) Message() string { return s.message }

// Data returns the payload lines of the last action.
func (s *Session) Data() []string { return s.data }

// Status returns the decoded status of the last action, or nil.
func (s *Session) Status() *Status { return s.status }

// Blocking returns the timeout used for host-bound actions.
func (s *Session) Blocking() time.Duration { return s.blocking }

// SetBlocking configures the timeout for host-bound actions.
func (s *Session) SetBlocking(d time.Duration) { s.blocking = d }

// NonBlocking returns the timeout used for local actions.
func (s *Session) NonBlocking() time.Duration { return s.nonBlocking }

// SetNonBlocking configures the timeout for local actions.
func (s *Session) SetNonBlocking(d time.Duration) { s.nonBlocking = d }

// Safety returns the current safety mode.
func (s *Session) Safety() Safety { return s.safety }

// SetSafety configures the safety mode.
func (s *Session) SetSafety(safety Safety) { s.safety = safety }

// WithBlocking returns a copy of the session using d for blocking
// actions. The receiver is unmodified; both copies share the transport.
func (s *Session) WithBlocking(d time.Duration) *Session {
	c := *s
	c.blocking = d
	return &c
}

// WithNonBlocking returns a copy using d for non-blocking actions.
func (s *Session) WithNonBlocking(d time.Duration) *Session {
	c := *s
	c.nonBlocking = d
	return &c
}

// WithTimeout returns a copy using d for both action classes.
func (s *Session) WithTimeout(d time.Duration) *Session {
	c := *s
	c.blocking = d
	c.nonBlocking = d
	return &c
}

// WithSafety returns a copy using the given safety mode.
func (s *Session) WithSafety(safety Safety) *Session {
	c := *s
	c.safety = safety
	return &c
}

// WithLogger returns a copy emitting action logs through l.
func (s *Session) WithLogger(l *slog.Logger) *Session {
	c := *s
	c.logger = l
	return &c
}

// Attn sends the 3270 attention key.
func (s *Session) Attn() error { return s.do("Attn", s.blocking) }

func (s *Session) BackSpace() error { return s.do("BackSpace", s.nonBlocking) }

func (s *Session) BackTab() error { return s.do("BackTab", s.nonBlocking) }

func (s *Session) CircumNot() error { return s.do("CircumNot", s.nonBlocking) }

func (s *Session) Clear() error { return s.do("Clear", s.nonBlocking) }

// Connect opens a host connection. The argument is a host with an
// optional colon-separated port.
func (s *Session) Connect(hostport string) error {
	if !hostportPattern.MatchString(hostport) {
		return fmt.Errorf("invalid hostport: %q", hostport)
	}
	return s.do("Connect("+hostport+")", s.blocking)
}

// ConnectHost opens a host connection to an explicit host and port.
func (s *Session) ConnectHost(host string, port int) error {
	if !hostPattern.MatchString(host) {
		return fmt.Errorf("invalid host: %q", host)
	}
	if port < 0 || port > 32767 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return s.do(fmt.Sprintf("Connect(%s:%d)", host, port), s.blocking)
}

func (s *Session) CursorSelect() error { return s.do("CursorSelect", s.blocking) }

func (s *Session) Delete() error { return s.do("Delete", s.nonBlocking) }

func (s *Session) DeleteField() error { return s.do("DeleteField", s.nonBlocking) }

func (s *Session) DeleteWord() error { return s.do("DeleteWord", s.nonBlocking) }

func (s *Session) Disconnect() error { return s.do("Disconnect", s.blocking) }

func (s *Session) Down() error { return s.do("Down", s.nonBlocking) }

func (s *Session) Dup() error { return s.do("Dup", s.nonBlocking) }

func (s *Session) Enter() error { return s.do("Enter", s.blocking) }

func (s *Session) Erase() error { return s.do("Erase", s.nonBlocking) }

func (s *Session) EraseEOF() error { return s.do("EraseEOF", s.nonBlocking) }

func (s *Session) EraseInput() error { return s.do("EraseInput", s.nonBlocking) }

// Execute runs a shell command through the emulator and returns the
// raw reply without decoding it. Requires Unsafe mode.
func (s *Session) Execute(command string) (string, error) {
	if s.safety != Unsafe {
		return "", ErrUnsafe
	}
	return s.performRaw("Execute("+command+")", s.nonBlocking)
}

func (s *Session) FieldEnd() error { return s.do("FieldEnd", s.nonBlocking) }

func (s *Session) FieldMark() error { return s.do("FieldMark", s.nonBlocking) }

// HexString types a string of hex digit pairs.
func (s *Session) HexString(hexDigits string) error {
	if !hexPattern.MatchString(hexDigits) {
		return fmt.Errorf("invalid hex digits: %q", hexDigits)
	}
	return s.do("HexString("+hexDigits+")", s.nonBlocking)
}

func (s *Session) Home() error { return s.do("Home", s.nonBlocking) }

func (s *Session) Insert() error { return s.do("Insert", s.nonBlocking) }

func (s *Session) Interrupt() error { return s.do("Interrupt", s.blocking) }

// Key sends a keysym or keycode by name.
func (s *Session) Key(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key: %q", key)
	}
	return s.do("Key("+key+")", s.nonBlocking)
}

// KeyCode sends a numeric keycode in [0,999].
func (s *Session) KeyCode(key int) error {
	if key < 0 || key > 999 {
		return fmt.Errorf("invalid key: %d", key)
	}
	return s.do(fmt.Sprintf("Key(0%03d)", key), s.nonBlocking)
}

func (s *Session) Left() error { return s.do("Left", s.nonBlocking) }

func (s *Session) Left2() error { return s.do("Left2", s.nonBlocking) }

func (s *Session) MonoCase() error { return s.do("MonoCase", s.nonBlocking) }

func (s *Session) MoveCursor(row, col int) error {
	if row < 0 {
		return fmt.Errorf("invalid row: %d", row)
	}
	if col < 0 {
		return fmt.Errorf("invalid col: %d", col)
	}
	return s.do(fmt.Sprintf("MoveCursor(%d,%d)", row, col), s.nonBlocking)
}

func (s *Session) NewLine() error { return s.do("NewLine", s.nonBlocking) }

func (s *Session) NextWord() error { return s.do("NextWord", s.nonBlocking) }

// PA sends program attention key n, in [1,3].
func (s *Session) PA(n int) error {
	if n < 1 || n > 3 {
		return fmt.Errorf("invalid PA key (must be in [1..3]): %d", n)
	}
	return s.do(fmt.Sprintf("PA(%d)", n), s.blocking)
}

// PF sends program function key n, in [1,24].
func (s *Session) PF(n int) error {
	if n < 1 || n > 24 {
		return fmt.Errorf("invalid PF key (must be in [1..24]): %d", n)
	}
	return s.do(fmt.Sprintf("PF(%d)", n), s.blocking)
}

func (s *Session) PreviousWord() error { return s.do("PreviousWord", s.nonBlocking) }

func (s *Session) Quit() error { return s.do("Quit", s.nonBlocking) }

func (s *Session) Redraw() error { return s.do("Redraw", s.nonBlocking) }

func (s *Session) Reset() error { return s.do("Reset", s.nonBlocking) }

func (s *Session) Right() error { return s.do("Right", s.nonBlocking) }

func (s *Session) Right2() error { return s.do("Right2", s.nonBlocking) }

// Script runs a local script program with the emulator's scripting
// file descriptors attached. Requires Unsafe mode.
func (s *Session) Script(command string, arguments ...string) (string, error) {
	if s.safety != Unsafe {
		return "", ErrUnsafe
	}
	var sb strings.Builder
	sb.WriteString("Script(")
	sb.WriteString(command)
	for _, a := range arguments {
		sb.WriteByte(',')
		sb.WriteString(a)
	}
	sb.WriteByte(')')
	return s.perform(sb.String(), s.nonBlocking)
}

// String types one or more strings at the cursor position.
func (s *Session) String(values ...string) error {
	if len(values) == 0 {
		return errors.New("invalid strings: empty")
	}
	var sb strings.Builder
	sb.WriteString("String(")
	for i, v := range values {
		escaped, err := CheckText(v)
		if err != nil {
			return fmt.Errorf("invalid strings[%d]: %q", i, v)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(escaped)
		sb.WriteByte('"')
	}
	sb.WriteByte(')')
	return s.do(sb.String(), s.blocking)
}

func (s *Session) SysReq() error { return s.do("SysReq", s.blocking) }

func (s *Session) Tab() error { return s.do("Tab", s.nonBlocking) }

// Toggle flips, sets, or clears an emulator toggle. At most one mode
// may be given; with none the toggle is flipped.
func (s *Session) Toggle(option ToggleOption, mode ...ToggleMode) error {
	switch len(mode) {
	case 0:
		return s.do("Toggle("+string(option)+")", s.nonBlocking)
	case 1:
		return s.do("Toggle("+string(option)+","+string(mode[0])+")", s.nonBlocking)
	default:
		return fmt.Errorf("invalid toggle: too many modes (%d)", len(mode))
	}
}

func (s *Session) ToggleInsert() error { return s.do("ToggleInsert", s.nonBlocking) }

func (s *Session) ToggleReverse() error { return s.do("ToggleReverse", s.nonBlocking) }

func (s *Session) Up() error { return s.do("Up", s.nonBlocking) }

// AnsiText returns any pending NVT-mode output.
func (s *Session) AnsiText() ([]string, error) {
	if err := s.do("AnsiText", s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// Ascii dumps screen contents as text. Accepts zero coordinates for
// the whole screen, (length), (row,col,length), or (row,col,rows,cols).
func (s *Session) Ascii(coords ...int) ([]string, error) {
	action, err := regionAction("Ascii", coords)
	if err != nil {
		return nil, err
	}
	if err := s.do(action, s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// AsciiField dumps the field containing the cursor as text.
func (s *Session) AsciiField() (string, error) {
	if err := s.do("AsciiField", s.nonBlocking); err != nil {
		return "", err
	}
	return firstLine(s.data), nil
}

// CloseScript passes a status back to the invoking script.
func (s *Session) CloseScript(status int) error {
	return s.do(fmt.Sprintf("CloseScript(%d)", status), s.nonBlocking)
}

// ContinueScript resumes a paused script, optionally passing a value.
func (s *Session) ContinueScript(param ...string) error {
	switch len(param) {
	case 0:
		return s.do("ContinueScript", s.nonBlocking)
	case 1:
		return s.do(`ContinueScript("`+EscapeQuotes(param[0])+`")`, s.nonBlocking)
	default:
		return fmt.Errorf("invalid continue: too many parameters (%d)", len(param))
	}
}

// Ebcdic dumps screen contents in EBCDIC. Coordinate shapes match
// Ascii.
func (s *Session) Ebcdic(coords ...int) ([]string, error) {
	action, err := regionAction("Ebcdic", coords)
	if err != nil {
		return nil, err
	}
	if err := s.do(action, s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// EbcdicField dumps the field containing the cursor in EBCDIC.
func (s *Session) EbcdicField() (string, error) {
	if err := s.do("EbcdicField", s.nonBlocking); err != nil {
		return "", err
	}
	return firstLine(s.data), nil
}

// Expect pauses until the given text appears in the NVT data stream,
// optionally bounded by a timeout in seconds.
func (s *Session) Expect(text string, timeout ...int) error {
	escaped := EscapeQuotes(text)
	switch len(timeout) {
	case 0:
		return s.do(`Expect("`+escaped+`")`, s.nonBlocking)
	case 1:
		if timeout[0] < 0 {
			return fmt.Errorf("invalid timeout: %d", timeout[0])
		}
		return s.do(fmt.Sprintf(`Expect("%s",%d)`, escaped, timeout[0]), s.nonBlocking)
	default:
		return fmt.Errorf("invalid expect: too many timeouts (%d)", len(timeout))
	}
}

// Info writes a message to the emulator's informational output.
func (s *Session) Info(message string) error {
	return s.do(`Info("`+EscapeQuotes(message)+`")`, s.nonBlocking)
}

// PauseScript pauses the invoking script until ContinueScript is
// issued, returning the continuation value.
func (s *Session) PauseScript() (string, error) {
	return s.pauseScript(s.blocking)
}

// PauseScriptFor is PauseScript with an explicit timeout.
func (s *Session) PauseScriptFor(timeout time.Duration) (string, error) {
	return s.pauseScript(timeout)
}

func (s *Session) pauseScript(timeout time.Duration) (string, error) {
	if err := s.do("PauseScript", timeout); err != nil {
		return "", err
	}
	return firstLine(s.data), nil
}

// Query lists all queryable properties.
func (s *Session) Query() ([]string, error) {
	if err := s.do("Query", s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// QueryOne returns a single queryable property.
func (s *Session) QueryOne(keyword QueryKeyword) (string, error) {
	if err := s.do("Query("+string(keyword)+")", s.nonBlocking); err != nil {
		return "", err
	}
	return firstLine(s.data), nil
}

// ReadBuffer dumps the screen buffer with field attributes.
func (s *Session) ReadBuffer(mode ReadBufferMode) ([]string, error) {
	if err := s.do("ReadBuffer("+string(mode)+")", s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// Snap opens the snapshot sub-protocol builder. No other action may
// run until one of the builder's terminal methods is invoked.
func (s *Session) Snap() *Snap {
	sn := &Snap{session: s}
	s.builder = sn
	return sn
}

// Source reads actions from a local file. Requires Unsafe mode.
func (s *Session) Source(path string) ([]string, error) {
	abs, err := checkReadableFile(path)
	if err != nil {
		return nil, err
	}
	if s.safety != Unsafe {
		return nil, ErrUnsafe
	}
	if err := s.do(`Source("`+abs+`")`, s.nonBlocking); err != nil {
		return nil, err
	}
	return s.data, nil
}

// Title changes the window title.
func (s *Session) Title(text string) error {
	return s.do(`Title("`+EscapeQuotes(text)+`")`, s.nonBlocking)
}

// Wait blocks until the given condition holds.
func (s *Session) Wait(mode WaitMode) error {
	return s.do("Wait("+string(mode)+")", s.blocking)
}

// WaitFor is Wait bounded by an explicit timeout. A timeout rounding
// to zero seconds falls back to the blocking default.
func (s *Session) WaitFor(timeout time.Duration, mode WaitMode) error {
	secs := int64(timeout / time.Second)
	if secs == 0 {
		return s.do("Wait("+string(mode)+")", s.blocking)
	}
	return s.do(fmt.Sprintf("Wait(%d,%s)", secs, mode), timeout)
}

// WindowState iconifies or restores the emulator window.
func (s *Session) WindowState(mode WindowMode) error {
	return s.do("WindowState("+string(mode)+")", s.nonBlocking)
}

// Raw sends an arbitrary pre-encoded action. Requires Unsafe mode.
func (s *Session) Raw(action string) (string, error) {
	if s.safety != Unsafe {
		return "", ErrUnsafe
	}
	return s.perform(action, s.blocking)
}

// PrintText opens the screen-printing builder.
func (s *Session) PrintText() *PrintText {
	pt := &PrintText{session: s}
	s.builder = pt
	return pt
}

// Transfer opens the file-transfer builder for the given local and
// host files. The local file must exist and be a readable regular
// file.
func (s *Session) Transfer(localFile, hostFile string) (*FileTransfer, error) {
	abs, err := checkReadableFile(localFile)
	if err != nil {
		return nil, err
	}
	if !hostFilePattern.MatchString(hostFile) {
		return nil, fmt.Errorf("invalid host file: %q", hostFile)
	}
	if s.builder != nil {
		return nil, fmt.Errorf("still configuring %T", s.builder)
	}
	ft := newFileTransfer(s, abs, hostFile)
	s.builder = ft
	return ft, nil
}

func (s *Session) finishTransfer(action string) error {
	if _, ok := s.builder.(*FileTransfer); !ok {
		return fmt.Errorf("should be configuring a file transfer but was: %T", s.builder)
	}
	s.builder = nil
	return s.do(action, s.blocking)
}

func (s *Session) finishPrintText(action string) error {
	if _, ok := s.builder.(*PrintText); !ok {
		return fmt.Errorf("should be configuring a print but was: %T", s.builder)
	}
	s.builder = nil
	return s.do(action, s.nonBlocking)
}

func (s *Session) finishSnap(action string, timeout time.Duration) error {
	if _, ok := s.builder.(*Snap); !ok {
		return fmt.Errorf("should be configuring a snapshot but was: %T", s.builder)
	}
	s.builder = nil
	return s.do(action, timeout)
}

// cancelBuilder releases the builder slot without sending anything.
func (s *Session) cancelBuilder() {
	s.builder = nil
}

func (s *Session) do(action string, timeout time.Duration) error {
	_, err := s.perform(action, timeout)
	return err
}

// perform sends one action and decodes the reply into the session's
// data, status, and message fields.
func (s *Session) perform(action string, timeout time.Duration) (string, error) {
	msg, err := s.performRaw(action, timeout)
	if err != nil {
		return "", err
	}
	if err := s.processMessage(msg); err != nil {
		return "", fmt.Errorf("failed to execute %s: %w", actionName(action), err)
	}
	return msg, nil
}

// performRaw sends one action and records the normalized reply without
// decoding it. Data and status are cleared first so stale results can
// not outlive a failed action.
func (s *Session) performRaw(action string, timeout time.Duration) (string, error) {
	if s.builder != nil {
		return "", fmt.Errorf("still configuring %T", s.builder)
	}
	if !s.piper.Running() {
		return "", fmt.Errorf("emulator process is not running, can not execute %s", actionName(action))
	}
	s.data = nil
	s.status = nil
	start := time.Now()
	raw, err := s.piper.Pipe(action+"\n", timeout)
	if err != nil {
		return "", fmt.Errorf("failed to execute %s: %w", actionName(action), err)
	}
	msg := normalizeNewlines(raw)
	s.message = msg
	s.logger.Debug("action completed",
		"action", actionName(action),
		"elapsed", time.Since(start),
		"bytes", len(msg))
	return msg, nil
}

func (s *Session) processMessage(msg string) error {
	data, statusText, err := decodeReply(msg)
	if err != nil {
		return err
	}
	status, err := ParseStatus(statusText)
	if err != nil {
		return err
	}
	s.data = data
	s.status = status
	return nil
}

// actionName strips the argument list for error messages and logs, so
// typed text and file paths do not leak into them.
func actionName(action string) string {
	if i := strings.IndexByte(action, '('); i >= 0 {
		return action[:i]
	}
	return action
}

func regionAction(name string, coords []int) (string, error) {
	for _, c := range coords {
		if c < 0 {
			return "", fmt.Errorf("invalid %s coordinate: %d", name, c)
		}
	}
	switch len(coords) {
	case 0:
		return name, nil
	case 1:
		return fmt.Sprintf("%s(%d)", name, coords[0]), nil
	case 3:
		return fmt.Sprintf("%s(%d,%d,%d)", name, coords[0], coords[1], coords[2]), nil
	case 4:
		return fmt.Sprintf("%s(%d,%d,%d,%d)", name, coords[0], coords[1], coords[2], coords[3]), nil
	default:
		return "", fmt.Errorf("invalid %s: expected 0, 1, 3 or 4 coordinates, got %d", name, len(coords))
	}
}

func firstLine(data []string) string {
	if len(data) == 0 {
		return ""
	}
	return data[0]
}

// checkReadableFile resolves path and verifies it denotes an existing
// readable regular file whose absolute path can be quoted on the wire.
func checkReadableFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid file path %q: %w", path, err)
	}
	if strings.ContainsRune(abs, '"') {
		return "", fmt.Errorf("invalid file path: %q", abs)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", abs, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("path does not denote a regular file: %q", abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("file is not readable: %q", abs)
	}
	f.Close()
	return abs, nil
}
