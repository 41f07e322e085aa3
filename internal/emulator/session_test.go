package emulator

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const okReply = "U F U C(foobar) I 4 24 80 23 0 0x0 0.100\nok\n"

type fakePiper struct {
	sent    []string
	reply   string
	err     error
	running bool
}

func newFakePiper(reply string) *fakePiper {
	return &fakePiper{reply: reply, running: true}
}

func (f *fakePiper) Pipe(message string, timeout time.Duration) (string, error) {
	f.sent = append(f.sent, message)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakePiper) Running() bool { return f.running }

func (f *fakePiper) Close() error {
	f.running = false
	return nil
}

func TestSessionPerformDecodesReply(t *testing.T) {
	fp := newFakePiper("data: first\ndata: second\n" + okReply)
	s := New(fp)

	if err := s.Enter(); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	if len(fp.sent) != 1 || fp.sent[0] != "Enter\n" {
		t.Fatalf("sent = %v, want [Enter\\n]", fp.sent)
	}
	if got := s.Data(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Data() = %v", got)
	}
	st := s.Status()
	if st == nil {
		t.Fatal("Status() = nil")
	}
	if st.Connection.Hostname != "foobar" || st.Code != CodeOK {
		t.Errorf("Status() = %+v", st)
	}
}

func TestSessionSafeModeBlocksBeforeSend(t *testing.T) {
	fp := newFakePiper(okReply)
	s := New(fp)

	if _, err := s.Execute("rm -rf /tmp/x"); !errors.Is(err, ErrUnsafe) {
		t.Fatalf("Execute() error = %v, want ErrUnsafe", err)
	}
	if _, err := s.Script("prog"); !errors.Is(err, ErrUnsafe) {
		t.Fatalf("Script() error = %v, want ErrUnsafe", err)
	}
	if _, err := s.Raw("Quit"); !errors.Is(err, ErrUnsafe) {
		t.Fatalf("Raw() error = %v, want ErrUnsafe", err)
	}
	if len(fp.sent) != 0 {
		t.Fatalf("gated actions reached the transport: %v", fp.sent)
	}
}

func TestSessionUnsafeModeSendsOnce(t *testing.T) {
	fp := newFakePiper(okReply)
	s := New(fp).WithSafety(Unsafe)

	out, err := s.Execute("echo hi")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != okReply {
		t.Errorf("Execute() = %q, want raw reply", out)
	}
	if len(fp.sent) != 1 || fp.sent[0] != "Execute(echo hi)\n" {
		t.Errorf("sent = %v", fp.sent)
	}
}

func TestSessionBuilderBlocksOtherActions(t *testing.T) {
	fp := newFakePiper(okReply)
	s := New(fp)

	sn := s.Snap()
	if err := s.Enter(); err == nil {
		t.Fatal("Enter() succeeded while a snapshot was being configured")
	}
	if len(fp.sent) != 0 {
		t.Fatalf("blocked action reached the transport: %v", fp.sent)
	}

	if err := sn.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Enter(); err != nil {
		t.Fatalf("Enter() after Save error = %v", err)
	}
}

func TestSessionBuilderCancelReleasesSlot(t *testing.T) {
	fp := newFakePiper(okReply)
	s := New(fp)

	s.Snap().Cancel()
	if err := s.Enter(); err != nil {
		t.Fatalf("Enter() after Cancel error = %v", err)
	}
}

func TestSessionArgumentValidation(t *testing.T) {
	fp := newFakePiper(okReply)
	s := New(fp)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "bad hostport", call: func() error { return s.Connect("foo_bar") }},
		{name: "bad port", call: func() error { return s.ConnectHost("host", 99999) }},
		{name: "host with slash", call: func() error { return s.ConnectHost("foo/evil", 23) }},
		{name: "host with spaces", call: func() error { return s.ConnectHost("foo bar baz", 23) }},
		{name: "key with junk prefix", call: func() error { return s.Key("junk0123") }},
		{name: "pa zero", call: func() error { return s.PA(0) }},
		{name: "pa four", call: func() error { return s.PA(4) }},
		{name: "pf twenty-five", call: func() error { return s.PF(25) }},
		{name: "key out of range", call: func() error { return s.KeyCode(1000) }},
		{name: "bad hex", call: func() error { return s.HexString("xyz") }},
		{name: "negative row", call: func() error { return s.MoveCursor(-1, 0) }},
		{name: "empty strings", call: func() error { return s.String() }},
		{name: "two ascii coords", call: func() error { _, err := s.Ascii(1, 2); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err == nil {
				t.Error("call succeeded, want validation error")
			}
		})
	}
	if len(fp.sent) != 0 {
		t.Fatalf("invalid actions reached the transport: %v", fp.sent)
	}
}

func TestSessionEncodesActions(t *testing.T) {
	tests := []struct {
		name string
		call func(s *Session) error
		want string
	}{
		{name: "pf", call: func(s *Session) error { return s.PF(12) }, want: "PF(12)"},
		{name: "pa", call: func(s *Session) error { return s.PA(2) }, want: "PA(2)"},
		{name: "keycode", call: func(s *Session) error { return s.KeyCode(7) }, want: "Key(0007)"},
		{name: "move cursor", call: func(s *Session) error { return s.MoveCursor(3, 14) }, want: "MoveCursor(3,14)"},
		{name: "string quoting", call: func(s *Session) error { return s.String(`log "on"`) }, want: `String("log \u22on\u22")`},
		{name: "toggle", call: func(s *Session) error { return s.Toggle(LineWrap) }, want: "Toggle(lineWrap)"},
		{name: "toggle set", call: func(s *Session) error { return s.Toggle(MonoCaseToggle, ToggleSet) }, want: "Toggle(monoCase,set)"},
		{name: "wait", call: func(s *Session) error { return s.Wait(WaitInputField) }, want: "Wait(InputField)"},
		{name: "wait for", call: func(s *Session) error { return s.WaitFor(10*time.Second, WaitUnlock) }, want: "Wait(10,Unlock)"},
		{name: "window state", call: func(s *Session) error { return s.WindowState(WindowIconic) }, want: "WindowState(Iconic)"},
		{name: "expect", call: func(s *Session) error { return s.Expect("login:", 5) }, want: `Expect("login:",5)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePiper(okReply)
			s := New(fp)
			if err := tt.call(s); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if len(fp.sent) != 1 || fp.sent[0] != tt.want+"\n" {
				t.Errorf("sent = %v, want [%s\\n]", fp.sent, tt.want)
			}
		})
	}
}

func TestSessionSnapStatusReparsesDataLine(t *testing.T) {
	fp := newFakePiper("data: L U U N N 2 24 80 0 0 0x0 -\n" + okReply)
	s := New(fp)

	st, err := s.Snap().Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Keyboard != KeyboardLocked || st.Mode != ModeNotConnected {
		t.Errorf("snapshot status = %+v", st)
	}
	if fp.sent[0] != "Snap(Status)\n" {
		t.Errorf("sent = %v", fp.sent)
	}
}

func TestSessionSnapEncodesNestedActions(t *testing.T) {
	tests := []struct {
		name string
		call func(sn *Snap) error
		want string
	}{
		{name: "save", call: func(sn *Snap) error { return sn.Save() }, want: "Snap(Save)"},
		{name: "ascii region", call: func(sn *Snap) error { _, err := sn.Ascii(1, 2, 3, 4); return err }, want: "Snap(Ascii,1,2,3,4)"},
		{name: "read buffer", call: func(sn *Snap) error { _, err := sn.ReadBuffer(ReadBufferEBCDIC); return err }, want: "Snap(ReadBuffer,Ebcdic)"},
		{name: "wait", call: func(sn *Snap) error { return sn.Wait(WaitOutput) }, want: "Snap(Wait,Output)"},
		{name: "wait for", call: func(sn *Snap) error { return sn.WaitFor(5*time.Second, WaitOutput) }, want: "Snap(Wait,5,Output)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakePiper(okReply)
			s := New(fp)
			if err := tt.call(s.Snap()); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if len(fp.sent) != 1 || fp.sent[0] != tt.want+"\n" {
				t.Errorf("sent = %v, want [%s\\n]", fp.sent, tt.want)
			}
		})
	}
}

func TestSessionSnapRejectsNonOutputWait(t *testing.T) {
	s := New(newFakePiper(okReply))
	if err := s.Snap().Wait(WaitUnlock); err == nil {
		t.Error("Wait(Unlock) succeeded, want error")
	}
}

func TestSessionRejectsDeadTransport(t *testing.T) {
	fp := newFakePiper(okReply)
	fp.running = false
	s := New(fp)

	err := s.Enter()
	if err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("Enter() error = %v, want not-running error", err)
	}
}

func TestSessionWithCopiesAreIndependent(t *testing.T) {
	s := New(newFakePiper(okReply))
	u := s.WithSafety(Unsafe).WithTimeout(5 * time.Second)

	if s.Safety() != Safe {
		t.Error("WithSafety modified the receiver")
	}
	if u.Safety() != Unsafe {
		t.Error("copy lost its safety mode")
	}
	if s.Blocking() != DefaultBlocking || s.NonBlocking() != DefaultNonBlocking {
		t.Error("WithTimeout modified the receiver")
	}
	if u.Blocking() != 5*time.Second || u.NonBlocking() != 5*time.Second {
		t.Error("copy lost its timeouts")
	}
}

func TestSessionRejectsMalformedReply(t *testing.T) {
	fp := newFakePiper("data: only data, no status")
	s := New(fp)

	if err := s.Enter(); err == nil {
		t.Fatal("Enter() accepted a reply without a status trailer")
	}
	if s.Status() != nil {
		t.Error("Status() kept a stale value after a failed decode")
	}
}
