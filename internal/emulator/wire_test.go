package emulator

import (
	"reflect"
	"testing"
)

func TestEncodeAction(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "Enter", want: "Enter"},
		{name: "Connect", args: []string{"host:23"}, want: "Connect(host:23)"},
		{name: "MoveCursor", args: []string{"2", "10"}, want: "MoveCursor(2,10)"},
		{name: "String", args: []string{"a,b"}, want: `String("a,b")`},
		{name: "Info", args: []string{`say "hi"`}, want: `Info("say \u22hi\u22")`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := EncodeAction(tt.name, tt.args...); got != tt.want {
				t.Errorf("EncodeAction() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeQuotes(t *testing.T) {
	if got := EscapeQuotes(`a"b"c`); got != `a\u22b\u22c` {
		t.Errorf("EscapeQuotes() = %q", got)
	}
}

func TestCheckTextRejectsControlCharacters(t *testing.T) {
	if _, err := CheckText("hello\x01world"); err == nil {
		t.Error("CheckText() accepted a control character")
	}
	if _, err := CheckText(`tab\there`); err != nil {
		t.Errorf("CheckText() rejected an escape form: %v", err)
	}
}

func TestNormalizeNewlines(t *testing.T) {
	if got := normalizeNewlines("a\r\nb\r\rc\n"); got != "a\nb\nc\n" {
		t.Errorf("normalizeNewlines() = %q", got)
	}
}

func TestDecodeReply(t *testing.T) {
	data, status, err := decodeReply("data: one\ndata: two\nU F U N N 2 24 80 0 0 0x0 -\nok\n")
	if err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if want := []string{"one", "two"}; !reflect.DeepEqual(data, want) {
		t.Errorf("data = %v, want %v", data, want)
	}
	if status != "U F U N N 2 24 80 0 0 0x0 -\nok\n" {
		t.Errorf("status = %q", status)
	}
}

func TestDecodeReplyNoData(t *testing.T) {
	data, status, err := decodeReply("U F U N N 2 24 80 0 0 0x0 -\nok\n")
	if err != nil {
		t.Fatalf("decodeReply() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("data = %v, want empty", data)
	}
	if status == "" {
		t.Error("status is empty")
	}
}

func TestDecodeReplyRejectsDataOnly(t *testing.T) {
	if _, _, err := decodeReply("data: one\ndata: two"); err == nil {
		t.Error("decodeReply() accepted a reply without a status trailer")
	}
}

func TestDecodeReplyRejectsInterleavedData(t *testing.T) {
	if _, _, err := decodeReply("data: one\nstray\ndata: two\nok\n"); err == nil {
		t.Error("decodeReply() accepted non-contiguous data lines")
	}
}
