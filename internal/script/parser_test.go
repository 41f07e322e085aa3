package script

import (
	"reflect"
	"testing"
)

func TestParseCallSimple(t *testing.T) {
	c, err := ParseCall("Enter")
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	if c.Action() != "Enter" || c.Len() != 0 {
		t.Errorf("ParseCall() = %v", c)
	}
}

func TestParseCallNormalizesName(t *testing.T) {
	c, err := ParseCall("  attn  ")
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	if c.Action() != "Attn" {
		t.Errorf("Action() = %q, want canonical Attn", c.Action())
	}
}

func TestParseCallArguments(t *testing.T) {
	c, err := ParseCall("Toggle(lineWrap,set)")
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	if !c.Equal(NewCall("Toggle", "lineWrap", "set")) {
		t.Errorf("ParseCall() = %v", c)
	}
}

func TestParseCallQuotedArgument(t *testing.T) {
	c, err := ParseCall(`String("hello, world")`)
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	if want := []string{"hello, world"}; !reflect.DeepEqual(c.Args(), want) {
		t.Errorf("Args() = %v, want %v", c.Args(), want)
	}
}

func TestParseCallMixedArguments(t *testing.T) {
	c, err := ParseCall(`Transfer(HostFile=A.B, "LocalFile=/tmp/a b", Host=vm)`)
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	want := []string{"HostFile=A.B", "LocalFile=/tmp/a b", "Host=vm"}
	if !reflect.DeepEqual(c.Args(), want) {
		t.Errorf("Args() = %v, want %v", c.Args(), want)
	}
}

func TestParseCallRawBody(t *testing.T) {
	c, err := ParseCall(`Execute(ls -la, "metrics")`)
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	if c.Len() != 1 || c.Get(0) != `ls -la, "metrics"` {
		t.Errorf("Args() = %v, want the unsplit body", c.Args())
	}
}

func TestParseCallUnknownAction(t *testing.T) {
	if _, err := ParseCall("Teleport"); err == nil {
		t.Error("ParseCall() accepted an unknown action")
	}
}

func TestParseCallMalformed(t *testing.T) {
	for _, line := range []string{"", "123abc", "Enter(unterminated", `String("unclosed)`} {
		if _, err := ParseCall(line); err == nil {
			t.Errorf("ParseCall(%q) succeeded, want error", line)
		}
	}
}

func TestParseMultipleLines(t *testing.T) {
	calls, err := Parse("Clear\r\nString(\"user\")\nEnter\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("Parse() = %d calls, want 3", len(calls))
	}
	if calls[0].Action() != "Clear" || calls[1].Action() != "String" || calls[2].Action() != "Enter" {
		t.Errorf("Parse() = %v", calls)
	}
}

func TestParseIsIdempotentOnCanonicalOutput(t *testing.T) {
	original, err := ParseCall("Toggle(lineWrap,clear)")
	if err != nil {
		t.Fatalf("ParseCall() error = %v", err)
	}
	again, err := ParseCall(original.String())
	if err != nil {
		t.Fatalf("ParseCall(round trip) error = %v", err)
	}
	if !original.Equal(again) {
		t.Errorf("round trip changed the call: %v != %v", original, again)
	}
}

func TestCatalogueDeduplicatesSharedNames(t *testing.T) {
	counts := map[string]int{}
	for _, a := range All() {
		counts[a.Name]++
	}
	for _, name := range []string{"Connect", "Disconnect", "MoveCursor", "PrintText", "Script", "Transfer"} {
		if counts[name] != 1 {
			t.Errorf("catalogue has %d entries named %s, want 1", counts[name], name)
		}
	}
}

func TestNamedIsCaseInsensitive(t *testing.T) {
	a, err := Named("movecursor")
	if err != nil {
		t.Fatalf("Named() error = %v", err)
	}
	if a.Name != "MoveCursor" {
		t.Errorf("Named() = %q, want MoveCursor", a.Name)
	}
}

func TestCallIntRejectsLeadingZeros(t *testing.T) {
	c := NewCall("PF", "007")
	if _, err := c.Int(0); err == nil {
		t.Error("Int() accepted a leading-zero value")
	}
	c = NewCall("PF", "7")
	if n, err := c.Int(0); err != nil || n != 7 {
		t.Errorf("Int() = %d, %v", n, err)
	}
}
