package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/user/go3270/internal/config"
	"github.com/user/go3270/internal/emulator"
	"github.com/user/go3270/internal/history"
)

const okReply = "U F U C(foobar) I 4 24 80 23 0 0x0 0.100\nok\n"

type stubPiper struct {
	sent    []string
	reply   string
	running bool
}

func (f *stubPiper) Pipe(message string, timeout time.Duration) (string, error) {
	f.sent = append(f.sent, message)
	return f.reply, nil
}

func (f *stubPiper) Running() bool { return f.running }

func (f *stubPiper) Close() error {
	f.running = false
	return nil
}

func newTestServer(t *testing.T, reply string) (*Server, *stubPiper, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Token = "secret-token-123"
	fp := &stubPiper{reply: reply, running: true}

	db, err := history.Open(context.Background(), t.TempDir()+"/history.db")
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(cfg, emulator.New(fp), history.NewRepo(db.SQL()))
	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)
	return srv, fp, fmt.Sprintf("ws://%s/ws", ts.URL[7:])
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg ScriptMessage) []map[string]any {
	t.Helper()
	data, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	var replies []map[string]any
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("failed to read reply: %v", err)
		}
		var reply map[string]any
		if err := json.Unmarshal(data, &reply); err != nil {
			t.Fatalf("failed to unmarshal reply: %v", err)
		}
		replies = append(replies, reply)
		if reply["type"] == "done" || reply["type"] == "error" || reply["type"] == "history" {
			return replies
		}
	}
}

func TestTokenAuthentication(t *testing.T) {
	_, _, url := newTestServer(t, okReply)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"valid token", "secret-token-123", http.StatusSwitchingProtocols},
		{"invalid token", "wrong-token", http.StatusUnauthorized},
		{"missing token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := url
			if tt.token != "" {
				target = fmt.Sprintf("%s?token=%s", url, tt.token)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			conn, resp, err := websocket.Dial(ctx, target, nil)
			cancel()

			if resp != nil && resp.StatusCode != tt.wantStatus {
				t.Errorf("status code mismatch: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusSwitchingProtocols {
				if err != nil {
					t.Fatalf("expected successful connection, got error: %v", err)
				}
			}
			if conn != nil {
				conn.Close(websocket.StatusNormalClosure, "")
			}
		})
	}
}

func TestScriptExecutionStreamsResults(t *testing.T) {
	_, fp, url := newTestServer(t, okReply)
	conn := dial(t, url+"?token=secret-token-123")

	replies := roundTrip(t, conn, ScriptMessage{Type: "script", ID: "req-1", Text: "Clear\nEnter\n"})
	if len(replies) != 3 {
		t.Fatalf("got %d replies, want 2 results and a done: %v", len(replies), replies)
	}
	if replies[0]["type"] != "result" || replies[0]["action"] != "Clear" {
		t.Errorf("first reply = %v", replies[0])
	}
	if replies[1]["action"] != "Enter" {
		t.Errorf("second reply = %v", replies[1])
	}
	if replies[2]["type"] != "done" || replies[2]["executed"] != float64(2) {
		t.Errorf("done reply = %v", replies[2])
	}
	if len(fp.sent) != 2 {
		t.Errorf("transport saw %v", fp.sent)
	}
}

func TestScriptParseErrorExecutesNothing(t *testing.T) {
	_, fp, url := newTestServer(t, okReply)
	conn := dial(t, url+"?token=secret-token-123")

	replies := roundTrip(t, conn, ScriptMessage{Type: "script", ID: "req-2", Text: "Clear\nTeleport\n"})
	if len(replies) != 1 || replies[0]["type"] != "error" {
		t.Fatalf("replies = %v, want a single error", replies)
	}
	if len(fp.sent) != 0 {
		t.Errorf("malformed script reached the transport: %v", fp.sent)
	}
}

func TestScriptStopsAtFirstFailure(t *testing.T) {
	_, fp, url := newTestServer(t, okReply)
	conn := dial(t, url+"?token=secret-token-123")

	// Execute is gated in safe mode, so the trailing Enter must not run.
	replies := roundTrip(t, conn, ScriptMessage{Type: "script", ID: "req-3", Text: "Execute(ls)\nEnter\n"})
	if len(replies) != 2 {
		t.Fatalf("replies = %v", replies)
	}
	if replies[0]["error"] == "" {
		t.Errorf("first result carries no error: %v", replies[0])
	}
	if replies[1]["executed"] != float64(1) {
		t.Errorf("done reply = %v", replies[1])
	}
	if len(fp.sent) != 0 {
		t.Errorf("gated action reached the transport: %v", fp.sent)
	}
}

func TestHistoryRequestReturnsRecordedActions(t *testing.T) {
	_, _, url := newTestServer(t, okReply)
	conn := dial(t, url+"?token=secret-token-123")

	roundTrip(t, conn, ScriptMessage{Type: "script", ID: "req-4", Text: "Clear\n"})
	replies := roundTrip(t, conn, ScriptMessage{Type: "history", ID: "req-5"})
	if len(replies) != 1 || replies[0]["type"] != "history" {
		t.Fatalf("replies = %v", replies)
	}
	records, ok := replies[0]["records"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("records = %v, want one entry", replies[0]["records"])
	}
	rec := records[0].(map[string]any)
	if rec["action"] != "Clear" || rec["code"] != "ok" {
		t.Errorf("record = %v", rec)
	}
}

func TestUnknownMessageType(t *testing.T) {
	_, _, url := newTestServer(t, okReply)
	conn := dial(t, url+"?token=secret-token-123")

	replies := roundTrip(t, conn, ScriptMessage{Type: "bogus", ID: "req-6"})
	if len(replies) != 1 || replies[0]["type"] != "error" {
		t.Fatalf("replies = %v, want a single error", replies)
	}
}
