// Package server exposes script execution over a token-checked
// websocket endpoint. All emulator access is serialized so concurrent
// clients cannot interleave actions on the single subprocess.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/user/go3270/internal/config"
	"github.com/user/go3270/internal/emulator"
	"github.com/user/go3270/internal/history"
	"github.com/user/go3270/internal/script"
)

const maxMessageSize = 1 << 20

type Server struct {
	cfg        *config.Config
	session    *emulator.Session
	sessionID  string
	repo       *history.Repo
	mu         sync.Mutex
	httpServer *http.Server
}

func New(cfg *config.Config, session *emulator.Session, repo *history.Repo) *Server {
	s := &Server{
		cfg:       cfg,
		session:   session,
		sessionID: uuid.NewString(),
		repo:      repo,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: mux,
	}
	return s
}

// SessionID identifies this server run in the history store.
func (s *Server) SessionID() string {
	return s.sessionID
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != s.cfg.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	conn.SetReadLimit(maxMessageSize)
	clientID := uuid.NewString()
	slog.Info("client connected", "client", clientID)

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				slog.Info("client read ended", "client", clientID, "error", err)
			}
			return
		}

		var msg ScriptMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(ctx, conn, ErrorMessage{Type: "error", Message: "invalid message format"})
			continue
		}

		switch msg.Type {
		case "script":
			s.runScript(ctx, conn, msg)
		case "history":
			s.sendHistory(ctx, conn, msg)
		default:
			s.send(ctx, conn, ErrorMessage{Type: "error", ID: msg.ID, Message: "unknown message type: " + msg.Type})
		}
	}
}

func (s *Server) runScript(ctx context.Context, conn *websocket.Conn, msg ScriptMessage) {
	calls, err := script.Parse(msg.Text)
	if err != nil {
		s.send(ctx, conn, ErrorMessage{Type: "error", ID: msg.ID, Message: err.Error()})
		return
	}

	executed := 0
	for _, call := range calls {
		res := s.execute(ctx, call)
		res.ID = msg.ID
		s.send(ctx, conn, res)
		executed++
		if res.Error != "" {
			break
		}
	}
	s.send(ctx, conn, DoneMessage{Type: "done", ID: msg.ID, Executed: executed})
}

// execute runs one call under the session lock and records the
// outcome.
func (s *Server) execute(ctx context.Context, call script.Call) ResultMessage {
	s.mu.Lock()
	start := time.Now()
	lines, err := call.Invoke(s.session)
	status := s.session.Status()
	s.mu.Unlock()
	elapsed := time.Since(start)

	res := ResultMessage{
		Type:       "result",
		Action:     call.String(),
		Data:       lines,
		DurationMS: elapsed.Milliseconds(),
	}
	rec := &history.Record{
		SessionID:  s.sessionID,
		Action:     call.String(),
		Code:       "ok",
		DataLines:  len(lines),
		DurationMS: elapsed.Milliseconds(),
	}
	if status != nil {
		res.Status = status.Raw
		rec.Status = status.Raw
	}
	if err != nil {
		res.Error = err.Error()
		rec.Code = "error"
		rec.Error = err.Error()
	}

	if s.repo != nil {
		if dbErr := s.repo.Create(ctx, rec); dbErr != nil {
			slog.Error("failed to record action", "action", rec.Action, "error", dbErr)
		}
	}
	return res
}

func (s *Server) sendHistory(ctx context.Context, conn *websocket.Conn, msg ScriptMessage) {
	if s.repo == nil {
		s.send(ctx, conn, ErrorMessage{Type: "error", ID: msg.ID, Message: "history is not enabled"})
		return
	}
	records, err := s.repo.ListBySession(ctx, s.sessionID, 0)
	if err != nil {
		s.send(ctx, conn, ErrorMessage{Type: "error", ID: msg.ID, Message: err.Error()})
		return
	}
	s.send(ctx, conn, HistoryMessage{Type: "history", ID: msg.ID, Records: records})
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "error", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Info("client write failed", "error", err)
	}
}
