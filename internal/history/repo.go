package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one executed action and its outcome.
type Record struct {
	ID         string `json:"id"`
	SessionID  string `json:"session_id"`
	Action     string `json:"action"`
	Code       string `json:"code"`
	Status     string `json:"status"`
	DataLines  int    `json:"data_lines"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("history repo unavailable")
	}
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	if rec.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if rec.Action == "" {
		return fmt.Errorf("action is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = formatTimestamp(time.Now())
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO records (id, session_id, action, code, status, data_lines, error, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ID, rec.SessionID, rec.Action, rec.Code, rec.Status, rec.DataLines, rec.Error, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Record, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("history repo unavailable")
	}
	if id == "" {
		return nil, fmt.Errorf("record id is required")
	}
	rec := &Record{}
	err := r.db.QueryRowContext(ctx, `
SELECT id, session_id, action, code, status, data_lines, error, duration_ms, created_at
FROM records
WHERE id = ?
`, id).Scan(&rec.ID, &rec.SessionID, &rec.Action, &rec.Code, &rec.Status, &rec.DataLines, &rec.Error, &rec.DurationMS, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// ListBySession returns the most recent records for a session in
// chronological order.
func (r *Repo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*Record, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("history repo unavailable")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, action, code, status, data_lines, error, duration_ms, created_at
FROM records
WHERE session_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	items := make([]*Record, 0)
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Action, &rec.Code, &rec.Status, &rec.DataLines, &rec.Error, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// Trim keeps only the newest records for a session.
func (r *Repo) Trim(ctx context.Context, sessionID string, keep int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("history repo unavailable")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if keep <= 0 {
		keep = 1000
	}
	_, err := r.db.ExecContext(ctx, `
DELETE FROM records
WHERE session_id = ?
  AND id NOT IN (
    SELECT id FROM records
    WHERE session_id = ?
    ORDER BY created_at DESC, rowid DESC
    LIMIT ?
  )
`, sessionID, sessionID, keep)
	if err != nil {
		return fmt.Errorf("trim records: %w", err)
	}
	return nil
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(time.RFC3339Nano)
}
