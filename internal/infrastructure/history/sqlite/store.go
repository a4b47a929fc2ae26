package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"agent-platform/internal/application/port/output"
	"agent-platform/internal/domain/entity"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_history (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	query TEXT NOT NULL,
	agent TEXT NOT NULL,
	status TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	reasoning TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_task_history_user ON task_history(user_id, created_at);
`

const defaultListLimit = 50

var _ output.HistoryPort = (*Store)(nil)

// Store keeps one row per routed execution.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) Record(ctx context.Context, rec entity.TaskRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UserID == "" {
		rec.UserID = entity.AnonymousUser
	}

	result := ""
	if rec.Result != nil {
		raw, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = string(raw)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO task_history(
			id, user_id, query, agent, status, confidence, reasoning,
			result, error, duration_ms, created_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Query, string(rec.Agent), string(rec.Status), rec.Confidence,
		rec.Reasoning, result, rec.Error, rec.DurationMs, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent executions, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]entity.TaskRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, query, agent, status, confidence, reasoning,
			result, error, duration_ms, created_at
		FROM task_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]entity.TaskRecord, 0)
	for rows.Next() {
		var (
			rec       entity.TaskRecord
			agent     string
			status    string
			result    string
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Query, &agent, &status, &rec.Confidence, &rec.Reasoning,
			&result, &rec.Error, &rec.DurationMs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Agent = entity.AgentName(agent)
		rec.Status = entity.ExecutionStatus(status)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		if result != "" {
			if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
				return nil, fmt.Errorf("decode result of %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded executions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
