// Package history persists completed conversation turns in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

//go:embed migrations/002_add_surface.sql
var migrationV2 string

// Compile-time interface conformance check.
var _ core.TurnRecorder = (*Store)(nil)

// SessionSummary describes one stored session.
type SessionSummary struct {
	ID        string
	Surface   string
	StartedAt time.Time
	UpdatedAt time.Time
	TurnCount int
}

// Store implements core.TurnRecorder with SQLite storage.
type Store struct {
	dbPath  string
	surface string
	db      *sql.DB
	mu      sync.RWMutex

	maxRetries    int
	baseRetryWait time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithSurface tags new sessions with the surface that created them.
func WithSurface(surface string) Option {
	return func(s *Store) {
		s.surface = surface
	}
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		dbPath:        dbPath,
		surface:       "chat",
		maxRetries:    5,
		baseRetryWait: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS history_schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM history_schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	for i, migration := range []string{migrationV1, migrationV2} {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO history_schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

// splitStatements splits a SQL script into statements, dropping comment lines.
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		var sqlLines []string
		for _, line := range strings.Split(stmt, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

func (s *Store) retryWrite(ctx context.Context, operation string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isSQLiteBusy(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.baseRetryWait * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("%s failed after %d retries: %w", operation, s.maxRetries, lastErr)
}

func isSQLiteBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// RecordTurn stores one completed turn and bumps its session.
func (s *Store) RecordTurn(ctx context.Context, rec core.TurnRecord) error {
	if rec.SessionID == "" {
		return core.ErrValidation("SESSION_REQUIRED", "turn record has no session id")
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	ts := created.UTC().Format(time.RFC3339Nano)

	return s.retryWrite(ctx, "RecordTurn", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (id, started_at, updated_at, turn_count, surface)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT(id) DO UPDATE SET
				updated_at = excluded.updated_at,
				turn_count = sessions.turn_count + 1
		`, rec.SessionID, ts, ts, s.surface)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO turns (session_id, seq, utterance, reply, tool, is_error, row_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.SessionID,
			rec.Seq,
			rec.Utterance,
			rec.Reply,
			rec.Tool,
			rec.IsError,
			rec.RowCount,
			ts,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		return tx.Commit()
	})
}

// ListSessions returns sessions, most recently updated first. limit <= 0
// returns all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, surface, started_at, updated_at, turn_count FROM sessions ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var startedAt, updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Surface, &startedAt, &updatedAt, &sum.TurnCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		sessions = append(sessions, sum)
	}
	return sessions, rows.Err()
}

// ResolveSession expands a unique session id prefix to the full id.
func (s *Store) ResolveSession(ctx context.Context, prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if prefix == "" {
		return "", core.ErrValidation("SESSION_REQUIRED", "session id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(prefix)+"%")
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", core.ErrNotFound("session", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", core.ErrValidation("AMBIGUOUS_SESSION", fmt.Sprintf("session prefix %q matches more than one session", prefix))
	}
}

// LoadTurns returns the turns of a session in order.
func (s *Store) LoadTurns(ctx context.Context, sessionID string) ([]core.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, utterance, reply, tool, is_error, row_count, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []core.TurnRecord
	for rows.Next() {
		var rec core.TurnRecord
		var createdAt string
		if err := rows.Scan(&rec.SessionID, &rec.Seq, &rec.Utterance, &rec.Reply, &rec.Tool,
			&rec.IsError, &rec.RowCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, rec)
	}
	return turns, rows.Err()
}

// DeleteSession removes a session and its turns.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.retryWrite(ctx, "DeleteSession", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound("session", id)
		}
		return nil
	})
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing history database: %w", err)
	}
	return nil
}

// ToTranscript rebuilds a conversation transcript from stored turns.
func ToTranscript(turns []core.TurnRecord) *core.Transcript {
	t := core.NewTranscript()
	for _, rec := range turns {
		t.Append(core.RoleUser, rec.Utterance)
		t.Append(core.RoleAssistant, rec.Reply)
	}
	return t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
