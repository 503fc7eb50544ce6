package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is a persisted research run.
type Session struct {
	ID          string
	Topic       string
	Model       string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// PhaseRecord is a persisted record of one phase execution.
type PhaseRecord struct {
	SessionID   string
	Phase       string
	Status      string
	Seconds     float64
	CostUSD     float64
	StartedAt   time.Time
	CompletedAt *time.Time
}

// CreateSession inserts a new active session and returns it.
func (db *DB) CreateSession(topic, model string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Topic:     topic,
		Model:     model,
		Status:    SessionActive,
		StartedAt: time.Now(),
	}

	_, err := db.Exec(`
		INSERT INTO sessions (id, topic, model, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Topic, s.Model, s.Status, formatTime(s.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// GetSession fetches a session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, topic, model, status, started_at, completed_at
		FROM sessions WHERE id = ?
	`, id)

	var s Session
	var startedAt string
	var completedAt sql.NullString
	if err := row.Scan(&s.ID, &s.Topic, &s.Model, &s.Status, &startedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	s.StartedAt = t
	s.CompletedAt = parseNullableTime(completedAt)

	return &s, nil
}

// CompleteSession marks a session finished with the given status.
func (db *DB) CompleteSession(id, status string) error {
	res, err := db.Exec(`
		UPDATE sessions SET status = ?, completed_at = ? WHERE id = ?
	`, status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns sessions ordered newest first.
func (db *DB) ListSessions(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, topic, model, status, started_at, completed_at
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.Topic, &s.Model, &s.Status, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		t, err := parseTime(startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		s.StartedAt = t
		s.CompletedAt = parseNullableTime(completedAt)
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// StartPhase records the beginning of a phase for a session.
func (db *DB) StartPhase(sessionID, phase string) error {
	_, err := db.Exec(`
		INSERT INTO phases (session_id, phase, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, sessionID, phase, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("start phase: %w", err)
	}
	return nil
}

// CompletePhase records the end of the most recent matching phase.
func (db *DB) CompletePhase(sessionID, phase, status string, seconds, costUSD float64) error {
	_, err := db.Exec(`
		UPDATE phases SET status = ?, seconds = ?, cost_usd = ?, completed_at = ?
		WHERE id = (
			SELECT id FROM phases
			WHERE session_id = ? AND phase = ?
			ORDER BY started_at DESC LIMIT 1
		)
	`, status, seconds, costUSD, formatTime(time.Now()), sessionID, phase)
	if err != nil {
		return fmt.Errorf("complete phase: %w", err)
	}
	return nil
}

// Phases returns all phase records for a session in start order.
func (db *DB) Phases(sessionID string) ([]*PhaseRecord, error) {
	rows, err := db.Query(`
		SELECT session_id, phase, status, seconds, cost_usd, started_at, completed_at
		FROM phases WHERE session_id = ? ORDER BY started_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var records []*PhaseRecord
	for rows.Next() {
		var r PhaseRecord
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&r.SessionID, &r.Phase, &r.Status, &r.Seconds, &r.CostUSD, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		t, err := parseTime(startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		r.StartedAt = t
		r.CompletedAt = parseNullableTime(completedAt)
		records = append(records, &r)
	}
	return records, rows.Err()
}

// RecordUsage stores a token usage sample for a session.
func (db *DB) RecordUsage(sessionID, model string, inputTokens, outputTokens int64) error {
	_, err := db.Exec(`
		INSERT INTO usage (session_id, model, input_tokens, output_tokens, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, model, inputTokens, outputTokens, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// SessionUsage returns the summed token usage for a session.
func (db *DB) SessionUsage(sessionID string) (inputTokens, outputTokens int64, err error) {
	row := db.QueryRow(`
		SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM usage WHERE session_id = ?
	`, sessionID)
	if err := row.Scan(&inputTokens, &outputTokens); err != nil {
		return 0, 0, fmt.Errorf("session usage: %w", err)
	}
	return inputTokens, outputTokens, nil
}

// PurgeOldSessions deletes sessions older than the specified duration.
// Returns the number of sessions deleted.
func (db *DB) PurgeOldSessions(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec(`DELETE FROM sessions WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}
