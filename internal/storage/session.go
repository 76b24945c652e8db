package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user/honeyport/internal/model"
)

// SessionStorage handles sensor session persistence.
type SessionStorage struct {
	db *DB
}

// NewSessionStorage creates a new session storage handler.
func NewSessionStorage(db *DB) *SessionStorage {
	return &SessionStorage{db: db}
}

// Open stores a new running session.
func (s *SessionStorage) Open(session *model.SensorSession) error {
	query := `INSERT INTO sessions (id, host_name, started_at, bound_ports, failed_ports)
			  VALUES (?, ?, ?, ?, ?)`

	return s.db.WithLock(func() error {
		_, err := s.db.Exec(query,
			session.ID, session.HostName, session.StartedAt.UTC(),
			joinInts(session.BoundPorts), joinInts(session.FailedPorts))
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// Close marks a session as stopped.
func (s *SessionStorage) Close(id string, stoppedAt time.Time, reason string) error {
	return s.db.WithLock(func() error {
		res, err := s.db.Exec(
			`UPDATE sessions SET stopped_at = ?, stop_reason = ? WHERE id = ?`,
			stoppedAt.UTC(), reason, id)
		if err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("session %s not found", id)
		}
		return nil
	})
}

// Get returns a session by ID, or nil when it does not exist.
func (s *SessionStorage) Get(id string) (*model.SensorSession, error) {
	row := s.db.QueryRow(`SELECT id, host_name, started_at, stopped_at, bound_ports, failed_ports, stop_reason
			  FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Recent returns up to limit sessions, newest first.
func (s *SessionStorage) Recent(limit int) ([]model.SensorSession, error) {
	query := `SELECT id, host_name, started_at, stopped_at, bound_ports, failed_ports, stop_reason
			  FROM sessions ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.SensorSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}

	return sessions, rows.Err()
}

// Count returns the total number of recorded sessions.
func (s *SessionStorage) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// CloseDangling marks sessions left open by a crashed process as stopped.
func (s *SessionStorage) CloseDangling(reason string) (int64, error) {
	var n int64
	err := s.db.WithLock(func() error {
		res, err := s.db.Exec(
			`UPDATE sessions SET stopped_at = started_at, stop_reason = ? WHERE stopped_at IS NULL`,
			reason)
		if err != nil {
			return fmt.Errorf("failed to close dangling sessions: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*model.SensorSession, error) {
	var (
		session             model.SensorSession
		stoppedAt           sql.NullTime
		bound, failed, stop sql.NullString
	)
	if err := row.Scan(&session.ID, &session.HostName, &session.StartedAt,
		&stoppedAt, &bound, &failed, &stop); err != nil {
		return nil, err
	}

	if stoppedAt.Valid {
		t := stoppedAt.Time
		session.StoppedAt = &t
	}
	session.BoundPorts = splitInts(bound.String)
	session.FailedPorts = splitInts(failed.String)
	session.StopReason = stop.String

	return &session, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) []int {
	if s == "" {
		return nil
	}
	var values []int
	for _, part := range strings.Split(s, ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			values = append(values, v)
		}
	}
	return values
}
