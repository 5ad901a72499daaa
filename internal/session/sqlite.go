package session

import (
	"cadence/internal/clock"
	"cadence/internal/score"
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var sessionsSchema = []string{`
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		duration_sec REAL NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_timestamp ON sessions(user_id, timestamp)`,
}

// SQLiteRepository persists sessions in a SQLite database. Timestamps are stored as Unix
// nanoseconds so that instants round-trip exactly; durations are stored normalized.
type SQLiteRepository struct {
	db          *sql.DB
	maxSessions int
	clock       clock.Clock
}

// NewSQLiteRepository opens (creating if needed) the database at path and ensures the schema.
func NewSQLiteRepository(path string, maxSessions int, clk clock.Clock) (*SQLiteRepository, error) {
	if clk == nil {
		clk = clock.SystemClock{}
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	for _, query := range sessionsSchema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db, maxSessions: maxSessions, clock: clk}, nil
}

// Insert stores sessions for a user in one transaction. Sessions without an ID get a random
// UUID; re-inserting an existing ID replaces the stored row. A session without a timestamp
// aborts the whole insert.
func (r *SQLiteRepository) Insert(ctx context.Context, userID string, sessions []score.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO sessions (user_id, id, timestamp, duration_sec, type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		if s.Timestamp.IsZero() {
			return &score.InvalidSessionError{ID: s.ID, Reason: "missing timestamp"}
		}
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, userID, id, s.Timestamp.UnixNano(), score.NormalizeDuration(s.DurationSec), s.Type); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sessions: %w", err)
	}
	return nil
}

// Sessions returns the user's sessions no older than lookbackDays days, newest first,
// capped at the configured maximum.
func (r *SQLiteRepository) Sessions(ctx context.Context, userID string, lookbackDays int) ([]score.Session, error) {
	cutoff := r.clock.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	return r.query(ctx, userID, cutoff.UnixNano(), math.MaxInt64)
}

// SessionsBetween returns the user's sessions in [from, to), newest first, capped at the
// configured maximum.
func (r *SQLiteRepository) SessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]score.Session, error) {
	return r.query(ctx, userID, from.UnixNano(), to.UnixNano())
}

func (r *SQLiteRepository) query(ctx context.Context, userID string, from, to int64) ([]score.Session, error) {
	limit := r.maxSessions
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, duration_sec, type
		FROM sessions
		WHERE user_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id
		LIMIT ?`, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	result := []score.Session{}
	for rows.Next() {
		var (
			s        score.Session
			ts       int64
			duration float64
		)
		if err := rows.Scan(&s.ID, &ts, &duration, &s.Type); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Timestamp = time.Unix(0, ts).UTC()
		s.DurationSec = duration
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return result, nil
}

// Count returns how many sessions are stored for the user.
func (r *SQLiteRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
