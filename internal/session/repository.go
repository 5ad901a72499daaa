// Package session stores raw workout sessions per user and serves them back to the scoring
// services over a lookback window.
package session

import (
	"cadence/internal/score"
	"context"
)

// Repository is a session store that can also ingest sessions.
type Repository interface {
	score.RangeSessionSource
	Insert(ctx context.Context, userID string, sessions []score.Session) error
	Close() error
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
