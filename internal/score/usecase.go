package score

import (
	"context"
	"time"
)

// Window is the length of the rolling scoring window in days. It also serves as the
// "never" sentinel for DaysSinceLastSession.
const Window = 28

// Session is a single exercise session as supplied by the caller.
// DurationSec is kept raw because upstream data may carry it as a number, a numeric
// string, null or garbage; it is only ever read through NormalizeDuration.
type Session struct {
	ID          string    `json:"id" yaml:"id"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	DurationSec any       `json:"durationSec,omitempty" yaml:"durationSec,omitempty"`
	Type        string    `json:"type,omitempty" yaml:"type,omitempty"`
}

// ActiveDay aggregates all sessions that fall on one civil date of the target zone.
type ActiveDay struct {
	Date             CivilDate `json:"date"`
	SessionCount     int       `json:"sessionCount"`
	TotalDurationSec float64   `json:"totalDurationSec"`
}

// Metadata holds activity statistics derived from the active days.
type Metadata struct {
	TotalSessions        int     `json:"totalSessions"`
	ActiveDays           int     `json:"activeDays"`
	LongestStreak        int     `json:"longestStreak"`
	LongestGap           int     `json:"longestGap"`
	AverageGap           float64 `json:"averageGap"`
	DaysSinceLastSession int     `json:"daysSinceLastSession"`
}

// Breakdown is the per-component contribution to the final score.
type Breakdown struct {
	BaseScore         float64 `json:"baseScore"`
	DistributionBonus float64 `json:"distributionBonus"`
	StreakBonus       float64 `json:"streakBonus"`
	RecencyBonus      float64 `json:"recencyBonus"`
}

// DayActivity is one slot of the daily chart series.
type DayActivity struct {
	Date         CivilDate `json:"date"`
	HasActivity  bool      `json:"hasActivity"`
	SessionCount int       `json:"sessionCount"`
}

// ConsistencyScore is the full result of a scoring request.
type ConsistencyScore struct {
	Score        int           `json:"score"`
	Explanations []string      `json:"explanations"`
	ChartData    []DayActivity `json:"chartData"`
	Metadata     Metadata      `json:"metadata"`
	Breakdown    Breakdown     `json:"breakdown"`
}

// Request is the input of Calculate.
type Request struct {
	Sessions      []Session
	ReferenceDate time.Time
	// Timezone is an IANA zone name; empty means UTC.
	Timezone string
}

// SessionSource retrieves the sessions of a single user for the last lookbackDays days.
// Implementations cap the number of returned sessions; ordering is not required.
type SessionSource interface {
	Sessions(ctx context.Context, userID string, lookbackDays int) ([]Session, error)
}

// RangeSessionSource is a SessionSource that can also bound a fetch by instant: from is
// inclusive and to is exclusive. The cap applies after bounding.
type RangeSessionSource interface {
	SessionSource
	SessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Session, error)
}
