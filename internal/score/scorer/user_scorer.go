package scorer

import (
	"cadence/internal/clock"
	"cadence/internal/score"
	"cadence/internal/score/rule"
	"context"
	"fmt"
	"time"
)

// Recorder receives every score computed for a known user.
type Recorder interface {
	Append(userID string, result *score.ConsistencyScore)
}

// ScoreOptions are the per-call scoring parameters. Zero values fall back to the scorer
// defaults: the configured timezone and the current instant of the scorer's clock.
type ScoreOptions struct {
	ReferenceDate time.Time
	Timezone      string
}

// UserScorer wires the pure scoring pipeline to its collaborators: the session source,
// the admission rules, the clock and an optional result recorder.
//
// UserScorer is safe for concurrent use if the source and the recorder are.
type UserScorer struct {
	source          score.SessionSource
	filter          *rule.Filter
	recorder        Recorder
	clock           clock.Clock
	defaultTimezone string
}

// NewUserScorer creates a scorer. filter and recorder may be nil; a nil clock means the
// system clock.
func NewUserScorer(
	source score.SessionSource,
	filter *rule.Filter,
	recorder Recorder,
	clk clock.Clock,
	defaultTimezone string,
) *UserScorer {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &UserScorer{
		source:          source,
		filter:          filter,
		recorder:        recorder,
		clock:           clk,
		defaultTimezone: defaultTimezone,
	}
}

// Score fetches the user's recent sessions and scores them. The timezone is validated
// before any fetch; fetch errors are returned wrapped.
func (us *UserScorer) Score(ctx context.Context, userID string, opts ScoreOptions) (*score.ConsistencyScore, error) {
	opts, loc, err := us.resolve(opts)
	if err != nil {
		return nil, err
	}

	sessions, err := us.fetch(ctx, userID, opts.ReferenceDate, loc)
	if err != nil {
		return nil, err
	}

	return us.compute(userID, sessions, opts, loc)
}

// ParseOptions parses user input like the package level ParseOptions, with the scorer's
// default timezone applied first. A civil reference date is thus anchored in the zone it
// is scored in.
func (us *UserScorer) ParseOptions(reference, timezone string) (ScoreOptions, error) {
	if timezone == "" {
		timezone = us.defaultTimezone
	}
	return ParseOptions(reference, timezone)
}

// Evaluate scores caller-supplied sessions without touching the session source.
// Nothing is recorded.
func (us *UserScorer) Evaluate(sessions []score.Session, opts ScoreOptions) (*score.ConsistencyScore, error) {
	opts, loc, err := us.resolve(opts)
	if err != nil {
		return nil, err
	}
	return us.compute("", sessions, opts, loc)
}

func (us *UserScorer) resolve(opts ScoreOptions) (ScoreOptions, *time.Location, error) {
	if opts.Timezone == "" {
		opts.Timezone = us.defaultTimezone
	}
	loc, err := score.LoadLocation(opts.Timezone)
	if err != nil {
		return opts, nil, err
	}
	if opts.ReferenceDate.IsZero() {
		opts.ReferenceDate = us.clock.Now()
	}
	return opts, loc, nil
}

func (us *UserScorer) fetch(ctx context.Context, userID string, reference time.Time, loc *time.Location) ([]score.Session, error) {
	if us.source == nil {
		return nil, fmt.Errorf("fetch sessions for %s: no session source configured", userID)
	}

	var (
		sessions []score.Session
		err      error
	)
	if ranged, ok := us.source.(score.RangeSessionSource); ok {
		from, to := windowBounds(reference, loc)
		sessions, err = ranged.SessionsBetween(ctx, userID, from, to)
	} else {
		sessions, err = us.source.Sessions(ctx, userID, us.lookbackDays(reference))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch sessions for %s: %w", userID, err)
	}
	return sessions, nil
}

// windowBounds returns the instants spanning the Window civil days that end at the
// reference date in loc: midnight of the first day up to midnight after the last one.
func windowBounds(reference time.Time, loc *time.Location) (time.Time, time.Time) {
	last := score.CivilDateOf(reference, loc)
	first := last.AddDays(-(score.Window - 1))
	next := last.AddDays(1)
	return time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, loc),
		time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, loc)
}

// lookbackDays covers the window ending at reference plus one day of zone slack, measured
// back from the clock's now so that past reference dates are reachable.
func (us *UserScorer) lookbackDays(reference time.Time) int {
	days := score.Window + 1
	if behind := us.clock.Now().Sub(reference); behind > 0 {
		days += int(behind/(24*time.Hour)) + 1
	}
	return days
}

func (us *UserScorer) compute(userID string, sessions []score.Session, opts ScoreOptions, loc *time.Location) (*score.ConsistencyScore, error) {
	result, err := score.Calculate(score.Request{
		Sessions:      us.filter.Apply(sessions, loc),
		ReferenceDate: opts.ReferenceDate,
		Timezone:      opts.Timezone,
	})
	if err != nil {
		return nil, err
	}

	if us.recorder != nil && userID != "" {
		us.recorder.Append(userID, result)
	}
	return result, nil
}
