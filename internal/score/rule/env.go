package rule

import (
	"cadence/internal/score"
	"time"

	"github.com/google/cel-go/cel"
)

// NewSessionEnv declares the variables a rule can reference.
func NewSessionEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("sessionType", cel.StringType),
		cel.Variable("durationSec", cel.DoubleType),
		// local hour of day, 0-23
		cel.Variable("hour", cel.IntType),
		// 0 is Sunday
		cel.Variable("weekday", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Activation exposes a session to CEL. Hour and weekday are read in loc.
func Activation(s score.Session, loc *time.Location) map[string]any {
	local := s.Timestamp.In(loc)
	return map[string]any{
		"id":          s.ID,
		"sessionType": s.Type,
		"durationSec": score.NormalizeDuration(s.DurationSec),
		"hour":        int64(local.Hour()),
		"weekday":     int64(local.Weekday()),
	}
}
