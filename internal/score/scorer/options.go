package scorer

import (
	"cadence/internal/score"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidReference reports a reference date that is neither an RFC 3339 instant nor a
// civil date.
var ErrInvalidReference = errors.New("invalid reference date")

// ParseOptions builds options from user input. The reference may be an RFC 3339 instant
// or a civil date (2006-01-02); a civil date means noon of that day in the requested zone,
// so it maps back to the same date. Empty values are left for the scorer defaults.
func ParseOptions(reference, timezone string) (ScoreOptions, error) {
	opts := ScoreOptions{Timezone: timezone}
	if reference == "" {
		return opts, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, reference); err == nil {
		opts.ReferenceDate = t
		return opts, nil
	}

	date, err := score.ParseCivilDate(reference)
	if err != nil {
		return opts, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}
	loc, err := score.LoadLocation(timezone)
	if err != nil {
		return opts, err
	}
	opts.ReferenceDate = time.Date(date.Year, date.Month, date.Day, 12, 0, 0, 0, loc)
	return opts, nil
}
