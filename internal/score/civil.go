package score

import (
	"encoding/json"
	"fmt"
	"time"
)

const civilLayout = "2006-01-02"

// CivilDate is a calendar date (year, month, day) that is not tied to any time zone.
// Once an instant has been converted to a CivilDate, all further arithmetic happens on the
// date itself and never goes back through zone conversion.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CivilDateOf returns the calendar date of t as observed in loc.
func CivilDateOf(t time.Time, loc *time.Location) CivilDate {
	y, m, d := t.In(loc).Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseCivilDate parses a "YYYY-MM-DD" string.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(civilLayout, s)
	if err != nil {
		return CivilDate{}, err
	}
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// midnightUTC is used purely as a calendar counter: UTC has no offset changes, so
// day arithmetic on it is exact.
func (d CivilDate) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d (n may be negative).
func (d CivilDate) AddDays(n int) CivilDate {
	y, m, day := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC).Date()
	return CivilDate{Year: y, Month: m, Day: day}
}

// DaysSince returns the number of days from other to d, positive when d is later.
func (d CivilDate) DaysSince(other CivilDate) int {
	return int(d.midnightUTC().Sub(other.midnightUTC()).Hours() / 24)
}

// Before reports whether d is earlier than other.
func (d CivilDate) Before(other CivilDate) bool {
	return d.DaysSince(other) < 0
}

// After reports whether d is later than other.
func (d CivilDate) After(other CivilDate) bool {
	return d.DaysSince(other) > 0
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CivilDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CivilDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCivilDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
