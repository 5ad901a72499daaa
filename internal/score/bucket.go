package score

import (
	"cmp"
	"slices"
	"time"
)

// Bucketize groups sessions by their civil date in loc and returns one ActiveDay per
// date, sorted ascending.
//
// The result does not depend on the order of sessions: a sorted copy is accumulated so
// that even the floating point duration sums come out identical for any permutation.
// A session without a timestamp fails the whole call with an *InvalidSessionError.
func Bucketize(sessions []Session, loc *time.Location) ([]ActiveDay, error) {
	ordered := slices.Clone(sessions)
	slices.SortFunc(ordered, compareSessions)

	buckets := make(map[CivilDate]*ActiveDay)
	for _, s := range ordered {
		if s.Timestamp.IsZero() {
			return nil, &InvalidSessionError{ID: s.ID, Reason: "timestamp is missing"}
		}

		date := CivilDateOf(s.Timestamp, loc)
		day, found := buckets[date]
		if !found {
			day = &ActiveDay{Date: date}
			buckets[date] = day
		}
		day.SessionCount++
		day.TotalDurationSec += NormalizeDuration(s.DurationSec)
	}

	days := make([]ActiveDay, 0, len(buckets))
	for _, day := range buckets {
		days = append(days, *day)
	}
	slices.SortFunc(days, func(a, b ActiveDay) int {
		return a.Date.DaysSince(b.Date)
	})

	return days, nil
}

func compareSessions(a, b Session) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return cmp.Compare(NormalizeDuration(a.DurationSec), NormalizeDuration(b.DurationSec))
}

// withinWindow keeps only the sessions whose civil date lies in the Window days ending at
// reference. Sessions with a zero timestamp are kept so that Bucketize can reject them.
func withinWindow(sessions []Session, reference CivilDate, loc *time.Location) []Session {
	first := reference.AddDays(-(Window - 1))
	kept := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Timestamp.IsZero() {
			date := CivilDateOf(s.Timestamp, loc)
			if date.Before(first) || date.After(reference) {
				continue
			}
		}
		kept = append(kept, s)
	}
	return kept
}
