package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestBucketize_Empty(t *testing.T) {
	days, err := Bucketize(nil, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestBucketize_CollapsesSameDay(t *testing.T) {
	base := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "c", Timestamp: base.Add(48 * time.Hour), DurationSec: 300},
		{ID: "a", Timestamp: base, DurationSec: 1200},
		{ID: "b", Timestamp: base.Add(10 * time.Hour), DurationSec: "600"},
		{ID: "d", Timestamp: base.Add(time.Millisecond), DurationSec: -5},
	}

	days, err := Bucketize(sessions, time.UTC)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, civil(2024, time.May, 2), days[0].Date)
	assert.Equal(t, 3, days[0].SessionCount)
	assert.Equal(t, 1800.0, days[0].TotalDurationSec)

	assert.Equal(t, civil(2024, time.May, 4), days[1].Date)
	assert.Equal(t, 1, days[1].SessionCount)
	assert.Equal(t, 300.0, days[1].TotalDurationSec)
}

func TestBucketize_OrderIndependent(t *testing.T) {
	base := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "1", Timestamp: base, DurationSec: 0.1},
		{ID: "2", Timestamp: base.Add(time.Hour), DurationSec: 0.2},
		{ID: "3", Timestamp: base.Add(2 * time.Hour), DurationSec: 0.3},
		{ID: "4", Timestamp: base.Add(26 * time.Hour), DurationSec: 1e16},
		{ID: "5", Timestamp: base.Add(27 * time.Hour), DurationSec: 1.0},
	}
	reversed := []Session{sessions[4], sessions[3], sessions[2], sessions[1], sessions[0]}
	shuffled := []Session{sessions[2], sessions[4], sessions[0], sessions[3], sessions[1]}

	want, err := Bucketize(sessions, time.UTC)
	require.NoError(t, err)

	for _, input := range [][]Session{reversed, shuffled} {
		got, err := Bucketize(input, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBucketize_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "b", Timestamp: base.Add(time.Hour)},
		{ID: "a", Timestamp: base},
	}

	_, err := Bucketize(sessions, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Equal(t, "a", sessions[1].ID)
}

func TestBucketize_MissingTimestamp(t *testing.T) {
	sessions := []Session{
		{ID: "ok", Timestamp: time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)},
		{ID: "broken"},
	}

	days, err := Bucketize(sessions, time.UTC)
	assert.Nil(t, days)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSession)

	var invalid *InvalidSessionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "broken", invalid.ID)
}

func TestBucketize_LocalMidnightSplitsDays(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	// 23:55 and 00:05 local on the night DST starts; the same UTC day.
	late := time.Date(2024, time.March, 9, 23, 55, 0, 0, ny)
	early := time.Date(2024, time.March, 10, 0, 5, 0, 0, ny)
	require.Equal(t, late.UTC().YearDay(), early.UTC().YearDay())

	days, err := Bucketize([]Session{{ID: "late", Timestamp: late}, {ID: "early", Timestamp: early}}, ny)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, civil(2024, time.March, 9), days[0].Date)
	assert.Equal(t, civil(2024, time.March, 10), days[1].Date)
}

func TestBucketize_UTCMidnightSharedLocalDay(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	before := time.Date(2024, time.March, 9, 23, 55, 0, 0, time.UTC)
	after := time.Date(2024, time.March, 10, 0, 5, 0, 0, time.UTC)

	utcDays, err := Bucketize([]Session{{ID: "1", Timestamp: before}, {ID: "2", Timestamp: after}}, time.UTC)
	require.NoError(t, err)
	assert.Len(t, utcDays, 2)

	localDays, err := Bucketize([]Session{{ID: "1", Timestamp: before}, {ID: "2", Timestamp: after}}, ny)
	require.NoError(t, err)
	require.Len(t, localDays, 1)
	assert.Equal(t, civil(2024, time.March, 9), localDays[0].Date)
	assert.Equal(t, 2, localDays[0].SessionCount)
}

func TestBucketize_FractionalOffset(t *testing.T) {
	kolkata := mustLocation(t, "Asia/Kolkata")
	// 18:40 UTC is 00:10 the next day in UTC+05:30.
	instant := time.Date(2024, time.August, 14, 18, 40, 0, 0, time.UTC)

	days, err := Bucketize([]Session{{ID: "1", Timestamp: instant}}, kolkata)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, civil(2024, time.August, 15), days[0].Date)
}

func TestWithinWindow(t *testing.T) {
	reference := civil(2024, time.March, 28)
	sessions := []Session{
		{ID: "first", Timestamp: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "too-old", Timestamp: time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC)},
		{ID: "last", Timestamp: time.Date(2024, time.March, 28, 23, 59, 0, 0, time.UTC)},
		{ID: "future", Timestamp: time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC)},
		{ID: "no-timestamp"},
	}

	kept := withinWindow(sessions, reference, time.UTC)
	ids := make([]string, 0, len(kept))
	for _, s := range kept {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"first", "last", "no-timestamp"}, ids)
}
