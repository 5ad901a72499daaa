package score

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func civil(y int, m time.Month, d int) CivilDate {
	return CivilDate{Year: y, Month: m, Day: d}
}

func TestCivilDateOf_UsesZoneRules(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	instant := time.Date(2024, time.March, 10, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, civil(2024, time.March, 10), CivilDateOf(instant, time.UTC))
	assert.Equal(t, civil(2024, time.March, 9), CivilDateOf(instant, ny))
}

func TestCivilDate_AddDays(t *testing.T) {
	tests := []struct {
		name string
		from CivilDate
		n    int
		want CivilDate
	}{
		{"same day", civil(2024, time.March, 1), 0, civil(2024, time.March, 1)},
		{"leap day", civil(2024, time.February, 28), 1, civil(2024, time.February, 29)},
		{"month rollover", civil(2023, time.February, 28), 1, civil(2023, time.March, 1)},
		{"year rollback", civil(2024, time.January, 3), -27, civil(2023, time.December, 7)},
		{"across DST start", civil(2024, time.March, 9), 2, civil(2024, time.March, 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.AddDays(tt.n))
		})
	}
}

func TestCivilDate_DaysSince(t *testing.T) {
	a := civil(2024, time.March, 31)
	b := civil(2024, time.March, 1)

	assert.Equal(t, 30, a.DaysSince(b))
	assert.Equal(t, -30, b.DaysSince(a))
	assert.Equal(t, 0, a.DaysSince(a))
	assert.Equal(t, 366, civil(2025, time.January, 1).DaysSince(civil(2024, time.January, 1)))
	assert.True(t, b.Before(a))
	assert.True(t, a.After(b))
	assert.False(t, a.Before(a))
}

func TestCivilDate_StringAndJSON(t *testing.T) {
	d := civil(2024, time.July, 4)
	assert.Equal(t, "2024-07-04", d.String())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-07-04"`, string(data))

	var parsed CivilDate
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)

	assert.Error(t, json.Unmarshal([]byte(`"07/04/2024"`), &parsed))
}

func TestParseCivilDate(t *testing.T) {
	d, err := ParseCivilDate("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, civil(2023, time.December, 31), d)

	_, err = ParseCivilDate("2023-13-01")
	assert.Error(t, err)
}
