package scorer

import (
	"cadence/internal/score"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("", "")
	require.NoError(t, err)
	assert.True(t, opts.ReferenceDate.IsZero())

	opts, err = ParseOptions("2024-03-15T18:30:00+02:00", "Europe/Kyiv")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", opts.Timezone)
	assert.True(t, opts.ReferenceDate.Equal(time.Date(2024, time.March, 15, 16, 30, 0, 0, time.UTC)))

	opts, err = ParseOptions("2024-03-15", "Pacific/Kiritimati")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", score.CivilDateOf(opts.ReferenceDate, opts.ReferenceDate.Location()).String())
	assert.Equal(t, 12, opts.ReferenceDate.Hour())

	opts, err = ParseOptions("2024-03-15", "")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, opts.ReferenceDate.Location())
}

func TestParseOptions_Errors(t *testing.T) {
	_, err := ParseOptions("next tuesday", "UTC")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = ParseOptions("2024-02-30", "UTC")
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = ParseOptions("2024-03-15", "Nowhere/Town")
	assert.ErrorIs(t, err, score.ErrInvalidTimezone)
}
