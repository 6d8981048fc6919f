package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthOf(t *testing.T) {
	t.Parallel()

	// Local times must resolve to the UTC month.
	loc := time.FixedZone("UTC+13", 13*3600)
	ts := time.Date(2024, time.February, 1, 3, 0, 0, 0, loc) // Jan 31 14:00 UTC

	assert.Equal(t, Month{2024, time.January}, MonthOf(ts))
	assert.Equal(t, Month{2024, time.March}, MonthOf(time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)))
}

func TestParseMonth(t *testing.T) {
	t.Parallel()

	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, Month{2024, time.February}, m)

	for _, bad := range []string{"", "2024", "2024-13", "02-2024", "2024-02-01"} {
		_, err := ParseMonth(bad)
		require.Error(t, err, "input %q", bad)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	}
}

func TestMonth_Next_YearRollover(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Month{2025, time.January}, Month{2024, time.December}.Next())
	assert.Equal(t, Month{2024, time.February}, Month{2024, time.January}.Next())
}

func TestMonth_Ordering(t *testing.T) {
	t.Parallel()

	jan := Month{2024, time.January}
	feb := Month{2024, time.February}
	dec23 := Month{2023, time.December}

	assert.True(t, jan.Before(feb))
	assert.True(t, dec23.Before(jan))
	assert.True(t, feb.After(jan))
	assert.False(t, jan.Before(jan))
	assert.False(t, jan.After(jan))
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, MonthsBetween(Month{2024, time.March}, Month{2024, time.March}))
	assert.Equal(t, 1, MonthsBetween(Month{2024, time.January}, Month{2024, time.February}))
	assert.Equal(t, 13, MonthsBetween(Month{2023, time.December}, Month{2025, time.January}))
	assert.Equal(t, -2, MonthsBetween(Month{2024, time.March}, Month{2024, time.January}))
}

func TestMonth_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-01", Month{2024, time.January}.String())
	assert.Equal(t, "0999-12", Month{999, time.December}.String())
}
