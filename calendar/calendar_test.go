package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, dd int) time.Time { return date(y, m, dd) }

func TestNYSEHolidays(t *testing.T) {
	t.Parallel()

	c := NYSE(2024, 2024)

	for _, h := range []time.Time{
		d(2024, 1, 1), d(2024, 1, 15), d(2024, 2, 19), d(2024, 3, 29),
		d(2024, 5, 27), d(2024, 6, 19), d(2024, 7, 4), d(2024, 9, 2),
		d(2024, 11, 28), d(2024, 12, 25),
	} {
		assert.True(t, c.IsHoliday(h), h.Format(time.DateOnly))
	}
	assert.False(t, c.IsHoliday(d(2024, 3, 28)))
	assert.Len(t, c.Holidays(), 10)
}

func TestObservedWeekendHoliday(t *testing.T) {
	t.Parallel()

	// July 4th 2026 is a Saturday.
	c := NYSE(2026, 2026)
	assert.True(t, c.IsHoliday(d(2026, 7, 3)))
	// New Year 2022 was a Saturday and not observed.
	c = NYSE(2021, 2022)
	assert.False(t, c.IsHoliday(d(2021, 12, 31)))
}

func TestIsEndOfWeek(t *testing.T) {
	t.Parallel()

	c := NYSE(2024, 2024)

	assert.True(t, c.IsEndOfWeek(d(2024, 3, 8)))   // Friday
	assert.False(t, c.IsEndOfWeek(d(2024, 3, 7)))  // Thursday
	assert.True(t, c.IsEndOfWeek(d(2024, 3, 28)))  // Thursday before Good Friday
	assert.False(t, c.IsEndOfWeek(d(2024, 3, 27))) // Wednesday
}

func TestIsEndOfMonth(t *testing.T) {
	t.Parallel()

	c := NYSE(2024, 2024)
	assert.True(t, c.IsEndOfMonth(d(2024, 5, 31)))
	assert.True(t, c.IsEndOfMonth(d(2024, 8, 30)))
	assert.False(t, c.IsEndOfMonth(d(2024, 8, 29)))
}

func TestWeekdayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MON", WeekdayName(d(2024, 3, 4)))
	assert.Equal(t, "TUE", WeekdayName(d(2024, 3, 5)))
	assert.Equal(t, "SUN", WeekdayName(d(2024, 3, 10)))
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(path, []byte("holidays:\n  - 2024-03-06\n  - 2024-01-01\n"), 0o644))

	c, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d(2024, 1, 1), d(2024, 3, 6)}, c.Holidays())
	assert.False(t, c.IsTradingDay(d(2024, 3, 6)))
	assert.Equal(t, d(2024, 3, 7), c.NextTradingDay(d(2024, 3, 5)))

	require.NoError(t, os.WriteFile(path, []byte("holidays:\n  - March 6\n"), 0o644))
	_, err = LoadYAML(path)
	assert.Error(t, err)
}

func TestNilCalendar(t *testing.T) {
	t.Parallel()

	var c *Calendar
	assert.False(t, c.IsHoliday(d(2024, 1, 1)))
	assert.True(t, c.IsTradingDay(d(2024, 1, 2)))
}
