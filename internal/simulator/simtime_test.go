package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourOfDay(t *testing.T) {
	assert.Equal(t, 0.0, HourOfDay(0))
	assert.Equal(t, 1.0, HourOfDay(3600))
	assert.Equal(t, 8.5, HourOfDay(8.5*3600))
	assert.Equal(t, 0.0, HourOfDay(86400))
	assert.Equal(t, 6.0, HourOfDay(86400+6*3600))
}

func TestDayNumber(t *testing.T) {
	assert.Equal(t, 0, DayNumber(0))
	assert.Equal(t, 0, DayNumber(86399))
	assert.Equal(t, 1, DayNumber(86400))
	assert.Equal(t, 2, DayNumber(2*86400+100))
}

func TestNextMidnight(t *testing.T) {
	assert.Equal(t, 86400.0, NextMidnight(0))
	assert.Equal(t, 86400.0, NextMidnight(50000))
	assert.Equal(t, 2*86400.0, NextMidnight(86400))
}

func TestSimTimeFromHour(t *testing.T) {
	assert.Equal(t, 8*3600.0, SimTimeFromHour(0, 8))
	assert.Equal(t, 86400+14.5*3600, SimTimeFromHour(1, 14.5))
}

func TestHoursUntil_WrapsAcrossMidnight(t *testing.T) {
	assert.Equal(t, 4.0, HoursUntil(12, 8))
	assert.Equal(t, 20.0, HoursUntil(4, 8))
	assert.Equal(t, 24.0, HoursUntil(8, 8))
}

func TestSecondsUntilHour(t *testing.T) {
	// At 06:00, eight o'clock is two hours away.
	assert.Equal(t, 2*3600.0, SecondsUntilHour(6*3600, 8))
	// At 22:00, eight o'clock is ten hours away.
	assert.Equal(t, 10*3600.0, SecondsUntilHour(22*3600, 8))
}

func TestFormatSimTime(t *testing.T) {
	assert.Equal(t, "Day 1, 00:00", FormatSimTime(0))
	assert.Equal(t, "Day 1, 08:30", FormatSimTime(8.5*3600))
	assert.Equal(t, "Day 2, 12:00", FormatSimTime(86400+12*3600))
}
