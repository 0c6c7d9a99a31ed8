package simulator

import (
	"fmt"
	"math"
)

// Simulation time directly encodes time-of-day in the simulated world:
// t=0 is midnight of day 0, t=3600 is 01:00, t=86400 is midnight of day 1.
// TimeScale never enters these conversions; it only paces wall-clock replay.

// HourOfDay returns the hour-of-day (0-24) for a simulated time.
func HourOfDay(simulationTime float64) float64 {
	return math.Mod(simulationTime/3600, 24)
}

// DayNumber returns the 0-indexed day for a simulated time.
func DayNumber(simulationTime float64) int {
	return int(simulationTime / 3600 / 24)
}

// NextMidnight returns the simulated time of the next midnight boundary.
func NextMidnight(simulationTime float64) float64 {
	return float64(DayNumber(simulationTime)+1) * 24 * 3600
}

// SimTimeFromHour converts a (day, hour) pair to simulated seconds.
func SimTimeFromHour(day int, hour float64) float64 {
	return (float64(day)*24 + hour) * 3600
}

// HoursUntil returns the hours from currentHour to targetHour, wrapping
// across midnight.
func HoursUntil(targetHour, currentHour float64) float64 {
	if targetHour > currentHour {
		return targetHour - currentHour
	}
	return (24 - currentHour) + targetHour
}

// SecondsUntilHour returns simulated seconds from a simulated time to the
// next occurrence of targetHour.
func SecondsUntilHour(simulationTime, targetHour float64) float64 {
	return HoursUntil(targetHour, HourOfDay(simulationTime)) * 3600
}

// FormatSimTime renders a simulated time as "Day 1, 08:30".
func FormatSimTime(simulationTime float64) string {
	day := DayNumber(simulationTime)
	hourOfDay := HourOfDay(simulationTime)
	hour := int(hourOfDay)
	minute := int((hourOfDay - float64(hour)) * 60)
	return fmt.Sprintf("Day %d, %02d:%02d", day+1, hour, minute)
}
