package simulator

import "fmt"

// ActivityStrategyType names the built-in activity strategies.
type ActivityStrategyType string

const (
	ActivityAlwaysActive ActivityStrategyType = "always_active"
	ActivityScheduled    ActivityStrategyType = "scheduled"
)

// ActivityDecision is the outcome of an activity check.
type ActivityDecision string

const (
	DecisionContinueActive ActivityDecision = "continue_active"
	DecisionGoIdle         ActivityDecision = "go_idle"
	DecisionSwapThenIdle   ActivityDecision = "swap_then_idle"
)

// ActivityCheckResult carries an activity decision plus the wake-up time
// for idle decisions.
type ActivityCheckResult struct {
	Decision   ActivityDecision
	Reason     string
	WakeUpTime float64 // simulated time; 0 = unset
}

// ActivityStrategy gates whether a scooter is allowed to be active.
type ActivityStrategy interface {
	// CheckActivity is consulted before scheduling new movement.
	CheckActivity(sc *Scooter, w *World, sched *Scheduler) ActivityCheckResult

	// ShouldWakeUp is consulted when an idle scooter's wake event fires.
	ShouldWakeUp(sc *Scooter, w *World, currentTime float64) bool

	// OnDayReset is called for every scooter at each midnight boundary.
	OnDayReset(sc *Scooter, w *World, day int)
}

var defaultActivityStrategy ActivityStrategy = &AlwaysActiveStrategy{}

// activityStrategyFor resolves the strategy for a scooter: per-scooter
// override, then world default, then always-active.
func activityStrategyFor(sc *Scooter, w *World) ActivityStrategy {
	if sc.Activity != nil {
		return sc.Activity
	}
	if w.Activity != nil {
		return w.Activity
	}
	return defaultActivityStrategy
}

// AlwaysActiveStrategy keeps scooters active around the clock.
type AlwaysActiveStrategy struct{}

func (a *AlwaysActiveStrategy) CheckActivity(sc *Scooter, w *World, sched *Scheduler) ActivityCheckResult {
	return ActivityCheckResult{Decision: DecisionContinueActive, Reason: "always active"}
}

func (a *AlwaysActiveStrategy) ShouldWakeUp(sc *Scooter, w *World, currentTime float64) bool {
	return true
}

func (a *AlwaysActiveStrategy) OnDayReset(sc *Scooter, w *World, day int) {
	sc.DistanceTraveledToday = 0
}

// ScheduledActivityStrategy keeps scooters active inside a daily time
// window and under an optional daily distance cap. Scooters below the low
// battery threshold swap before going idle so they wake up ready.
type ScheduledActivityStrategy struct {
	ActivityStartHour   float64
	ActivityEndHour     float64
	MaxDistancePerDayKm *float64 // nil = unlimited
	LowBatteryThreshold float64
	MetersPerGridUnit   float64
}

// NewScheduledActivityStrategy returns a strategy with the stock 08:00-20:00
// window.
func NewScheduledActivityStrategy() *ScheduledActivityStrategy {
	return &ScheduledActivityStrategy{
		ActivityStartHour:   8,
		ActivityEndHour:     20,
		LowBatteryThreshold: 0.3,
		MetersPerGridUnit:   100,
	}
}

// withinActiveHours handles both normal and overnight windows; the window
// is [start, end).
func (s *ScheduledActivityStrategy) withinActiveHours(hourOfDay float64) bool {
	if s.ActivityStartHour <= s.ActivityEndHour {
		return hourOfDay >= s.ActivityStartHour && hourOfDay < s.ActivityEndHour
	}
	return hourOfDay >= s.ActivityStartHour || hourOfDay < s.ActivityEndHour
}

func (s *ScheduledActivityStrategy) distanceKm(gridUnits float64) float64 {
	return gridUnits * s.MetersPerGridUnit / 1000
}

func (s *ScheduledActivityStrategy) exceededDailyDistance(sc *Scooter) bool {
	if s.MaxDistancePerDayKm == nil {
		return false
	}
	return s.distanceKm(sc.DistanceTraveledToday) >= *s.MaxDistancePerDayKm
}

// wakeUpTime computes when an idle scooter should wake. Outside the window
// it wakes at the next activity start; over the distance cap it wakes at
// midnight plus the activity start hour.
func (s *ScheduledActivityStrategy) wakeUpTime(currentTime float64, outsideHours bool) float64 {
	hourOfDay := HourOfDay(currentTime)

	var hoursUntilWake float64
	if outsideHours {
		if hourOfDay >= s.ActivityEndHour {
			hoursUntilWake = (24 - hourOfDay) + s.ActivityStartHour
		} else {
			hoursUntilWake = s.ActivityStartHour - hourOfDay
		}
	} else {
		hoursUntilWake = (24 - hourOfDay) + s.ActivityStartHour
	}

	return currentTime + hoursUntilWake*3600
}

func (s *ScheduledActivityStrategy) CheckActivity(sc *Scooter, w *World, sched *Scheduler) ActivityCheckResult {
	currentTime := w.CurrentTime
	hourOfDay := HourOfDay(currentTime)

	if !s.withinActiveHours(hourOfDay) {
		wake := s.wakeUpTime(currentTime, true)
		if battery := w.Battery(sc.BatteryID); battery != nil && battery.ChargeLevel() < s.LowBatteryThreshold {
			return ActivityCheckResult{
				Decision:   DecisionSwapThenIdle,
				Reason:     fmt.Sprintf("outside active hours (%.1fh), low battery", hourOfDay),
				WakeUpTime: wake,
			}
		}
		return ActivityCheckResult{
			Decision:   DecisionGoIdle,
			Reason:     fmt.Sprintf("outside active hours (%.1fh)", hourOfDay),
			WakeUpTime: wake,
		}
	}

	if s.exceededDailyDistance(sc) {
		wake := s.wakeUpTime(currentTime, false)
		if battery := w.Battery(sc.BatteryID); battery != nil && battery.ChargeLevel() < s.LowBatteryThreshold {
			return ActivityCheckResult{
				Decision:   DecisionSwapThenIdle,
				Reason:     "daily distance limit reached, low battery",
				WakeUpTime: wake,
			}
		}
		return ActivityCheckResult{
			Decision:   DecisionGoIdle,
			Reason:     "daily distance limit reached",
			WakeUpTime: wake,
		}
	}

	return ActivityCheckResult{Decision: DecisionContinueActive, Reason: "within active hours and distance limit"}
}

func (s *ScheduledActivityStrategy) ShouldWakeUp(sc *Scooter, w *World, currentTime float64) bool {
	if sc.IdleUntil == 0 || currentTime < sc.IdleUntil {
		return false
	}
	if !s.withinActiveHours(HourOfDay(currentTime)) {
		return false
	}
	return !s.exceededDailyDistance(sc)
}

func (s *ScheduledActivityStrategy) OnDayReset(sc *Scooter, w *World, day int) {
	sc.DistanceTraveledToday = 0
}
