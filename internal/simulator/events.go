package simulator

import "fmt"

// SwapDuration is the simulated seconds a battery swap takes.
const SwapDuration = 30.0

// ChargingTickInterval is the default spacing of per-station charge ticks.
const ChargingTickInterval = 60.0

// EventKind tags the event union.
type EventKind int

const (
	EventScooterMove EventKind = iota
	EventScooterArriveAtStation
	EventBatterySwap
	EventBatteryChargingTick
	EventBatteryFullyCharged
	EventScooterGoIdle
	EventScooterWakeUp
	EventScooterSwapThenIdle
	EventDailyReset
)

func (k EventKind) String() string {
	switch k {
	case EventScooterMove:
		return "scooter_move"
	case EventScooterArriveAtStation:
		return "scooter_arrive_at_station"
	case EventBatterySwap:
		return "battery_swap"
	case EventBatteryChargingTick:
		return "battery_charging_tick"
	case EventBatteryFullyCharged:
		return "battery_fully_charged"
	case EventScooterGoIdle:
		return "scooter_go_idle"
	case EventScooterWakeUp:
		return "scooter_wake_up"
	case EventScooterSwapThenIdle:
		return "scooter_swap_then_idle"
	case EventDailyReset:
		return "daily_reset"
	default:
		return "unknown"
	}
}

// Event is a plain-value tagged union. Only the fields relevant to the
// Kind are populated; the queue holds these by value so enqueueing never
// allocates behind an interface.
type Event struct {
	Kind EventKind

	ScooterID string
	StationID string
	BatteryID string

	NewPosition Position

	TakeFromSlot  int
	DepositToSlot int
	SlotIndex     int

	TickInterval float64
	WakeUpTime   float64
	Reason       string
	DayNumber    int
}

// Followup is an event to enqueue at an absolute simulated time.
type Followup struct {
	Event Event
	At    float64
}

// Description renders the event for logs and observer hooks.
func (e Event) Description() string {
	switch e.Kind {
	case EventScooterMove:
		return fmt.Sprintf("scooter %s moved to (%d, %d)", e.ScooterID, e.NewPosition.X, e.NewPosition.Y)
	case EventScooterArriveAtStation:
		return fmt.Sprintf("scooter %s arrived at station %s", e.ScooterID, e.StationID)
	case EventBatterySwap:
		return fmt.Sprintf("scooter %s swapped battery at station %s", e.ScooterID, e.StationID)
	case EventBatteryChargingTick:
		return fmt.Sprintf("charging tick at station %s", e.StationID)
	case EventBatteryFullyCharged:
		return fmt.Sprintf("battery %s fully charged at station %s", e.BatteryID, e.StationID)
	case EventScooterGoIdle:
		return fmt.Sprintf("scooter %s going idle: %s", e.ScooterID, e.Reason)
	case EventScooterWakeUp:
		return fmt.Sprintf("scooter %s waking from idle", e.ScooterID)
	case EventScooterSwapThenIdle:
		return fmt.Sprintf("scooter %s swapping then idle: %s", e.ScooterID, e.Reason)
	case EventDailyReset:
		return fmt.Sprintf("daily reset for day %d", e.DayNumber)
	default:
		return "unknown event"
	}
}

// processEvent dispatches on the event kind, mutates the world, and returns
// the followup events to enqueue. A missing entity means the event is
// silently dropped; a single bad event must never take down the run.
func processEvent(ev Event, w *World, sched *Scheduler) []Followup {
	switch ev.Kind {
	case EventScooterMove:
		return processScooterMove(ev, w, sched)
	case EventScooterArriveAtStation:
		return processArriveAtStation(ev, w, sched)
	case EventBatterySwap:
		return processBatterySwap(ev, w, sched)
	case EventBatteryChargingTick:
		return processChargingTick(ev, w, sched)
	case EventBatteryFullyCharged:
		return processBatteryFullyCharged(ev, w, sched)
	case EventScooterGoIdle:
		return processGoIdle(ev, w, sched)
	case EventScooterWakeUp:
		return processWakeUp(ev, w, sched)
	case EventScooterSwapThenIdle:
		return processSwapThenIdle(ev, w, sched)
	case EventDailyReset:
		return processDailyReset(ev, w, sched)
	default:
		return nil
	}
}

// scheduleMove builds the next free-roam move for a scooter using its
// movement strategy. Zero-distance destinations still advance the clock by
// 0.1s so the queue cannot live-lock on a stationary scooter.
func scheduleMove(sc *Scooter, w *World, sched *Scheduler) Followup {
	strategy := movementStrategyFor(sc, w)
	next := strategy.NextDestination(sc, w, sched)

	distance := sc.Position.Distance(next)
	travelTime := 0.1
	if distance > 0 {
		travelTime = sc.TravelTime(distance)
	}

	return Followup{
		Event: Event{Kind: EventScooterMove, ScooterID: sc.ID, NewPosition: next},
		At:    w.CurrentTime + travelTime,
	}
}

// scheduleMoveTowardStation builds the next station-seeking step.
func scheduleMoveTowardStation(sc *Scooter, w *World, sched *Scheduler) Followup {
	if !sc.HasTarget {
		return scheduleMove(sc, w, sched)
	}

	next := stationSeekingFor(w).NextStepTowardStation(sc, w, sched)

	distance := sc.Position.Distance(next)
	travelTime := 0.0
	if distance > 0 {
		travelTime = sc.TravelTime(distance)
	}

	return Followup{
		Event: Event{Kind: EventScooterMove, ScooterID: sc.ID, NewPosition: next},
		At:    w.CurrentTime + travelTime,
	}
}

// scheduleMoveWithActivityCheck consults the activity strategy before
// scheduling a free-roam move. Inactive scooters get a go-idle or
// swap-then-idle event at the current time instead.
func scheduleMoveWithActivityCheck(sc *Scooter, w *World, sched *Scheduler) Followup {
	result := activityStrategyFor(sc, w).CheckActivity(sc, w, sched)

	switch result.Decision {
	case DecisionGoIdle:
		return Followup{
			Event: Event{Kind: EventScooterGoIdle, ScooterID: sc.ID, WakeUpTime: result.WakeUpTime, Reason: result.Reason},
			At:    w.CurrentTime,
		}
	case DecisionSwapThenIdle:
		return Followup{
			Event: Event{Kind: EventScooterSwapThenIdle, ScooterID: sc.ID, WakeUpTime: result.WakeUpTime, Reason: result.Reason},
			At:    w.CurrentTime,
		}
	default:
		return scheduleMove(sc, w, sched)
	}
}

func processScooterMove(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	if sc == nil {
		return nil
	}
	battery := w.Battery(sc.BatteryID)
	if battery == nil {
		return nil
	}

	distance := sc.Position.Distance(ev.NewPosition)
	battery.ConsumeEnergy(distance * sc.ConsumptionRate)
	sc.DistanceTraveledToday += distance
	sc.Position = ev.NewPosition

	// Low battery while free-roaming: divert to the nearest station.
	if sc.State == StateMoving && sc.NeedsSwap(battery.ChargeLevel()) {
		if nearest := w.NearestStation(sc.Position); nearest != nil {
			sc.State = StateTravelingToStation
			sc.SetTarget(nearest.ID, nearest.Position)
		}
	}

	switch sc.State {
	case StateMoving:
		return []Followup{scheduleMoveWithActivityCheck(sc, w, sched)}

	case StateTravelingToStation:
		if sc.HasTarget && sc.Position == sc.TargetPosition {
			return []Followup{{
				Event: Event{Kind: EventScooterArriveAtStation, ScooterID: sc.ID, StationID: sc.TargetStationID},
				At:    w.CurrentTime,
			}}
		}
		return []Followup{scheduleMoveTowardStation(sc, w, sched)}
	}

	return nil
}

func processArriveAtStation(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	station := w.Station(ev.StationID)
	if sc == nil || station == nil {
		return nil
	}

	bestSlot := station.BestBatterySlot(w.Batteries)
	emptySlot := station.FirstEmptySlot()

	if bestSlot >= 0 && emptySlot >= 0 {
		sc.State = StateSwapping
		return []Followup{{
			Event: Event{
				Kind:          EventBatterySwap,
				ScooterID:     ev.ScooterID,
				StationID:     ev.StationID,
				TakeFromSlot:  bestSlot,
				DepositToSlot: emptySlot,
			},
			At: w.CurrentTime + SwapDuration,
		}}
	}

	// Nothing to take: wait for a BatteryFullyChargedEvent at this station.
	sc.State = StateWaitingForBattery
	if w.Metrics != nil {
		w.Metrics.RecordNoBatteryMiss(w.CurrentTime, ev.ScooterID, ev.StationID)
	}
	return nil
}

func processBatterySwap(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	station := w.Station(ev.StationID)
	if sc == nil || station == nil {
		return nil
	}

	oldBatteryID := sc.BatteryID
	takeSlot := station.Slot(ev.TakeFromSlot)
	depositSlot := station.Slot(ev.DepositToSlot)
	if depositSlot == nil {
		return nil
	}

	if takeSlot == nil || takeSlot.BatteryID == "" {
		// Another scooter got the pre-selected battery during the swap
		// window; re-select and wait out another swap duration.
		newBest := station.BestBatterySlot(w.Batteries)
		newEmpty := station.FirstEmptySlot()

		if newBest >= 0 && newEmpty >= 0 {
			return []Followup{{
				Event: Event{
					Kind:          EventBatterySwap,
					ScooterID:     ev.ScooterID,
					StationID:     ev.StationID,
					TakeFromSlot:  newBest,
					DepositToSlot: newEmpty,
				},
				At: w.CurrentTime + SwapDuration,
			}}
		}

		sc.State = StateWaitingForBattery
		if w.Metrics != nil {
			w.Metrics.RecordNoBatteryMiss(w.CurrentTime, ev.ScooterID, ev.StationID)
		}
		return nil
	}

	newBatteryID := takeSlot.BatteryID
	oldBattery := w.Battery(oldBatteryID)
	newBattery := w.Battery(newBatteryID)
	if oldBattery == nil || newBattery == nil {
		return nil
	}

	oldLevel := oldBattery.ChargeLevel()
	newLevel := newBattery.ChargeLevel()

	// Deposit the depleted battery.
	oldBattery.Location = LocationInStation
	oldBattery.StationID = ev.StationID
	oldBattery.SlotIndex = ev.DepositToSlot
	oldBattery.ScooterID = ""
	depositSlot.BatteryID = oldBatteryID
	depositSlot.IsCharging = true

	// Take the fresh battery.
	newBattery.Location = LocationInScooter
	newBattery.ScooterID = ev.ScooterID
	newBattery.StationID = ""
	newBattery.SlotIndex = 0
	takeSlot.BatteryID = ""
	takeSlot.IsCharging = false

	sc.BatteryID = newBatteryID
	sc.State = StateMoving
	sc.ClearTarget()

	if w.Metrics != nil {
		w.Metrics.RecordSwap(w.CurrentTime, ev.ScooterID, ev.StationID, oldLevel, newLevel)
	}

	var followups []Followup

	if !oldBattery.IsFull() {
		chargeTime := oldBattery.TimeToFullCharge(station.ChargeRateKW)
		followups = append(followups, Followup{
			Event: Event{
				Kind:      EventBatteryFullyCharged,
				BatteryID: oldBatteryID,
				StationID: ev.StationID,
				SlotIndex: ev.DepositToSlot,
			},
			At: w.CurrentTime + chargeTime,
		})
	}

	if sc.IdleUntil != 0 {
		// Pre-idle swap flow: the go-idle event re-stamps IdleUntil.
		wakeUpTime := sc.IdleUntil
		sc.IdleUntil = 0
		followups = append(followups, Followup{
			Event: Event{Kind: EventScooterGoIdle, ScooterID: ev.ScooterID, WakeUpTime: wakeUpTime, Reason: "post-swap idle"},
			At:    w.CurrentTime,
		})
	} else {
		movementStrategyFor(sc, w).OnScooterActivated(sc, w, sched)
		followups = append(followups, scheduleMoveWithActivityCheck(sc, w, sched))
	}

	return followups
}

func processChargingTick(ev Event, w *World, sched *Scheduler) []Followup {
	station := w.Station(ev.StationID)
	if station == nil {
		return nil
	}

	interval := ev.TickInterval
	if interval <= 0 {
		interval = ChargingTickInterval
	}

	for i := range station.Slots {
		slot := &station.Slots[i]
		if slot.BatteryID == "" || !slot.IsCharging {
			continue
		}
		battery := w.Battery(slot.BatteryID)
		if battery == nil || battery.IsFull() {
			continue
		}
		// The tick only advances the displayed charge; the per-battery
		// fully-charged event remains the authoritative completion signal.
		battery.AddCharge(station.ChargeRateKW * interval / 3600)
	}

	nextTick := w.CurrentTime + interval
	if nextTick < sched.MaxTime() {
		return []Followup{{
			Event: Event{Kind: EventBatteryChargingTick, StationID: ev.StationID, TickInterval: interval},
			At:    nextTick,
		}}
	}
	return nil
}

func processBatteryFullyCharged(ev Event, w *World, sched *Scheduler) []Followup {
	battery := w.Battery(ev.BatteryID)
	station := w.Station(ev.StationID)
	if battery == nil || station == nil {
		return nil
	}

	battery.CurrentChargeKWh = battery.CapacityKWh
	if slot := station.Slot(ev.SlotIndex); slot != nil {
		slot.IsCharging = false
	}

	// Wake exactly one waiting scooter; creation order makes the pick
	// deterministic.
	for _, sc := range w.ScootersInOrder() {
		if sc.State != StateWaitingForBattery || sc.TargetStationID != ev.StationID {
			continue
		}
		emptySlot := station.FirstEmptySlot()
		if emptySlot < 0 {
			break
		}
		sc.State = StateSwapping
		return []Followup{{
			Event: Event{
				Kind:          EventBatterySwap,
				ScooterID:     sc.ID,
				StationID:     ev.StationID,
				TakeFromSlot:  ev.SlotIndex,
				DepositToSlot: emptySlot,
			},
			At: w.CurrentTime + SwapDuration,
		}}
	}
	return nil
}

func processGoIdle(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	if sc == nil {
		return nil
	}

	sc.State = StateIdle
	sc.IdleUntil = ev.WakeUpTime
	sc.ClearTarget()

	return []Followup{{
		Event: Event{Kind: EventScooterWakeUp, ScooterID: ev.ScooterID},
		At:    ev.WakeUpTime,
	}}
}

func processWakeUp(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	if sc == nil || sc.State != StateIdle {
		return nil
	}

	strategy := activityStrategyFor(sc, w)

	if !strategy.ShouldWakeUp(sc, w, w.CurrentTime) {
		// Stale wake-up; ask the strategy when to try again.
		result := strategy.CheckActivity(sc, w, sched)
		if result.WakeUpTime > 0 {
			return []Followup{{
				Event: Event{Kind: EventScooterWakeUp, ScooterID: ev.ScooterID},
				At:    result.WakeUpTime,
			}}
		}
		return nil
	}

	sc.State = StateMoving
	sc.IdleUntil = 0
	movementStrategyFor(sc, w).OnScooterActivated(sc, w, sched)
	return []Followup{scheduleMove(sc, w, sched)}
}

func processSwapThenIdle(ev Event, w *World, sched *Scheduler) []Followup {
	sc := w.Scooter(ev.ScooterID)
	if sc == nil {
		return nil
	}

	// Stash the wake time; the swap completion detects it and emits the
	// final go-idle.
	sc.IdleUntil = ev.WakeUpTime

	nearest := w.NearestStation(sc.Position)
	if nearest == nil {
		return []Followup{{
			Event: Event{Kind: EventScooterGoIdle, ScooterID: ev.ScooterID, WakeUpTime: ev.WakeUpTime, Reason: ev.Reason},
			At:    w.CurrentTime,
		}}
	}

	sc.State = StateTravelingToStation
	sc.SetTarget(nearest.ID, nearest.Position)
	return []Followup{scheduleMoveTowardStation(sc, w, sched)}
}

func processDailyReset(ev Event, w *World, sched *Scheduler) []Followup {
	var followups []Followup

	for _, sc := range w.ScootersInOrder() {
		strategy := activityStrategyFor(sc, w)
		strategy.OnDayReset(sc, w, ev.DayNumber)

		if sc.State != StateIdle {
			continue
		}
		if !strategy.ShouldWakeUp(sc, w, w.CurrentTime) {
			continue
		}
		sc.State = StateMoving
		sc.IdleUntil = 0
		movementStrategyFor(sc, w).OnScooterActivated(sc, w, sched)
		followups = append(followups, scheduleMove(sc, w, sched))
	}

	nextMidnight := NextMidnight(w.CurrentTime)
	if nextMidnight < sched.MaxTime() {
		followups = append(followups, Followup{
			Event: Event{Kind: EventDailyReset, DayNumber: ev.DayNumber + 1},
			At:    nextMidnight,
		})
	}

	return followups
}
