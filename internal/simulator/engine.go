package simulator

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Status is the engine lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
)

// Observer receives the world and the event that was just processed.
type Observer func(w *World, ev Event)

// Result is the outcome of a finished run.
type Result struct {
	FinalState     Snapshot       `json:"final_state"`
	Metrics        MetricsSummary `json:"metrics"`
	EventCount     int            `json:"event_count"`
	SimulationTime float64        `json:"simulation_time"`
	Status         Status         `json:"status"`
}

// Engine owns the world, the scheduler and the run lifecycle. All exported
// methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	config    Config
	world     *World
	scheduler *Scheduler
	metrics   *MetricsCollector

	status     Status
	eventCount int
	observers  []Observer
}

// NewEngine builds an engine from a config. The engine is empty until
// Initialize is called.
func NewEngine(config Config) (*Engine, error) {
	e := &Engine{
		config:  config,
		metrics: NewMetricsCollector(),
		status:  StatusIdle,
	}
	if err := e.buildWorld(); err != nil {
		return nil, err
	}
	e.scheduler = NewScheduler(config.MaxDurationSeconds, config.RandomSeed)
	return e, nil
}

// buildWorld creates a fresh world wired to the engine's collaborators.
// Must be called with mu held (or before the engine is shared).
func (e *Engine) buildWorld() error {
	movement, err := e.resolveMovement(e.config.MovementStrategy)
	if err != nil {
		return err
	}

	w := NewWorld(e.config.GridWidth, e.config.GridHeight)
	w.Metrics = e.metrics
	w.Movement = movement
	w.StationSeeking = e.config.StationSeeking
	if w.StationSeeking == nil {
		w.StationSeeking = &GreedyStationSeeking{}
	}
	w.MetersPerGridUnit = e.config.MetersPerGridUnit
	w.TimeScale = e.config.TimeScale

	e.world = w
	return nil
}

func (e *Engine) resolveMovement(kind MovementStrategyType) (MovementStrategy, error) {
	if kind == "" {
		return &RandomWalkStrategy{}, nil
	}
	return NewMovementStrategy(kind)
}

func (e *Engine) resolveActivity(group GroupSpec) (ActivityStrategy, error) {
	switch group.ActivityStrategy {
	case "", ActivityAlwaysActive:
		if group.ActivityStrategy == "" {
			return nil, nil // world default
		}
		return &AlwaysActiveStrategy{}, nil
	case ActivityScheduled:
		return &ScheduledActivityStrategy{
			ActivityStartHour:   group.ActivityStartHour,
			ActivityEndHour:     group.ActivityEndHour,
			MaxDistancePerDayKm: group.MaxDistancePerDayKm,
			LowBatteryThreshold: group.LowBatteryThreshold,
			MetersPerGridUnit:   e.config.MetersPerGridUnit,
		}, nil
	default:
		return nil, fmt.Errorf("unknown activity strategy: %q", group.ActivityStrategy)
	}
}

// Initialize populates the world and schedules the bootstrap events.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ResetEventCounter()
	e.initStations()
	e.initBatteries()
	if err := e.initScooters(); err != nil {
		return err
	}
	e.scheduleInitialEvents()
	e.status = StatusIdle
	return nil
}

func (e *Engine) initStations() {
	positions := e.config.StationPositions
	if len(positions) == 0 {
		positions = e.generateStationPositions()
	}

	for i, pos := range positions {
		station := NewStation(
			fmt.Sprintf("station_%d", i),
			pos,
			e.config.SlotsPerStation,
			e.config.StationChargeRateKW,
		)
		e.world.AddStation(station)
	}
}

// generateStationPositions spreads stations over an even grid. Integer
// division keeps positions stable for a given config.
func (e *Engine) generateStationPositions() []Position {
	n := e.config.NumStations

	cols := 1
	for cols*cols <= n {
		cols++
	}
	rows := (n + cols - 1) / cols

	xStep := e.config.GridWidth / (cols + 1)
	yStep := e.config.GridHeight / (rows + 1)

	positions := make([]Position, 0, n)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if len(positions) >= n {
				break
			}
			positions = append(positions, Position{X: xStep * (col + 1), Y: yStep * (row + 1)})
		}
	}
	return positions
}

func (e *Engine) initBatteries() {
	batteryID := 0

	// Full batteries in station slots.
	for _, station := range e.world.StationsInOrder() {
		count := e.config.InitialBatteriesPerStation
		if count > station.NumSlots {
			count = station.NumSlots
		}
		for slotIdx := 0; slotIdx < count; slotIdx++ {
			b := &Battery{
				ID:               fmt.Sprintf("battery_%d", batteryID),
				CapacityKWh:      e.config.BatteryCapacityKWh,
				MaxChargeRateKW:  e.config.BatteryMaxChargeRateKW,
				CurrentChargeKWh: e.config.BatteryCapacityKWh,
				Location:         LocationInStation,
				StationID:        station.ID,
				SlotIndex:        slotIdx,
			}
			e.world.AddBattery(b)
			station.Slots[slotIdx].BatteryID = b.ID
			batteryID++
		}
	}

	// Scooter batteries start at 80% so swaps happen within the first day.
	for i := 0; i < e.config.TotalScooters(); i++ {
		b := &Battery{
			ID:               fmt.Sprintf("battery_%d", batteryID),
			CapacityKWh:      e.config.BatteryCapacityKWh,
			MaxChargeRateKW:  e.config.BatteryMaxChargeRateKW,
			CurrentChargeKWh: e.config.BatteryCapacityKWh * 0.8,
			Location:         LocationInScooter,
			ScooterID:        fmt.Sprintf("scooter_%d", i),
		}
		e.world.AddBattery(b)
		batteryID++
	}
}

func (e *Engine) initScooters() error {
	rng := e.scheduler.Rng()
	firstBattery := len(e.world.Batteries) - e.config.TotalScooters()

	if len(e.config.ScooterGroups) > 0 {
		return e.initScootersFromGroups(firstBattery)
	}

	for i := 0; i < e.config.NumScooters; i++ {
		sc := &Scooter{
			ID:              fmt.Sprintf("scooter_%d", i),
			Position:        Position{X: rng.Intn(e.config.GridWidth), Y: rng.Intn(e.config.GridHeight)},
			BatteryID:       fmt.Sprintf("battery_%d", firstBattery+i),
			State:           StateMoving,
			Speed:           e.config.ScooterSpeed,
			ConsumptionRate: e.config.ConsumptionRatePerUnit,
			SwapThreshold:   e.config.SwapThreshold,
		}
		e.world.AddScooter(sc)
	}
	return nil
}

func (e *Engine) initScootersFromGroups(firstBattery int) error {
	rng := e.scheduler.Rng()
	scooterIdx := 0

	for groupIdx, group := range e.config.ScooterGroups {
		var movement MovementStrategy
		if group.MovementStrategy != "" {
			m, err := NewMovementStrategy(group.MovementStrategy)
			if err != nil {
				return err
			}
			movement = m
		}
		activity, err := e.resolveActivity(group)
		if err != nil {
			return err
		}

		speed := e.config.ScooterSpeed
		if group.Speed != nil {
			speed = *group.Speed
		}
		threshold := e.config.SwapThreshold
		if group.SwapThreshold != nil {
			threshold = *group.SwapThreshold
		}

		for i := 0; i < group.Count; i++ {
			sc := &Scooter{
				ID:              fmt.Sprintf("scooter_%d", scooterIdx),
				Position:        Position{X: rng.Intn(e.config.GridWidth), Y: rng.Intn(e.config.GridHeight)},
				BatteryID:       fmt.Sprintf("battery_%d", firstBattery+scooterIdx),
				State:           StateMoving,
				Speed:           speed,
				ConsumptionRate: e.config.ConsumptionRatePerUnit,
				SwapThreshold:   threshold,
				GroupID:         fmt.Sprintf("group_%d", groupIdx),
				Movement:        movement,
				Activity:        activity,
			}
			e.world.AddScooter(sc)
			scooterIdx++
		}
	}

	groups := make([]GroupInfo, len(e.config.ScooterGroups))
	for i, g := range e.config.ScooterGroups {
		groups[i] = GroupInfo{
			ID:    fmt.Sprintf("group_%d", i),
			Name:  g.Name,
			Color: g.Color,
			Count: g.Count,
		}
	}
	e.world.ScooterGroups = groups
	return nil
}

func (e *Engine) scheduleInitialEvents() {
	for _, sc := range e.world.ScootersInOrder() {
		movementStrategyFor(sc, e.world).OnScooterActivated(sc, e.world, e.scheduler)
		f := scheduleMoveWithActivityCheck(sc, e.world, e.scheduler)
		e.scheduler.Schedule(f.Event, f.At)
	}

	for _, station := range e.world.StationsInOrder() {
		e.scheduler.Schedule(Event{Kind: EventBatteryChargingTick, StationID: station.ID}, ChargingTickInterval)
	}

	firstMidnight := NextMidnight(0)
	if firstMidnight < e.config.MaxDurationSeconds {
		e.scheduler.Schedule(Event{Kind: EventDailyReset, DayNumber: 1}, firstMidnight)
	}
}

// Step processes a single event. It returns false when the run is over,
// either because the queue drained or the horizon was reached.
func (e *Engine) Step() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step()
}

// step is Step without locking. Must be called with mu held.
func (e *Engine) step() bool {
	ev, at, ok := e.scheduler.Pop()
	if !ok {
		e.status = StatusCompleted
		return false
	}
	if at > e.config.MaxDurationSeconds {
		e.status = StatusCompleted
		return false
	}

	e.world.CurrentTime = at
	followups := processEvent(ev, e.world, e.scheduler)
	e.eventCount++
	e.scheduler.ScheduleMany(followups)

	e.metrics.Sample(at)
	e.notifyObservers(ev)
	return true
}

// RunSync drains the queue to completion on the calling goroutine.
func (e *Engine) RunSync() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.status = StatusRunning
	for e.status == StatusRunning {
		if !e.step() {
			break
		}
	}
	return e.buildResult()
}

// RunPaced runs the simulation throttled to wall-clock time. One simulated
// second takes 1/speed real seconds; sleeps are capped at 100ms so pause
// and stop stay responsive. onUpdate, when set, is invoked at most every
// updateInterval with a fresh snapshot.
func (e *Engine) RunPaced(speed float64, updateInterval time.Duration, onUpdate func(Snapshot)) Result {
	if speed <= 0 {
		speed = 1
	}

	e.mu.Lock()
	e.status = StatusRunning
	e.mu.Unlock()

	lastUpdate := time.Now()

	for {
		e.mu.Lock()
		if e.status != StatusRunning {
			res := e.buildResult()
			e.mu.Unlock()
			return res
		}

		next, ok := e.scheduler.PeekTime()
		if !ok || next > e.config.MaxDurationSeconds {
			e.status = StatusCompleted
			res := e.buildResult()
			e.mu.Unlock()
			return res
		}

		delay := time.Duration((next - e.world.CurrentTime) / speed * float64(time.Second))
		e.mu.Unlock()

		if delay > time.Millisecond {
			if delay > 100*time.Millisecond {
				delay = 100 * time.Millisecond
			}
			time.Sleep(delay)
			continue
		}

		e.mu.Lock()
		if e.status == StatusRunning {
			e.step()
		}
		e.mu.Unlock()

		if onUpdate != nil && time.Since(lastUpdate) >= updateInterval {
			onUpdate(e.Snapshot())
			lastUpdate = time.Now()
		}
	}
}

// setRunning flips the engine into the running state. Used by the
// manager's loop launcher.
func (e *Engine) setRunning() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusRunning
}

// Pause suspends a running simulation.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusRunning {
		e.status = StatusPaused
	}
}

// Resume continues a paused simulation.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusPaused {
		e.status = StatusRunning
	}
}

// Stop terminates the run.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusStopped
}

// Reset rebuilds the world and scheduler from the original config and
// re-runs initialization. A seeded config replays identically.
func (e *Engine) Reset() error {
	e.mu.Lock()
	e.metrics.Reset()
	if err := e.buildWorld(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.scheduler = NewScheduler(e.config.MaxDurationSeconds, e.config.RandomSeed)
	e.eventCount = 0
	e.mu.Unlock()

	return e.Initialize()
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CurrentTime returns the simulated clock.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.CurrentTime
}

// Tick returns the number of processed events.
func (e *Engine) Tick() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eventCount
}

// PendingEvents returns the queue depth.
func (e *Engine) PendingEvents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler.PendingCount()
}

// IsCompleted reports whether the run has ended.
func (e *Engine) IsCompleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status == StatusCompleted || e.status == StatusStopped
}

// Config returns a copy of the run config.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Snapshot returns a deep copy of the current world state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return takeSnapshot(e.world)
}

// CurrentMetrics returns the real-time metrics view.
func (e *Engine) CurrentMetrics() CurrentMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.Current()
}

// MetricsSummary returns the full aggregate metrics.
func (e *Engine) MetricsSummary() MetricsSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.Compile()
}

// SwapEventsForStation returns recorded swaps at one station.
func (e *Engine) SwapEventsForStation(stationID string) []SwapEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.SwapEventsForStation(stationID)
}

// Result compiles the current run outcome.
func (e *Engine) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildResult()
}

// buildResult must be called with mu held.
func (e *Engine) buildResult() Result {
	return Result{
		FinalState:     takeSnapshot(e.world),
		Metrics:        e.metrics.Compile(),
		EventCount:     e.eventCount,
		SimulationTime: e.world.CurrentTime,
		Status:         e.status,
	}
}

// AddObserver registers an observer invoked after every processed event.
func (e *Engine) AddObserver(obs Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

// notifyObservers must be called with mu held. A panicking observer is
// logged and skipped so it cannot take down the run.
func (e *Engine) notifyObservers(ev Event) {
	for _, obs := range e.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("observer error: %v", r)
				}
			}()
			obs(e.world, ev)
		}()
	}
}
