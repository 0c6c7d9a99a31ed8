package simulator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallConfig is a two-hour scenario with heavy consumption so swaps
// happen quickly.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.GridWidth = 20
	cfg.GridHeight = 20
	cfg.MaxDurationSeconds = 2 * 3600
	cfg.NumStations = 2
	cfg.SlotsPerStation = 4
	cfg.InitialBatteriesPerStation = 2
	cfg.NumScooters = 5
	cfg.ScooterSpeed = 0.1
	cfg.ConsumptionRatePerUnit = 0.05
	cfg.RandomSeed = int64Ptr(42)
	return cfg
}

func newInitializedEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	return e
}

func TestEngine_InitializeCreatesEntities(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	snap := e.Snapshot()

	require.Len(t, snap.Stations, 2)
	require.Len(t, snap.Scooters, 5)
	// 2 stations x 2 batteries, plus one per scooter.
	require.Len(t, snap.Batteries, 9)

	assert.Equal(t, "station_0", snap.Stations[0].ID)
	assert.Equal(t, "scooter_0", snap.Scooters[0].ID)
	assert.Equal(t, StateMoving, snap.Scooters[0].State)

	for _, station := range snap.Stations {
		assert.Equal(t, 2, station.AvailableBatteries)
		assert.Equal(t, 2, station.FullBatteries)
		assert.Equal(t, 2, station.EmptySlots)
	}
	for _, sc := range snap.Scooters {
		assert.InDelta(t, 0.8, sc.BatteryLevel, 1e-9)
	}
}

func TestEngine_InitializeKeepsScootersOnGrid(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())

	for _, sc := range e.Snapshot().Scooters {
		assert.GreaterOrEqual(t, sc.Position.X, 0)
		assert.Less(t, sc.Position.X, 20)
		assert.GreaterOrEqual(t, sc.Position.Y, 0)
		assert.Less(t, sc.Position.Y, 20)
	}
}

func TestEngine_AutoStationPlacement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomSeed = int64Ptr(1)
	e := newInitializedEngine(t, cfg)

	snap := e.Snapshot()
	require.Len(t, snap.Stations, 5)

	// Five stations on a 100x100 grid land on a 3-column layout.
	expected := []Position{{25, 33}, {50, 33}, {75, 33}, {25, 66}, {50, 66}}
	for i, station := range snap.Stations {
		assert.Equal(t, expected[i], station.Position)
	}
}

func TestEngine_ExplicitStationPositions(t *testing.T) {
	cfg := smallConfig()
	cfg.StationPositions = []Position{{X: 0, Y: 0}, {X: 19, Y: 19}}
	e := newInitializedEngine(t, cfg)

	snap := e.Snapshot()
	require.Len(t, snap.Stations, 2)
	assert.Equal(t, Position{X: 0, Y: 0}, snap.Stations[0].Position)
	assert.Equal(t, Position{X: 19, Y: 19}, snap.Stations[1].Position)
}

func TestEngine_ScooterGroups(t *testing.T) {
	fast := 0.2
	lowThreshold := 0.1

	cfg := smallConfig()
	cfg.ScooterGroups = []GroupSpec{
		{Name: "Couriers", Count: 2, Color: "#FF0000", Speed: &fast},
		{
			Name:                "Commuters",
			Count:               3,
			Color:               "#00FF00",
			SwapThreshold:       &lowThreshold,
			ActivityStrategy:    ActivityScheduled,
			ActivityStartHour:   8,
			ActivityEndHour:     20,
			LowBatteryThreshold: 0.3,
		},
	}
	e := newInitializedEngine(t, cfg)

	snap := e.Snapshot()
	require.Len(t, snap.Scooters, 5)
	require.Len(t, snap.ScooterGroups, 2)

	assert.Equal(t, "group_0", snap.ScooterGroups[0].ID)
	assert.Equal(t, "Couriers", snap.ScooterGroups[0].Name)
	assert.Equal(t, 2, snap.ScooterGroups[0].Count)
	assert.Equal(t, "#00FF00", snap.ScooterGroups[1].Color)

	assert.Equal(t, "group_0", snap.Scooters[0].GroupID)
	assert.Equal(t, 0.2, snap.Scooters[0].Speed)
	assert.Equal(t, "group_1", snap.Scooters[2].GroupID)
	assert.Equal(t, cfg.ScooterSpeed, snap.Scooters[2].Speed)
}

func TestEngine_UnknownGroupStrategyFails(t *testing.T) {
	cfg := smallConfig()
	cfg.ScooterGroups = []GroupSpec{{Name: "Bad", Count: 1, MovementStrategy: "warp"}}

	e, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Error(t, e.Initialize())
}

func TestEngine_StepAdvancesTimeMonotonically(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())

	last := 0.0
	for i := 0; i < 500; i++ {
		require.True(t, e.Step())
		now := e.CurrentTime()
		assert.GreaterOrEqual(t, now, last)
		last = now
	}
	assert.Equal(t, 500, e.Tick())
}

func TestEngine_RunSyncCompletes(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	result := e.RunSync()

	assert.Equal(t, StatusCompleted, result.Status)
	assert.LessOrEqual(t, result.SimulationTime, 2*3600.0)
	assert.Greater(t, result.EventCount, 0)
	assert.False(t, e.Step())
}

func TestEngine_RunPacedMatchesRunSync(t *testing.T) {
	// At a very high speed multiplier the inter-event delays collapse
	// below the sleep threshold, so the paced run processes the same
	// event sequence as the synchronous one.
	paced := newInitializedEngine(t, smallConfig()).RunPaced(1e9, time.Second, nil)
	direct := newInitializedEngine(t, smallConfig()).RunSync()

	assert.Equal(t, StatusCompleted, paced.Status)
	assert.Equal(t, direct.EventCount, paced.EventCount)
	assert.Equal(t, direct.SimulationTime, paced.SimulationTime)
	assert.Equal(t, direct.FinalState, paced.FinalState)
	assert.Equal(t, direct.Metrics.TotalSwaps, paced.Metrics.TotalSwaps)
}

func TestEngine_RunPacedStopIsResponsive(t *testing.T) {
	// At 0.1x the two-hour scenario would take twenty hours; the capped
	// sleep keeps Stop effective within a beat.
	e := newInitializedEngine(t, smallConfig())

	done := make(chan Result, 1)
	go func() {
		done <- e.RunPaced(0.1, time.Second, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	e.Stop()

	select {
	case result := <-done:
		assert.Equal(t, StatusStopped, result.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("paced run did not react to Stop")
	}
}

func TestEngine_HighDrainForcesSwaps(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	result := e.RunSync()

	assert.Greater(t, result.Metrics.TotalSwaps, 0)

	perStation := 0
	for _, n := range result.Metrics.SwapsPerStation {
		perStation += n
	}
	assert.Equal(t, result.Metrics.TotalSwaps, perStation)
}

func TestEngine_SameSeedSameOutcome(t *testing.T) {
	a := newInitializedEngine(t, smallConfig()).RunSync()
	b := newInitializedEngine(t, smallConfig()).RunSync()

	assert.Equal(t, a.EventCount, b.EventCount)
	assert.Equal(t, a.SimulationTime, b.SimulationTime)
	assert.Equal(t, a.FinalState, b.FinalState)
	assert.Equal(t, a.Metrics.TotalSwaps, b.Metrics.TotalSwaps)
	assert.Equal(t, a.Metrics.TotalMisses, b.Metrics.TotalMisses)
}

func TestEngine_SameSeedSamePerStepPositions(t *testing.T) {
	trace := func() [][]Position {
		e := newInitializedEngine(t, smallConfig())

		var steps [][]Position
		e.AddObserver(func(w *World, ev Event) {
			positions := make([]Position, 0, len(w.Scooters))
			for _, sc := range w.ScootersInOrder() {
				positions = append(positions, sc.Position)
			}
			steps = append(steps, positions)
		})

		for i := 0; i < 100; i++ {
			require.True(t, e.Step())
		}
		return steps
	}

	assert.Equal(t, trace(), trace())
}

func TestEngine_DifferentSeedsDiverge(t *testing.T) {
	outcomes := make(map[[2]int]bool)
	for _, seed := range []int64{1, 42, 1337, 99999} {
		cfg := smallConfig()
		cfg.RandomSeed = int64Ptr(seed)
		result := newInitializedEngine(t, cfg).RunSync()
		outcomes[[2]int{result.EventCount, result.Metrics.TotalSwaps}] = true
	}
	assert.Greater(t, len(outcomes), 1)
}

func TestEngine_MinimalRunCompletes(t *testing.T) {
	cfg := Config{
		GridWidth:                  10,
		GridHeight:                 10,
		MaxDurationSeconds:         600,
		MetersPerGridUnit:          100,
		TimeScale:                  60,
		NumStations:                1,
		SlotsPerStation:            1,
		StationChargeRateKW:        1.3,
		InitialBatteriesPerStation: 1,
		NumScooters:                1,
		ScooterSpeed:               1.0,
		SwapThreshold:              0.3,
		BatteryCapacityKWh:         1.0,
		BatteryMaxChargeRateKW:     1.3,
		ConsumptionRatePerUnit:     0.05,
		RandomSeed:                 int64Ptr(42),
	}

	e := newInitializedEngine(t, cfg)
	result := e.RunSync()

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Greater(t, result.EventCount, 0)
}

func TestEngine_ScheduledGroupIdlesUntilWindow(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxDurationSeconds = 10 * 3600
	cfg.ScooterGroups = []GroupSpec{
		{
			Name:                "Daytime",
			Count:               1,
			ActivityStrategy:    ActivityScheduled,
			ActivityStartHour:   8,
			ActivityEndHour:     20,
			LowBatteryThreshold: 0.3,
		},
	}
	e := newInitializedEngine(t, cfg)

	// Midnight is outside the window, so the scooter idles immediately.
	require.True(t, e.Step())
	snap := e.Snapshot()
	assert.Equal(t, StateIdle, snap.Scooters[0].State)

	for e.CurrentTime() < 8*3600 {
		require.True(t, e.Step())
	}
	assert.Equal(t, 8*3600.0, e.CurrentTime())
	assert.Equal(t, StateMoving, e.Snapshot().Scooters[0].State)
}

func TestEngine_PauseAndResume(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())

	e.setRunning()
	e.Pause()
	assert.Equal(t, StatusPaused, e.Status())

	e.Resume()
	assert.Equal(t, StatusRunning, e.Status())

	e.Stop()
	assert.Equal(t, StatusStopped, e.Status())
	assert.True(t, e.IsCompleted())
}

func TestEngine_ResetReplaysIdentically(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	first := e.RunSync()

	require.NoError(t, e.Reset())
	assert.Equal(t, StatusIdle, e.Status())
	assert.Equal(t, 0, e.Tick())
	assert.Equal(t, 0.0, e.CurrentTime())
	assert.Equal(t, 0, e.CurrentMetrics().TotalSwaps)

	second := e.RunSync()
	assert.Equal(t, first.EventCount, second.EventCount)
	assert.Equal(t, first.FinalState, second.FinalState)
}

func TestEngine_ObserversSeeEveryEvent(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())

	var seen int
	e.AddObserver(func(w *World, ev Event) { seen++ })
	e.AddObserver(func(w *World, ev Event) { panic("broken observer") })

	for i := 0; i < 50; i++ {
		require.True(t, e.Step())
	}
	assert.Equal(t, 50, seen)
}

func TestEngine_ChargingTicksScheduledPerStation(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())

	// 5 initial moves + 2 charging ticks + 1 daily reset... the daily
	// reset is skipped because the horizon is under a day.
	assert.Equal(t, 7, e.PendingEvents())
}

func TestEngine_DailyResetScheduledForLongRuns(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxDurationSeconds = 3 * 86400
	e := newInitializedEngine(t, cfg)

	assert.Equal(t, 8, e.PendingEvents())
}

func TestEngine_FullStationProducesNoBatteryMisses(t *testing.T) {
	// A station whose slots are all occupied has nowhere to accept a
	// depleted battery, so every arrival is a miss.
	cfg := smallConfig()
	cfg.NumStations = 1
	cfg.SlotsPerStation = 2
	cfg.InitialBatteriesPerStation = 2
	cfg.MaxDurationSeconds = 4 * 3600

	result := newInitializedEngine(t, cfg).RunSync()

	assert.Greater(t, result.Metrics.NoBatteryMisses, 0)
	assert.Equal(t, 0, result.Metrics.TotalSwaps)

	waiting := 0
	for _, sc := range result.FinalState.Scooters {
		if sc.State == StateWaitingForBattery {
			waiting++
		}
	}
	assert.Greater(t, waiting, 0)
}

func TestEngine_EmptyStationOpensWaitClock(t *testing.T) {
	// A station that starts with no batteries records a no-battery miss
	// for every arrival and parks the scooter. Stations only gain
	// batteries through swaps, so nothing ever closes the wait clocks:
	// no swaps, no wait durations, waiters stuck.
	cfg := smallConfig()
	cfg.NumStations = 1
	cfg.SlotsPerStation = 2
	cfg.InitialBatteriesPerStation = 0
	cfg.MaxDurationSeconds = 4 * 3600

	result := newInitializedEngine(t, cfg).RunSync()

	assert.Greater(t, result.Metrics.NoBatteryMisses, 0)
	assert.Equal(t, 0, result.Metrics.TotalSwaps)
	assert.Equal(t, 0.0, result.Metrics.AverageWaitTime)
	assert.Equal(t, 0.0, result.Metrics.MaxWaitTime)

	waiting := 0
	for _, sc := range result.FinalState.Scooters {
		if sc.State == StateWaitingForBattery {
			waiting++
		}
	}
	assert.Greater(t, waiting, 0)
}

func TestEngine_ResultSnapshotIsDetached(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	snap := e.Snapshot()

	for i := 0; i < 100; i++ {
		require.True(t, e.Step())
	}

	assert.Equal(t, 0.0, snap.CurrentTime)
	assert.NotEqual(t, snap, e.Snapshot())
}

func TestEngine_BatteryIDsAreSequential(t *testing.T) {
	e := newInitializedEngine(t, smallConfig())
	snap := e.Snapshot()

	for i, b := range snap.Batteries {
		assert.Equal(t, fmt.Sprintf("battery_%d", i), b.ID)
	}
	// Station batteries come first, then scooter batteries.
	assert.Equal(t, LocationInStation, snap.Batteries[0].Location)
	assert.Equal(t, LocationInScooter, snap.Batteries[4].Location)
}
