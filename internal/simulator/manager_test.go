package simulator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configuredManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	require.NoError(t, m.SetConfig(smallConfig()))
	return m
}

func TestManager_StartWithoutConfig(t *testing.T) {
	m := NewManager()
	_, err := m.Start()
	assert.ErrorIs(t, err, ErrNoConfig)
	assert.Equal(t, StatusIdle, m.Status())
}

func TestManager_SetConfigInitializesEngine(t *testing.T) {
	m := configuredManager(t)

	assert.Equal(t, StatusIdle, m.Status())

	snap, ok := m.Snapshot()
	require.True(t, ok)
	assert.Len(t, snap.Snapshot.Scooters, 5)
	assert.Equal(t, 0.0, snap.SimulationTime)

	cfg, ok := m.Config()
	require.True(t, ok)
	assert.Equal(t, 5, cfg.NumScooters)
}

func TestManager_StartAssignsSessionID(t *testing.T) {
	m := configuredManager(t)
	defer m.Stop()

	assert.Empty(t, m.SessionID())

	id, err := m.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, m.SessionID())

	_, err = m.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestManager_ConcurrentStartLaunchesOneLoop(t *testing.T) {
	m := configuredManager(t)
	defer m.Stop()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Start()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	started := 0
	for err := range errs {
		if err == nil {
			started++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyRunning)
		}
	}
	assert.Equal(t, 1, started)

	// The single loop joins cleanly.
	require.NoError(t, m.Stop())
	assert.Equal(t, StatusStopped, m.Status())
}

func TestManager_SetConfigRejectedWhileRunning(t *testing.T) {
	m := configuredManager(t)
	defer m.Stop()

	_, err := m.Start()
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetConfig(smallConfig()), ErrAlreadyRunning)
}

func TestManager_PauseResumeStop(t *testing.T) {
	m := configuredManager(t)

	assert.ErrorIs(t, m.Pause(), ErrNotRunning)
	assert.ErrorIs(t, m.Resume(), ErrNotPaused)

	_, err := m.Start()
	require.NoError(t, err)

	require.NoError(t, m.Pause())
	assert.Equal(t, StatusPaused, m.Status())

	require.NoError(t, m.Resume())
	assert.Equal(t, StatusRunning, m.Status())

	require.NoError(t, m.Stop())
	assert.Equal(t, StatusStopped, m.Status())
}

func TestManager_SetSpeedClamps(t *testing.T) {
	m := NewManager()

	assert.Equal(t, 0.1, m.SetSpeed(0.01))
	assert.Equal(t, 100.0, m.SetSpeed(5000))
	assert.Equal(t, 2.5, m.SetSpeed(2.5))
	assert.Equal(t, 2.5, m.Speed())
}

func TestManager_Step(t *testing.T) {
	m := NewManager()
	_, err := m.Step()
	assert.ErrorIs(t, err, ErrNoEngine)

	m = configuredManager(t)
	ok, err := m.Step()
	require.NoError(t, err)
	assert.True(t, ok)

	info := m.StatusInfo()
	assert.Equal(t, 1, info.Tick)
}

func TestManager_StatusInfo(t *testing.T) {
	m := configuredManager(t)
	defer m.Stop()

	info := m.StatusInfo()
	assert.Equal(t, StatusIdle, info.Status)
	assert.Empty(t, info.SessionID)
	assert.Equal(t, 1.0, info.SpeedMultiplier)
	assert.Empty(t, info.StartTime)

	id, err := m.Start()
	require.NoError(t, err)

	info = m.StatusInfo()
	assert.Equal(t, id, info.SessionID)
	assert.NotEmpty(t, info.StartTime)
}

func TestManager_ObserversReceiveUpdates(t *testing.T) {
	m := configuredManager(t)
	defer m.Stop()
	m.SetSpeed(100)

	updates := make(chan StateUpdate, 64)
	handle := m.AddObserver(func(u StateUpdate) {
		select {
		case updates <- u:
		default:
		}
	})
	defer m.RemoveObserver(handle)

	_, err := m.Start()
	require.NoError(t, err)

	select {
	case u := <-updates:
		assert.Equal(t, "state_update", u.Type)
		assert.Equal(t, StatusRunning, u.Status)
		assert.Len(t, u.Snapshot.Scooters, 5)
		assert.NotEmpty(t, u.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("no state update received")
	}
}

func TestManager_RunsToCompletion(t *testing.T) {
	m := configuredManager(t)
	m.SetSpeed(100)

	_, err := m.Start()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.Status() == StatusCompleted
	}, 30*time.Second, 50*time.Millisecond)

	metrics, ok := m.CurrentMetrics()
	require.True(t, ok)
	assert.Greater(t, metrics.TotalSwaps, 0)

	summary, ok := m.MetricsSummary()
	require.True(t, ok)
	assert.Equal(t, metrics.TotalSwaps, summary.TotalSwaps)
}

func TestManager_Reset(t *testing.T) {
	m := configuredManager(t)

	for i := 0; i < 20; i++ {
		_, err := m.Step()
		require.NoError(t, err)
	}
	require.Equal(t, 20, m.StatusInfo().Tick)

	require.NoError(t, m.Reset())

	info := m.StatusInfo()
	assert.Equal(t, StatusIdle, info.Status)
	assert.Equal(t, 0, info.Tick)
	assert.Equal(t, 0.0, info.SimulationTime)
}

func TestManager_MetricsUnavailableWithoutEngine(t *testing.T) {
	m := NewManager()

	_, ok := m.CurrentMetrics()
	assert.False(t, ok)
	_, ok = m.MetricsSummary()
	assert.False(t, ok)
	_, ok = m.Snapshot()
	assert.False(t, ok)
	_, ok = m.SwapEventsForStation("station_0")
	assert.False(t, ok)
}
