package simulator

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoConfig       = errors.New("no configuration set")
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrNotRunning     = errors.New("simulation is not running")
	ErrNotPaused      = errors.New("simulation is not paused")
	ErrNoEngine       = errors.New("no simulation engine initialized")
)

// StateUpdate is the periodic update pushed to manager observers.
type StateUpdate struct {
	Type           string         `json:"type"`
	Timestamp      string         `json:"timestamp"`
	SimulationTime float64        `json:"simulation_time"`
	Tick           int            `json:"tick"`
	Status         Status         `json:"status"`
	Snapshot       Snapshot       `json:"snapshot"`
	Metrics        CurrentMetrics `json:"metrics"`
}

// StatusInfo is the control-surface status report.
type StatusInfo struct {
	Status          Status  `json:"status"`
	SessionID       string  `json:"session_id,omitempty"`
	SimulationTime  float64 `json:"simulation_time"`
	Tick            int     `json:"tick"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	StartTime       string  `json:"start_time,omitempty"`
}

// SnapshotInfo wraps a snapshot with run bookkeeping.
type SnapshotInfo struct {
	SimulationTime float64  `json:"simulation_time"`
	Tick           int      `json:"tick"`
	Status         Status   `json:"status"`
	Snapshot       Snapshot `json:"snapshot"`
}

// Manager owns the single simulation engine behind the API and the
// websocket feed. It paces the engine against wall-clock time and fans
// state updates out to observers.
type Manager struct {
	mu sync.Mutex

	config *Config
	engine *Engine

	sessionID string
	startTime time.Time

	speed          float64
	updateInterval time.Duration

	observers  map[int]func(StateUpdate)
	observerID int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewManager returns a manager with no configuration loaded.
func NewManager() *Manager {
	return &Manager{
		speed:          1.0,
		updateInterval: 100 * time.Millisecond,
		observers:      make(map[int]func(StateUpdate)),
	}
}

// Status returns the engine status, StatusIdle when unconfigured.
func (m *Manager) Status() Status {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return StatusIdle
	}
	return engine.Status()
}

// SessionID returns the current run's session id, empty before Start.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Config returns the active configuration.
func (m *Manager) Config() (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return Config{}, false
	}
	return *m.config, true
}

// SetConfig installs a configuration and builds a fresh initialized
// engine. Rejected while a simulation is running.
func (m *Manager) SetConfig(cfg Config) error {
	if m.Status() == StatusRunning {
		return ErrAlreadyRunning
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return err
	}
	if err := engine.Initialize(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = &cfg
	m.engine = engine
	m.mu.Unlock()
	return nil
}

// Start launches the simulation loop and returns a new session id.
func (m *Manager) Start() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil || m.engine == nil {
		return "", ErrNoConfig
	}
	if m.engine.Status() == StatusRunning {
		return "", ErrAlreadyRunning
	}

	m.sessionID = uuid.New().String()
	m.startTime = time.Now().UTC()
	m.launchLoop(m.engine)
	return m.sessionID, nil
}

// launchLoop marks the engine running and starts the pacing goroutine.
// Callers must hold mu so the status check and launch are atomic; a
// concurrent control command could otherwise spawn a second loop over
// the same engine.
func (m *Manager) launchLoop(engine *Engine) {
	engine.setRunning()
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.runLoop(engine, m.stopCh, m.doneCh)
}

// runLoop processes events in batches, pushing an update and yielding to
// the wall clock between batches. A batch ends after 100 events or once
// the batch has consumed speed-multiplier seconds of simulated time, so
// high speeds still update smoothly and low speeds stay responsive.
func (m *Manager) runLoop(engine *Engine, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for engine.Status() == StatusRunning {
		m.mu.Lock()
		speed := m.speed
		interval := m.updateInterval
		m.mu.Unlock()

		batchStart := engine.CurrentTime()
		for processed := 0; processed < 100; processed++ {
			if !engine.Step() {
				break
			}
			if engine.CurrentTime()-batchStart >= speed {
				break
			}
		}

		m.broadcast(engine)

		sleep := time.Duration(float64(interval) / speed)
		if sleep < 10*time.Millisecond {
			sleep = 10 * time.Millisecond
		}
		select {
		case <-stopCh:
			return
		case <-time.After(sleep):
		}

		if engine.IsCompleted() {
			return
		}
	}
}

// broadcast pushes a state update to every observer.
func (m *Manager) broadcast(engine *Engine) {
	update := StateUpdate{
		Type:           "state_update",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		SimulationTime: engine.CurrentTime(),
		Tick:           engine.Tick(),
		Status:         engine.Status(),
		Snapshot:       engine.Snapshot(),
		Metrics:        engine.CurrentMetrics(),
	}

	m.mu.Lock()
	observers := make([]func(StateUpdate), 0, len(m.observers))
	for _, obs := range m.observers {
		observers = append(observers, obs)
	}
	m.mu.Unlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("observer error: %v", r)
				}
			}()
			obs(update)
		}()
	}
}

// Pause suspends a running simulation; the loop goroutine drains out.
func (m *Manager) Pause() error {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil || engine.Status() != StatusRunning {
		return ErrNotRunning
	}
	engine.Pause()
	return nil
}

// Resume restarts the loop for a paused simulation.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil || m.engine.Status() != StatusPaused {
		return ErrNotPaused
	}
	m.engine.Resume()
	m.launchLoop(m.engine)
	return nil
}

// Stop terminates the run and waits for the loop goroutine to exit.
func (m *Manager) Stop() error {
	m.mu.Lock()
	engine := m.engine
	stopCh, doneCh := m.stopCh, m.doneCh
	m.stopCh = nil
	m.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	if engine != nil {
		engine.Stop()
	}
	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// Reset stops the run and rebuilds the engine from the stored config.
func (m *Manager) Reset() error {
	if err := m.Stop(); err != nil {
		return err
	}

	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return ErrNoEngine
	}
	return engine.Reset()
}

// Step executes a single event, for debugging and tests.
func (m *Manager) Step() (bool, error) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return false, ErrNoEngine
	}
	return engine.Step(), nil
}

// SetSpeed adjusts the pacing multiplier, clamped to [0.1, 100]. Returns
// the applied value.
func (m *Manager) SetSpeed(multiplier float64) float64 {
	if multiplier < 0.1 {
		multiplier = 0.1
	}
	if multiplier > 100 {
		multiplier = 100
	}

	m.mu.Lock()
	m.speed = multiplier
	m.mu.Unlock()
	return multiplier
}

// Speed returns the pacing multiplier.
func (m *Manager) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// StatusInfo returns the detailed status report.
func (m *Manager) StatusInfo() StatusInfo {
	m.mu.Lock()
	engine := m.engine
	sessionID := m.sessionID
	speed := m.speed
	startTime := m.startTime
	m.mu.Unlock()

	info := StatusInfo{
		Status:          StatusIdle,
		SessionID:       sessionID,
		SpeedMultiplier: speed,
	}
	if engine != nil {
		info.Status = engine.Status()
		info.SimulationTime = engine.CurrentTime()
		info.Tick = engine.Tick()
	}
	if !startTime.IsZero() {
		info.StartTime = startTime.Format(time.RFC3339)
	}
	return info
}

// Snapshot returns the current world state, false when unconfigured.
func (m *Manager) Snapshot() (SnapshotInfo, bool) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return SnapshotInfo{}, false
	}
	return SnapshotInfo{
		SimulationTime: engine.CurrentTime(),
		Tick:           engine.Tick(),
		Status:         engine.Status(),
		Snapshot:       engine.Snapshot(),
	}, true
}

// CurrentMetrics returns the real-time metrics, false when unconfigured.
func (m *Manager) CurrentMetrics() (CurrentMetrics, bool) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return CurrentMetrics{}, false
	}
	return engine.CurrentMetrics(), true
}

// MetricsSummary returns the aggregate metrics, false when unconfigured.
func (m *Manager) MetricsSummary() (MetricsSummary, bool) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return MetricsSummary{}, false
	}
	return engine.MetricsSummary(), true
}

// SwapEventsForStation returns recorded swaps at a station, false when
// unconfigured.
func (m *Manager) SwapEventsForStation(stationID string) ([]SwapEvent, bool) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return nil, false
	}
	return engine.SwapEventsForStation(stationID), true
}

// AddObserver registers a state-update observer and returns its handle.
func (m *Manager) AddObserver(obs func(StateUpdate)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observerID++
	m.observers[m.observerID] = obs
	return m.observerID
}

// RemoveObserver unregisters an observer by handle.
func (m *Manager) RemoveObserver(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.observers, id)
}
