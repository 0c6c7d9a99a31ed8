package simulator

// MissType classifies swap misses.
type MissType string

const (
	// MissNoBattery means the station had no battery to hand out.
	MissNoBattery MissType = "no_battery"
	// MissPartialCharge means the handed-out battery was not full.
	MissPartialCharge MissType = "partial_charge"
)

// MissEvent records a scooter failing to get a full battery.
type MissEvent struct {
	Timestamp   float64  `json:"timestamp"`
	ScooterID   string   `json:"scooter_id"`
	StationID   string   `json:"station_id"`
	MissType    MissType `json:"miss_type"`
	ChargeLevel float64  `json:"charge_level,omitempty"`
}

// SwapEvent records a completed swap.
type SwapEvent struct {
	Timestamp       float64 `json:"timestamp"`
	ScooterID       string  `json:"scooter_id"`
	StationID       string  `json:"station_id"`
	OldBatteryLevel float64 `json:"old_battery_level"`
	NewBatteryLevel float64 `json:"new_battery_level"`
	WasPartial      bool    `json:"was_partial"`
}

// MissRateSample is one point of the sampled miss-rate series.
type MissRateSample struct {
	Time float64 `json:"time"`
	Rate float64 `json:"rate"`
}

// CurrentMetrics is the real-time metrics view pushed to clients.
type CurrentMetrics struct {
	TotalSwaps          int            `json:"total_swaps"`
	TotalMisses         int            `json:"total_misses"`
	MissRate            float64        `json:"miss_rate"`
	NoBatteryMisses     int            `json:"no_battery_misses"`
	PartialChargeMisses int            `json:"partial_charge_misses"`
	MissesPerStation    map[string]int `json:"misses_per_station"`
	SwapsPerStation     map[string]int `json:"swaps_per_station"`
}

// MetricsSummary is the end-of-run (or on-demand) aggregate.
type MetricsSummary struct {
	TotalSwaps                    int              `json:"total_swaps"`
	TotalMisses                   int              `json:"total_misses"`
	NoBatteryMisses               int              `json:"no_battery_misses"`
	PartialChargeMisses           int              `json:"partial_charge_misses"`
	MissRate                      float64          `json:"miss_rate"`
	NoBatteryMissRate             float64          `json:"no_battery_miss_rate"`
	PartialChargeMissRate         float64          `json:"partial_charge_miss_rate"`
	AverageWaitTime               float64          `json:"average_wait_time"`
	MaxWaitTime                   float64          `json:"max_wait_time"`
	SwapsPerStation               map[string]int   `json:"swaps_per_station"`
	MissRateHistory               []MissRateSample `json:"miss_rate_history"`
	MissesPerStation              map[string]int   `json:"misses_per_station"`
	NoBatteryMissesPerStation     map[string]int   `json:"no_battery_misses_per_station"`
	PartialChargeMissesPerStation map[string]int   `json:"partial_charge_misses_per_station"`
}

// MetricsCollector accumulates swap and miss events over a run. It is not
// goroutine safe; the engine serializes access under its own lock.
type MetricsCollector struct {
	missEvents      []MissEvent
	swapEvents      []SwapEvent
	swapsPerStation map[string]int

	waitStartTimes map[string]float64
	waitDurations  []float64

	missRateHistory []MissRateSample
	sampleInterval  float64
	lastSampleTime  float64
}

// NewMetricsCollector returns a collector with the stock 60s sample
// interval.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		swapsPerStation: make(map[string]int),
		waitStartTimes:  make(map[string]float64),
		sampleInterval:  60,
	}
}

// RecordNoBatteryMiss records a scooter arriving at a station with nothing
// to take. It also opens the wait-time clock for that scooter.
func (m *MetricsCollector) RecordNoBatteryMiss(time float64, scooterID, stationID string) {
	m.missEvents = append(m.missEvents, MissEvent{
		Timestamp: time,
		ScooterID: scooterID,
		StationID: stationID,
		MissType:  MissNoBattery,
	})
	m.waitStartTimes[scooterID] = time
}

// RecordPartialChargeMiss records a scooter receiving a non-full battery.
func (m *MetricsCollector) RecordPartialChargeMiss(time float64, scooterID, stationID string, chargeLevel float64) {
	m.missEvents = append(m.missEvents, MissEvent{
		Timestamp:   time,
		ScooterID:   scooterID,
		StationID:   stationID,
		MissType:    MissPartialCharge,
		ChargeLevel: chargeLevel,
	})
}

// RecordSwap records a completed swap. A swap that hands out a non-full
// battery additionally counts as a partial-charge miss, so miss_rate can
// legitimately exceed 1.0.
func (m *MetricsCollector) RecordSwap(time float64, scooterID, stationID string, oldLevel, newLevel float64) {
	wasPartial := newLevel < 0.9999

	m.swapEvents = append(m.swapEvents, SwapEvent{
		Timestamp:       time,
		ScooterID:       scooterID,
		StationID:       stationID,
		OldBatteryLevel: oldLevel,
		NewBatteryLevel: newLevel,
		WasPartial:      wasPartial,
	})
	m.swapsPerStation[stationID]++

	if wasPartial {
		m.RecordPartialChargeMiss(time, scooterID, stationID, newLevel)
	}

	if start, ok := m.waitStartTimes[scooterID]; ok {
		m.waitDurations = append(m.waitDurations, time-start)
		delete(m.waitStartTimes, scooterID)
	}
}

// Sample appends a miss-rate point when at least a sample interval has
// passed since the last one.
func (m *MetricsCollector) Sample(currentTime float64) {
	if currentTime-m.lastSampleTime >= m.sampleInterval {
		m.missRateHistory = append(m.missRateHistory, MissRateSample{Time: currentTime, Rate: m.MissRate()})
		m.lastSampleTime = currentTime
	}
}

func (m *MetricsCollector) TotalSwaps() int  { return len(m.swapEvents) }
func (m *MetricsCollector) TotalMisses() int { return len(m.missEvents) }

func (m *MetricsCollector) NoBatteryMisses() int {
	n := 0
	for _, e := range m.missEvents {
		if e.MissType == MissNoBattery {
			n++
		}
	}
	return n
}

func (m *MetricsCollector) PartialChargeMisses() int {
	n := 0
	for _, e := range m.missEvents {
		if e.MissType == MissPartialCharge {
			n++
		}
	}
	return n
}

// MissRate returns misses divided by swaps, 0 when no swap happened yet.
func (m *MetricsCollector) MissRate() float64 {
	if len(m.swapEvents) == 0 {
		return 0
	}
	return float64(len(m.missEvents)) / float64(len(m.swapEvents))
}

// AverageWaitTime returns the mean recorded wait in simulated seconds.
func (m *MetricsCollector) AverageWaitTime() float64 {
	if len(m.waitDurations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range m.waitDurations {
		sum += d
	}
	return sum / float64(len(m.waitDurations))
}

// MaxWaitTime returns the longest recorded wait in simulated seconds.
func (m *MetricsCollector) MaxWaitTime() float64 {
	var max float64
	for _, d := range m.waitDurations {
		if d > max {
			max = d
		}
	}
	return max
}

// SwapEvents returns a copy of the recorded swap events.
func (m *MetricsCollector) SwapEvents() []SwapEvent {
	out := make([]SwapEvent, len(m.swapEvents))
	copy(out, m.swapEvents)
	return out
}

// SwapEventsForStation returns the recorded swaps at one station, in
// chronological order.
func (m *MetricsCollector) SwapEventsForStation(stationID string) []SwapEvent {
	var out []SwapEvent
	for _, e := range m.swapEvents {
		if e.StationID == stationID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MetricsCollector) missesPerStation(filter func(MissEvent) bool) map[string]int {
	out := make(map[string]int)
	for _, e := range m.missEvents {
		if filter == nil || filter(e) {
			out[e.StationID]++
		}
	}
	return out
}

// Current returns the real-time metrics view.
func (m *MetricsCollector) Current() CurrentMetrics {
	swaps := make(map[string]int, len(m.swapsPerStation))
	for k, v := range m.swapsPerStation {
		swaps[k] = v
	}
	return CurrentMetrics{
		TotalSwaps:          m.TotalSwaps(),
		TotalMisses:         m.TotalMisses(),
		MissRate:            m.MissRate(),
		NoBatteryMisses:     m.NoBatteryMisses(),
		PartialChargeMisses: m.PartialChargeMisses(),
		MissesPerStation:    m.missesPerStation(nil),
		SwapsPerStation:     swaps,
	}
}

// Compile returns the full end-of-run summary.
func (m *MetricsCollector) Compile() MetricsSummary {
	swaps := make(map[string]int, len(m.swapsPerStation))
	for k, v := range m.swapsPerStation {
		swaps[k] = v
	}
	history := make([]MissRateSample, len(m.missRateHistory))
	copy(history, m.missRateHistory)

	denom := float64(m.TotalSwaps())
	if denom < 1 {
		denom = 1
	}

	return MetricsSummary{
		TotalSwaps:            m.TotalSwaps(),
		TotalMisses:           m.TotalMisses(),
		NoBatteryMisses:       m.NoBatteryMisses(),
		PartialChargeMisses:   m.PartialChargeMisses(),
		MissRate:              m.MissRate(),
		NoBatteryMissRate:     float64(m.NoBatteryMisses()) / denom,
		PartialChargeMissRate: float64(m.PartialChargeMisses()) / denom,
		AverageWaitTime:       m.AverageWaitTime(),
		MaxWaitTime:           m.MaxWaitTime(),
		SwapsPerStation:       swaps,
		MissRateHistory:       history,
		MissesPerStation:      m.missesPerStation(nil),
		NoBatteryMissesPerStation: m.missesPerStation(func(e MissEvent) bool {
			return e.MissType == MissNoBattery
		}),
		PartialChargeMissesPerStation: m.missesPerStation(func(e MissEvent) bool {
			return e.MissType == MissPartialCharge
		}),
	}
}

// Reset clears every accumulator.
func (m *MetricsCollector) Reset() {
	m.missEvents = nil
	m.swapEvents = nil
	m.swapsPerStation = make(map[string]int)
	m.waitStartTimes = make(map[string]float64)
	m.waitDurations = nil
	m.missRateHistory = nil
	m.lastSampleTime = 0
}
