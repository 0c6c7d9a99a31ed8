package simulator

// GroupInfo is scooter-group metadata carried for visualization.
type GroupInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// World is the complete simulation state. It is mutated only by event
// processing; snapshots are taken for everything else.
//
// Maps are paired with insertion-order id slices so that every scan over
// entities is deterministic for a given seed.
type World struct {
	CurrentTime float64

	Batteries map[string]*Battery
	Stations  map[string]*Station
	Scooters  map[string]*Scooter

	batteryOrder []string
	stationOrder []string
	scooterOrder []string

	GridWidth  int
	GridHeight int

	// Scale factors for real-world unit conversion. TimeScale only affects
	// wall-clock pacing; time-of-day is derived from raw simulation seconds.
	MetersPerGridUnit float64
	TimeScale         float64

	// Non-owning pointers installed by the engine.
	Metrics        *MetricsCollector
	Movement       MovementStrategy
	StationSeeking StationSeekingBehavior
	Activity       ActivityStrategy

	ScooterGroups []GroupInfo
}

// NewWorld creates an empty world with the given grid dimensions.
func NewWorld(gridWidth, gridHeight int) *World {
	return &World{
		Batteries:         make(map[string]*Battery),
		Stations:          make(map[string]*Station),
		Scooters:          make(map[string]*Scooter),
		GridWidth:         gridWidth,
		GridHeight:        gridHeight,
		MetersPerGridUnit: 100,
		TimeScale:         60,
	}
}

// AddBattery registers a battery, preserving insertion order.
func (w *World) AddBattery(b *Battery) {
	w.Batteries[b.ID] = b
	w.batteryOrder = append(w.batteryOrder, b.ID)
}

// AddStation registers a station, preserving insertion order.
func (w *World) AddStation(s *Station) {
	w.Stations[s.ID] = s
	w.stationOrder = append(w.stationOrder, s.ID)
}

// AddScooter registers a scooter, preserving insertion order.
func (w *World) AddScooter(s *Scooter) {
	w.Scooters[s.ID] = s
	w.scooterOrder = append(w.scooterOrder, s.ID)
}

// Battery returns a battery by id, or nil.
func (w *World) Battery(id string) *Battery {
	return w.Batteries[id]
}

// Station returns a station by id, or nil.
func (w *World) Station(id string) *Station {
	return w.Stations[id]
}

// Scooter returns a scooter by id, or nil.
func (w *World) Scooter(id string) *Scooter {
	return w.Scooters[id]
}

// BatteriesInOrder yields batteries in creation order.
func (w *World) BatteriesInOrder() []*Battery {
	out := make([]*Battery, 0, len(w.batteryOrder))
	for _, id := range w.batteryOrder {
		out = append(out, w.Batteries[id])
	}
	return out
}

// StationsInOrder yields stations in creation order.
func (w *World) StationsInOrder() []*Station {
	out := make([]*Station, 0, len(w.stationOrder))
	for _, id := range w.stationOrder {
		out = append(out, w.Stations[id])
	}
	return out
}

// ScootersInOrder yields scooters in creation order.
func (w *World) ScootersInOrder() []*Scooter {
	out := make([]*Scooter, 0, len(w.scooterOrder))
	for _, id := range w.scooterOrder {
		out = append(out, w.Scooters[id])
	}
	return out
}

// NearestStation finds the station closest to pos by Manhattan distance.
// Ties keep the earliest-created station, i.e. the smallest station id.
func (w *World) NearestStation(pos Position) *Station {
	var nearest *Station
	minDist := -1.0
	for _, station := range w.StationsInOrder() {
		d := pos.Distance(station.Position)
		if nearest == nil || d < minDist {
			minDist = d
			nearest = station
		}
	}
	return nearest
}
