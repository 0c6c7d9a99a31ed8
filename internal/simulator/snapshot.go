package simulator

// View structs are plain serializable copies of the world, detached from
// the live entities so they can be marshaled off the engine lock.

// ScooterView is a scooter at a point in time.
type ScooterView struct {
	ID                    string       `json:"id"`
	Position              Position     `json:"position"`
	BatteryID             string       `json:"battery_id"`
	State                 ScooterState `json:"state"`
	Speed                 float64      `json:"speed"`
	BatteryLevel          float64      `json:"battery_level"`
	DistanceTraveledToday float64      `json:"distance_traveled_today"`
	TargetStationID       *string      `json:"target_station_id"`
	TargetPosition        *Position    `json:"target_position"`
	GroupID               string       `json:"group_id,omitempty"`
}

// SlotView is a charging slot, with charge level when occupied.
type SlotView struct {
	Index       int      `json:"index"`
	BatteryID   *string  `json:"battery_id"`
	IsCharging  bool     `json:"is_charging"`
	ChargeLevel *float64 `json:"charge_level,omitempty"`
}

// StationView is a station with per-slot detail and occupancy counts.
type StationView struct {
	ID                 string     `json:"id"`
	Position           Position   `json:"position"`
	NumSlots           int        `json:"num_slots"`
	ChargeRateKW       float64    `json:"charge_rate_kw"`
	AvailableBatteries int        `json:"available_batteries"`
	FullBatteries      int        `json:"full_batteries"`
	EmptySlots         int        `json:"empty_slots"`
	Slots              []SlotView `json:"slots"`
}

// BatteryView is a battery with its derived charge fields.
type BatteryView struct {
	ID               string          `json:"id"`
	CapacityKWh      float64         `json:"capacity_kwh"`
	CurrentChargeKWh float64         `json:"current_charge_kwh"`
	ChargeLevel      float64         `json:"charge_level"`
	IsFull           bool            `json:"is_full"`
	Location         BatteryLocation `json:"location"`
	StationID        *string         `json:"station_id"`
	ScooterID        *string         `json:"scooter_id"`
}

// Snapshot is the full world state, entities in creation order.
type Snapshot struct {
	CurrentTime   float64       `json:"current_time"`
	GridWidth     int           `json:"grid_width"`
	GridHeight    int           `json:"grid_height"`
	Scooters      []ScooterView `json:"scooters"`
	Stations      []StationView `json:"stations"`
	Batteries     []BatteryView `json:"batteries"`
	ScooterGroups []GroupInfo   `json:"scooter_groups"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// takeSnapshot deep-copies the world into a Snapshot.
func takeSnapshot(w *World) Snapshot {
	snap := Snapshot{
		CurrentTime: w.CurrentTime,
		GridWidth:   w.GridWidth,
		GridHeight:  w.GridHeight,
	}

	snap.Scooters = make([]ScooterView, 0, len(w.Scooters))
	for _, sc := range w.ScootersInOrder() {
		view := ScooterView{
			ID:                    sc.ID,
			Position:              sc.Position,
			BatteryID:             sc.BatteryID,
			State:                 sc.State,
			Speed:                 sc.Speed,
			DistanceTraveledToday: sc.DistanceTraveledToday,
			TargetStationID:       optionalString(sc.TargetStationID),
			GroupID:               sc.GroupID,
		}
		if battery := w.Battery(sc.BatteryID); battery != nil {
			view.BatteryLevel = battery.ChargeLevel()
		}
		if sc.HasTarget {
			pos := sc.TargetPosition
			view.TargetPosition = &pos
		}
		snap.Scooters = append(snap.Scooters, view)
	}

	snap.Stations = make([]StationView, 0, len(w.Stations))
	for _, station := range w.StationsInOrder() {
		view := StationView{
			ID:                 station.ID,
			Position:           station.Position,
			NumSlots:           station.NumSlots,
			ChargeRateKW:       station.ChargeRateKW,
			AvailableBatteries: station.AvailableBatteries(),
			EmptySlots:         station.EmptySlots(),
			Slots:              make([]SlotView, 0, len(station.Slots)),
		}
		for _, slot := range station.Slots {
			sv := SlotView{
				Index:      slot.Index,
				BatteryID:  optionalString(slot.BatteryID),
				IsCharging: slot.IsCharging,
			}
			if slot.BatteryID != "" {
				if battery := w.Battery(slot.BatteryID); battery != nil {
					level := battery.ChargeLevel()
					sv.ChargeLevel = &level
					if battery.IsFull() {
						view.FullBatteries++
					}
				}
			}
			view.Slots = append(view.Slots, sv)
		}
		snap.Stations = append(snap.Stations, view)
	}

	snap.Batteries = make([]BatteryView, 0, len(w.Batteries))
	for _, battery := range w.BatteriesInOrder() {
		snap.Batteries = append(snap.Batteries, BatteryView{
			ID:               battery.ID,
			CapacityKWh:      battery.CapacityKWh,
			CurrentChargeKWh: battery.CurrentChargeKWh,
			ChargeLevel:      battery.ChargeLevel(),
			IsFull:           battery.IsFull(),
			Location:         battery.Location,
			StationID:        optionalString(battery.StationID),
			ScooterID:        optionalString(battery.ScooterID),
		})
	}

	snap.ScooterGroups = append([]GroupInfo(nil), w.ScooterGroups...)
	return snap
}
