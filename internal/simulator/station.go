package simulator

// ChargingSlot is a single bay in a station. An empty BatteryID means the
// slot is free.
type ChargingSlot struct {
	Index      int
	BatteryID  string
	IsCharging bool
}

// Station is a battery swap station with a fixed row of charging slots.
type Station struct {
	ID           string
	Position     Position
	NumSlots     int
	ChargeRateKW float64
	Slots        []ChargingSlot
}

// NewStation creates a station with numSlots empty slots.
func NewStation(id string, pos Position, numSlots int, chargeRateKW float64) *Station {
	slots := make([]ChargingSlot, numSlots)
	for i := range slots {
		slots[i] = ChargingSlot{Index: i}
	}
	return &Station{
		ID:           id,
		Position:     pos,
		NumSlots:     numSlots,
		ChargeRateKW: chargeRateKW,
		Slots:        slots,
	}
}

// AvailableBatteries counts slots holding a battery.
func (s *Station) AvailableBatteries() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.BatteryID != "" {
			n++
		}
	}
	return n
}

// EmptySlots counts slots that can accept a deposited battery.
func (s *Station) EmptySlots() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.BatteryID == "" {
			n++
		}
	}
	return n
}

// BestBatterySlot returns the index of the slot holding the highest-charged
// battery, or -1 if no slot has one. Ties go to the smallest slot index.
func (s *Station) BestBatterySlot(batteries map[string]*Battery) int {
	best := -1
	bestCharge := -1.0
	for _, slot := range s.Slots {
		if slot.BatteryID == "" {
			continue
		}
		battery, ok := batteries[slot.BatteryID]
		if !ok {
			continue
		}
		if battery.ChargeLevel() > bestCharge {
			bestCharge = battery.ChargeLevel()
			best = slot.Index
		}
	}
	return best
}

// FirstEmptySlot returns the smallest empty slot index, or -1 if the
// station is full.
func (s *Station) FirstEmptySlot() int {
	for _, slot := range s.Slots {
		if slot.BatteryID == "" {
			return slot.Index
		}
	}
	return -1
}

// Slot returns the slot at index, or nil if out of range.
func (s *Station) Slot(index int) *ChargingSlot {
	if index < 0 || index >= len(s.Slots) {
		return nil
	}
	return &s.Slots[index]
}

// CountFullBatteries counts batteries in this station that are at capacity.
func (s *Station) CountFullBatteries(batteries map[string]*Battery) int {
	n := 0
	for _, slot := range s.Slots {
		if slot.BatteryID == "" {
			continue
		}
		if battery, ok := batteries[slot.BatteryID]; ok && battery.IsFull() {
			n++
		}
	}
	return n
}
