package simulator

// fullChargeTolerance is the slack below capacity at which a battery
// still counts as full.
const fullChargeTolerance = 1e-4

// BatteryLocation says whether a battery sits in a scooter or a station slot.
type BatteryLocation string

const (
	LocationInScooter BatteryLocation = "IN_SCOOTER"
	LocationInStation BatteryLocation = "IN_STATION"
)

// Battery is a swappable battery pack. The back-reference is discriminated
// by Location: exactly one of ScooterID or (StationID, SlotIndex) is set.
type Battery struct {
	ID               string
	CapacityKWh      float64
	MaxChargeRateKW  float64
	CurrentChargeKWh float64
	Location         BatteryLocation

	StationID string
	SlotIndex int

	ScooterID string
}

// ChargeLevel returns the charge as a fraction of capacity (0.0 to 1.0).
func (b *Battery) ChargeLevel() float64 {
	return b.CurrentChargeKWh / b.CapacityKWh
}

// IsFull reports whether the battery is charged to capacity within tolerance.
func (b *Battery) IsFull() bool {
	return b.CurrentChargeKWh >= b.CapacityKWh-fullChargeTolerance
}

// TimeToFullCharge returns the seconds needed to reach capacity at the
// given rate.
func (b *Battery) TimeToFullCharge(chargeRateKW float64) float64 {
	remaining := b.CapacityKWh - b.CurrentChargeKWh
	if remaining <= 0 {
		return 0
	}
	// kWh / kW = hours, then to seconds
	return (remaining / chargeRateKW) * 3600
}

// AddCharge adds energy, capped at capacity.
func (b *Battery) AddCharge(energyKWh float64) {
	b.CurrentChargeKWh += energyKWh
	if b.CurrentChargeKWh > b.CapacityKWh {
		b.CurrentChargeKWh = b.CapacityKWh
	}
}

// ConsumeEnergy drains energy, floored at zero.
func (b *Battery) ConsumeEnergy(energyKWh float64) {
	b.CurrentChargeKWh -= energyKWh
	if b.CurrentChargeKWh < 0 {
		b.CurrentChargeKWh = 0
	}
}
