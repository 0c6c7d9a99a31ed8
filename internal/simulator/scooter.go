package simulator

// ScooterState is the scooter's position in its lifecycle state machine.
type ScooterState string

const (
	StateMoving             ScooterState = "MOVING"
	StateTravelingToStation ScooterState = "TRAVELING_TO_STATION"
	StateSwapping           ScooterState = "SWAPPING"
	StateWaitingForBattery  ScooterState = "WAITING_FOR_BATTERY"
	StateIdle               ScooterState = "IDLE"
)

// Scooter is an electric scooter roaming the grid and swapping batteries
// when it runs low.
type Scooter struct {
	ID              string
	Position        Position
	BatteryID       string
	State           ScooterState
	Speed           float64 // grid units per simulated second
	ConsumptionRate float64 // kWh per grid unit traveled
	SwapThreshold   float64 // charge level (0-1) that triggers a swap

	// Navigation state while traveling to a station.
	TargetStationID string
	HasTarget       bool
	TargetPosition  Position

	// Per-scooter strategy overrides; nil falls back to the world defaults.
	Movement MovementStrategy
	Activity ActivityStrategy

	GroupID string

	DistanceTraveledToday float64
	IdleUntil             float64 // simulated time to wake from IDLE; 0 = unset
}

// NeedsSwap reports whether the given charge level is below the swap
// threshold.
func (s *Scooter) NeedsSwap(chargeLevel float64) bool {
	return chargeLevel < s.SwapThreshold
}

// TravelTime returns the seconds needed to cover distance at the scooter's
// speed.
func (s *Scooter) TravelTime(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return distance / s.Speed
}

// ClearTarget drops the station navigation target.
func (s *Scooter) ClearTarget() {
	s.TargetStationID = ""
	s.HasTarget = false
	s.TargetPosition = Position{}
}

// SetTarget points the scooter at a station.
func (s *Scooter) SetTarget(stationID string, pos Position) {
	s.TargetStationID = stationID
	s.HasTarget = true
	s.TargetPosition = pos
}
