package simulator

// GroupSpec describes a group of scooters that share parameters. Nil
// pointer fields fall back to the top-level config values.
type GroupSpec struct {
	Name  string
	Count int
	Color string

	Speed         *float64
	SwapThreshold *float64

	MovementStrategy MovementStrategyType // empty = world default
	ActivityStrategy ActivityStrategyType // empty = always active

	// Schedule parameters, used when ActivityStrategy is scheduled.
	ActivityStartHour   float64
	ActivityEndHour     float64
	MaxDistancePerDayKm *float64 // nil = unlimited
	LowBatteryThreshold float64
}

// Config holds every knob of a simulation run.
type Config struct {
	GridWidth  int
	GridHeight int

	MaxDurationSeconds float64

	// Scale factors for real-world unit conversion.
	MetersPerGridUnit float64
	TimeScale         float64

	NumStations                int
	SlotsPerStation            int
	StationChargeRateKW        float64
	InitialBatteriesPerStation int

	NumScooters   int
	ScooterSpeed  float64 // grid units per simulated second
	SwapThreshold float64

	BatteryCapacityKWh     float64
	BatteryMaxChargeRateKW float64
	ConsumptionRatePerUnit float64 // kWh per grid unit

	// Nil seed means a wall-clock seed and a non-reproducible run.
	RandomSeed *int64

	// Explicit station positions; empty means auto-placement on a grid.
	StationPositions []Position

	MovementStrategy MovementStrategyType
	StationSeeking   StationSeekingBehavior

	// When set, overrides NumScooters.
	ScooterGroups []GroupSpec
}

// DefaultConfig returns the stock 24h, 100x100, 5-station scenario.
func DefaultConfig() Config {
	return Config{
		GridWidth:                  100,
		GridHeight:                 100,
		MaxDurationSeconds:         86400,
		MetersPerGridUnit:          100,
		TimeScale:                  60,
		NumStations:                5,
		SlotsPerStation:            10,
		StationChargeRateKW:        1.3,
		InitialBatteriesPerStation: 8,
		NumScooters:                50,
		ScooterSpeed:               0.025,
		SwapThreshold:              0.2,
		BatteryCapacityKWh:         1.6,
		BatteryMaxChargeRateKW:     1.3,
		ConsumptionRatePerUnit:     0.005,
	}
}

// TotalScooters returns the fleet size, preferring group counts.
func (c *Config) TotalScooters() int {
	if len(c.ScooterGroups) > 0 {
		total := 0
		for _, g := range c.ScooterGroups {
			total += g.Count
		}
		return total
	}
	return c.NumScooters
}
