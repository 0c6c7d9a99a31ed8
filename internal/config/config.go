// Package config defines the external simulation configuration schema:
// the JSON documents accepted over the API and from config files, their
// defaults and bounds, and the conversion to the engine's config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"scooter_simulator/internal/simulator"
)

// Movement strategy names accepted from clients.
const (
	MovementRandomWalk = "random_walk"
	MovementDirected   = "directed"
)

// Activity strategy names accepted from clients.
const (
	ActivityAlwaysActive = "always_active"
	ActivityScheduled    = "scheduled"
)

// Position is a 2D grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid configures the simulation grid dimensions.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale holds real-world unit conversion factors used for display.
type Scale struct {
	MetersPerGridUnit float64 `json:"meters_per_grid_unit"`
	TimeScale         float64 `json:"time_scale"`
}

// StationSpec places a single station explicitly.
type StationSpec struct {
	Position         Position `json:"position"`
	NumSlots         int      `json:"num_slots"`
	InitialBatteries int      `json:"initial_batteries"`
}

// BatterySpec describes the battery model shared by the fleet.
type BatterySpec struct {
	CapacityKWh     float64 `json:"capacity_kwh"`
	ChargeRateKW    float64 `json:"charge_rate_kw"`
	ConsumptionRate float64 `json:"consumption_rate"`
}

// Scooters configures the fleet when no groups are given.
type Scooters struct {
	Count         int         `json:"count"`
	Speed         float64     `json:"speed"`
	SwapThreshold float64     `json:"swap_threshold"`
	BatterySpec   BatterySpec `json:"battery_spec"`
}

// ActivitySchedule configures time-window activity for a group.
type ActivitySchedule struct {
	ActivityStartHour   float64  `json:"activity_start_hour"`
	ActivityEndHour     float64  `json:"activity_end_hour"`
	MaxDistancePerDayKm *float64 `json:"max_distance_per_day_km"`
	LowBatteryThreshold float64  `json:"low_battery_threshold"`
}

// ScooterGroup configures a sub-fleet with shared overrides.
type ScooterGroup struct {
	Name             string            `json:"name"`
	Count            int               `json:"count"`
	Color            string            `json:"color"`
	Speed            *float64          `json:"speed"`
	SwapThreshold    *float64          `json:"swap_threshold"`
	MovementStrategy string            `json:"movement_strategy,omitempty"`
	ActivityStrategy string            `json:"activity_strategy"`
	ActivitySchedule *ActivitySchedule `json:"activity_schedule,omitempty"`
}

// Request is the full configuration document.
type Request struct {
	Grid                       Grid           `json:"grid"`
	Scale                      Scale          `json:"scale"`
	Stations                   []StationSpec  `json:"stations,omitempty"`
	NumStations                int            `json:"num_stations"`
	SlotsPerStation            int            `json:"slots_per_station"`
	StationChargeRateKW        float64        `json:"station_charge_rate_kw"`
	InitialBatteriesPerStation int            `json:"initial_batteries_per_station"`
	Scooters                   Scooters       `json:"scooters"`
	ScooterGroups              []ScooterGroup `json:"scooter_groups,omitempty"`
	DurationHours              float64        `json:"duration_hours"`
	RandomSeed                 *int64         `json:"random_seed"`
	MovementStrategy           string         `json:"movement_strategy"`
}

// Default returns the stock configuration document.
func Default() Request {
	return Request{
		Grid:  Grid{Width: 100, Height: 100},
		Scale: Scale{MetersPerGridUnit: 100, TimeScale: 60},
		NumStations:                5,
		SlotsPerStation:            10,
		StationChargeRateKW:        1.3,
		InitialBatteriesPerStation: 8,
		Scooters: Scooters{
			Count:         50,
			Speed:         0.025,
			SwapThreshold: 0.2,
			BatterySpec: BatterySpec{
				CapacityKWh:     1.6,
				ChargeRateKW:    1.3,
				ConsumptionRate: 0.005,
			},
		},
		DurationHours:    24,
		MovementStrategy: MovementRandomWalk,
	}
}

// Parse decodes a JSON document over the defaults and validates it.
// Fields absent from the document keep their default values.
func Parse(data []byte) (Request, error) {
	req := Default()
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("parse config: %w", err)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return Request{}, fmt.Errorf("invalid config: %s", errs[0])
	}
	return req, nil
}

// Load reads and parses a configuration file.
func Load(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks field bounds and returns every violation found.
func (r *Request) Validate() []string {
	var errs []string

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(r.Grid.Width >= 10 && r.Grid.Width <= 1000, "grid width must be between 10 and 1000")
	check(r.Grid.Height >= 10 && r.Grid.Height <= 1000, "grid height must be between 10 and 1000")
	check(r.Scale.MetersPerGridUnit >= 10 && r.Scale.MetersPerGridUnit <= 1000, "meters_per_grid_unit must be between 10 and 1000")
	check(r.Scale.TimeScale >= 1 && r.Scale.TimeScale <= 3600, "time_scale must be between 1 and 3600")
	check(r.NumStations >= 1 && r.NumStations <= 50, "num_stations must be between 1 and 50")
	check(r.SlotsPerStation >= 1 && r.SlotsPerStation <= 50, "slots_per_station must be between 1 and 50")
	check(r.StationChargeRateKW > 0, "station_charge_rate_kw must be positive")
	check(r.InitialBatteriesPerStation >= 0, "initial_batteries_per_station must not be negative")
	check(r.Scooters.Count >= 1 && r.Scooters.Count <= 10000, "scooters.count must be between 1 and 10000")
	check(r.Scooters.Speed > 0 && r.Scooters.Speed <= 100, "scooters.speed must be between 0 and 100")
	check(r.Scooters.SwapThreshold >= 0.05 && r.Scooters.SwapThreshold <= 0.5, "scooters.swap_threshold must be between 0.05 and 0.5")
	check(r.Scooters.BatterySpec.CapacityKWh > 0, "battery capacity_kwh must be positive")
	check(r.Scooters.BatterySpec.ChargeRateKW > 0, "battery charge_rate_kw must be positive")
	check(r.Scooters.BatterySpec.ConsumptionRate > 0, "battery consumption_rate must be positive")
	check(r.DurationHours > 0 && r.DurationHours <= 168, "duration_hours must be between 0 and 168")
	check(r.MovementStrategy == MovementRandomWalk || r.MovementStrategy == MovementDirected,
		"movement_strategy must be %q or %q", MovementRandomWalk, MovementDirected)

	for i, station := range r.Stations {
		check(station.Position.X >= 0, "station %d x position must not be negative", i)
		check(station.Position.Y >= 0, "station %d y position must not be negative", i)
		check(station.NumSlots >= 1 && station.NumSlots <= 50, "station %d num_slots must be between 1 and 50", i)
		check(station.InitialBatteries >= 0, "station %d initial_batteries must not be negative", i)
	}

	for i, group := range r.ScooterGroups {
		check(group.Name != "", "group %d needs a name", i)
		check(group.Count >= 1 && group.Count <= 10000, "group %d count must be between 1 and 10000", i)
		check(group.Color == "" || colorPattern.MatchString(group.Color), "group %d color must be a hex color like #22C55E", i)
		if group.Speed != nil {
			check(*group.Speed > 0 && *group.Speed <= 100, "group %d speed must be between 0 and 100", i)
		}
		if group.SwapThreshold != nil {
			check(*group.SwapThreshold >= 0.05 && *group.SwapThreshold <= 0.5, "group %d swap_threshold must be between 0.05 and 0.5", i)
		}
		check(group.MovementStrategy == "" || group.MovementStrategy == MovementRandomWalk || group.MovementStrategy == MovementDirected,
			"group %d movement_strategy must be %q or %q", i, MovementRandomWalk, MovementDirected)
		check(group.ActivityStrategy == "" || group.ActivityStrategy == ActivityAlwaysActive || group.ActivityStrategy == ActivityScheduled,
			"group %d activity_strategy must be %q or %q", i, ActivityAlwaysActive, ActivityScheduled)
		if s := group.ActivitySchedule; s != nil {
			check(s.ActivityStartHour >= 0 && s.ActivityStartHour < 24, "group %d activity_start_hour must be in [0, 24)", i)
			check(s.ActivityEndHour >= 0 && s.ActivityEndHour < 24, "group %d activity_end_hour must be in [0, 24)", i)
			check(s.LowBatteryThreshold >= 0.1 && s.LowBatteryThreshold <= 0.9, "group %d low_battery_threshold must be between 0.1 and 0.9", i)
			if s.MaxDistancePerDayKm != nil {
				check(*s.MaxDistancePerDayKm >= 0, "group %d max_distance_per_day_km must not be negative", i)
			}
		}
	}

	return errs
}

// ValidateStations cross-checks explicit station placements against the
// grid. Kept separate from Validate because clients probe it without
// applying the config.
func (r *Request) ValidateStations() []string {
	var errs []string
	for i, station := range r.Stations {
		if station.Position.X >= r.Grid.Width {
			errs = append(errs, fmt.Sprintf("Station %d x position exceeds grid width", i))
		}
		if station.Position.Y >= r.Grid.Height {
			errs = append(errs, fmt.Sprintf("Station %d y position exceeds grid height", i))
		}
		if station.InitialBatteries > station.NumSlots {
			errs = append(errs, fmt.Sprintf("Station %d has more initial batteries than slots", i))
		}
	}
	return errs
}

// ToSimulation converts the document to the engine's config.
func (r *Request) ToSimulation() simulator.Config {
	cfg := simulator.Config{
		GridWidth:                  r.Grid.Width,
		GridHeight:                 r.Grid.Height,
		MaxDurationSeconds:         r.DurationHours * 3600,
		MetersPerGridUnit:          r.Scale.MetersPerGridUnit,
		TimeScale:                  r.Scale.TimeScale,
		NumStations:                r.NumStations,
		SlotsPerStation:            r.SlotsPerStation,
		StationChargeRateKW:        r.StationChargeRateKW,
		InitialBatteriesPerStation: r.InitialBatteriesPerStation,
		NumScooters:                r.Scooters.Count,
		ScooterSpeed:               r.Scooters.Speed,
		SwapThreshold:              r.Scooters.SwapThreshold,
		BatteryCapacityKWh:         r.Scooters.BatterySpec.CapacityKWh,
		BatteryMaxChargeRateKW:     r.Scooters.BatterySpec.ChargeRateKW,
		ConsumptionRatePerUnit:     r.Scooters.BatterySpec.ConsumptionRate,
		RandomSeed:                 r.RandomSeed,
		MovementStrategy:           simulator.MovementStrategyType(r.MovementStrategy),
	}

	if len(r.Stations) > 0 {
		cfg.NumStations = len(r.Stations)
		cfg.StationPositions = make([]simulator.Position, len(r.Stations))
		for i, s := range r.Stations {
			cfg.StationPositions[i] = simulator.Position{X: s.Position.X, Y: s.Position.Y}
		}
	}

	for _, g := range r.ScooterGroups {
		spec := simulator.GroupSpec{
			Name:             g.Name,
			Count:            g.Count,
			Color:            g.Color,
			Speed:            g.Speed,
			SwapThreshold:    g.SwapThreshold,
			MovementStrategy: simulator.MovementStrategyType(g.MovementStrategy),
			ActivityStrategy: simulator.ActivityStrategyType(g.ActivityStrategy),

			// Schedule defaults when no explicit schedule is given.
			ActivityStartHour:   8,
			ActivityEndHour:     20,
			LowBatteryThreshold: 0.3,
		}
		if spec.Color == "" {
			spec.Color = "#22C55E"
		}
		if s := g.ActivitySchedule; s != nil {
			spec.ActivityStartHour = s.ActivityStartHour
			spec.ActivityEndHour = s.ActivityEndHour
			spec.LowBatteryThreshold = s.LowBatteryThreshold
			// Keep the pointer: an explicit 0 caps distance immediately,
			// absent means unlimited.
			if s.MaxDistancePerDayKm != nil {
				maxDist := *s.MaxDistancePerDayKm
				spec.MaxDistancePerDayKm = &maxDist
			}
		}
		cfg.ScooterGroups = append(cfg.ScooterGroups, spec)
	}

	return cfg
}

// FromSimulation builds a response document from an engine config.
func FromSimulation(cfg simulator.Config) Request {
	req := Default()
	req.Grid = Grid{Width: cfg.GridWidth, Height: cfg.GridHeight}
	req.Scale = Scale{MetersPerGridUnit: cfg.MetersPerGridUnit, TimeScale: cfg.TimeScale}
	req.NumStations = cfg.NumStations
	req.SlotsPerStation = cfg.SlotsPerStation
	req.StationChargeRateKW = cfg.StationChargeRateKW
	req.InitialBatteriesPerStation = cfg.InitialBatteriesPerStation
	req.Scooters = Scooters{
		Count:         cfg.NumScooters,
		Speed:         cfg.ScooterSpeed,
		SwapThreshold: cfg.SwapThreshold,
		BatterySpec: BatterySpec{
			CapacityKWh:     cfg.BatteryCapacityKWh,
			ChargeRateKW:    cfg.BatteryMaxChargeRateKW,
			ConsumptionRate: cfg.ConsumptionRatePerUnit,
		},
	}
	req.DurationHours = cfg.MaxDurationSeconds / 3600
	req.RandomSeed = cfg.RandomSeed
	if cfg.MovementStrategy != "" {
		req.MovementStrategy = string(cfg.MovementStrategy)
	}

	for _, g := range cfg.ScooterGroups {
		group := ScooterGroup{
			Name:             g.Name,
			Count:            g.Count,
			Color:            g.Color,
			Speed:            g.Speed,
			SwapThreshold:    g.SwapThreshold,
			MovementStrategy: string(g.MovementStrategy),
			ActivityStrategy: string(g.ActivityStrategy),
		}
		if g.ActivityStrategy == simulator.ActivityScheduled {
			group.ActivitySchedule = &ActivitySchedule{
				ActivityStartHour:   g.ActivityStartHour,
				ActivityEndHour:     g.ActivityEndHour,
				LowBatteryThreshold: g.LowBatteryThreshold,
			}
			if g.MaxDistancePerDayKm != nil {
				maxDist := *g.MaxDistancePerDayKm
				group.ActivitySchedule.MaxDistancePerDayKm = &maxDist
			}
		}
		req.ScooterGroups = append(req.ScooterGroups, group)
	}

	return req
}
