package simulator

import "fmt"

// MovementStrategyType names the built-in movement strategies.
type MovementStrategyType string

const (
	MovementRandomWalk MovementStrategyType = "random_walk"
	MovementDirected   MovementStrategyType = "directed"
)

// MovementStrategy decides where a free-roaming scooter goes next. It does
// not handle station seeking; that is StationSeekingBehavior's job.
type MovementStrategy interface {
	// NextDestination returns the next position for a MOVING scooter.
	NextDestination(sc *Scooter, w *World, sched *Scheduler) Position

	// OnScooterActivated is called when a scooter starts (or resumes)
	// its movement cycle, e.g. after a swap or a wake-up.
	OnScooterActivated(sc *Scooter, w *World, sched *Scheduler)
}

// NewMovementStrategy builds a strategy by type name.
func NewMovementStrategy(kind MovementStrategyType) (MovementStrategy, error) {
	switch kind {
	case MovementRandomWalk:
		return &RandomWalkStrategy{}, nil
	case MovementDirected:
		return NewDirectedMovementStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown movement strategy: %q", kind)
	}
}

// movementStrategyFor resolves the strategy for a scooter: per-scooter
// override, then world default, then random walk.
func movementStrategyFor(sc *Scooter, w *World) MovementStrategy {
	if sc.Movement != nil {
		return sc.Movement
	}
	if w.Movement != nil {
		return w.Movement
	}
	return defaultMovementStrategy
}

var defaultMovementStrategy MovementStrategy = &RandomWalkStrategy{}

// RandomWalkStrategy moves the scooter to a uniformly random 4-connected
// neighbor.
type RandomWalkStrategy struct{}

func (r *RandomWalkStrategy) NextDestination(sc *Scooter, w *World, sched *Scheduler) Position {
	neighbors := sc.Position.Neighbors(w.GridWidth, w.GridHeight)
	if len(neighbors) == 0 {
		return sc.Position
	}
	return neighbors[sched.Rng().Intn(len(neighbors))]
}

func (r *RandomWalkStrategy) OnScooterActivated(sc *Scooter, w *World, sched *Scheduler) {}

// DirectedMovementStrategy moves scooters toward externally assigned
// destinations (e.g. a dispatch system). Without a destination the scooter
// falls back to the idle behavior, or stays put.
type DirectedMovementStrategy struct {
	destinations map[string]Position
	idleBehavior MovementStrategy
}

func NewDirectedMovementStrategy() *DirectedMovementStrategy {
	return &DirectedMovementStrategy{destinations: make(map[string]Position)}
}

// SetIdleBehavior installs the fallback used when a scooter has no
// assigned destination.
func (d *DirectedMovementStrategy) SetIdleBehavior(s MovementStrategy) {
	d.idleBehavior = s
}

// SetDestination assigns a destination to a scooter.
func (d *DirectedMovementStrategy) SetDestination(scooterID string, dest Position) {
	d.destinations[scooterID] = dest
}

// ClearDestination removes a scooter's assigned destination.
func (d *DirectedMovementStrategy) ClearDestination(scooterID string) {
	delete(d.destinations, scooterID)
}

// Destination returns the assigned destination, if any.
func (d *DirectedMovementStrategy) Destination(scooterID string) (Position, bool) {
	p, ok := d.destinations[scooterID]
	return p, ok
}

// HasDestination reports whether the scooter has an assigned destination.
func (d *DirectedMovementStrategy) HasDestination(scooterID string) bool {
	_, ok := d.destinations[scooterID]
	return ok
}

func (d *DirectedMovementStrategy) NextDestination(sc *Scooter, w *World, sched *Scheduler) Position {
	target, ok := d.destinations[sc.ID]
	if !ok {
		if d.idleBehavior != nil {
			return d.idleBehavior.NextDestination(sc, w, sched)
		}
		return sc.Position
	}

	if sc.Position == target {
		// Arrived: clear and hand off to the idle behavior.
		d.ClearDestination(sc.ID)
		if d.idleBehavior != nil {
			return d.idleBehavior.NextDestination(sc, w, sched)
		}
		return sc.Position
	}

	return greedyStep(sc.Position, target)
}

func (d *DirectedMovementStrategy) OnScooterActivated(sc *Scooter, w *World, sched *Scheduler) {}

// StationSeekingBehavior navigates a low-battery scooter toward its target
// station, one step per move event.
type StationSeekingBehavior interface {
	NextStepTowardStation(sc *Scooter, w *World, sched *Scheduler) Position
}

var defaultStationSeeking StationSeekingBehavior = &GreedyStationSeeking{}

func stationSeekingFor(w *World) StationSeekingBehavior {
	if w.StationSeeking != nil {
		return w.StationSeeking
	}
	return defaultStationSeeking
}

// GreedyStationSeeking reduces the X gap first, then the Y gap. No
// obstacle avoidance.
type GreedyStationSeeking struct{}

func (g *GreedyStationSeeking) NextStepTowardStation(sc *Scooter, w *World, sched *Scheduler) Position {
	if !sc.HasTarget {
		return sc.Position
	}
	return greedyStep(sc.Position, sc.TargetPosition)
}

// greedyStep returns the single-step move toward target, preferring X
// movement over Y.
func greedyStep(current, target Position) Position {
	dx := target.X - current.X
	dy := target.Y - current.Y
	switch {
	case dx > 0:
		return Position{current.X + 1, current.Y}
	case dx < 0:
		return Position{current.X - 1, current.Y}
	case dy > 0:
		return Position{current.X, current.Y + 1}
	case dy < 0:
		return Position{current.X, current.Y - 1}
	default:
		return current
	}
}
