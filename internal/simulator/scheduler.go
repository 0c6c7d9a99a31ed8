package simulator

import (
	"container/heap"
	"math/rand"
	"sync/atomic"
	"time"
)

// eventCounter provides the process-wide monotonic sequence numbers used to
// break ties between equal-timed events. It is reset between runs so that
// identical configs replay identically.
var eventCounter atomic.Int64

func nextEventID() int64 {
	return eventCounter.Add(1)
}

// ResetEventCounter resets the tie-break sequence. Called by the engine
// before each (re-)initialization.
func ResetEventCounter() {
	eventCounter.Store(0)
}

type scheduledEvent struct {
	time    float64
	eventID int64
	event   Event
}

// eventQueue is a min-heap ordered by (time, eventID).
type eventQueue []scheduledEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].eventID < q[j].eventID
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(scheduledEvent)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Scheduler owns the time-ordered event queue and the run's single seeded
// random source. Every stochastic decision in the simulation draws from
// Rng() so that a seed fully determines the run.
type Scheduler struct {
	maxTime float64
	queue   eventQueue
	rng     *rand.Rand
}

// NewScheduler creates a scheduler bounded by maxTime. A nil seed picks a
// wall-clock seed, making the run non-reproducible.
func NewScheduler(maxTime float64, seed *int64) *Scheduler {
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scheduler{
		maxTime: maxTime,
		rng:     rand.New(src),
	}
}

// Schedule enqueues an event at an absolute simulated time.
func (s *Scheduler) Schedule(ev Event, at float64) {
	heap.Push(&s.queue, scheduledEvent{time: at, eventID: nextEventID(), event: ev})
}

// ScheduleMany enqueues a batch of followups.
func (s *Scheduler) ScheduleMany(followups []Followup) {
	for _, f := range followups {
		s.Schedule(f.Event, f.At)
	}
}

// Pop removes and returns the earliest event. ok is false when the queue
// is empty.
func (s *Scheduler) Pop() (ev Event, at float64, ok bool) {
	if len(s.queue) == 0 {
		return Event{}, 0, false
	}
	item := heap.Pop(&s.queue).(scheduledEvent)
	return item.event, item.time, true
}

// PeekTime returns the next event's time without removing it.
func (s *Scheduler) PeekTime() (float64, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].time, true
}

// IsEmpty reports whether the queue holds no events.
func (s *Scheduler) IsEmpty() bool {
	return len(s.queue) == 0
}

// Clear drops all pending events.
func (s *Scheduler) Clear() {
	s.queue = s.queue[:0]
}

// PendingCount returns the number of queued events.
func (s *Scheduler) PendingCount() int {
	return len(s.queue)
}

// Rng returns the run's random source.
func (s *Scheduler) Rng() *rand.Rand {
	return s.rng
}

// MaxTime returns the simulation horizon in simulated seconds.
func (s *Scheduler) MaxTime() float64 {
	return s.maxTime
}
