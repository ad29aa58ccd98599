package event

import "sync"

// DefaultRecorderCapacity is the number of events a Recorder keeps when
// constructed with a non-positive capacity.
const DefaultRecorderCapacity = 200

// Recorder keeps the most recent events published on a bus, oldest first.
// When full, the oldest event is dropped.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	events   []ActivityEvent

	bus   *Bus
	subID string
}

// NewRecorder creates a Recorder holding at most capacity events.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecorderCapacity
	}
	return &Recorder{
		capacity: capacity,
		events:   make([]ActivityEvent, 0, capacity),
	}
}

// Attach subscribes the recorder to every event on bus. Attaching to a new
// bus detaches from the previous one.
func (r *Recorder) Attach(bus *Bus) {
	r.Detach()
	id := bus.SubscribeAll(r.record)

	r.mu.Lock()
	r.bus = bus
	r.subID = id
	r.mu.Unlock()
}

// Detach stops recording. Recorded events are kept.
func (r *Recorder) Detach() {
	r.mu.Lock()
	bus, id := r.bus, r.subID
	r.bus, r.subID = nil, ""
	r.mu.Unlock()

	if bus != nil {
		bus.Unsubscribe(id)
	}
}

func (r *Recorder) record(e ActivityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) >= r.capacity {
		copy(r.events, r.events[1:])
		r.events = r.events[:len(r.events)-1]
	}
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
}
