// Package trace records the lifecycle of console puzzles as an ordered
// event log.
//
// Every event carries two clocks: Seq, a strictly increasing logical
// counter that fixes the order, and AtMs, the scheduler's logical time in
// milliseconds. Neither comes from the wall clock, so a scenario replayed
// with the same seed yields a byte-identical trace.
package trace

import (
	"sync"
	"sync/atomic"
)

// Kind names a lifecycle transition.
type Kind string

const (
	KindSpawn      Kind = "spawn"       // idle engine initialised a fresh puzzle
	KindResolve    Kind = "resolve"     // puzzle solved, resolve callback invoked
	KindReset      Kind = "reset"       // complication left the list, engine back to idle
	KindFixed      Kind = "fixed"       // recently-fixed window opened
	KindFixedClear Kind = "fixed_clear" // recently-fixed window closed
	KindPhase      Kind = "phase"       // lights phase change
	KindReplay     Kind = "replay"      // lights wrong button, sequence replays
	KindCorner     Kind = "corner"      // controls corner confirmed
)

// Event is one trace entry.
type Event struct {
	Seq    int64  `json:"seq"`
	AtMs   int64  `json:"at_ms"`
	Engine string `json:"engine"`
	Kind   Kind   `json:"kind"`
	ID     string `json:"id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Map converts the event into the map form MarshalCanonical accepts.
// Empty optional fields are omitted.
func (e Event) Map() map[string]any {
	m := map[string]any{
		"seq":    e.Seq,
		"at_ms":  e.AtMs,
		"engine": e.Engine,
		"kind":   string(e.Kind),
	}
	if e.ID != "" {
		m["id"] = e.ID
	}
	if e.Detail != "" {
		m["detail"] = e.Detail
	}
	return m
}

// Sink receives trace events.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Record implements Sink.
func (f SinkFunc) Record(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Clock is a monotonic logical counter for event ordering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Recorder is a Sink that keeps every event in memory.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record implements Sink.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events matching engine and kind. An empty
// engine or kind matches anything.
func (r *Recorder) Filter(engine string, kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if engine != "" && e.Engine != engine {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Fanout forwards each event to every sink in order.
type Fanout []Sink

// Record implements Sink.
func (f Fanout) Record(e Event) {
	for _, s := range f {
		s.Record(e)
	}
}
