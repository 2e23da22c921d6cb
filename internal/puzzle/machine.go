// Package puzzle implements the lifecycle every complication-backed minigame
// shares: reconciliation against the external complication list, the
// resolve-once callback, the recently-fixed window, and timer bookkeeping.
//
// A concrete minigame supplies Rules: an initializer, a reducer and a solved
// predicate over its own payload type. The Machine owns everything else.
//
// Thread-safety: a Machine is NOT safe for concurrent use. It is driven from
// one goroutine together with the clock.Scheduler it was built on; the
// console loop provides that goroutine.
package puzzle

import (
	"log/slog"
	"time"

	"github.com/roach88/complications/internal/clock"
	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/trace"
)

// Status is the coarse lifecycle position of a machine.
type Status int

const (
	Idle Status = iota
	Active
	Solved
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Solved:
		return "solved"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rules is the per-minigame part of a Machine.
//
// Step is a reducer: it receives the current payload by value and returns
// the next one. Side effects (timers, trace, failure reports) are requested
// through fx and applied by the Machine after Step returns, so every
// transition is computed from one snapshot.
type Rules[S, E any] interface {
	// Init builds a fresh randomized puzzle.
	Init(maxed bool) S
	// Step applies one event.
	Step(s S, ev E, fx *Effects[E]) S
	// Solved reports whether s is a finished puzzle.
	Solved(s S) bool
}

// Deps are the collaborators shared by all machines of one console.
type Deps struct {
	Scheduler *clock.Scheduler
	Resolver  complication.Resolver
	Maxed     complication.Maxed
	Trace     trace.Sink
	Seq       *trace.Clock
	Logger    *slog.Logger

	// RecentlyFixed is the cosmetic window opened when a complication leaves
	// the list.
	RecentlyFixed time.Duration
}

// Failure describes a recoverable puzzle failure: a wrong slider, a wrong
// button or a misaligned press.
type Failure struct {
	Type   complication.Type
	ID     string
	Detail string
	At     time.Duration
}

// Lifecycle is the payload-independent view of a Machine.
type Lifecycle interface {
	Type() complication.Type
	Status() Status
	ID() string
	RecentlyFixed() bool
	Hint() Hint
	OnReset(fn func())
	OnFailure(fn func(Failure))
}

// Machine drives one minigame through its lifecycle.
type Machine[S, E any] struct {
	typ   complication.Type
	rules Rules[S, E]
	deps  Deps
	log   *slog.Logger

	// timers holds puzzle-scoped timers; fixedTimer holds the recently-fixed
	// window. They are separate so a reset does not cancel the window it
	// opens.
	timers     *clock.Group
	fixedTimer *clock.Group

	status  Status
	id      string
	state   S
	present bool
	fixed   bool

	onReset   []func()
	onFailure []func(Failure)
}

// New creates an idle machine for complications of type t.
func New[S, E any](t complication.Type, rules Rules[S, E], deps Deps) *Machine[S, E] {
	if deps.Trace == nil {
		deps.Trace = trace.Discard
	}
	if deps.Seq == nil {
		deps.Seq = trace.NewClock()
	}
	if deps.Maxed == nil {
		deps.Maxed = complication.MaxedSet(nil)
	}
	if deps.Resolver == nil {
		deps.Resolver = complication.ResolverFunc(func(string) {})
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine[S, E]{
		typ:        t,
		rules:      rules,
		deps:       deps,
		log:        logger.With("engine", string(t)),
		timers:     deps.Scheduler.NewGroup(),
		fixedTimer: deps.Scheduler.NewGroup(),
	}
}

// Type returns the complication type this machine serves.
func (m *Machine[S, E]) Type() complication.Type { return m.typ }

// Status returns the lifecycle position.
func (m *Machine[S, E]) Status() Status { return m.status }

// ID returns the id of the complication being worked, or "" when idle.
func (m *Machine[S, E]) ID() string { return m.id }

// State returns the current payload.
func (m *Machine[S, E]) State() S { return m.state }

// RecentlyFixed reports whether the recently-fixed window is open.
func (m *Machine[S, E]) RecentlyFixed() bool { return m.fixed }

// Now returns the logical time of the underlying scheduler.
func (m *Machine[S, E]) Now() time.Duration { return m.deps.Scheduler.Now() }

// OnReset registers fn to run whenever the puzzle is discarded, by removal,
// replacement or Teardown. Engines use it to release resources that live
// outside the payload.
func (m *Machine[S, E]) OnReset(fn func()) {
	m.onReset = append(m.onReset, fn)
}

// OnFailure registers an observer for recoverable puzzle failures.
func (m *Machine[S, E]) OnFailure(fn func(Failure)) {
	m.onFailure = append(m.onFailure, fn)
}

// Reconcile applies one snapshot of the external complication list.
//
// Only the edge of "my type present" matters. Absent to present while idle
// starts a fresh puzzle. Present to absent resets to idle whatever the local
// state and, when a puzzle was live or solved, opens the recently-fixed
// window. A different id for a type already present means the list changed
// underneath us; the old puzzle is discarded and a new one started.
func (m *Machine[S, E]) Reconcile(list complication.List) {
	c, ok := list.Find(m.typ)
	wasPresent := m.present
	m.present = ok

	switch {
	case ok && !wasPresent:
		if m.status == Idle {
			m.spawn(c)
		}
	case ok && wasPresent:
		if m.status == Idle {
			m.spawn(c)
		} else if c.ID != m.id {
			m.log.Info("complication replaced", "old", m.id, "new", c.ID)
			m.reset("replaced")
			m.spawn(c)
		}
	case !ok && wasPresent:
		if m.status == Idle {
			return
		}
		m.reset("removed")
		m.openFixed()
	}
}

// Handle feeds a player event to the reducer. Events are ignored unless a
// puzzle is active.
func (m *Machine[S, E]) Handle(ev E) {
	if m.status != Active {
		return
	}
	m.apply(ev)
}

// Teardown cancels every timer and returns to idle without invoking the
// resolver. The machine may be reused afterwards.
func (m *Machine[S, E]) Teardown() {
	m.timers.CancelAll()
	m.fixedTimer.CancelAll()
	m.fixed = false
	m.present = false
	if m.status != Idle {
		m.discard()
	}
}

// Hint is the cosmetic label and color shown for an engine.
type Hint struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Hint returns the label for the current lifecycle position.
func (m *Machine[S, E]) Hint() Hint {
	switch {
	case m.status == Active:
		return Hint{Text: "COMPLICATION", Color: "red"}
	case m.status == Solved:
		return Hint{Text: "RESOLVED", Color: "green"}
	case m.fixed:
		return Hint{Text: "FIXED", Color: "green"}
	default:
		return Hint{Text: "STANDBY", Color: "gray"}
	}
}

func (m *Machine[S, E]) spawn(c complication.Complication) {
	if m.fixed {
		m.fixedTimer.CancelAll()
		m.fixed = false
		m.emit(trace.KindFixedClear, "", "spawn")
	}
	maxed := m.deps.Maxed.IsMaxed(m.typ)
	m.id = c.ID
	m.state = m.rules.Init(maxed)
	m.status = Active
	m.emit(trace.KindSpawn, c.ID, maxedDetail(maxed))
	m.log.Info("puzzle spawned", "id", c.ID, "maxed", maxed)
}

func (m *Machine[S, E]) reset(reason string) {
	id := m.id
	m.discard()
	m.emit(trace.KindReset, id, reason)
	m.log.Info("puzzle reset", "id", id, "reason", reason)
}

// discard drops the payload and every puzzle timer.
func (m *Machine[S, E]) discard() {
	m.timers.CancelAll()
	var zero S
	m.state = zero
	m.status = Idle
	m.id = ""
	for _, fn := range m.onReset {
		fn()
	}
}

func (m *Machine[S, E]) openFixed() {
	m.fixed = true
	m.emit(trace.KindFixed, "", "")
	m.fixedTimer.Set("fixed", m.deps.RecentlyFixed, func() {
		m.fixed = false
		m.emit(trace.KindFixedClear, "", "")
	})
}

// apply runs the reducer and then its effects, then checks for a solve.
func (m *Machine[S, E]) apply(ev E) {
	fx := &Effects[E]{}
	next := m.rules.Step(m.state, ev, fx)
	m.state = next

	for _, op := range fx.ops {
		m.run(op)
	}

	if m.status == Active && m.rules.Solved(m.state) {
		m.status = Solved
		id := m.id
		m.emit(trace.KindResolve, id, "")
		m.log.Info("puzzle solved", "id", id)
		m.deps.Resolver.ResolveComplication(id)
	}
}

func (m *Machine[S, E]) run(op effect[E]) {
	switch op.kind {
	case opAfter:
		ev := op.event
		m.timers.Set(op.key, op.delay, func() {
			// Timer events finish cosmetic work after a solve as well.
			if m.status == Idle {
				return
			}
			m.apply(ev)
		})
	case opCancel:
		m.timers.Cancel(op.key)
	case opCancelAll:
		m.timers.CancelAll()
	case opTrace:
		m.emit(op.traceKind, m.id, op.detail)
	case opFail:
		f := Failure{Type: m.typ, ID: m.id, Detail: op.detail, At: m.Now()}
		m.log.Debug("puzzle failure", "id", m.id, "detail", op.detail)
		for _, fn := range m.onFailure {
			fn(f)
		}
	}
}

func (m *Machine[S, E]) emit(kind trace.Kind, id, detail string) {
	m.deps.Trace.Record(trace.Event{
		Seq:    m.deps.Seq.Next(),
		AtMs:   m.Now().Milliseconds(),
		Engine: string(m.typ),
		Kind:   kind,
		ID:     id,
		Detail: detail,
	})
}

func maxedDetail(maxed bool) string {
	if maxed {
		return "maxed"
	}
	return ""
}
