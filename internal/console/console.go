// Package console binds the three minigame engines to one logical clock,
// one pointer hub and one complication list.
//
// Console is the synchronous core: every method mutates engine state and
// must be called from a single goroutine. Loop wraps a Console in a
// single-writer event loop so inputs can arrive from any goroutine.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/complications/internal/clock"
	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/controls"
	"github.com/roach88/complications/internal/geom"
	"github.com/roach88/complications/internal/input"
	"github.com/roach88/complications/internal/laser"
	"github.com/roach88/complications/internal/lights"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/sample"
	"github.com/roach88/complications/internal/trace"
)

// ErrUnroutable is returned by Handle for input no engine accepts.
var ErrUnroutable = errors.New("unroutable input")

// Options configures a Console. Zero values select defaults.
type Options struct {
	Tuning    config.Tuning
	Rand      rng.Source
	Resolver  complication.Resolver
	Trace     trace.Sink
	Seq       *trace.Clock
	Logger    *slog.Logger
	Scheduler *clock.Scheduler
}

// Console owns the engines and everything they share.
type Console struct {
	sched    *clock.Scheduler
	hub      *input.Hub
	maxed    complication.MaxedSet
	failures map[complication.Type]int
	observe  []func(puzzle.Failure)
	log      *slog.Logger

	Laser    *laser.Engine
	Lights   *lights.Engine
	Controls *controls.Engine
}

// maxedView lets engines read the console's current flags at spawn time.
type maxedView struct{ c *Console }

func (m maxedView) IsMaxed(t complication.Type) bool { return m.c.maxed.IsMaxed(t) }

// New creates a console with all engines idle.
func New(opts Options) *Console {
	if opts.Tuning == (config.Tuning{}) {
		opts.Tuning = config.Default()
	}
	if opts.Rand == nil {
		opts.Rand = rng.NewSeeded(uint64(time.Now().UnixNano()))
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Console{
		sched:    opts.Scheduler,
		hub:      input.NewHub(),
		maxed:    complication.MaxedSet{},
		failures: make(map[complication.Type]int),
		log:      opts.Logger,
	}

	deps := puzzle.Deps{
		Scheduler:     c.sched,
		Resolver:      opts.Resolver,
		Maxed:         maxedView{c},
		Trace:         opts.Trace,
		Seq:           opts.Seq,
		Logger:        opts.Logger,
		RecentlyFixed: opts.Tuning.RecentlyFixed(),
	}
	if deps.Seq == nil {
		deps.Seq = trace.NewClock()
	}

	c.Laser = laser.New(deps, opts.Tuning, opts.Rand)
	c.Lights = lights.New(deps, opts.Tuning, opts.Rand)
	c.Controls = controls.New(deps, opts.Tuning, opts.Rand, c.hub)

	for _, lc := range c.lifecycles() {
		lc.OnFailure(c.recordFailure)
	}
	return c
}

func (c *Console) lifecycles() []puzzle.Lifecycle {
	return []puzzle.Lifecycle{c.Laser.Lifecycle(), c.Lights.Lifecycle(), c.Controls.Lifecycle()}
}

func (c *Console) recordFailure(f puzzle.Failure) {
	c.failures[f.Type]++
	for _, fn := range c.observe {
		fn(f)
	}
}

// OnFailure registers an observer for puzzle failures on any engine, for a
// time-pressure system that wants to react to mistakes.
func (c *Console) OnFailure(fn func(puzzle.Failure)) {
	c.observe = append(c.observe, fn)
}

// Scheduler returns the logical clock driving every engine.
func (c *Console) Scheduler() *clock.Scheduler { return c.sched }

// Hub returns the surface-wide pointer hub.
func (c *Console) Hub() *input.Hub { return c.hub }

// SetMaxed sets the upgrade flag for t. It takes effect at the next spawn.
func (c *Console) SetMaxed(t complication.Type, maxed bool) {
	c.maxed[t] = maxed
}

// Maxed returns a copy of the current flags.
func (c *Console) Maxed() complication.MaxedSet {
	out := make(complication.MaxedSet, len(c.maxed))
	for t, v := range c.maxed {
		out[t] = v
	}
	return out
}

// Update reconciles every engine with a list snapshot.
func (c *Console) Update(list complication.List) {
	c.Laser.Reconcile(list)
	c.Lights.Reconcile(list)
	c.Controls.Reconcile(list)
}

// Advance moves the logical clock forward, firing due timers.
func (c *Console) Advance(d time.Duration) {
	c.sched.Advance(d)
}

// Handle routes one input to its engine. Input an engine rejects is ignored
// silently; only input that names no engine yields ErrUnroutable.
func (c *Console) Handle(in Input) error {
	switch in.Kind {
	case KindSlider:
		switch in.Engine {
		case complication.Laser:
			c.Laser.SetSlider(in.Index, sample.Position(in.Value))
		case complication.Lights:
			c.Lights.SetSlider(sample.Position(in.Value))
		default:
			return unroutable(in)
		}
	case KindPress:
		switch in.Engine {
		case complication.Lights:
			c.Lights.Press(in.Button)
		case complication.Controls:
			c.Controls.Press()
		default:
			return unroutable(in)
		}
	case KindRelease:
		if in.Engine != complication.Lights {
			return unroutable(in)
		}
		c.Lights.Release(in.Button)
	case KindPointerDown:
		if in.Engine != complication.Controls {
			return unroutable(in)
		}
		c.Controls.PointerDown(geom.Point{X: in.X, Y: in.Y})
	case KindPointerMove:
		c.hub.Publish(input.Pointer{Kind: input.Move, At: geom.Point{X: in.X, Y: in.Y}})
	case KindPointerUp:
		c.hub.Publish(input.Pointer{Kind: input.Up, At: geom.Point{X: in.X, Y: in.Y}})
	case KindFrame:
		if in.Anchor == nil {
			return unroutable(in)
		}
		c.Controls.SetFrame(geom.Frame{Anchor: *in.Anchor, Size: controls.LogicalSize})
	default:
		return unroutable(in)
	}
	return nil
}

func unroutable(in Input) error {
	return fmt.Errorf("%w: type=%q engine=%q", ErrUnroutable, in.Kind, in.Engine)
}

// Teardown cancels every timer and drag subscription and returns all
// engines to idle without resolving anything.
func (c *Console) Teardown() {
	c.Laser.Teardown()
	c.Lights.Teardown()
	c.Controls.Teardown()
}

// View is a snapshot of everything the presentation layer draws.
type View struct {
	AtMs     int64          `json:"at_ms"`
	Laser    laser.View     `json:"laser"`
	Lights   lights.View    `json:"lights"`
	Controls controls.View  `json:"controls"`
	Maxed    []string       `json:"maxed"`
	Failures map[string]int `json:"failures"`
}

// View renders the current state.
func (c *Console) View() View {
	v := View{
		AtMs:     c.sched.Now().Milliseconds(),
		Laser:    c.Laser.View(),
		Lights:   c.Lights.View(),
		Controls: c.Controls.View(),
		Maxed:    []string{},
		Failures: make(map[string]int, len(c.failures)),
	}
	for _, t := range c.maxed.Sorted() {
		v.Maxed = append(v.Maxed, string(t))
	}
	for t, n := range c.failures {
		v.Failures[string(t)] = n
	}
	return v
}

// Status returns the lifecycle status of the engine serving t.
func (c *Console) Status(t complication.Type) (puzzle.Status, bool) {
	for _, lc := range c.lifecycles() {
		if lc.Type() == t {
			return lc.Status(), true
		}
	}
	return puzzle.Idle, false
}

// RecentlyFixed reports whether the engine serving t shows its
// recently-fixed label.
func (c *Console) RecentlyFixed(t complication.Type) bool {
	for _, lc := range c.lifecycles() {
		if lc.Type() == t {
			return lc.RecentlyFixed()
		}
	}
	return false
}
