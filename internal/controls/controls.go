// Package controls implements the rotational-alignment minigame: turn a dial
// by dragging, snap it to one of four corner angles, and confirm alignment
// with the lit corner enough times in a row.
package controls

import (
	"fmt"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/geom"
	"github.com/roach88/complications/internal/input"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/sample"
	"github.com/roach88/complications/internal/trace"
)

// Corner is one of the four dial targets.
type Corner int

const (
	NoCorner Corner = iota
	TR
	TL
	BL
	BR
)

// Corners lists every target corner.
var Corners = []Corner{TR, TL, BL, BR}

// Angle returns the dial angle of the corner in degrees.
func (c Corner) Angle() float64 {
	switch c {
	case TR:
		return 45
	case TL:
		return 315
	case BL:
		return 225
	case BR:
		return 135
	default:
		return 0
	}
}

func (c Corner) String() string {
	switch c {
	case TR:
		return "TR"
	case TL:
		return "TL"
	case BL:
		return "BL"
	case BR:
		return "BR"
	default:
		return "none"
	}
}

// MarshalText renders the corner by name.
func (c Corner) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// cornerAngles are the snap targets.
var cornerAngles = []float64{45, 135, 225, 315}

// LogicalSize is the size of the logical frame the dial lives in.
var LogicalSize = geom.Point{X: 200, Y: 200}

// State is the controls puzzle payload.
type State struct {
	Rotation  float64 // unbounded, accumulates across turns
	Target    Corner
	Completed int
	Required  int
	Solved    bool

	Dragging       bool
	GrabAngle      float64 // pointer angle at grab, in the unwrapped sequence
	PointerAngle   float64 // unwrapped pointer angle
	LastRawAngle   float64 // last atan2 reading, for unwrapping
	RotationAtGrab float64

	Shaking bool
	Pressed bool
}

type event interface{ isControlsEvent() }

type (
	dragStart struct{ at geom.Point }
	dragMove  struct{ at geom.Point }
	dragEnd   struct{}
	confirm   struct{}
	shakeEnd  struct{}
	pressEnd  struct{}
)

func (dragStart) isControlsEvent() {}
func (dragMove) isControlsEvent()  {}
func (dragEnd) isControlsEvent()   {}
func (confirm) isControlsEvent()   {}
func (shakeEnd) isControlsEvent()  {}
func (pressEnd) isControlsEvent()  {}

type rules struct {
	src        rng.Source
	tuning     config.ControlsTuning
	center     geom.Point
	shake      time.Duration
	pressFlash time.Duration
}

func (r rules) Init(maxed bool) State {
	return State{
		Target:   sample.Pick(r.src, Corners),
		Required: r.tuning.RequiredFor(maxed),
	}
}

func (rules) Solved(s State) bool { return s.Solved }

func (r rules) Step(s State, ev event, fx *puzzle.Effects[event]) State {
	switch ev := ev.(type) {
	case dragStart:
		if s.Solved || s.Dragging {
			return s
		}
		a := geom.AngleFrom(r.center, ev.at)
		s.Dragging = true
		s.GrabAngle = a
		s.PointerAngle = a
		s.LastRawAngle = a
		s.RotationAtGrab = s.Rotation

	case dragMove:
		if !s.Dragging {
			return s
		}
		// Unwrap atan2 so crossing the +-180 seam keeps turning the dial the
		// same way instead of jumping a full revolution.
		a := geom.AngleFrom(r.center, ev.at)
		s.PointerAngle += geom.ShortestDelta(s.LastRawAngle, a)
		s.LastRawAngle = a
		s.Rotation = s.RotationAtGrab + (s.PointerAngle - s.GrabAngle)

	case dragEnd:
		if !s.Dragging {
			return s
		}
		s.Dragging = false
		if s.Rotation != s.RotationAtGrab {
			s.Rotation = geom.Snap(s.Rotation, cornerAngles)
		}

	case confirm:
		if s.Dragging || s.Solved {
			return s
		}
		s.Pressed = true
		fx.After("press", r.pressFlash, pressEnd{})

		if !r.aligned(s) {
			s.Shaking = true
			fx.After("shake", r.shake, shakeEnd{})
			fx.Fail(fmt.Sprintf("rotation %.1f against %s", geom.Normalize(s.Rotation), s.Target))
			return s
		}
		s.Completed++
		fx.Trace(trace.KindCorner, fmt.Sprintf("%s %d/%d", s.Target, s.Completed, s.Required))
		if s.Completed >= s.Required {
			s.Solved = true
			s.Target = NoCorner
			return s
		}
		s.Target = sample.PickOther(r.src, Corners, s.Target)

	case shakeEnd:
		s.Shaking = false

	case pressEnd:
		s.Pressed = false
	}
	return s
}

func (r rules) aligned(s State) bool {
	return Aligned(s.Rotation, s.Target, r.tuning.ToleranceDeg)
}

// Aligned reports whether rotation points at target within tolerance
// degrees. NoCorner is never aligned.
func Aligned(rotation float64, target Corner, tolerance float64) bool {
	if target == NoCorner {
		return false
	}
	return geom.Within(geom.Normalize(rotation), target.Angle(), tolerance)
}

// View is the read-only presentation of the controls panel.
type View struct {
	Status        puzzle.Status     `json:"status"`
	ID            string            `json:"id,omitempty"`
	Rotation      float64           `json:"rotation"`
	Target        Corner            `json:"target"`
	Aligned       bool              `json:"aligned"`
	Dragging      bool              `json:"dragging"`
	Pressed       bool              `json:"pressed"`
	Shaking       bool              `json:"shaking"`
	Lights        map[string]string `json:"lights"`
	Completed     int               `json:"completed"`
	Required      int               `json:"required"`
	RecentlyFixed bool              `json:"recently_fixed"`
	Hint          puzzle.Hint       `json:"hint"`
}

// Engine is the controls minigame bound to a complication list.
//
// Pointer handling: PointerDown arrives hit-tested to the dial. While a drag
// is in progress the engine holds a subscription on the surface-wide hub so
// moves and the release are seen even outside the dial. The subscription
// ends on release, on reset and on Teardown.
type Engine struct {
	m           *puzzle.Machine[State, event]
	tolerance   float64
	hub         *input.Hub
	frame       geom.Frame
	unsubscribe func()
}

// New creates an idle controls engine. Pointer moves and releases are read
// from hub during a drag.
func New(deps puzzle.Deps, tuning config.Tuning, src rng.Source, hub *input.Hub) *Engine {
	ct := tuning.Controls
	r := rules{
		src:        src,
		tuning:     ct,
		center:     geom.Point{X: ct.DialCenterX, Y: ct.DialCenterY},
		shake:      config.Ms(ct.ShakeMs),
		pressFlash: config.Ms(ct.PressFlashMs),
	}
	e := &Engine{
		m:         puzzle.New[State, event](complication.Controls, r, deps),
		tolerance: ct.ToleranceDeg,
		hub:       hub,
		frame:     geom.Identity(LogicalSize),
	}
	e.m.OnReset(e.endSubscription)
	return e
}

// SetFrame updates the reference anchor used to map device coordinates into
// the dial's logical frame. An unresolved frame makes pointer input inert.
func (e *Engine) SetFrame(f geom.Frame) { e.frame = f }

// Reconcile applies a complication list snapshot.
func (e *Engine) Reconcile(list complication.List) { e.m.Reconcile(list) }

// PointerDown starts a drag at a device-space point on the dial.
func (e *Engine) PointerDown(at geom.Point) {
	if e.m.Status() != puzzle.Active || e.unsubscribe != nil {
		return
	}
	p, ok := e.frame.ToLogical(at)
	if !ok {
		return
	}
	e.m.Handle(dragStart{at: p})
	if e.m.State().Dragging {
		e.unsubscribe = e.hub.Subscribe(e.onPointer)
	}
}

func (e *Engine) onPointer(ev input.Pointer) {
	switch ev.Kind {
	case input.Move:
		if p, ok := e.frame.ToLogical(ev.At); ok {
			e.m.Handle(dragMove{at: p})
		}
	case input.Up:
		e.endSubscription()
		e.m.Handle(dragEnd{})
	}
}

func (e *Engine) endSubscription() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Press confirms the current dial position.
func (e *Engine) Press() { e.m.Handle(confirm{}) }

// Teardown ends any drag subscription, cancels all timers and returns to
// idle.
func (e *Engine) Teardown() {
	e.endSubscription()
	e.m.Teardown()
}

// Lifecycle exposes the machine to observers.
func (e *Engine) Lifecycle() puzzle.Lifecycle { return e.m }

// Rotation returns the unbounded dial rotation.
func (e *Engine) Rotation() float64 { return e.m.State().Rotation }

// Target returns the lit corner, or NoCorner.
func (e *Engine) Target() Corner { return e.m.State().Target }

// Completed returns the number of confirmed alignments.
func (e *Engine) Completed() int { return e.m.State().Completed }

// Dragging reports whether a drag is in progress.
func (e *Engine) Dragging() bool { return e.m.State().Dragging }

// IsAligned reports whether the dial points at the lit corner.
func (e *Engine) IsAligned() bool {
	s := e.m.State()
	return Aligned(s.Rotation, s.Target, e.tolerance)
}

// View renders the panel. The lit corner shows amber, green once the dial
// is aligned with it.
func (e *Engine) View() View {
	s := e.m.State()
	v := View{
		Status:        e.m.Status(),
		ID:            e.m.ID(),
		Rotation:      s.Rotation,
		Target:        s.Target,
		Aligned:       e.IsAligned(),
		Dragging:      s.Dragging,
		Pressed:       s.Pressed,
		Shaking:       s.Shaking,
		Lights:        make(map[string]string, len(Corners)),
		Completed:     s.Completed,
		Required:      s.Required,
		RecentlyFixed: e.m.RecentlyFixed(),
		Hint:          e.m.Hint(),
	}
	for _, c := range Corners {
		color := ""
		if c == s.Target {
			color = "amber"
			if v.Aligned {
				color = "green"
			}
		}
		v.Lights[c.String()] = color
	}
	return v
}
