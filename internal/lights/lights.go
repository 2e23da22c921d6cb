// Package lights implements the sequence-memory minigame.
//
// The puzzle runs strictly through
//
//	inactive -> slider1 -> showing -> input -> slider2 -> solved
//
// with one backward edge: a wrong button during input replays the same
// sequence (input -> showing). Playback is a chain of timers under one key,
// so restarting it always cancels whatever was still pending.
package lights

import (
	"fmt"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/sample"
	"github.com/roach88/complications/internal/trace"
)

// Buttons is the number of colored buttons.
const Buttons = 3

// ButtonColors are the fixed color identities of the buttons by index.
var ButtonColors = [Buttons]string{"red", "green", "blue"}

// Phase is a step of the lights puzzle.
type Phase int

const (
	Inactive Phase = iota
	Slider1
	Showing
	Input
	Slider2
	Solved
)

var phaseNames = [...]string{"inactive", "slider1", "showing", "input", "slider2", "solved"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePhase looks a phase up by name.
func ParsePhase(name string) (Phase, bool) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), true
		}
	}
	return Inactive, false
}

// State is the lights puzzle payload.
type State struct {
	Phase        Phase
	Slider       sample.Position
	SliderTarget sample.Position // slider1 target; slider2 wants the opposite
	Sequence     []int           // never mutated after Init
	InputIndex   int
	ShowingIndex int // -1 when no button is flashing
	Held         [Buttons]bool
	Shaking      bool
}

type event interface{ isLightsEvent() }

type (
	setSlider  struct{ value sample.Position }
	press      struct{ button int }
	release    struct{ button int }
	recenter   struct{}
	flashOn    struct{ index int }
	flashOff   struct{ index int }
	inputReady struct{}
)

func (setSlider) isLightsEvent()  {}
func (press) isLightsEvent()      {}
func (release) isLightsEvent()    {}
func (recenter) isLightsEvent()   {}
func (flashOn) isLightsEvent()    {}
func (flashOff) isLightsEvent()   {}
func (inputReady) isLightsEvent() {}

const (
	keyPlayback = "playback"
	keyRecenter = "recenter"
)

type rules struct {
	src    rng.Source
	tuning config.LightsTuning
}

func (r rules) Init(maxed bool) State {
	return State{
		Phase:        Slider1,
		SliderTarget: sample.EndPosition(r.src),
		Sequence:     sample.Sequence(r.src, r.tuning.SequenceLengthFor(maxed), Buttons),
		ShowingIndex: -1,
	}
}

func (rules) Solved(s State) bool { return s.Phase == Solved }

func (r rules) Step(s State, ev event, fx *puzzle.Effects[event]) State {
	switch ev := ev.(type) {
	case setSlider:
		return r.slide(s, ev.value, fx)

	case recenter:
		if s.Phase == Slider1 || s.Phase == Slider2 {
			s.Slider = sample.Center
		}
		s.Shaking = false

	case press:
		if ev.button < 0 || ev.button >= Buttons {
			return s
		}
		s.Held[ev.button] = true
		if s.Phase != Input {
			return s
		}
		if s.Sequence[s.InputIndex] != ev.button {
			s.InputIndex = 0
			fx.Trace(trace.KindReplay, fmt.Sprintf("pressed %d", ev.button))
			fx.Fail(fmt.Sprintf("button %d", ev.button))
			return r.enterShowing(s, config.Ms(r.tuning.ReplayPauseMs), fx)
		}
		s.InputIndex++
		if s.InputIndex == len(s.Sequence) {
			s.Phase = Slider2
			fx.Trace(trace.KindPhase, Slider2.String())
		}

	case release:
		if ev.button >= 0 && ev.button < Buttons {
			s.Held[ev.button] = false
		}

	case flashOn:
		if s.Phase != Showing {
			return s
		}
		s.ShowingIndex = ev.index
		fx.After(keyPlayback, config.Ms(r.tuning.FlashMs), flashOff{index: ev.index})

	case flashOff:
		if s.Phase != Showing {
			return s
		}
		s.ShowingIndex = -1
		if next := ev.index + 1; next < len(s.Sequence) {
			fx.After(keyPlayback, config.Ms(r.tuning.GapMs), flashOn{index: next})
		} else {
			fx.After(keyPlayback, config.Ms(r.tuning.BeatMs), inputReady{})
		}

	case inputReady:
		if s.Phase != Showing {
			return s
		}
		s.Phase = Input
		s.InputIndex = 0
		fx.Trace(trace.KindPhase, Input.String())
	}
	return s
}

// slide handles the slider in the two phases that use it. Reaching the
// wanted end advances; any other end shakes and recenters.
func (r rules) slide(s State, v sample.Position, fx *puzzle.Effects[event]) State {
	if !v.Valid() {
		return s
	}
	var want sample.Position
	switch s.Phase {
	case Slider1:
		want = s.SliderTarget
	case Slider2:
		want = s.SliderTarget.Opposite()
	default:
		return s
	}

	s.Slider = v
	switch {
	case v == want:
		s.Shaking = false
		fx.Cancel(keyRecenter)
		if s.Phase == Slider1 {
			return r.enterShowing(s, config.Ms(r.tuning.LeadInMs), fx)
		}
		s.Phase = Solved
		s.Slider = sample.Center
		fx.Trace(trace.KindPhase, Solved.String())
	case v != sample.Center:
		s.Shaking = true
		fx.After(keyRecenter, config.Ms(r.tuning.RecenterMs), recenter{})
		fx.Fail(fmt.Sprintf("%s at %s", s.Phase, v))
	}
	return s
}

// enterShowing (re)starts playback of the same sequence after delay.
func (r rules) enterShowing(s State, delay time.Duration, fx *puzzle.Effects[event]) State {
	s.Phase = Showing
	s.ShowingIndex = -1
	fx.Trace(trace.KindPhase, Showing.String())
	fx.After(keyPlayback, delay, flashOn{index: 0})
	return s
}

// View is the read-only presentation of the lights panel.
type View struct {
	Status        puzzle.Status   `json:"status"`
	ID            string          `json:"id,omitempty"`
	Phase         Phase           `json:"phase"`
	Slider        int             `json:"slider"`
	SliderTarget  int             `json:"slider_target"`
	Shaking       bool            `json:"shaking"`
	Lights        [Buttons]string `json:"lights"`
	Progress      int             `json:"progress"`
	Length        int             `json:"length"`
	RecentlyFixed bool            `json:"recently_fixed"`
	Hint          puzzle.Hint     `json:"hint"`
}

// Engine is the lights minigame bound to a complication list.
type Engine struct {
	m *puzzle.Machine[State, event]
}

// New creates an idle lights engine.
func New(deps puzzle.Deps, tuning config.Tuning, src rng.Source) *Engine {
	r := rules{src: src, tuning: tuning.Lights}
	return &Engine{m: puzzle.New[State, event](complication.Lights, r, deps)}
}

// Reconcile applies a complication list snapshot.
func (e *Engine) Reconcile(list complication.List) { e.m.Reconcile(list) }

// SetSlider moves the single slider.
func (e *Engine) SetSlider(v sample.Position) { e.m.Handle(setSlider{value: v}) }

// Press pushes a button down.
func (e *Engine) Press(button int) { e.m.Handle(press{button: button}) }

// Release lets a button up.
func (e *Engine) Release(button int) { e.m.Handle(release{button: button}) }

// Teardown cancels all timers and returns to idle.
func (e *Engine) Teardown() { e.m.Teardown() }

// Lifecycle exposes the machine to observers.
func (e *Engine) Lifecycle() puzzle.Lifecycle { return e.m }

// Phase returns the current phase.
func (e *Engine) Phase() Phase { return e.m.State().Phase }

// Sequence returns a copy of the active sequence, or nil when idle.
func (e *Engine) Sequence() []int {
	seq := e.m.State().Sequence
	if seq == nil {
		return nil
	}
	out := make([]int, len(seq))
	copy(out, seq)
	return out
}

// SliderTarget returns the position the slider must reach in the current
// phase, or Center outside the slider phases.
func (e *Engine) SliderTarget() sample.Position {
	s := e.m.State()
	switch s.Phase {
	case Slider1:
		return s.SliderTarget
	case Slider2:
		return s.SliderTarget.Opposite()
	default:
		return sample.Center
	}
}

// View renders the panel. During showing only the flashing button is lit;
// during input a button is lit while held, whatever its correctness.
func (e *Engine) View() View {
	s := e.m.State()
	v := View{
		Status:        e.m.Status(),
		ID:            e.m.ID(),
		Phase:         s.Phase,
		Slider:        int(s.Slider),
		SliderTarget:  int(e.SliderTarget()),
		Shaking:       s.Shaking,
		Progress:      s.InputIndex,
		Length:        len(s.Sequence),
		RecentlyFixed: e.m.RecentlyFixed(),
		Hint:          e.m.Hint(),
	}
	switch s.Phase {
	case Showing:
		if s.ShowingIndex >= 0 {
			v.Lights[s.Sequence[s.ShowingIndex]] = ButtonColors[s.Sequence[s.ShowingIndex]]
		}
	case Input:
		for b, held := range s.Held {
			if held {
				v.Lights[b] = ButtonColors[b]
			}
		}
	}
	return v
}
