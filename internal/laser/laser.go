// Package laser implements the slider-alignment minigame: four tri-state
// sliders, each with a hidden target, solved when every slider matches.
package laser

import (
	"fmt"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/puzzle"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/sample"
)

// Sliders is the number of sliders on the laser panel.
const Sliders = 4

// State is the laser puzzle payload. Arrays keep it a plain value so the
// reducer never aliases the previous state.
type State struct {
	Sliders [Sliders]sample.Position
	Targets [Sliders]sample.Position
	Shaking [Sliders]bool
	Solved  bool
}

type event interface{ isLaserEvent() }

type setSlider struct {
	index int
	value sample.Position
}

type shakeEnd struct{ index int }

func (setSlider) isLaserEvent() {}
func (shakeEnd) isLaserEvent()  {}

type rules struct {
	src   rng.Source
	shake time.Duration
}

func (r rules) Init(maxed bool) State {
	var s State
	copy(s.Targets[:], sample.SliderTargets(r.src, Sliders, maxed))
	return s
}

func (r rules) Step(s State, ev event, fx *puzzle.Effects[event]) State {
	switch ev := ev.(type) {
	case setSlider:
		if s.Solved || ev.index < 0 || ev.index >= Sliders || !ev.value.Valid() {
			return s
		}
		s.Sliders[ev.index] = ev.value
		key := shakeKey(ev.index)

		if ev.value != s.Targets[ev.index] {
			s.Shaking[ev.index] = true
			fx.After(key, r.shake, shakeEnd{index: ev.index})
			fx.Fail(fmt.Sprintf("slider %d at %s", ev.index, ev.value))
			return s
		}

		s.Shaking[ev.index] = false
		fx.Cancel(key)
		if s.Sliders == s.Targets {
			s.Solved = true
			s.Sliders = [Sliders]sample.Position{}
			s.Shaking = [Sliders]bool{}
			fx.CancelAll()
		}

	case shakeEnd:
		s.Shaking[ev.index] = false
	}
	return s
}

func (rules) Solved(s State) bool { return s.Solved }

func shakeKey(i int) string { return fmt.Sprintf("shake/%d", i) }

// Lamp says which ends of a slider glow. A Center target lights both ends,
// an end target lights only that end: a partial hint, never the full answer.
type Lamp struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// LampFor returns the hint lamp for a target.
func LampFor(target sample.Position) Lamp {
	switch target {
	case sample.Left:
		return Lamp{Left: true}
	case sample.Right:
		return Lamp{Right: true}
	default:
		return Lamp{Left: true, Right: true}
	}
}

// View is the read-only presentation of the laser panel.
type View struct {
	Status        puzzle.Status `json:"status"`
	ID            string        `json:"id,omitempty"`
	Sliders       [Sliders]int  `json:"sliders"`
	Lamps         [Sliders]Lamp `json:"lamps"`
	Shaking       [Sliders]bool `json:"shaking"`
	RecentlyFixed bool          `json:"recently_fixed"`
	Hint          puzzle.Hint   `json:"hint"`
}

// Engine is the laser minigame bound to a complication list.
type Engine struct {
	m *puzzle.Machine[State, event]
}

// New creates an idle laser engine.
func New(deps puzzle.Deps, tuning config.Tuning, src rng.Source) *Engine {
	r := rules{src: src, shake: config.Ms(tuning.Laser.ShakeMs)}
	return &Engine{m: puzzle.New[State, event](complication.Laser, r, deps)}
}

// Reconcile applies a complication list snapshot.
func (e *Engine) Reconcile(list complication.List) { e.m.Reconcile(list) }

// SetSlider commits a slider value. Out-of-range input is ignored.
func (e *Engine) SetSlider(index int, value sample.Position) {
	e.m.Handle(setSlider{index: index, value: value})
}

// Teardown cancels all timers and returns to idle.
func (e *Engine) Teardown() { e.m.Teardown() }

// Lifecycle exposes the machine to observers.
func (e *Engine) Lifecycle() puzzle.Lifecycle { return e.m }

// Targets returns the hidden targets of the active puzzle, or nil when idle.
// Used by assisted solves in scenarios and debugging tools.
func (e *Engine) Targets() []sample.Position {
	if e.m.Status() == puzzle.Idle {
		return nil
	}
	t := e.m.State().Targets
	return t[:]
}

// View renders the panel.
func (e *Engine) View() View {
	s := e.m.State()
	v := View{
		Status:        e.m.Status(),
		ID:            e.m.ID(),
		Shaking:       s.Shaking,
		RecentlyFixed: e.m.RecentlyFixed(),
		Hint:          e.m.Hint(),
	}
	for i := range s.Sliders {
		v.Sliders[i] = int(s.Sliders[i])
		if e.m.Status() == puzzle.Active {
			v.Lamps[i] = LampFor(s.Targets[i])
		}
	}
	return v
}
