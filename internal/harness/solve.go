package harness

import (
	"fmt"
	"math"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/geom"
	"github.com/roach88/complications/internal/lights"
	"github.com/roach88/complications/internal/puzzle"
)

// solveLimit bounds how far an assisted lights solve may move the clock.
const solveLimit = time.Minute

// dragRadius is the distance from the dial center at which assisted drags
// grab the dial.
const dragRadius = 60

// Solve plays the active puzzle of type t to completion through the
// console's public inputs, reading the hidden answer from the engine. The
// lights solve advances the logical clock timer by timer through playback.
func Solve(c *console.Console, t complication.Type, tuning config.Tuning) error {
	status, _ := c.Status(t)
	if status != puzzle.Active {
		return fmt.Errorf("solve %s: engine is %s", t, status)
	}

	switch t {
	case complication.Laser:
		return solveLaser(c)
	case complication.Lights:
		return solveLights(c)
	case complication.Controls:
		return solveControls(c, tuning.Controls)
	default:
		return fmt.Errorf("solve %s: unknown engine", t)
	}
}

func solveLaser(c *console.Console) error {
	for i, target := range c.Laser.Targets() {
		if err := c.Handle(console.Input{Kind: console.KindSlider, Engine: complication.Laser, Index: i, Value: int(target)}); err != nil {
			return err
		}
	}
	if st, _ := c.Status(complication.Laser); st == puzzle.Active {
		return fmt.Errorf("solve laser: still active after setting every target")
	}
	return nil
}

func solveLights(c *console.Console) error {
	sched := c.Scheduler()
	deadline := sched.Now() + solveLimit

	for c.Lights.Lifecycle().Status() == puzzle.Active {
		switch c.Lights.Phase() {
		case lights.Slider1, lights.Slider2:
			if err := c.Handle(console.Input{Kind: console.KindSlider, Engine: complication.Lights, Value: int(c.Lights.SliderTarget())}); err != nil {
				return err
			}
		case lights.Input:
			seq := c.Lights.Sequence()
			for _, b := range seq[c.Lights.View().Progress:] {
				if err := c.Handle(console.Input{Kind: console.KindPress, Engine: complication.Lights, Button: b}); err != nil {
					return err
				}
				if err := c.Handle(console.Input{Kind: console.KindRelease, Engine: complication.Lights, Button: b}); err != nil {
					return err
				}
			}
		default:
			due, ok := sched.NextDue()
			if !ok {
				return fmt.Errorf("solve lights: stuck in %s with no pending timer", c.Lights.Phase())
			}
			if due > deadline {
				return fmt.Errorf("solve lights: no progress within %s", solveLimit)
			}
			sched.AdvanceTo(due)
		}
	}
	return nil
}

func solveControls(c *console.Console, tuning config.ControlsTuning) error {
	center := geom.Point{X: tuning.DialCenterX, Y: tuning.DialCenterY}

	for i := 0; c.Controls.Lifecycle().Status() == puzzle.Active; i++ {
		if i > 2*tuning.Required {
			return fmt.Errorf("solve controls: no progress after %d presses", i)
		}
		if !c.Controls.IsAligned() {
			delta := geom.ShortestDelta(geom.Normalize(c.Controls.Rotation()), c.Controls.Target().Angle())
			if err := drag(c, arc(center, dragRadius, 0, delta)); err != nil {
				return err
			}
		}
		if err := c.Handle(console.Input{Kind: console.KindPress, Engine: complication.Controls}); err != nil {
			return err
		}
	}
	return nil
}

// arc returns points on a circle around center from angle from to
// from+delta (degrees), spaced closely enough that no move crosses more
// than a quarter of a half turn.
func arc(center geom.Point, radius, from, delta float64) []geom.Point {
	steps := int(math.Ceil(math.Abs(delta)/30)) + 1
	pts := make([]geom.Point, 0, steps+1)
	for k := 0; k <= steps; k++ {
		a := (from + delta*float64(k)/float64(steps)) * math.Pi / 180
		pts = append(pts, geom.Point{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		})
	}
	return pts
}
