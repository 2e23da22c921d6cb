package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/geom"
	"github.com/roach88/complications/internal/rng"
	"github.com/roach88/complications/internal/trace"
)

// Harness is the test execution engine.
// It runs scenarios on a logical clock with seeded randomness and
// sequential complication ids.
type Harness struct {
	console  *console.Console
	board    *complication.Board
	recorder *trace.Recorder
	tuning   config.Tuning
	logger   *slog.Logger
}

// Run executes a test scenario with the default tuning and returns the
// result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithTuning(scenario, config.Default())
}

// RunWithTuning executes a test scenario with the given tuning.
//
// Execution flow:
// 1. Create a fresh board and console
// 2. Apply maxed flags
// 3. Execute steps, reconciling after each
// 4. Evaluate assertions
//
// A step that cannot be carried out (spawning a type already on the board,
// solving an idle engine) aborts the run with an error. Assertion failures
// are reported in the Result instead.
func RunWithTuning(scenario *Scenario, tuning config.Tuning) (*Result, error) {
	result := NewResult()

	board := complication.NewBoard(complication.NewSequenceIDs("c"))
	board.OnResolve(func(c complication.Complication) {
		result.Resolved = append(result.Resolved, c.ID)
	})

	h := &Harness{
		board:    board,
		recorder: trace.NewRecorder(),
		tuning:   tuning,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.console = console.New(console.Options{
		Tuning:   tuning,
		Rand:     rng.NewSeeded(scenario.Seed),
		Resolver: board,
		Trace:    h.recorder,
		Logger:   h.logger,
	})

	for _, name := range scenario.Maxed {
		t, err := complication.ParseType(name)
		if err != nil {
			return nil, err
		}
		h.console.SetMaxed(t, true)
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		h.console.Update(board.Snapshot())

		h.logger.Info("step completed", "step", i, "action", step.kinds(), "at", h.console.Scheduler().Now())
	}

	result.Trace = h.recorder.Events()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, h.console) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep carries out one step against the console.
func (h *Harness) executeStep(step Step) error {
	switch {
	case step.Spawn != "":
		t, err := complication.ParseType(step.Spawn)
		if err != nil {
			return err
		}
		_, err = h.board.Spawn(t)
		return err

	case step.Remove != "":
		t, err := complication.ParseType(step.Remove)
		if err != nil {
			return err
		}
		h.board.Remove(t)

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.console.Advance(d)

	case step.Slider != nil:
		t, err := complication.ParseType(step.Slider.Engine)
		if err != nil {
			return err
		}
		return h.handle(console.Input{
			Kind:   console.KindSlider,
			Engine: t,
			Index:  step.Slider.Index,
			Value:  step.Slider.Value,
		})

	case step.Press != nil:
		t, err := complication.ParseType(step.Press.Engine)
		if err != nil {
			return err
		}
		return h.handle(console.Input{Kind: console.KindPress, Engine: t, Button: step.Press.Button})

	case step.Release != nil:
		return h.handle(console.Input{Kind: console.KindRelease, Engine: complication.Lights, Button: step.Release.Button})

	case step.Drag != nil:
		pts := make([]geom.Point, len(step.Drag.Points))
		for i, p := range step.Drag.Points {
			pts[i] = geom.Point{X: p.X, Y: p.Y}
		}
		return drag(h.console, pts)

	case step.Solve != "":
		t, err := complication.ParseType(step.Solve)
		if err != nil {
			return err
		}
		return Solve(h.console, t, h.tuning)

	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func (h *Harness) handle(in console.Input) error {
	if err := h.console.Handle(in); err != nil {
		return fmt.Errorf("%s: %w", in.Kind, err)
	}
	return nil
}

// drag sends a pointer path through the console: down at the first point,
// moves through the rest, up at the last.
func drag(c *console.Console, pts []geom.Point) error {
	if len(pts) < 2 {
		return fmt.Errorf("drag needs at least two points")
	}
	first, last := pts[0], pts[len(pts)-1]
	if err := c.Handle(console.Input{Kind: console.KindPointerDown, Engine: complication.Controls, X: first.X, Y: first.Y}); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		if err := c.Handle(console.Input{Kind: console.KindPointerMove, X: p.X, Y: p.Y}); err != nil {
			return err
		}
	}
	return c.Handle(console.Input{Kind: console.KindPointerUp, X: last.X, Y: last.Y})
}
