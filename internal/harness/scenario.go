package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/lights"
	"github.com/roach88/complications/internal/puzzle"
)

// Scenario defines a scripted play session.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed feeds the random source every engine draws puzzles from.
	Seed uint64 `yaml:"seed"`

	// Maxed lists the complication types whose upgrade is bought.
	Maxed []string `yaml:"maxed,omitempty"`

	// Steps run in order on the logical clock.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and engine state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted action. Exactly one field is set.
type Step struct {
	// Spawn adds a complication of the named type to the board.
	Spawn string `yaml:"spawn,omitempty"`

	// Remove drops the complication of the named type without resolving it.
	Remove string `yaml:"remove,omitempty"`

	// Advance moves the logical clock by a Go duration ("300ms", "2.5s").
	Advance string `yaml:"advance,omitempty"`

	// Slider sets a laser or lights slider.
	Slider *SliderStep `yaml:"slider,omitempty"`

	// Press pushes a lights button or the controls confirm button.
	Press *PressStep `yaml:"press,omitempty"`

	// Release lets a lights button up.
	Release *ReleaseStep `yaml:"release,omitempty"`

	// Drag performs a pointer drag on the dial in logical coordinates.
	Drag *DragStep `yaml:"drag,omitempty"`

	// Solve plays the named engine's puzzle to completion using its
	// hidden state.
	Solve string `yaml:"solve,omitempty"`
}

// SliderStep sets one slider. Value is -1 (left), 0 (center) or 1 (right).
type SliderStep struct {
	Engine string `yaml:"engine"`
	Index  int    `yaml:"index,omitempty"`
	Value  int    `yaml:"value"`
}

// PressStep presses a button.
type PressStep struct {
	Engine string `yaml:"engine"`
	Button int    `yaml:"button,omitempty"`
}

// ReleaseStep releases a lights button.
type ReleaseStep struct {
	Button int `yaml:"button"`
}

// DragStep is a pointer path: down at the first point, a move to each
// following point, up at the last.
type DragStep struct {
	Points []Point `yaml:"points"`
}

// Point is a logical dial coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "resolved_count": Count resolved complications
	// - "status": Check an engine's lifecycle status
	// - "phase": Check the lights phase
	// - "fixed": Check an engine's recently-fixed label
	// - "trace_contains": Check an event appears in the trace
	// - "trace_count": Check how many events match
	Type string `yaml:"type"`

	// Engine names the engine (status, fixed, trace_contains, trace_count).
	// Empty matches every engine in trace assertions.
	Engine string `yaml:"engine,omitempty"`

	// Kind is the trace event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Detail is the expected event detail (trace_contains). Empty matches
	// any detail.
	Detail string `yaml:"detail,omitempty"`

	// Expect is the expected value (status, phase, fixed).
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (resolved_count,
	// trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertResolvedCount = "resolved_count"
	AssertStatus        = "status"
	AssertPhase         = "phase"
	AssertFixed         = "fixed"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, name := range s.Maxed {
		if _, err := complication.ParseType(name); err != nil {
			return fmt.Errorf("maxed[%d]: %w", i, err)
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// kinds returns the names of the fields set on a step.
func (st *Step) kinds() []string {
	var out []string
	if st.Spawn != "" {
		out = append(out, "spawn")
	}
	if st.Remove != "" {
		out = append(out, "remove")
	}
	if st.Advance != "" {
		out = append(out, "advance")
	}
	if st.Slider != nil {
		out = append(out, "slider")
	}
	if st.Press != nil {
		out = append(out, "press")
	}
	if st.Release != nil {
		out = append(out, "release")
	}
	if st.Drag != nil {
		out = append(out, "drag")
	}
	if st.Solve != "" {
		out = append(out, "solve")
	}
	return out
}

// validateStep checks that a step names exactly one action with usable
// arguments.
func validateStep(index int, st *Step) error {
	kinds := st.kinds()
	switch len(kinds) {
	case 0:
		return fmt.Errorf("steps[%d]: empty step", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: exactly one action per step, got %v", index, kinds)
	}

	var err error
	switch kinds[0] {
	case "spawn":
		_, err = complication.ParseType(st.Spawn)
	case "remove":
		_, err = complication.ParseType(st.Remove)
	case "solve":
		_, err = complication.ParseType(st.Solve)
	case "advance":
		var d time.Duration
		d, err = time.ParseDuration(st.Advance)
		if err == nil && d < 0 {
			err = fmt.Errorf("negative duration %s", st.Advance)
		}
	case "slider":
		var t complication.Type
		t, err = complication.ParseType(st.Slider.Engine)
		if err == nil && t == complication.Controls {
			err = fmt.Errorf("controls has no slider")
		}
	case "press":
		var t complication.Type
		t, err = complication.ParseType(st.Press.Engine)
		if err == nil && t == complication.Laser {
			err = fmt.Errorf("laser has no button")
		}
	case "drag":
		if len(st.Drag.Points) < 2 {
			err = fmt.Errorf("drag needs at least two points")
		}
	}
	if err != nil {
		return fmt.Errorf("steps[%d].%s: %w", index, kinds[0], err)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertResolvedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for resolved_count", index)
		}
	case AssertStatus:
		if _, err := complication.ParseType(a.Engine); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if _, ok := parseStatus(a.Expect); !ok {
			return fmt.Errorf("assertions[%d]: expect must be idle, active or solved, got %q", index, a.Expect)
		}
	case AssertPhase:
		if _, ok := lights.ParsePhase(a.Expect); !ok {
			return fmt.Errorf("assertions[%d]: unknown lights phase %q", index, a.Expect)
		}
	case AssertFixed:
		if _, err := complication.ParseType(a.Engine); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Expect != "true" && a.Expect != "false" {
			return fmt.Errorf("assertions[%d]: expect must be \"true\" or \"false\" for fixed", index)
		}
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func parseStatus(s string) (puzzle.Status, bool) {
	for _, st := range []puzzle.Status{puzzle.Idle, puzzle.Active, puzzle.Solved} {
		if st.String() == s {
			return st, true
		}
	}
	return puzzle.Idle, false
}
