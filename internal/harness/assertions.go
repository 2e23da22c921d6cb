package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []trace.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", FormatEvent(event))
		}
	}

	return buf.String()
}

// FormatEvent renders one trace event as a single line.
func FormatEvent(e trace.Event) string {
	line := fmt.Sprintf("[%d] %6dms %-8s %-11s", e.Seq, e.AtMs, e.Engine, e.Kind)
	if e.ID != "" {
		line += " " + e.ID
	}
	if e.Detail != "" {
		line += " (" + e.Detail + ")"
	}
	return strings.TrimRight(line, " ")
}

// EvaluateAssertions checks all assertions against the result and the final
// console state. Returns the failure messages, empty if every assertion
// holds.
func EvaluateAssertions(result *Result, assertions []Assertion, c *console.Console) []string {
	var errors []string
	for i, a := range assertions {
		if err := evaluate(result, a, c); err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errors
}

func evaluate(result *Result, a Assertion, c *console.Console) error {
	switch a.Type {
	case AssertResolvedCount:
		return assertResolvedCount(result, a)
	case AssertStatus:
		return assertStatus(c, a)
	case AssertPhase:
		return assertPhase(c, a)
	case AssertFixed:
		return assertFixed(c, a)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertResolvedCount(result *Result, a Assertion) error {
	if len(result.Resolved) != a.Count {
		return &AssertionError{
			Type:     AssertResolvedCount,
			Expected: fmt.Sprintf("%d resolved", a.Count),
			Actual:   fmt.Sprintf("%d resolved %v", len(result.Resolved), result.Resolved),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertStatus(c *console.Console, a Assertion) error {
	t, err := complication.ParseType(a.Engine)
	if err != nil {
		return err
	}
	got, _ := c.Status(t)
	if got.String() != a.Expect {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s %s", t, a.Expect),
			Actual:   fmt.Sprintf("%s %s", t, got),
		}
	}
	return nil
}

func assertPhase(c *console.Console, a Assertion) error {
	got := c.Lights.Phase()
	if got.String() != a.Expect {
		return &AssertionError{
			Type:     AssertPhase,
			Expected: "lights " + a.Expect,
			Actual:   "lights " + got.String(),
		}
	}
	return nil
}

func assertFixed(c *console.Console, a Assertion) error {
	t, err := complication.ParseType(a.Engine)
	if err != nil {
		return err
	}
	want, err := strconv.ParseBool(a.Expect)
	if err != nil {
		return fmt.Errorf("fixed: %w", err)
	}
	if got := c.RecentlyFixed(t); got != want {
		return &AssertionError{
			Type:     AssertFixed,
			Expected: fmt.Sprintf("%s recently fixed = %t", t, want),
			Actual:   fmt.Sprintf("%s recently fixed = %t", t, got),
		}
	}
	return nil
}

// matches reports whether an event satisfies the assertion's engine, kind
// and detail filters. Empty filters match anything.
func matches(e trace.Event, a Assertion) bool {
	if a.Engine != "" && e.Engine != a.Engine {
		return false
	}
	if e.Kind != trace.Kind(a.Kind) {
		return false
	}
	return a.Detail == "" || e.Detail == a.Detail
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(events []trace.Event, a Assertion) error {
	for _, e := range events {
		if matches(e, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    events,
	}
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(events []trace.Event, a Assertion) error {
	count := 0
	for _, e := range events {
		if matches(e, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    events,
		}
	}
	return nil
}

func describe(a Assertion) string {
	s := a.Kind
	if a.Engine != "" {
		s = a.Engine + " " + s
	}
	if a.Detail != "" {
		s += fmt.Sprintf(" (%s)", a.Detail)
	}
	return s
}
