package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/complications/internal/trace"
)

// lifecycleKinds are the event kinds kept in golden snapshots. Per-engine
// progress events (phase, corner, replay) carry randomized details and are
// covered by assertions instead.
var lifecycleKinds = map[trace.Kind]bool{
	trace.KindSpawn:      true,
	trace.KindResolve:    true,
	trace.KindReset:      true,
	trace.KindFixed:      true,
	trace.KindFixedClear: true,
}

// Snapshot renders the lifecycle part of a trace as canonical JSON, the
// form stored in golden files.
func Snapshot(scenarioName string, events []trace.Event) ([]byte, error) {
	list := make([]any, 0, len(events))
	for _, e := range events {
		if lifecycleKinds[e.Kind] {
			list = append(list, e.Map())
		}
	}
	return trace.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         list,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
