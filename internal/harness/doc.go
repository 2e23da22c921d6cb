// Package harness runs scripted play sessions against the console and checks
// the outcome.
//
// A scenario drives a console.Console through a list of steps on the logical
// clock, with a complication.Board as the list owner, then evaluates
// assertions against the recorded trace and the final engine state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed: 42
//	maxed: [lights]
//	steps:
//	  - spawn: laser
//	  - slider: { engine: laser, index: 0, value: -1 }
//	  - press: { engine: lights, button: 2 }
//	  - release: { button: 2 }
//	  - drag: { points: [{ x: 160, y: 100 }, { x: 100, y: 160 }] }
//	  - advance: 500ms
//	  - solve: controls
//	  - remove: lights
//	assertions:
//	  - type: resolved_count
//	    count: 1
//	  - type: status
//	    engine: laser
//	    expect: idle
//	  - type: trace_contains
//	    engine: laser
//	    kind: resolve
//
// Each step sets exactly one field. After every step the console is
// reconciled with the board, the way the live loop reconciles after every
// command.
//
// # Assertion Types
//
//   - resolved_count: number of complications the board saw resolved
//   - status: lifecycle status of one engine (idle, active, solved)
//   - phase: current lights phase
//   - fixed: whether an engine shows its recently-fixed label ("true"/"false")
//   - trace_contains: an event with the given engine, kind and detail exists
//   - trace_count: number of events matching engine and kind
//
// # Deterministic Testing
//
// Randomness comes from rng.NewSeeded(seed), complication ids from
// complication.NewSequenceIDs, and time only moves through advance steps and
// assisted solves. The same scenario always yields the same trace, which
// RunWithGolden compares against testdata/golden.
package harness
