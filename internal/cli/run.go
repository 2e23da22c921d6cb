package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/complications/internal/config"
	"github.com/roach88/complications/internal/harness"
	"github.com/roach88/complications/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Tuning string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string        `json:"scenario"`
	Pass     bool          `json:"pass"`
	Resolved []string      `json:"resolved"`
	Trace    []trace.Event `json:"trace"`
	Errors   []string      `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario headlessly on the logical clock and print every
trace event it produced, followed by the assertion outcome.

Exit codes:
  0 - All assertions held
  1 - An assertion failed
  2 - The scenario or tuning could not be loaded, or a step failed

Examples:
  complications run ./scenarios/lights_resolve.yaml
  complications run ./scenarios/all_three.yaml --tuning ./tuning.cue
  complications run ./scenarios/laser_resolve.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tuning, "tuning", "", "tuning file (.yaml, .yml or .cue); defaults apply when empty")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	tuning, err := loadTuning(opts.Tuning)
	if err != nil {
		_ = formatter.Error(ErrCodeTuning, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load tuning", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("Running %s (seed %d, %d step(s))", scenario.Name, scenario.Seed, len(scenario.Steps))

	result, err := harness.RunWithTuning(scenario, tuning)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			Data: RunResult{
				Scenario: scenario.Name,
				Pass:     result.Pass,
				Resolved: result.Resolved,
				Trace:    result.Trace,
				Errors:   result.Errors,
			},
		}
		if !result.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeTestFailed, Message: fmt.Sprintf("%d assertion(s) failed", len(result.Errors))}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
		for _, e := range result.Trace {
			fmt.Fprintf(w, "  %s\n", harness.FormatEvent(e))
		}
		fmt.Fprintf(w, "Resolved: %s\n", strings.Join(result.Resolved, ", "))
		if result.Pass {
			fmt.Fprintln(w, "PASS")
		} else {
			fmt.Fprintln(w, "FAIL")
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// loadTuning returns the stock tuning for an empty path.
func loadTuning(path string) (config.Tuning, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
