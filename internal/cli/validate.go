package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/complications/internal/config"
)

// ValidationIssue is one problem found in a tuning file.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Tuning *config.Tuning    `json:"tuning,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <tuning-file>",
		Short: "Validate a tuning file",
		Long: `Validate a tuning file without starting anything.

YAML files (.yaml, .yml) are decoded strictly over the stock tuning. CUE
files (.cue) are unified with the built-in schema first. Either way the
result must pass the range and cross-field checks the engines rely on.

Examples:
  complications validate ./tuning.yaml
  complications validate ./tuning.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	formatter.VerboseLog("Validating %s", path)

	tuning, err := config.Load(path)
	if err == nil {
		return outputValidateSuccess(formatter, tuning)
	}

	var loadErr *config.LoadError
	if errors.As(err, &loadErr) && loadErr.Code == config.CodeNotFound {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, loadErr.Message)
	}

	issues := validationIssues(err)
	return outputValidationErrors(formatter, issues)
}

// validationIssues flattens a Load error into reportable issues.
func validationIssues(err error) []ValidationIssue {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			issue.Line = loadErr.Pos.Line()
		}
		return []ValidationIssue{issue}
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		issues := make([]ValidationIssue, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			issues = append(issues, ValidationIssue{Field: f.Field, Code: config.CodeConstraint, Message: f.Message})
		}
		return issues
	}

	return []ValidationIssue{{Code: ErrCodeTuning, Message: err.Error()}}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, tuning config.Tuning) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tuning: &tuning})
	}

	fmt.Fprintln(formatter.Writer, "✓ Tuning valid")
	formatter.VerboseLog("recently fixed %dms, lights length %d/%d, controls required %d/%d",
		tuning.RecentlyFixedMs,
		tuning.Lights.SequenceLength, tuning.Lights.MaxedSequenceLength,
		tuning.Controls.Required, tuning.Controls.MaxedRequired)
	return nil
}

// outputValidationErrors outputs every validation issue.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
