package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Type     string // optional - filter to one complication type
}

// HistoryResult holds the complete history output.
type HistoryResult struct {
	Resolutions []store.Resolution        `json:"resolutions"`
	Counts      map[complication.Type]int `json:"counts"`
	Total       int                       `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded resolutions",
		Long: `List the complications resolved while serving with a save file.

Each entry shows the order it was recorded in, the logical time of the
resolution and the complication id. Per-type totals follow the list.

Examples:
  complications history --db ./save.db
  complications history --db ./save.db --type lights --limit 20
  complications history --db ./save.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite save file (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of resolutions to list (0 for all)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one complication type")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d", opts.Limit))
	}
	var filter complication.Type
	if opts.Type != "" {
		t, err := complication.ParseType(opts.Type)
		if err != nil {
			_ = formatter.Error(ErrCodeInvalidType, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid complication type", err)
		}
		filter = t
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	// The type filter is applied after the limit so --limit always means
	// "the oldest N recorded".
	all, err := st.Resolutions(ctx, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read resolutions", err)
	}
	counts, err := st.ResolutionCounts(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to count resolutions", err)
	}

	result := HistoryResult{Resolutions: []store.Resolution{}, Counts: counts}
	for _, r := range all {
		if filter == "" || r.Type == filter {
			result.Resolutions = append(result.Resolutions, r)
		}
	}
	for _, n := range counts {
		result.Total += n
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputHistoryText(cmd, result)
}

func outputHistoryText(cmd *cobra.Command, result HistoryResult) error {
	w := cmd.OutOrStdout()

	if len(result.Resolutions) == 0 {
		fmt.Fprintln(w, "No resolutions recorded.")
	} else {
		fmt.Fprintln(w, "Resolutions:")
		for _, r := range result.Resolutions {
			at := time.Duration(r.AtMs) * time.Millisecond
			fmt.Fprintf(w, "  [%d] %10s %-8s %s\n", r.Seq, at, r.Type, r.ComplicationID)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Totals:")
	for _, t := range complication.Types {
		fmt.Fprintf(w, "  %-8s %d\n", t, result.Counts[t])
	}
	fmt.Fprintf(w, "  %-8s %d\n", "all", result.Total)
	return nil
}
