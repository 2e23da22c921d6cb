package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/store"
)

// UpgradeStatus reports one saved upgrade flag.
type UpgradeStatus struct {
	Type  complication.Type `json:"type"`
	Maxed bool              `json:"maxed"`
}

// UpgradesOptions holds flags shared by the upgrades subcommands.
type UpgradesOptions struct {
	*RootOptions
	Database string
}

// NewUpgradesCommand creates the upgrades command group.
func NewUpgradesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpgradesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "upgrades",
		Short: "Inspect or change saved upgrade flags",
		Long: `Read and write the per-type maxed upgrade flags in a save file.

A maxed lights upgrade shortens the sequence to memorise and a maxed
controls upgrade lowers the number of corners required. The serve command
reads these flags on start.

Examples:
  complications upgrades list --db ./save.db
  complications upgrades set lights --maxed --db ./save.db
  complications upgrades set controls --maxed=false --db ./save.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite save file (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newUpgradesListCommand(opts))
	cmd.AddCommand(newUpgradesSetCommand(opts))

	return cmd
}

func newUpgradesListCommand(opts *UpgradesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every upgrade flag",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgradesList(opts, cmd)
		},
	}
}

func newUpgradesSetCommand(opts *UpgradesOptions) *cobra.Command {
	var maxed bool

	cmd := &cobra.Command{
		Use:           "set <type>",
		Short:         "Set the maxed flag of one complication type",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgradesSet(opts, args[0], maxed, cmd)
		},
	}
	cmd.Flags().BoolVar(&maxed, "maxed", false, "maxed flag value")

	return cmd
}

func runUpgradesList(opts *UpgradesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	maxed, err := st.Maxed(context.Background())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read upgrades", err)
	}

	list := make([]UpgradeStatus, 0, len(complication.Types))
	for _, t := range complication.Types {
		list = append(list, UpgradeStatus{Type: t, Maxed: maxed.IsMaxed(t)})
	}

	if opts.Format == "json" {
		return formatter.Success(list)
	}
	w := cmd.OutOrStdout()
	for _, u := range list {
		fmt.Fprintf(w, "%-8s %s\n", u.Type, maxedLabel(u.Maxed))
	}
	return nil
}

func runUpgradesSet(opts *UpgradesOptions, typeName string, maxed bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	t, err := complication.ParseType(typeName)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidType, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid complication type", err)
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetMaxed(context.Background(), t, maxed); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to save upgrade", err)
	}
	formatter.VerboseLog("saved %s maxed=%s to %s", t, strconv.FormatBool(maxed), opts.Database)

	if opts.Format == "json" {
		return formatter.Success(UpgradeStatus{Type: t, Maxed: maxed})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s\n", t, maxedLabel(maxed))
	return nil
}

func maxedLabel(maxed bool) string {
	if maxed {
		return "maxed"
	}
	return "base"
}

// openStore opens the save file, reporting failures through formatter.
func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
