package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Epoch int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the completed-stint log",
		Long: `Print the completed-stint log for one race.

By default the most recent race (highest epoch) is reported; earlier runs
survive resets and can be selected with --epoch.

Example:
  enduro report
  enduro report --epoch 1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Epoch, "epoch", 0, "race epoch to report (defaults to the latest)")
	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	epoch := opts.Epoch
	if epoch == 0 {
		latest, ok, err := st.LatestEpoch(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stint log", err)
		}
		if !ok {
			f := opts.formatter(cmd)
			_ = f.Error(ErrCodeEmptyReport, "no completed stints recorded yet", nil)
			return NewExitError(ExitFailure, "stint log is empty")
		}
		epoch = latest
	}

	stints, err := st.ListStints(ctx, epoch)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stint log", err)
	}
	if len(stints) == 0 {
		f := opts.formatter(cmd)
		_ = f.Error(ErrCodeEmptyReport, fmt.Sprintf("no stints recorded for race %d", epoch), nil)
		return NewExitError(ExitFailure, "stint log is empty")
	}

	f := opts.formatter(cmd)
	if opts.Format == "json" {
		return f.Success(map[string]any{
			"epoch":  epoch,
			"stints": stints,
		})
	}
	return f.Success(renderReport(epoch, stints))
}
