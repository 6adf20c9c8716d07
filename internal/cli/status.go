package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current timing picture",
		Long: `Show the current timing picture: phase, driver, stint, race and fuel
clocks, all reconciled against the current time.

Reconciliation is persisted, so reading status after a long absence also
catches the stored state up (a practice that timed out offline completes,
an expired race finishes).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, state, err := rootOpts.oneshot(cmd.Context(), nil)
			if err != nil {
				return err
			}

			now := rootOpts.clock().Now()
			f := rootOpts.formatter(cmd)
			if rootOpts.Format == "json" {
				return f.Success(statusView(state, now))
			}
			return f.Success(renderStatus(state, now))
		},
	}
	return cmd
}
