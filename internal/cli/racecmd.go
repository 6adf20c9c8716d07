package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/enduro/internal/race"
)

// NewRaceCommand creates the race command group.
func NewRaceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Control the race clock",
	}

	cmd.AddCommand(
		eventCommand(rootOpts, "start", "Start the race", race.StartRace{}),
		eventCommand(rootOpts, "pause", "Pause the race (all clocks freeze)", race.PauseRace{}),
		eventCommand(rootOpts, "resume", "Resume a paused race", race.ResumeRace{}),
		eventCommand(rootOpts, "reset", "Reset the race to the pre-start state", race.ResetRace{}),
	)
	return cmd
}

// NewPracticeCommand creates the practice command group.
func NewPracticeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Control the practice clock",
	}

	cmd.AddCommand(
		eventCommand(rootOpts, "start", "Start the practice phase", race.StartPractice{}),
		eventCommand(rootOpts, "pause", "Pause practice", race.PausePractice{}),
		eventCommand(rootOpts, "resume", "Resume a paused practice", race.ResumePractice{}),
		eventCommand(rootOpts, "complete", "End practice now", race.CompletePractice{}),
		eventCommand(rootOpts, "reset", "Re-arm the practice phase", race.ResetPractice{}),
	)
	return cmd
}

// eventCommand builds a leaf command that dispatches a fixed event.
func eventCommand(rootOpts *RootOptions, use, short string, ev race.Event) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchEvent(rootOpts, cmd, ev, use)
		},
	}
}

// SwapOptions holds flags for the swap command.
type SwapOptions struct {
	*RootOptions
	At      string
	Refuel  bool
	Planned float64
}

// NewSwapCommand creates the swap command.
func NewSwapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SwapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Hand the car to the next driver in the rotation",
		Long: `Close the running stint and hand the car to the next driver in the
planned rotation. The rotation wraps around at the end of the sequence.

Example:
  enduro swap --refuel
  enduro swap --at 2026-05-16T14:03:00Z --planned 25`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAtFlag(opts.At)
			if err != nil {
				return err
			}
			ev := race.SwapDriver{At: at, Refuel: opts.Refuel}
			if cmd.Flags().Changed("planned") {
				ev.PlannedMinutes = &opts.Planned
			}
			return dispatchEvent(rootOpts, cmd, ev, "swap")
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "actual handover instant (RFC 3339, defaults to now)")
	cmd.Flags().BoolVar(&opts.Refuel, "refuel", false, "record a refuel with the swap")
	cmd.Flags().Float64Var(&opts.Planned, "planned", 0, "planned minutes for the incoming stint")

	return cmd
}

// NewRefuelCommand creates the refuel command.
func NewRefuelCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:           "refuel",
		Short:         "Record a refuel (fuel clock restarts from full)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAtFlag(at)
			if err != nil {
				return err
			}
			return dispatchEvent(rootOpts, cmd, race.Refuel{At: t}, "refuel")
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "refuel instant (RFC 3339, defaults to now)")
	return cmd
}
