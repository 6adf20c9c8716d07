package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/enduro/internal/race"
)

// NewStintCommand creates the stint command group for editing the planned
// rotation. Indexes on the command line are 1-based, matching the report
// and status output.
func NewStintCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stint",
		Short: "Edit the planned stint sequence",
	}

	cmd.AddCommand(
		newStintAddCommand(rootOpts),
		newStintSetCommand(rootOpts),
		newStintDeleteCommand(rootOpts),
		newStintMoveCommand(rootOpts),
		newStintSetStartCommand(rootOpts),
	)
	return cmd
}

func newStintAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		planned float64
		index   int
	)

	cmd := &cobra.Command{
		Use:           "add <driver>",
		Short:         "Add a stint for a driver (by id or name)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveDriver(rootOpts, cmd, args[0])
			if err != nil {
				return err
			}
			ev := race.AddStint{Entry: race.StintEntry{DriverID: id}}
			if cmd.Flags().Changed("planned") {
				ev.Entry.PlannedMinutes = &planned
			}
			if cmd.Flags().Changed("index") {
				i := index - 1
				ev.Index = &i
			}
			return dispatchEvent(rootOpts, cmd, ev, "stint add")
		},
	}

	cmd.Flags().Float64Var(&planned, "planned", 0, "planned minutes for the stint")
	cmd.Flags().IntVar(&index, "index", 0, "1-based position to insert at (defaults to the end)")
	return cmd
}

func newStintSetCommand(rootOpts *RootOptions) *cobra.Command {
	var planned float64

	cmd := &cobra.Command{
		Use:           "set <index> <driver>",
		Short:         "Replace the stint at a position",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			id, err := resolveDriver(rootOpts, cmd, args[1])
			if err != nil {
				return err
			}
			ev := race.UpdateStint{Index: index, Entry: race.StintEntry{DriverID: id}}
			if cmd.Flags().Changed("planned") {
				ev.Entry.PlannedMinutes = &planned
			}
			return dispatchEvent(rootOpts, cmd, ev, "stint set")
		},
	}

	cmd.Flags().Float64Var(&planned, "planned", 0, "planned minutes for the stint")
	return cmd
}

func newStintDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <index>",
		Short:         "Remove the stint at a position",
		Long:          "Remove the stint at a position. The stint currently being driven cannot be removed.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			return dispatchEvent(rootOpts, cmd, race.DeleteStint{Index: index}, "stint delete")
		},
	}
}

func newStintMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "move <from> <to>",
		Short:         "Reorder the stint sequence",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			to, err := parseIndexArg(args[1])
			if err != nil {
				return err
			}
			return dispatchEvent(rootOpts, cmd, race.MoveStint{From: from, To: to}, "stint move")
		},
	}
}

func newStintSetStartCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:           "set-start",
		Short:         "Correct the running stint's start time",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAtFlag(at)
			if err != nil {
				return err
			}
			if t == nil {
				return NewExitError(ExitCommandError, "--at is required")
			}
			return dispatchEvent(rootOpts, cmd, race.SetStintStart{At: *t}, "stint set-start")
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "corrected start instant (RFC 3339)")
	return cmd
}

// resolveDriver maps a driver reference (id or display name) onto a roster
// id using the stored configuration.
func resolveDriver(rootOpts *RootOptions, cmd *cobra.Command, ref string) (string, error) {
	state, _, err := rootOpts.oneshot(cmd.Context(), nil)
	if err != nil {
		return "", err
	}
	if _, ok := state.Config.DriverByID(ref); ok {
		return ref, nil
	}
	for _, d := range state.Config.Drivers {
		if d.Name == ref {
			return d.ID, nil
		}
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown driver %q", ref))
}

// parseIndexArg converts a 1-based command-line index into the 0-based
// sequence index.
func parseIndexArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid stint index %q (want a 1-based position)", arg))
	}
	return n - 1, nil
}
