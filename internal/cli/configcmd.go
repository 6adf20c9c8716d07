package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/enduro/internal/race"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Load and inspect the team configuration",
	}

	cmd.AddCommand(
		newConfigLoadCommand(rootOpts),
		newConfigShowCommand(rootOpts),
		newConfigOfficialStartCommand(rootOpts),
	)
	return cmd
}

func newConfigLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a YAML configuration file",
		Long: `Load a YAML configuration file, replacing the stored configuration.

The file is validated against the configuration schema before anything is
applied. An in-flight race or practice is reconciled against the new
durations and sequence; it is not reset.

Example:
  enduro config load team.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfigFile(args[0])
			if err != nil {
				f := rootOpts.formatter(cmd)
				var le *LoadError
				if errors.As(err, &le) {
					_ = f.Error(le.Code, le.Message, nil)
				}
				return WrapExitError(ExitCommandError, "config load failed", err)
			}
			return dispatchEvent(rootOpts, cmd, race.LoadConfig{Config: cfg}, "config load")
		},
	}
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the active configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, state, err := rootOpts.oneshot(cmd.Context(), nil)
			if err != nil {
				return err
			}

			f := rootOpts.formatter(cmd)
			if rootOpts.Format == "json" {
				return f.Success(state.Config)
			}
			return f.Success(renderConfig(state.Config))
		},
	}
}

func newConfigOfficialStartCommand(rootOpts *RootOptions) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:           "set-official-start [time]",
		Short:         "Set or clear the scheduled race start",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := race.SetOfficialStart{}
			switch {
			case clear && len(args) > 0:
				return NewExitError(ExitCommandError, "give either a time or --clear, not both")
			case clear:
				// At stays nil
			case len(args) == 1:
				t, err := parseAtFlag(args[0])
				if err != nil {
					return err
				}
				ev.At = t
			default:
				return NewExitError(ExitCommandError, "a time (RFC 3339) or --clear is required")
			}
			return dispatchEvent(rootOpts, cmd, ev, "set-official-start")
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the scheduled start")
	return cmd
}
