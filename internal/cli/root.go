package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/enduro/internal/race"
	"github.com/roach88/enduro/internal/session"
	"github.com/roach88/enduro/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database string
	Verbose  bool
	Format   string // "json" | "text"

	// Clock allows overriding the time source (for testing).
	// If nil, commands use the wall clock.
	Clock session.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the enduro CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "enduro",
		Short: "enduro - endurance race timekeeper",
		Long:  "Timekeeping for endurance kart and club racing: practice, race, stint rotation and fuel clocks over one durable state.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "enduro.db", "path to SQLite database")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewRaceCommand(opts))
	cmd.AddCommand(NewPracticeCommand(opts))
	cmd.AddCommand(NewSwapCommand(opts))
	cmd.AddCommand(NewRefuelCommand(opts))
	cmd.AddCommand(NewStintCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging configures the default slog handler from the verbose flag.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// clock returns the configured time source.
func (o *RootOptions) clock() session.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return session.WallClock{}
}

// formatter builds an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// oneshot opens the store, boots a session against it, optionally applies
// one event, and returns the state before and after. Shared by every
// command that acts on the database without keeping a loop alive.
func (o *RootOptions) oneshot(ctx context.Context, ev race.Event) (before, after race.State, err error) {
	st, err := o.openStore()
	if err != nil {
		return race.State{}, race.State{}, err
	}
	defer st.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	before, after, err = session.Oneshot(ctx, st, o.clock(), ev)
	if err != nil {
		return race.State{}, race.State{}, WrapExitError(ExitCommandError, "failed to load state", err)
	}
	return before, after, nil
}

// dispatchEvent runs ev one-shot and reports the resulting phase. Events
// that do not apply in the current phase leave the state unchanged; that is
// surfaced as an ExitFailure so scripts can tell a no-op from a transition.
func dispatchEvent(opts *RootOptions, cmd *cobra.Command, ev race.Event, verb string) error {
	before, after, err := opts.oneshot(cmd.Context(), ev)
	if err != nil {
		return err
	}

	f := opts.formatter(cmd)
	if race.Equal(before, after) {
		_ = f.Error(ErrCodeEventNoop, fmt.Sprintf("%s: no effect in phase %q", verb, before.CurrentPhase()), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s had no effect", verb))
	}

	now := opts.clock().Now()
	if opts.Format == "json" {
		return f.Success(statusView(after, now))
	}
	return f.Success(fmt.Sprintf("%s: phase %s\n%s", verb, after.CurrentPhase(), renderStatus(after, now)))
}

// parseAtFlag parses an optional --at flag value as RFC 3339.
func parseAtFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --at value %q (want RFC 3339)", value), err)
	}
	return &t, nil
}
