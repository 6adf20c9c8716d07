package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/enduro/internal/session"
	"github.com/roach88/enduro/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Interval time.Duration
	Broker   string
	Topic    string

	// Publisher allows overriding the telemetry publisher (for testing).
	// If nil and --mqtt is set, a real MQTT publisher is connected.
	Publisher telemetry.Publisher
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timekeeping session until interrupted",
		Long: `Run the timekeeping session loop.

The session loads the persisted state, reconciles it against the clock
(catching up on anything that elapsed while the process was down), and then
drives the timers until the process receives SIGINT or SIGTERM.

Example:
  enduro run --db ./race.db
  enduro run --db ./race.db --mqtt tcp://localhost:1883 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", session.DefaultTickInterval, "tick interval")
	cmd.Flags().StringVar(&opts.Broker, "mqtt", "", "MQTT broker URL for telemetry (e.g. tcp://localhost:1883)")
	cmd.Flags().StringVar(&opts.Topic, "mqtt-topic", telemetry.DefaultTopic, "MQTT topic for telemetry snapshots")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database ready", "path", opts.Database)

	pub := opts.Publisher
	if pub == nil && opts.Broker != "" {
		pub, err = telemetry.NewRealPublisher(opts.Broker, opts.Topic)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to connect to MQTT broker", err)
		}
		slog.Info("telemetry connected", "broker", opts.Broker, "topic", opts.Topic)
	}

	sessOpts := []session.Option{
		session.WithClock(opts.clock()),
		session.WithInterval(opts.Interval),
	}
	if pub != nil {
		sessOpts = append(sessOpts, session.WithPublisher(pub))
	}
	sess := session.New(st, sessOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "Session started. Press Ctrl-C to stop.")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if pub != nil {
			if closeErr := pub.Close(); closeErr != nil {
				slog.Warn("error closing telemetry", "error", closeErr)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "session error", err)
	}

	slog.Info("session stopped gracefully")
	return nil
}
