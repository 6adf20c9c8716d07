package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/enduro/internal/race"
	"github.com/roach88/enduro/internal/telemetry"
)

// DefaultTickInterval is the default period of the internal ticker.
const DefaultTickInterval = 100 * time.Millisecond

// Clock supplies the current instant. Production uses the wall clock;
// tests inject testutil.ManualClock.
type Clock interface {
	Now() time.Time
}

// WallClock reads the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// Store is the durable storage the session persists through.
// Implemented by store.Store (production) and fakes (tests).
type Store interface {
	LoadState(ctx context.Context) (race.State, bool, error)
	SaveState(ctx context.Context, s race.State, now time.Time) error
	LoadConfig(ctx context.Context) (race.Config, bool, error)
	SaveConfig(ctx context.Context, cfg race.Config, now time.Time) error
	AppendStints(ctx context.Context, epoch int, stints []race.CompletedStint) error
}

// command is a unit of work for the Run loop. A nil event is a pure query.
type command struct {
	event race.Event
	reply chan race.State
}

// Session owns the race state and serializes every mutation through its
// Run loop.
type Session struct {
	store    Store
	clock    Clock
	interval time.Duration
	pub      telemetry.Publisher

	cmds chan command

	// Loop-owned after Run starts. Never touched from other goroutines.
	state       race.State
	lastConfig  race.Config
	loggedEpoch int
	loggedCount int
	lastPublish time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithInterval sets the ticker period.
func WithInterval(d time.Duration) Option {
	return func(s *Session) { s.interval = d }
}

// WithPublisher attaches a telemetry publisher. Snapshots are published
// after every applied transition; publishing is outbound-only and a
// publish failure never disturbs the state.
func WithPublisher(p telemetry.Publisher) Option {
	return func(s *Session) { s.pub = p }
}

// New creates a Session over the given store.
func New(st Store, opts ...Option) *Session {
	s := &Session{
		store:    st,
		clock:    WallClock{},
		interval: DefaultTickInterval,
		cmds:     make(chan command),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch submits an event and returns the state after it was applied.
// Thread-safe: may be called from any goroutine while Run is active.
func (s *Session) Dispatch(ctx context.Context, ev race.Event) (race.State, error) {
	cmd := command{event: ev, reply: make(chan race.State, 1)}
	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return race.State{}, ctx.Err()
	}
	select {
	case out := <-cmd.reply:
		return out, nil
	case <-ctx.Done():
		return race.State{}, ctx.Err()
	}
}

// Current returns the present state without applying an event.
func (s *Session) Current(ctx context.Context) (race.State, error) {
	return s.Dispatch(ctx, nil)
}

// Run starts the single-writer loop. Blocks until the context is
// cancelled. Must be called from exactly one goroutine.
//
// On entry the loop boots: it loads the persisted configuration and state,
// reconciles the state against the current clock (offline catch-up), and
// persists the result before accepting commands.
func (s *Session) Run(ctx context.Context) error {
	if err := s.boot(ctx); err != nil {
		return fmt.Errorf("session boot: %w", err)
	}

	slog.Info("session started",
		"phase", s.state.CurrentPhase(),
		"epoch", s.state.Epoch,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session stopping: context cancelled")
			return ctx.Err()

		case cmd := <-s.cmds:
			if cmd.event != nil {
				s.transition(ctx, func(st race.State, now time.Time) race.State {
					return race.Apply(st, cmd.event, now)
				})
			}
			cmd.reply <- s.state

		case <-ticker.C:
			// The ticker only matters while a clock is moving; an idle or
			// paused machine cannot change with the passage of time.
			if !race.AnyClockRunning(s.state) {
				continue
			}
			s.transition(ctx, race.Tick)

			// Live timing feed while a clock runs, throttled to once a
			// second between state changes.
			if now := s.clock.Now(); s.pub != nil && now.Sub(s.lastPublish) >= time.Second {
				s.publish(now)
			}
		}
	}
}

// boot loads persisted data, reconciles it against the current clock and
// persists the reconciled state. Called once, before the loop accepts
// commands.
func (s *Session) boot(ctx context.Context) error {
	now := s.clock.Now()

	cfg, haveCfg, err := s.store.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if !haveCfg {
		cfg = race.DefaultConfig()
		if err := s.store.SaveConfig(ctx, cfg, now); err != nil {
			return err
		}
	}

	st, haveState, err := s.store.LoadState(ctx)
	if err != nil {
		return err
	}
	switch {
	case !haveState:
		st = race.New(cfg)
	case !st.Config.Equal(cfg):
		// The stored configuration is newer than the snapshot's embedded
		// copy (edited while the loop was down). Overlay it through the
		// same path a live edit takes.
		st = race.Apply(st, race.LoadConfig{Config: cfg}, now)
	}

	st = race.Reconcile(st, now)
	s.state = st
	s.lastConfig = cfg
	s.loggedEpoch = st.Epoch
	s.loggedCount = 0

	s.persist(ctx, now)
	s.publish(now)
	return nil
}

// transition applies fn to the current state at the clock's now, then
// persists and publishes when the state changed.
// Called only from the Run goroutine.
func (s *Session) transition(ctx context.Context, fn func(race.State, time.Time) race.State) {
	now := s.clock.Now()
	next := fn(s.state, now)
	if race.Equal(s.state, next) {
		return
	}
	s.state = next
	s.persist(ctx, now)
	s.publish(now)
}

// persist saves the snapshot and appends newly completed stints.
// Failures are logged and the loop continues; the in-memory state remains
// authoritative until the next successful save.
func (s *Session) persist(ctx context.Context, now time.Time) {
	if err := s.store.SaveState(ctx, s.state, now); err != nil {
		slog.Error("state save failed",
			"error", err,
			"phase", s.state.CurrentPhase(),
			"epoch", s.state.Epoch,
		)
	}

	// Stint edits, official-start changes and config loads travel inside
	// the state; mirror them into the config blob so the next boot sees
	// the same configuration the machine is running on.
	if !s.state.Config.Equal(s.lastConfig) {
		if err := s.store.SaveConfig(ctx, s.state.Config, now); err != nil {
			slog.Error("config save failed", "error", err)
		} else {
			s.lastConfig = s.state.Config
		}
	}

	if s.state.Epoch != s.loggedEpoch {
		s.loggedEpoch = s.state.Epoch
		s.loggedCount = 0
	}
	if n := len(s.state.CompletedStints); n > s.loggedCount {
		if err := s.store.AppendStints(ctx, s.state.Epoch, s.state.CompletedStints[s.loggedCount:]); err != nil {
			slog.Error("stint log append failed",
				"error", err,
				"epoch", s.state.Epoch,
			)
			return
		}
		s.loggedCount = n
	}
}

// publish sends a snapshot to the attached publisher, if any.
func (s *Session) publish(now time.Time) {
	if s.pub == nil {
		return
	}
	s.lastPublish = now
	if err := s.pub.Publish(telemetry.BuildSnapshot(s.state, now)); err != nil {
		slog.Warn("telemetry publish failed", "error", err)
	}
}

// Oneshot boots against the store, optionally applies a single event, and
// persists. It returns the reconciled state before the event and the state
// after it, so callers can tell a transition from a no-op. Used by the CLI
// commands that act on the database without keeping a loop alive.
func Oneshot(ctx context.Context, st Store, clock Clock, ev race.Event) (before, after race.State, err error) {
	s := New(st, WithClock(clock))
	if err := s.boot(ctx); err != nil {
		return race.State{}, race.State{}, err
	}
	before = s.state
	if ev != nil {
		s.transition(ctx, func(r race.State, now time.Time) race.State {
			return race.Apply(r, ev, now)
		})
	}
	return before, s.state, nil
}
