package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/enduro/internal/testutil"
)

var t0 = time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

// testEnv is a database plus a manual clock shared by a command sequence.
type testEnv struct {
	opts  *RootOptions
	clock *testutil.ManualClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := testutil.NewManualClock(t0)
	return &testEnv{
		opts: &RootOptions{
			Database: filepath.Join(t.TempDir(), "enduro.db"),
			Format:   "text",
			Clock:    clock,
		},
		clock: clock,
	}
}

// loadTeam loads the two-driver test configuration into the database.
func (e *testEnv) loadTeam(t *testing.T) {
	t.Helper()
	cmd := NewConfigCommand(e.opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"load", filepath.Join("testdata", "team.yaml")})
	require.NoError(t, cmd.Execute())
}

// run executes a command tree with args and returns its output.
func (e *testEnv) run(t *testing.T, build func(*RootOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := build(e.opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRaceStartCommand(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	out, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)
	assert.Contains(t, out, "start: phase race")
	assert.Contains(t, out, "Driver:   Alex")
}

func TestRaceStartCommand_NoopWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	out, err := env.run(t, NewRaceCommand, "start")
	require.Error(t, err, "starting twice has no effect and exits non-zero")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeEventNoop)
}

func TestPauseResumeCommands(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	env.clock.Set(t0.Add(10 * time.Minute))
	out, err := env.run(t, NewRaceCommand, "pause")
	require.NoError(t, err)
	assert.Contains(t, out, "phase race-paused")

	env.clock.Set(t0.Add(15 * time.Minute))
	out, err = env.run(t, NewRaceCommand, "resume")
	require.NoError(t, err)
	assert.Contains(t, out, "phase race")
}

func TestSwapCommand(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	env.clock.Set(t0.Add(30 * time.Minute))
	out, err := env.run(t, NewSwapCommand, "--refuel")
	require.NoError(t, err)
	assert.Contains(t, out, "Driver:   Sam")
}

func TestSwapCommand_BadAtFlag(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewSwapCommand, "--at", "half past three")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatusCommand_Golden(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	env.clock.Set(t0.Add(12 * time.Minute))
	out, err := env.run(t, NewStatusCommand)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "status", []byte(out))
}

func TestStatusCommand_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)
	env.opts.Format = "json"

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	env.clock.Set(t0.Add(12 * time.Minute))
	out, err := env.run(t, NewStatusCommand)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "race", data["phase"])
	assert.Equal(t, float64(12*60), data["race_elapsed_sec"])
	assert.Equal(t, float64(28*60), data["fuel_remain_sec"])
}

func TestReportCommand_Golden(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	env.clock.Set(t0.Add(30 * time.Minute))
	_, err = env.run(t, NewSwapCommand, "--refuel")
	require.NoError(t, err)

	out, err := env.run(t, NewReportCommand)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report", []byte(out))
}

func TestReportCommand_EmptyLog(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	out, err := env.run(t, NewReportCommand)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeEmptyReport)
}

func TestConfigShowCommand(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	out, err := env.run(t, NewConfigCommand, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Alex")
	assert.Contains(t, out, "Race duration:  1:00:00")
}

func TestConfigLoadCommand_BadFile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, NewConfigCommand, "load", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStintCommands(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	out, err := env.run(t, NewStintCommand, "add", "Sam", "--planned", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "stint add")

	// The added entry survives into config show.
	out, err = env.run(t, NewConfigCommand, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "3. Sam  0:25:00")

	_, err = env.run(t, NewStintCommand, "delete", "3")
	require.NoError(t, err)

	_, err = env.run(t, NewStintCommand, "add", "Nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStintMoveCommand_BadIndex(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewStintCommand, "move", "zero", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOfficialStartCommand(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewConfigCommand, "set-official-start", "2026-05-16T14:00:00Z")
	require.NoError(t, err)

	out, err := env.run(t, NewConfigCommand, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Official start: 2026-05-16T14:00:00Z")

	_, err = env.run(t, NewConfigCommand, "set-official-start", "--clear")
	require.NoError(t, err)
}

func TestRootCommand_RejectsBadFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "status"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestPracticeCommands_NoopWithoutPractice(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t) // team.yaml has no practice phase

	_, err := env.run(t, NewPracticeCommand, "start")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReconcileAcrossInvocations(t *testing.T) {
	env := newTestEnv(t)
	env.loadTeam(t)

	_, err := env.run(t, NewRaceCommand, "start")
	require.NoError(t, err)

	// Next invocation happens well after the finish: status alone catches
	// the stored state up to completed.
	env.clock.Set(t0.Add(2 * time.Hour))
	out, err := env.run(t, NewStatusCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "Phase:    completed")
}
