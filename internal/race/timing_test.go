package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuelRemaining_Deterministic(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)

	// Pure function of stored state: any number of recomputations at the
	// same effective now yields the same value.
	want := FuelRemaining(s, at(17))
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, FuelRemaining(s, at(17)))
	}
	assert.Equal(t, minutes(23), want)
}

func TestFuelRemaining_ClampsAtEmpty(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	assert.Equal(t, time.Duration(0), FuelRemaining(s, at(55)))
	assert.Equal(t, 0.0, FuelLevel(s, at(55)))
}

func TestFuelRemaining_FullTankWithoutAnchor(t *testing.T) {
	s := New(testConfig())
	assert.Equal(t, minutes(40), FuelRemaining(s, at(999)))
	assert.Equal(t, 1.0, FuelLevel(s, at(999)))
}

func TestFuelAlert_Boundaries(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)

	// 40-minute tank, 10-minute threshold: the alert holds strictly between
	// empty and the threshold.
	s = Tick(s, at(29))
	assert.False(t, s.FuelAlertActive, "remaining 11m is above the threshold")

	s = Tick(s, at(30))
	assert.False(t, s.FuelAlertActive, "remaining exactly the threshold is not an alert")

	s = Tick(s, at(31))
	assert.True(t, s.FuelAlertActive, "remaining 9m is inside the warning band")

	s = Tick(s, at(40))
	assert.False(t, s.FuelAlertActive, "an empty tank is not a warning")
}

func TestPausePreservesFuel(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)

	s = Apply(s, PauseRace{}, at(10))
	assert.Equal(t, minutes(30), FuelRemaining(s, at(10)))
	assert.Equal(t, minutes(30), FuelRemaining(s, at(40)), "frozen at the pause instant")

	s = Apply(s, ResumeRace{}, at(40))
	assert.Equal(t, minutes(30), FuelRemaining(s, at(40)), "remaining at resume equals remaining at pause")
	assert.Equal(t, at(30), *s.FuelTankStartTime)
}

func TestStintElapsedAndRemaining(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)

	assert.Equal(t, minutes(12), StintElapsed(s, at(12)))
	assert.Equal(t, minutes(18), StintRemaining(s, at(12)))

	eta := StintETA(s)
	require.NotNil(t, eta)
	assert.Equal(t, at(30), *eta)

	s = Apply(s, PauseRace{}, at(12))
	assert.Equal(t, minutes(12), StintElapsed(s, at(50)), "stint clock frozen while paused")
	assert.Equal(t, minutes(18), StintRemaining(s, at(50)), "remaining frozen too")

	s = Apply(s, ResumeRace{}, at(50))
	assert.Equal(t, time.Duration(0), StintRemaining(s, at(999)), "clamped at zero once the plan is exceeded")
}

func TestStintRemaining_DefaultsToFuelDuration(t *testing.T) {
	cfg := testConfig()
	cfg.StintSequence = []StintEntry{{DriverID: "d1"}, {DriverID: "d2"}}
	s := Apply(New(cfg), StartRace{}, t0)

	assert.Equal(t, minutes(40), StintRemaining(s, t0), "unset planned length falls back to the fuel duration")
}

func TestNextCheckup(t *testing.T) {
	cfg := testConfig()
	cfg.CheckupMinutes = 12
	s := Apply(New(cfg), StartRace{}, t0)

	next := NextCheckup(s, at(5))
	require.NotNil(t, next)
	assert.Equal(t, at(12), *next)

	next = NextCheckup(s, at(12))
	require.NotNil(t, next)
	assert.Equal(t, at(24), *next)

	assert.Nil(t, NextCheckup(New(cfg), t0), "no running stint, no checkup")
	assert.Nil(t, NextCheckup(Apply(New(testConfig()), StartRace{}, t0), at(5)), "unconfigured")
}

func TestRaceElapsed_ExcludesPause(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	s = Apply(s, PauseRace{}, at(10))
	s = Apply(s, ResumeRace{}, at(25))

	assert.Equal(t, minutes(30), RaceElapsed(s, at(45)), "10m before the pause plus 20m after")
	assert.Equal(t, minutes(30), RaceRemaining(s, at(45)))
}

func TestRaceTimings_BeforeAndAfterRace(t *testing.T) {
	s := New(testConfig())
	assert.Equal(t, time.Duration(0), RaceElapsed(s, t0))
	assert.Equal(t, minutes(60), RaceRemaining(s, t0))

	s = Apply(s, StartRace{}, t0)
	s = Tick(s, at(61))
	assert.Equal(t, minutes(60), RaceElapsed(s, at(90)), "elapsed frozen at the full duration after completion")
	assert.Equal(t, time.Duration(0), RaceRemaining(s, at(90)))
	assert.Equal(t, time.Duration(0), FuelRemaining(s, at(90))-FuelRemaining(s, at(500)),
		"fuel frozen at the chequered flag")
}

func TestAnyClockRunning(t *testing.T) {
	s := New(practiceConfig())
	assert.False(t, AnyClockRunning(s))

	s = Apply(s, StartPractice{}, t0)
	assert.True(t, AnyClockRunning(s))

	s = Apply(s, PausePractice{}, at(5))
	assert.False(t, AnyClockRunning(s))

	s = Apply(s, ResumePractice{}, at(6))
	s = Apply(s, CompletePractice{}, at(10))
	assert.False(t, AnyClockRunning(s))

	s = Apply(s, StartRace{}, at(15))
	assert.True(t, AnyClockRunning(s))

	s = Apply(s, PauseRace{}, at(20))
	assert.False(t, AnyClockRunning(s))
}

func TestCurrentPhase(t *testing.T) {
	s := New(practiceConfig())
	assert.Equal(t, PhaseIdle, s.CurrentPhase())

	s = Apply(s, StartPractice{}, t0)
	assert.Equal(t, PhasePractice, s.CurrentPhase())

	s = Apply(s, PausePractice{}, at(2))
	assert.Equal(t, PhasePracticePaused, s.CurrentPhase())

	s = Apply(s, ResumePractice{}, at(3))
	s = Apply(s, CompletePractice{}, at(5))
	assert.Equal(t, PhaseIdle, s.CurrentPhase())

	s = Apply(s, StartRace{}, at(10))
	assert.Equal(t, PhaseRace, s.CurrentPhase())

	s = Apply(s, PauseRace{}, at(15))
	assert.Equal(t, PhaseRacePaused, s.CurrentPhase())

	s = Apply(s, ResumeRace{}, at(16))
	s = Tick(s, at(71))
	assert.Equal(t, PhaseCompleted, s.CurrentPhase())
}
