package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_OfflinePracticeTimeout(t *testing.T) {
	// Practice of 20 minutes started at t0; the app closed at t0+5 and was
	// reopened at t0+30. The timeout elapsed offline.
	s := Apply(New(practiceConfig()), StartPractice{}, t0)

	s = Reconcile(s, at(30))
	assert.True(t, s.PracticeCompleted)
	assert.False(t, s.PracticeActive)
	assert.Equal(t, at(20), *s.PracticeFinishTime, "completed at the planned finish, not the reload instant")
	assert.NoError(t, s.Validate())
}

func TestReconcile_RacePausedOffline(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	s = Apply(s, SwapDriver{}, at(8))
	s = Apply(s, PauseRace{}, at(10))
	frozen := s

	// Offline for 30 minutes while paused: the pause continues; offline time
	// counts as paused time, never as race time.
	s = Reconcile(frozen, at(40))
	assert.True(t, s.RaceActive)
	assert.True(t, s.RacePaused)
	assert.Equal(t, minutes(30), s.RacePauseTotal)
	assert.Equal(t, at(40), *s.RacePauseTime)
	assert.Equal(t, at(90), *s.RaceFinishTime)
	assert.Equal(t, minutes(50), RaceRemaining(s, at(40)))
	assert.Equal(t, minutes(30), FuelRemaining(s, at(40)), "fuel level unchanged by the offline pause")
	assert.Equal(t, minutes(2), StintElapsed(s, at(40)))

	// Resuming after reload behaves exactly like resuming a live pause.
	s = Apply(s, ResumeRace{}, at(45))
	assert.Equal(t, minutes(35), s.RacePauseTotal)
	assert.Equal(t, minutes(50), RaceRemaining(s, at(45)))
	assert.Equal(t, minutes(30), FuelRemaining(s, at(45)))
	assert.Equal(t, s.Config.RaceDuration(),
		s.RaceFinishTime.Sub(*s.RaceStartTime)-s.RacePauseTotal)
}

func TestReconcile_PracticePausedOffline(t *testing.T) {
	s := Apply(New(practiceConfig()), StartPractice{}, t0)
	s = Apply(s, PausePractice{}, at(5))

	s = Reconcile(s, at(60))
	assert.True(t, s.PracticeActive)
	assert.True(t, s.PracticePaused)
	assert.Equal(t, minutes(55), s.PracticePauseTotal)
	assert.Equal(t, at(55), *s.PracticeStartTime)
	assert.Equal(t, at(75), *s.PracticeFinishTime)
	assert.Equal(t, minutes(15), PracticeRemaining(s, at(60)))
	assert.Equal(t, minutes(35), FuelRemaining(s, at(60)))
	assert.False(t, s.PracticeCompleted, "a paused practice cannot time out offline")
}

func TestReconcile_RaceCompletedOffline(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	s = Apply(s, SwapDriver{}, at(30))

	// An active (unpaused) race keeps running while the process is away.
	s = Reconcile(s, at(75))
	assert.True(t, s.RaceCompleted)
	require.Len(t, s.CompletedStints, 2)
	assert.Equal(t, at(60), s.CompletedStints[1].EndTime)
}

func TestReconcile_EquivalentToContinuousTicking(t *testing.T) {
	start := Apply(New(practiceConfig()), StartPractice{}, t0)

	// Continuous ticking across the interval.
	ticked := start
	for m := 1; m <= 45; m++ {
		ticked = Tick(ticked, at(float64(m)))
	}

	// Freeze at t0, reload at t0+45, reconcile once.
	reconciled := Reconcile(start, at(45))

	assert.Equal(t, ticked, reconciled)
}

func TestReconcile_PausedStateObservationallyEquivalent(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	s = Apply(s, PauseRace{}, at(10))

	// While paused, continuous ticking is a no-op; reconciliation re-anchors
	// the pause instead. The representations differ but every derived value
	// and every later transition must agree.
	ticked := s
	for m := 11; m <= 40; m++ {
		ticked = Tick(ticked, at(float64(m)))
	}
	reconciled := Reconcile(s, at(40))

	for _, m := range []float64{40, 45, 55} {
		assert.Equal(t, RaceRemaining(ticked, at(m)), RaceRemaining(reconciled, at(m)))
		assert.Equal(t, FuelRemaining(ticked, at(m)), FuelRemaining(reconciled, at(m)))
		assert.Equal(t, StintElapsed(ticked, at(m)), StintElapsed(reconciled, at(m)))
	}

	resumedTicked := Apply(ticked, ResumeRace{}, at(40))
	resumedReconciled := Apply(reconciled, ResumeRace{}, at(40))
	for _, m := range []float64{40, 50, 70} {
		assert.Equal(t, RaceRemaining(resumedTicked, at(m)), RaceRemaining(resumedReconciled, at(m)))
		assert.Equal(t, FuelRemaining(resumedTicked, at(m)), FuelRemaining(resumedReconciled, at(m)))
		assert.Equal(t, StintElapsed(resumedTicked, at(m)), StintElapsed(resumedReconciled, at(m)))
	}
	assert.Equal(t, resumedTicked.RacePauseTotal, resumedReconciled.RacePauseTotal)
}

func TestReconcile_FuelAlertRecomputed(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	require.False(t, s.FuelAlertActive)

	// Stale state reloaded inside the warning band must alert exactly as
	// continuous ticking would have.
	s = Reconcile(s, at(33))
	assert.True(t, s.FuelAlertActive)

	s2 := Apply(New(testConfig()), StartRace{}, t0)
	s2 = Reconcile(s2, at(41))
	assert.False(t, s2.FuelAlertActive, "tank already empty on reload")
}

func TestReconcile_UnconfiguredPracticeForcedComplete(t *testing.T) {
	s := New(testConfig())
	s.PracticeCompleted = false
	s.PracticePaused = false

	s = Reconcile(s, t0)
	assert.True(t, s.PracticeCompleted)
	assert.Nil(t, s.PracticePauseTime)
}

func TestReconcile_IdleStateRepinsRotation(t *testing.T) {
	s := New(testConfig())
	s.CurrentStintIndex = 1
	s.CurrentDriverID = "d2"
	s.StintStartTime = timePtr(at(3))

	s = Reconcile(s, at(10))
	assert.Equal(t, 0, s.CurrentStintIndex)
	assert.Equal(t, "d1", s.CurrentDriverID)
	assert.Nil(t, s.StintStartTime, "idle state never retains a stale running stint")
}

func TestReconcile_ActiveRaceUnaffectedByReload(t *testing.T) {
	s := Apply(New(testConfig()), StartRace{}, t0)
	s = Apply(s, SwapDriver{}, at(8))

	r := Reconcile(s, at(20))
	assert.Equal(t, s.RaceFinishTime, r.RaceFinishTime)
	assert.Equal(t, s.StintStartTime, r.StintStartTime)
	assert.Equal(t, s.FuelTankStartTime, r.FuelTankStartTime)
	assert.Equal(t, time.Duration(0), r.RacePauseTotal)
}
