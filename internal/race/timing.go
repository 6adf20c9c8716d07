package race

import "time"

// Derived timing values. Nothing here is persisted: every elapsed/remaining
// figure is a pure function of the stored anchor timestamps and "now", which
// is what makes catch-up after downtime tractable.

// effectiveNow substitutes for the live clock when the relevant phase is
// paused or has already ended. All derived values and the reconciliation
// path select time through this one function.
func effectiveNow(s State, now time.Time) time.Time {
	switch {
	case s.RaceActive && s.RacePaused && s.RacePauseTime != nil:
		return *s.RacePauseTime
	case s.RaceActive:
		return now
	case s.PracticeActive && s.PracticePaused && s.PracticePauseTime != nil:
		return *s.PracticePauseTime
	case s.PracticeActive:
		return now
	case s.RaceCompleted && s.RaceFinishTime != nil:
		// Frozen at the chequered flag.
		return *s.RaceFinishTime
	case s.PracticeCompleted && s.PracticeFinishTime != nil && s.RaceStartTime == nil:
		// Frozen at the moment practice ended, until the race starts.
		return *s.PracticeFinishTime
	default:
		return now
	}
}

// FuelRemaining returns the burn time left in the tank, clamped to
// [0, full tank]. With no fuel anchor the tank reads full.
func FuelRemaining(s State, now time.Time) time.Duration {
	full := s.Config.FuelDuration()
	if s.FuelTankStartTime == nil {
		return full
	}
	rem := full - effectiveNow(s, now).Sub(*s.FuelTankStartTime)
	if rem < 0 {
		return 0
	}
	if rem > full {
		return full
	}
	return rem
}

// FuelLevel returns the tank level as a fraction in [0, 1].
func FuelLevel(s State, now time.Time) float64 {
	full := s.Config.FuelDuration()
	if full <= 0 {
		return 0
	}
	return float64(FuelRemaining(s, now)) / float64(full)
}

// fuelAlert is the invariant definition of the low-fuel alert: remaining fuel
// strictly between zero and the warning threshold. Recomputed identically on
// every transition, tick and reload so a stale load can never disagree with
// continuous ticking.
func fuelAlert(s State, now time.Time) bool {
	rem := FuelRemaining(s, now)
	return rem > 0 && rem < s.Config.FuelWarning()
}

// StintElapsed returns how long the current stint has been running.
func StintElapsed(s State, now time.Time) time.Duration {
	if s.StintStartTime == nil {
		return 0
	}
	d := effectiveNow(s, now).Sub(*s.StintStartTime)
	if d < 0 {
		return 0
	}
	return d
}

// StintRemaining returns the planned time left in the current stint,
// clamped at zero once the plan is exceeded.
func StintRemaining(s State, now time.Time) time.Duration {
	planned := s.Config.PlannedStintDuration(s.CurrentStintIndex)
	rem := planned - StintElapsed(s, now)
	if rem < 0 {
		return 0
	}
	return rem
}

// StintETA returns the instant the current stint is planned to end, nil when
// no stint clock is running.
func StintETA(s State) *time.Time {
	if s.StintStartTime == nil {
		return nil
	}
	return timePtr(s.StintStartTime.Add(s.Config.PlannedStintDuration(s.CurrentStintIndex)))
}

// NextCheckup returns the next driver-checkup instant within the running
// stint, nil when checkups are unconfigured or no stint clock is running.
func NextCheckup(s State, now time.Time) *time.Time {
	interval := s.Config.CheckupInterval()
	if interval <= 0 || s.StintStartTime == nil {
		return nil
	}
	elapsed := StintElapsed(s, now)
	periods := elapsed/interval + 1
	return timePtr(s.StintStartTime.Add(periods * interval))
}

// RaceElapsed returns race time spent, excluding paused time, clamped to
// [0, race duration].
func RaceElapsed(s State, now time.Time) time.Duration {
	if s.RaceStartTime == nil {
		return 0
	}
	e := now
	switch {
	case s.RaceActive && s.RacePaused && s.RacePauseTime != nil:
		e = *s.RacePauseTime
	case s.RaceCompleted && s.RaceFinishTime != nil:
		e = *s.RaceFinishTime
	}
	d := e.Sub(*s.RaceStartTime) - s.RacePauseTotal
	if d < 0 {
		return 0
	}
	if max := s.Config.RaceDuration(); d > max {
		return max
	}
	return d
}

// RaceRemaining returns race time left. Before the start it reads the full
// configured duration; after completion it reads zero.
func RaceRemaining(s State, now time.Time) time.Duration {
	if s.RaceFinishTime == nil {
		return s.Config.RaceDuration()
	}
	if s.RaceCompleted {
		return 0
	}
	e := now
	if s.RaceActive && s.RacePaused && s.RacePauseTime != nil {
		e = *s.RacePauseTime
	}
	rem := s.RaceFinishTime.Sub(e)
	if rem < 0 {
		return 0
	}
	return rem
}

// PracticeRemaining returns practice time left, zero once completed or when
// practice is unconfigured and idle.
func PracticeRemaining(s State, now time.Time) time.Duration {
	if s.PracticeFinishTime == nil {
		if s.PracticeActive || s.PracticeCompleted {
			return 0
		}
		return s.Config.PracticeDuration()
	}
	if s.PracticeCompleted {
		return 0
	}
	e := now
	if s.PracticeActive && s.PracticePaused && s.PracticePauseTime != nil {
		e = *s.PracticePauseTime
	}
	rem := s.PracticeFinishTime.Sub(e)
	if rem < 0 {
		return 0
	}
	return rem
}

// AnyClockRunning reports whether any sub-clock is advancing. The tick
// driver suspends itself when nothing is running.
func AnyClockRunning(s State) bool {
	return (s.RaceActive && !s.RacePaused) || (s.PracticeActive && !s.PracticePaused)
}
