package race

import "time"

// Reconcile corrects a state that may have been frozen for an arbitrary
// offline interval, producing the state continuous ticking would have
// produced. It is invoked exactly once, when persisted state is loaded.
//
// Order matters: offline pause extension must happen before timeout
// detection, which must happen before the fuel-alert recomputation, because
// each step's effective "now" depends on the corrected values of the prior
// step.
func Reconcile(s State, now time.Time) State {
	// A phase that was paused when saved stays paused across the downtime:
	// offline time counts as paused time, never as session time. Every anchor
	// a normal resume would shift is shifted here by the offline interval,
	// and the pause marker advances to now so the pause simply continues.
	if s.RaceActive && s.RacePaused && s.RacePauseTime != nil {
		if d := now.Sub(*s.RacePauseTime); d > 0 {
			s.RacePauseTotal += d
			s.RaceFinishTime = shifted(s.RaceFinishTime, d)
			s.StintStartTime = shifted(s.StintStartTime, d)
			s.FuelTankStartTime = shifted(s.FuelTankStartTime, d)
			s.RacePauseTime = timePtr(now)
		}
	}
	if s.PracticeActive && s.PracticePaused && s.PracticePauseTime != nil {
		if d := now.Sub(*s.PracticePauseTime); d > 0 {
			s.PracticePauseTotal += d
			s.PracticeStartTime = shifted(s.PracticeStartTime, d)
			s.PracticeFinishTime = shifted(s.PracticeFinishTime, d)
			s.StintStartTime = shifted(s.StintStartTime, d)
			s.FuelTankStartTime = shifted(s.FuelTankStartTime, d)
			s.PracticePauseTime = timePtr(now)
		}
	}

	// Unconfigured or finished practice never carries pause markers across a
	// reload.
	if !s.Config.PracticeConfigured() {
		s.PracticeActive = false
		s.PracticePaused = false
		s.PracticeCompleted = true
		s.PracticePauseTime = nil
	} else if s.PracticeCompleted {
		s.PracticePaused = false
		s.PracticePauseTime = nil
	}

	// Idle state never retains a stale "current driver" across a reload.
	if !s.RaceActive && !s.PracticeActive && !s.RaceCompleted {
		pinRotation(&s)
	}

	// Timeouts that elapsed offline (practice timeout, race completion) are
	// synthesized by the same time-driven path ticking would have taken, as
	// of the planned finish instants; Tick also re-derives the fuel alert
	// from the corrected timestamps.
	return Tick(s, now)
}
