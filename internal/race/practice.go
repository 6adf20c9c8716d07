package race

import "time"

// Practice sub-machine: idle → active → (paused ⇄ active) → completed.
// Completed is terminal for a configuration version; it re-opens only through
// a config change to the practice duration or an explicit reset.

func startPractice(s State, now time.Time) State {
	if s.PracticeActive || s.PracticeCompleted || s.RaceActive {
		return s
	}
	if !s.Config.PracticeConfigured() {
		return s
	}

	s.PracticeActive = true
	s.PracticePaused = false
	s.PracticeStartTime = timePtr(now)
	s.PracticePauseTime = nil
	s.PracticeFinishTime = timePtr(now.Add(s.Config.PracticeDuration()))
	s.PracticePauseTotal = 0

	// Practice always starts with a full tank and the first planned stint.
	s.FuelTankStartTime = timePtr(now)
	pinRotation(&s)
	if len(s.Config.StintSequence) > 0 {
		s.StintStartTime = timePtr(now)
	}
	return s
}

func pausePractice(s State, now time.Time) State {
	if !s.PracticeActive || s.PracticePaused {
		return s
	}
	s.PracticePaused = true
	s.PracticePauseTime = timePtr(now)
	return s
}

func resumePractice(s State, now time.Time) State {
	if !s.PracticeActive || !s.PracticePaused || s.PracticePauseTime == nil {
		return s
	}
	d := now.Sub(*s.PracticePauseTime)
	if d < 0 {
		d = 0
	}
	// The fuel and stint clocks pause in lock-step with the practice clock:
	// all anchors shift forward together so every "remaining" value reads the
	// same after the resume as before the pause.
	s.PracticePauseTotal += d
	s.PracticeStartTime = shifted(s.PracticeStartTime, d)
	s.PracticeFinishTime = shifted(s.PracticeFinishTime, d)
	s.StintStartTime = shifted(s.StintStartTime, d)
	s.FuelTankStartTime = shifted(s.FuelTankStartTime, d)
	s.PracticePaused = false
	s.PracticePauseTime = nil
	return s
}

func completePractice(s State, now time.Time) State {
	if !s.PracticeActive {
		return s
	}
	// Clamp to the planned finish so a late explicit completion (or a
	// catch-up after downtime) never stretches the recorded practice length.
	finish := now
	if s.PracticeFinishTime != nil && s.PracticeFinishTime.Before(finish) {
		finish = *s.PracticeFinishTime
	}
	s.PracticeActive = false
	s.PracticePaused = false
	s.PracticePauseTime = nil
	s.PracticeFinishTime = timePtr(finish)
	s.PracticeCompleted = true

	// Rotation returns to the first stint with no running stint clock;
	// driver selection is deferred to the race start.
	if !s.RaceActive {
		s.CurrentStintIndex = 0
		s.CurrentDriverID = ""
		s.StintStartTime = nil
	}
	return s
}

func resetPractice(s State) State {
	s.PracticeActive = false
	s.PracticePaused = false
	s.PracticeStartTime = nil
	s.PracticePauseTime = nil
	s.PracticeFinishTime = nil
	s.PracticePauseTotal = 0
	// With no practice configured the phase stays permanently completed, so
	// a race without a practice phase can start immediately.
	s.PracticeCompleted = !s.Config.PracticeConfigured()

	if !s.RaceActive {
		s.FuelTankStartTime = nil
		pinRotation(&s)
	}
	return s
}
