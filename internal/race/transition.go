package race

import "time"

// Apply computes the next state from the current state, an event, and the
// current wall-clock time. Events invalid for the current state return the
// state unchanged.
//
// The low-fuel alert is re-derived after every transition so invariant
// checking never depends on which path toggled it last.
func Apply(s State, ev Event, now time.Time) State {
	switch ev := ev.(type) {
	case StartPractice:
		s = startPractice(s, now)
	case PausePractice:
		s = pausePractice(s, now)
	case ResumePractice:
		s = resumePractice(s, now)
	case CompletePractice:
		s = completePractice(s, now)
	case ResetPractice:
		s = resetPractice(s)
	case StartRace:
		s = startRace(s, now)
	case PauseRace:
		s = pauseRace(s, now)
	case ResumeRace:
		s = resumeRace(s, now)
	case ResetRace:
		s = resetRace(s)
	case SwapDriver:
		s = swapDriver(s, ev, now)
	case Refuel:
		s = refuel(s, ev, now)
	case AddStint:
		s = addStint(s, ev)
	case UpdateStint:
		s = updateStint(s, ev)
	case DeleteStint:
		s = deleteStint(s, ev)
	case MoveStint:
		s = moveStint(s, ev)
	case SetStintStart:
		s = setStintStart(s, ev)
	case SetOfficialStart:
		s = setOfficialStart(s, ev)
	case LoadConfig:
		s = loadConfig(s, ev)
	}
	s.FuelAlertActive = fuelAlert(s, now)
	return s
}

// Tick drives the time-based transitions: practice timeout, race completion,
// and the low-fuel alert. It is issued at a bounded interval by the session
// loop and is idempotent: the same timestamp delivered twice changes nothing,
// because every duration is recomputed from absolute timestamps.
func Tick(s State, now time.Time) State {
	if s.PracticeActive && !s.PracticePaused &&
		s.PracticeFinishTime != nil && !now.Before(*s.PracticeFinishTime) {
		// Complete as of the planned finish instant, not "now", so polling
		// granularity cannot stretch the recorded practice length.
		s = completePractice(s, *s.PracticeFinishTime)
	}
	if s.RaceActive && !s.RacePaused &&
		s.RaceFinishTime != nil && !now.Before(*s.RaceFinishTime) {
		s = finishRace(s)
	}
	s.FuelAlertActive = fuelAlert(s, now)
	return s
}

func startRace(s State, now time.Time) State {
	if s.RaceActive || s.RaceCompleted || s.PracticeActive {
		return s
	}

	// Reference start: when an official start is configured and the operator
	// starts at or before it, duration is measured from the scheduled start.
	ref := now
	if o := s.Config.OfficialStart; o != nil && !now.After(*o) {
		ref = *o
	}

	// Fuel carry-over from practice: back-date the tank anchor by the fuel
	// already burned during practice so the fractional level survives the
	// phase boundary. Otherwise the race starts on a full tank.
	fuelStart := now
	if s.PracticeCompleted && s.PracticeFinishTime != nil && s.FuelTankStartTime != nil {
		if consumed := s.PracticeFinishTime.Sub(*s.FuelTankStartTime); consumed > 0 {
			fuelStart = now.Add(-consumed)
		}
	}

	s.RaceActive = true
	s.RacePaused = false
	s.RaceCompleted = false
	s.RaceStartTime = timePtr(ref)
	s.RacePauseTime = nil
	s.RaceFinishTime = timePtr(ref.Add(s.Config.RaceDuration()))
	s.RacePauseTotal = 0

	pinRotation(&s)
	if len(s.Config.StintSequence) > 0 {
		s.StintStartTime = timePtr(now)
	}

	s.FuelTankStartTime = timePtr(fuelStart)
	s.CompletedStints = nil
	s.Epoch++
	return s
}

func pauseRace(s State, now time.Time) State {
	if !s.RaceActive || s.RacePaused {
		return s
	}
	s.RacePaused = true
	s.RacePauseTime = timePtr(now)
	return s
}

func resumeRace(s State, now time.Time) State {
	if !s.RaceActive || !s.RacePaused || s.RacePauseTime == nil {
		return s
	}
	d := now.Sub(*s.RacePauseTime)
	if d < 0 {
		d = 0
	}
	// Shifting every anchor by the pause duration preserves remaining stint
	// time, remaining fuel and remaining race time across the pause.
	s.RacePauseTotal += d
	s.RaceFinishTime = shifted(s.RaceFinishTime, d)
	s.StintStartTime = shifted(s.StintStartTime, d)
	s.FuelTankStartTime = shifted(s.FuelTankStartTime, d)
	s.RacePaused = false
	s.RacePauseTime = nil
	return s
}

// finishRace marks the race completed at its finish time, synthesizing a
// closing stint entry for the driver caught mid-stint unless one already
// ends exactly at the finish.
func finishRace(s State) State {
	fin := *s.RaceFinishTime
	if s.CurrentDriverID != "" && s.StintStartTime != nil && !hasStintEndingAt(s.CompletedStints, fin) {
		start := *s.StintStartTime
		if start.After(fin) {
			start = fin
		}
		s.CompletedStints = withStint(s.CompletedStints, CompletedStint{
			DriverID:       s.CurrentDriverID,
			DriverName:     s.Config.DriverName(s.CurrentDriverID),
			StintNumber:    len(s.CompletedStints) + 1,
			StartTime:      start,
			EndTime:        fin,
			ActualDuration: fin.Sub(start),
			PlannedMinutes: plannedMinutesAt(s.Config, s.CurrentStintIndex),
			Refuelled:      false,
		})
	}
	s.RaceCompleted = true
	s.RaceActive = false
	s.RacePaused = false
	s.RacePauseTime = nil
	return s
}

func hasStintEndingAt(log []CompletedStint, t time.Time) bool {
	for _, cs := range log {
		if cs.EndTime.Equal(t) {
			return true
		}
	}
	return false
}

func plannedMinutesAt(cfg Config, i int) *float64 {
	if i >= 0 && i < len(cfg.StintSequence) {
		if p := cfg.StintSequence[i].PlannedMinutes; p != nil {
			v := *p
			return &v
		}
	}
	return nil
}

func resetRace(s State) State {
	next := New(s.Config)
	next.Epoch = s.Epoch
	return next
}

func swapDriver(s State, ev SwapDriver, now time.Time) State {
	if !s.RaceActive && !s.PracticeActive {
		return s
	}
	if s.CurrentDriverID == "" || s.StintStartTime == nil {
		return s
	}
	if ev.PlannedMinutes != nil && *ev.PlannedMinutes <= 0 {
		return s
	}

	at := now
	if ev.At != nil {
		at = *ev.At
	}
	if at.Before(*s.StintStartTime) {
		at = *s.StintStartTime
	}
	// The log is ordered by end time; a handover recorded before the previous
	// stint closed is clamped to that boundary.
	if n := len(s.CompletedStints); n > 0 && at.Before(s.CompletedStints[n-1].EndTime) {
		at = s.CompletedStints[n-1].EndTime
	}

	s.CompletedStints = withStint(s.CompletedStints, CompletedStint{
		DriverID:       s.CurrentDriverID,
		DriverName:     s.Config.DriverName(s.CurrentDriverID),
		StintNumber:    len(s.CompletedStints) + 1,
		StartTime:      *s.StintStartTime,
		EndTime:        at,
		ActualDuration: at.Sub(*s.StintStartTime),
		PlannedMinutes: plannedMinutesAt(s.Config, s.CurrentStintIndex),
		Refuelled:      ev.Refuel,
	})

	seq := s.Config.StintSequence
	next := 0
	if len(seq) > 0 {
		next = (s.CurrentStintIndex + 1) % len(seq)
	}
	if ev.PlannedMinutes != nil && next < len(seq) {
		cfg := s.Config.clone()
		v := *ev.PlannedMinutes
		cfg.StintSequence[next].PlannedMinutes = &v
		s.Config = cfg
		seq = s.Config.StintSequence
	}

	s.CurrentStintIndex = next
	s.CurrentDriverID = ""
	if next < len(seq) {
		s.CurrentDriverID = seq[next].DriverID
	}
	s.StintStartTime = timePtr(at)

	if ev.Refuel {
		s.FuelTankStartTime = timePtr(at)
	}
	return s
}

func refuel(s State, ev Refuel, now time.Time) State {
	racing := s.RaceActive && !s.RacePaused
	practising := s.PracticeActive && !s.PracticePaused
	if !racing && !practising {
		return s
	}
	at := now
	if ev.At != nil {
		at = *ev.At
	}
	s.FuelTankStartTime = timePtr(at)
	return s
}

func addStint(s State, ev AddStint) State {
	if _, ok := s.Config.DriverByID(ev.Entry.DriverID); !ok {
		return s
	}
	if ev.Entry.PlannedMinutes != nil && *ev.Entry.PlannedMinutes <= 0 {
		return s
	}
	cfg := s.Config.clone()
	seq := cfg.StintSequence
	idx := len(seq)
	if ev.Index != nil {
		if *ev.Index < 0 || *ev.Index > len(seq) {
			return s
		}
		idx = *ev.Index
	}
	seq = append(seq, StintEntry{})
	copy(seq[idx+1:], seq[idx:])
	seq[idx] = ev.Entry
	cfg.StintSequence = seq
	s.Config = cfg

	// An insert at or before the running stint shifts it right by one.
	if sessionRunning(s) && idx <= s.CurrentStintIndex {
		s.CurrentStintIndex++
	}
	return s
}

func updateStint(s State, ev UpdateStint) State {
	if ev.Index < 0 || ev.Index >= len(s.Config.StintSequence) {
		return s
	}
	if _, ok := s.Config.DriverByID(ev.Entry.DriverID); !ok {
		return s
	}
	if ev.Entry.PlannedMinutes != nil && *ev.Entry.PlannedMinutes <= 0 {
		return s
	}
	cfg := s.Config.clone()
	cfg.StintSequence[ev.Index] = ev.Entry
	s.Config = cfg

	// Repoint the idle rotation when its entry changes; a running stint keeps
	// the driver who actually took the car.
	if ev.Index == s.CurrentStintIndex && s.StintStartTime == nil {
		s.CurrentDriverID = ev.Entry.DriverID
	}
	return s
}

func deleteStint(s State, ev DeleteStint) State {
	seq := s.Config.StintSequence
	if ev.Index < 0 || ev.Index >= len(seq) {
		return s
	}
	// Removing the stint currently being driven is rejected; the operator
	// must swap away from it first.
	if sessionRunning(s) && ev.Index == s.CurrentStintIndex {
		return s
	}
	cfg := s.Config.clone()
	cfg.StintSequence = append(cfg.StintSequence[:ev.Index], cfg.StintSequence[ev.Index+1:]...)
	s.Config = cfg

	switch {
	case ev.Index < s.CurrentStintIndex:
		s.CurrentStintIndex--
	case s.CurrentStintIndex >= len(cfg.StintSequence):
		s.CurrentStintIndex = 0
	}
	if !sessionRunning(s) {
		pinRotation(&s)
	}
	return s
}

func moveStint(s State, ev MoveStint) State {
	seq := s.Config.StintSequence
	if ev.From < 0 || ev.From >= len(seq) || ev.To < 0 || ev.To >= len(seq) || ev.From == ev.To {
		return s
	}
	cfg := s.Config.clone()
	entry := cfg.StintSequence[ev.From]
	rest := append(cfg.StintSequence[:ev.From], cfg.StintSequence[ev.From+1:]...)
	out := make([]StintEntry, 0, len(seq))
	out = append(out, rest[:ev.To]...)
	out = append(out, entry)
	out = append(out, rest[ev.To:]...)
	cfg.StintSequence = out
	s.Config = cfg

	switch {
	case ev.From == s.CurrentStintIndex:
		s.CurrentStintIndex = ev.To
	case ev.From < s.CurrentStintIndex && ev.To >= s.CurrentStintIndex:
		s.CurrentStintIndex--
	case ev.From > s.CurrentStintIndex && ev.To <= s.CurrentStintIndex:
		s.CurrentStintIndex++
	}
	return s
}

func setStintStart(s State, ev SetStintStart) State {
	if !sessionRunning(s) || s.StintStartTime == nil {
		return s
	}
	s.StintStartTime = timePtr(ev.At)
	return s
}

func setOfficialStart(s State, ev SetOfficialStart) State {
	cfg := s.Config.clone()
	cfg.OfficialStart = nil
	if ev.At != nil {
		t := *ev.At
		cfg.OfficialStart = &t
	}
	s.Config = cfg
	return s
}

func loadConfig(s State, ev LoadConfig) State {
	cfg := ev.Config
	if cfg.Validate() != nil {
		return s
	}
	prev := s.Config
	s.Config = cfg.clone()

	// Duration deltas shift in-flight finish times. The accumulated pause is
	// folded back in so remaining-duration bookkeeping stays intact.
	if s.RaceActive && s.RaceStartTime != nil {
		s.RaceFinishTime = timePtr(s.RaceStartTime.Add(cfg.RaceDuration() + s.RacePauseTotal))
	}
	if cfg.PracticeConfigured() {
		if s.PracticeActive && s.PracticeStartTime != nil {
			s.PracticeFinishTime = timePtr(s.PracticeStartTime.Add(cfg.PracticeDuration()))
		}
		// Completed practice is terminal per configuration version only: a
		// changed practice duration re-opens it.
		if s.PracticeCompleted && !s.RaceActive && !s.RaceCompleted &&
			cfg.PracticeMinutes != prev.PracticeMinutes {
			s.PracticeCompleted = false
			s.PracticeStartTime = nil
			s.PracticePauseTime = nil
			s.PracticeFinishTime = nil
			s.PracticePauseTotal = 0
		}
	} else {
		s.PracticeActive = false
		s.PracticePaused = false
		s.PracticeCompleted = true
		s.PracticePauseTime = nil
	}

	// Sequence edits may invalidate the rotation: clamp the index and
	// re-derive the driver when the stored one is gone.
	if len(cfg.StintSequence) == 0 {
		s.CurrentStintIndex = 0
		s.CurrentDriverID = ""
	} else {
		if s.CurrentStintIndex < 0 || s.CurrentStintIndex >= len(cfg.StintSequence) {
			s.CurrentStintIndex = 0
		}
		if _, ok := cfg.DriverByID(s.CurrentDriverID); !ok {
			s.CurrentDriverID = cfg.StintSequence[s.CurrentStintIndex].DriverID
		}
	}
	if !sessionRunning(s) && !s.RaceCompleted {
		pinRotation(&s)
	}
	return s
}

// sessionRunning reports whether a race or practice session is in progress
// (paused counts as in progress).
func sessionRunning(s State) bool {
	return s.RaceActive || s.PracticeActive
}
