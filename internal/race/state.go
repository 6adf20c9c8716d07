package race

import (
	"fmt"
	"reflect"
	"time"
)

// CompletedStint is the immutable record appended on every driver swap and at
// race completion. The log is append-only: entries are never mutated or
// reordered after creation.
type CompletedStint struct {
	DriverID       string        `json:"driver_id"`
	DriverName     string        `json:"driver_name"`
	StintNumber    int           `json:"stint_number"` // 1-based
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	ActualDuration time.Duration `json:"actual_duration_ns"`
	PlannedMinutes *float64      `json:"planned_minutes,omitempty"`
	Refuelled      bool          `json:"refuelled"`
}

// State is the full temporal state of one event: configuration, the race and
// practice sub-machines, rotation, fuel, and the completed-stint log.
//
// State is treated as an immutable value. Apply, Tick and Reconcile read one
// snapshot and return a replacement; they never write through the pointers or
// slices of their input.
type State struct {
	Config Config `json:"config"`

	RaceActive     bool          `json:"race_active"`
	RacePaused     bool          `json:"race_paused"`
	RaceCompleted  bool          `json:"race_completed"`
	RaceStartTime  *time.Time    `json:"race_start_time,omitempty"`
	RacePauseTime  *time.Time    `json:"race_pause_time,omitempty"`
	RaceFinishTime *time.Time    `json:"race_finish_time,omitempty"`
	RacePauseTotal time.Duration `json:"race_pause_total_ns"`

	PracticeActive     bool          `json:"practice_active"`
	PracticePaused     bool          `json:"practice_paused"`
	PracticeCompleted  bool          `json:"practice_completed"`
	PracticeStartTime  *time.Time    `json:"practice_start_time,omitempty"`
	PracticePauseTime  *time.Time    `json:"practice_pause_time,omitempty"`
	PracticeFinishTime *time.Time    `json:"practice_finish_time,omitempty"`
	PracticePauseTotal time.Duration `json:"practice_pause_total_ns"`

	CurrentStintIndex int        `json:"current_stint_index"`
	CurrentDriverID   string     `json:"current_driver_id"`
	StintStartTime    *time.Time `json:"stint_start_time,omitempty"`

	FuelTankStartTime *time.Time `json:"fuel_tank_start_time,omitempty"`
	FuelAlertActive   bool       `json:"fuel_alert_active"`

	CompletedStints []CompletedStint `json:"completed_stints"`

	// Epoch counts race starts. It keys completed stints in the durable
	// stint log so re-runs after a reset do not collide.
	Epoch int `json:"epoch"`
}

// New creates the defined-default State for a configuration: nothing running,
// rotation pinned to the first stint, full tank implied (no fuel anchor).
// An event with no practice phase behaves as if practice were already done.
func New(cfg Config) State {
	s := State{
		Config:            cfg,
		PracticeCompleted: !cfg.PracticeConfigured(),
	}
	pinRotation(&s)
	return s
}

// pinRotation points the rotation at the first stint and its driver.
// With an empty sequence the driver stays unset.
func pinRotation(s *State) {
	s.CurrentStintIndex = 0
	s.CurrentDriverID = ""
	s.StintStartTime = nil
	if len(s.Config.StintSequence) > 0 {
		s.CurrentDriverID = s.Config.StintSequence[0].DriverID
	}
}

// Validate performs the shape checks applied to a State loaded from storage.
// A persisted blob failing them is discarded wholesale and the machine starts
// from defaults; broken state is never repaired field by field.
func (s State) Validate() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	if s.RaceActive && s.PracticeActive {
		return fmt.Errorf("state: race and practice both active")
	}
	if s.RacePaused && (!s.RaceActive || s.RacePauseTime == nil) {
		return fmt.Errorf("state: race paused without an active race and pause time")
	}
	if s.PracticePaused && (!s.PracticeActive || s.PracticePauseTime == nil) {
		return fmt.Errorf("state: practice paused without an active practice and pause time")
	}
	if s.RaceActive && (s.RaceStartTime == nil || s.RaceFinishTime == nil) {
		return fmt.Errorf("state: active race missing start or finish time")
	}
	if s.PracticeActive && (s.PracticeStartTime == nil || s.PracticeFinishTime == nil) {
		return fmt.Errorf("state: active practice missing start or finish time")
	}
	if n := len(s.Config.StintSequence); n > 0 && (s.CurrentStintIndex < 0 || s.CurrentStintIndex >= n) {
		return fmt.Errorf("state: stint index %d out of range", s.CurrentStintIndex)
	}
	if s.RacePauseTotal < 0 || s.PracticePauseTotal < 0 {
		return fmt.Errorf("state: negative accumulated pause")
	}
	for i, cs := range s.CompletedStints {
		if cs.EndTime.Before(cs.StartTime) {
			return fmt.Errorf("state: completed stint %d ends before it starts", i)
		}
		if i > 0 && cs.EndTime.Before(s.CompletedStints[i-1].EndTime) {
			return fmt.Errorf("state: completed stints out of order at %d", i)
		}
	}
	return nil
}

// Phase names the currently visible phase of the machine.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhasePractice       Phase = "practice"
	PhasePracticePaused Phase = "practice-paused"
	PhaseRace           Phase = "race"
	PhaseRacePaused     Phase = "race-paused"
	PhaseCompleted      Phase = "completed"
)

// CurrentPhase derives the display phase from the state flags.
func (s State) CurrentPhase() Phase {
	switch {
	case s.RaceActive && s.RacePaused:
		return PhaseRacePaused
	case s.RaceActive:
		return PhaseRace
	case s.PracticeActive && s.PracticePaused:
		return PhasePracticePaused
	case s.PracticeActive:
		return PhasePractice
	case s.RaceCompleted:
		return PhaseCompleted
	default:
		return PhaseIdle
	}
}

// Equal reports whether two snapshots are identical. Transitions that do
// not apply return their input unchanged, so callers can use this to skip
// persistence for no-op events and idle ticks.
func Equal(a, b State) bool {
	return reflect.DeepEqual(a, b)
}

func timePtr(t time.Time) *time.Time { return &t }

// shifted returns t moved forward by d, or nil for nil. A fresh pointer is
// always allocated so the input snapshot is never written through.
func shifted(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	n := t.Add(d)
	return &n
}

// withStint returns the log with entry appended, backed by a fresh array so
// the previous snapshot's log is not aliased.
func withStint(log []CompletedStint, entry CompletedStint) []CompletedStint {
	out := make([]CompletedStint, len(log), len(log)+1)
	copy(out, log)
	return append(out, entry)
}
