package race

import "time"

// Event is a request to transition the state machine. Events carry their
// payloads as exported fields; the current time is supplied separately to
// Apply so the same event value replays identically.
type Event interface {
	isEvent()
}

// Practice lifecycle events.
type (
	// StartPractice begins the practice phase with a full tank and the
	// rotation positioned at the first stint.
	StartPractice struct{}
	// PausePractice freezes all practice sub-clocks.
	PausePractice struct{}
	// ResumePractice restarts the practice sub-clocks, shifting every anchor
	// forward by the pause duration.
	ResumePractice struct{}
	// CompletePractice ends practice explicitly, clamping the finish to the
	// planned finish time.
	CompletePractice struct{}
	// ResetPractice returns practice to idle. With no practice configured the
	// phase stays permanently completed.
	ResetPractice struct{}
)

// Race lifecycle events.
type (
	// StartRace begins the race. Illegal while practice is active.
	StartRace struct{}
	// PauseRace freezes the race, stint and fuel clocks.
	PauseRace struct{}
	// ResumeRace restarts the race, shifting stint start, fuel start and the
	// finish time forward by the pause duration.
	ResumeRace struct{}
	// ResetRace returns every race field to its default while retaining the
	// configuration, and re-arms practice unless it is unconfigured.
	ResetRace struct{}
)

// SwapDriver closes the running stint for the outgoing driver and hands the
// car to the next entry in the rotation.
type SwapDriver struct {
	// At is the effective swap time; nil means "now".
	At *time.Time
	// Refuel resets the fuel clock at the swap time.
	Refuel bool
	// PlannedMinutes, when set, overrides the planned duration of the
	// upcoming stint (a targeted edit of that one sequence entry).
	PlannedMinutes *float64
}

// Refuel resets the fuel clock mid-stint. Legal only while the relevant
// phase is active and not paused.
type Refuel struct {
	// At is the effective refuel time; nil means "now".
	At *time.Time
}

// Stint-sequence editing events. These mutate configuration, not just state.
type (
	// AddStint inserts an entry at Index, or appends when Index is nil.
	AddStint struct {
		Entry StintEntry
		Index *int
	}
	// UpdateStint replaces the entry at Index.
	UpdateStint struct {
		Index int
		Entry StintEntry
	}
	// DeleteStint removes the entry at Index. Removing the stint currently
	// being driven is rejected as a no-op.
	DeleteStint struct {
		Index int
	}
	// MoveStint reorders the sequence, moving the entry at From to To.
	MoveStint struct {
		From int
		To   int
	}
)

// SetStintStart corrects the running stint's start time manually.
type SetStintStart struct {
	At time.Time
}

// SetOfficialStart sets or clears (nil) the scheduled race start.
type SetOfficialStart struct {
	At *time.Time
}

// LoadConfig swaps in a new configuration version, reconciling any in-flight
// race or practice state against the new duration and sequence values.
type LoadConfig struct {
	Config Config
}

func (StartPractice) isEvent()    {}
func (PausePractice) isEvent()    {}
func (ResumePractice) isEvent()   {}
func (CompletePractice) isEvent() {}
func (ResetPractice) isEvent()    {}
func (StartRace) isEvent()        {}
func (PauseRace) isEvent()        {}
func (ResumeRace) isEvent()       {}
func (ResetRace) isEvent()        {}
func (SwapDriver) isEvent()       {}
func (Refuel) isEvent()           {}
func (AddStint) isEvent()         {}
func (UpdateStint) isEvent()      {}
func (DeleteStint) isEvent()      {}
func (MoveStint) isEvent()        {}
func (SetStintStart) isEvent()    {}
func (SetOfficialStart) isEvent() {}
func (LoadConfig) isEvent()       {}
