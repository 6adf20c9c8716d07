package race

import (
	"fmt"
	"time"
)

// Driver identifies one member of the driver roster.
// Identity is ID; Name is display-only.
type Driver struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StintEntry is one slot in the planned rotation. Order within the sequence
// is meaningful: it defines who drives after whom.
//
// PlannedMinutes is optional; when nil the configuration's fuel duration is
// used as the planned stint length.
type StintEntry struct {
	DriverID       string   `json:"driver_id"`
	PlannedMinutes *float64 `json:"planned_minutes,omitempty"`
}

// Config is the immutable-per-version description of an event: the roster,
// the planned rotation, and the duration parameters. Any change produces a
// new Config carried through the LoadConfig event.
//
// Duration parameters are stored in minutes, matching the persisted and file
// representations; use the accessor methods for time.Duration values.
type Config struct {
	Drivers       []Driver     `json:"drivers"`
	StintSequence []StintEntry `json:"stint_sequence"`

	FuelDurationMinutes float64 `json:"fuel_duration_minutes"`
	FuelWarningMinutes  float64 `json:"fuel_warning_minutes"`
	RaceDurationMinutes float64 `json:"race_duration_minutes"`

	// OfficialStart is the scheduled race start. When set, a race started at
	// or before this instant anchors its duration to it rather than to the
	// actual start click.
	OfficialStart *time.Time `json:"official_start,omitempty"`

	// PracticeMinutes > 0 enables the practice phase. Zero means the event
	// has no practice phase at all.
	PracticeMinutes float64 `json:"practice_minutes,omitempty"`

	// CheckupMinutes > 0 enables periodic driver-checkup reminders within a
	// stint. Zero disables them.
	CheckupMinutes float64 `json:"checkup_minutes,omitempty"`
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// FuelDuration returns the full-tank burn time.
func (c Config) FuelDuration() time.Duration { return minutes(c.FuelDurationMinutes) }

// FuelWarning returns the low-fuel warning threshold.
func (c Config) FuelWarning() time.Duration { return minutes(c.FuelWarningMinutes) }

// RaceDuration returns the total race length.
func (c Config) RaceDuration() time.Duration { return minutes(c.RaceDurationMinutes) }

// PracticeDuration returns the practice length, zero if unconfigured.
func (c Config) PracticeDuration() time.Duration { return minutes(c.PracticeMinutes) }

// CheckupInterval returns the driver-checkup interval, zero if unconfigured.
func (c Config) CheckupInterval() time.Duration { return minutes(c.CheckupMinutes) }

// PracticeConfigured reports whether the event has a practice phase.
func (c Config) PracticeConfigured() bool { return c.PracticeMinutes > 0 }

// DriverByID looks up a roster entry.
func (c Config) DriverByID(id string) (Driver, bool) {
	for _, d := range c.Drivers {
		if d.ID == id {
			return d, true
		}
	}
	return Driver{}, false
}

// DriverName returns the display name for id, falling back to the id itself
// when the driver is no longer on the roster.
func (c Config) DriverName(id string) string {
	if d, ok := c.DriverByID(id); ok {
		return d.Name
	}
	return id
}

// PlannedStintDuration returns the planned length of the stint at index i:
// the entry's own planned minutes when set, otherwise the fuel duration.
// An out-of-range index yields the fuel duration.
func (c Config) PlannedStintDuration(i int) time.Duration {
	if i >= 0 && i < len(c.StintSequence) {
		if p := c.StintSequence[i].PlannedMinutes; p != nil {
			return minutes(*p)
		}
	}
	return c.FuelDuration()
}

// Validate performs the shape checks required before a Config may enter the
// state machine. A Config failing these checks is discarded, not repaired.
func (c Config) Validate() error {
	if len(c.Drivers) == 0 {
		return fmt.Errorf("config: at least one driver is required")
	}
	seen := make(map[string]bool, len(c.Drivers))
	for i, d := range c.Drivers {
		if d.ID == "" {
			return fmt.Errorf("config: driver %d has an empty id", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("config: duplicate driver id %q", d.ID)
		}
		seen[d.ID] = true
	}
	if len(c.StintSequence) == 0 {
		return fmt.Errorf("config: at least one stint is required")
	}
	for i, st := range c.StintSequence {
		if !seen[st.DriverID] {
			return fmt.Errorf("config: stint %d references unknown driver %q", i, st.DriverID)
		}
		if st.PlannedMinutes != nil && *st.PlannedMinutes <= 0 {
			return fmt.Errorf("config: stint %d has non-positive planned minutes", i)
		}
	}
	if c.FuelDurationMinutes <= 0 {
		return fmt.Errorf("config: fuel duration must be positive")
	}
	if c.FuelWarningMinutes <= 0 {
		return fmt.Errorf("config: fuel warning threshold must be positive")
	}
	if c.RaceDurationMinutes <= 0 {
		return fmt.Errorf("config: race duration must be positive")
	}
	if c.PracticeMinutes < 0 {
		return fmt.Errorf("config: practice minutes must not be negative")
	}
	if c.CheckupMinutes < 0 {
		return fmt.Errorf("config: checkup minutes must not be negative")
	}
	return nil
}

// clone returns a deep copy. Transitions that edit the stint sequence or the
// official start copy first so the previous snapshot stays untouched.
func (c Config) clone() Config {
	out := c
	out.Drivers = append([]Driver(nil), c.Drivers...)
	out.StintSequence = make([]StintEntry, len(c.StintSequence))
	for i, st := range c.StintSequence {
		out.StintSequence[i] = st
		if st.PlannedMinutes != nil {
			v := *st.PlannedMinutes
			out.StintSequence[i].PlannedMinutes = &v
		}
	}
	if c.OfficialStart != nil {
		t := *c.OfficialStart
		out.OfficialStart = &t
	}
	return out
}

// Equal reports whether two configurations describe the same event version.
func (c Config) Equal(o Config) bool {
	if len(c.Drivers) != len(o.Drivers) || len(c.StintSequence) != len(o.StintSequence) {
		return false
	}
	for i := range c.Drivers {
		if c.Drivers[i] != o.Drivers[i] {
			return false
		}
	}
	for i := range c.StintSequence {
		a, b := c.StintSequence[i], o.StintSequence[i]
		if a.DriverID != b.DriverID {
			return false
		}
		if (a.PlannedMinutes == nil) != (b.PlannedMinutes == nil) {
			return false
		}
		if a.PlannedMinutes != nil && *a.PlannedMinutes != *b.PlannedMinutes {
			return false
		}
	}
	if (c.OfficialStart == nil) != (o.OfficialStart == nil) {
		return false
	}
	if c.OfficialStart != nil && !c.OfficialStart.Equal(*o.OfficialStart) {
		return false
	}
	return c.FuelDurationMinutes == o.FuelDurationMinutes &&
		c.FuelWarningMinutes == o.FuelWarningMinutes &&
		c.RaceDurationMinutes == o.RaceDurationMinutes &&
		c.PracticeMinutes == o.PracticeMinutes &&
		c.CheckupMinutes == o.CheckupMinutes
}

// DefaultConfig is the configuration the machine falls back to when nothing
// valid is stored: a single driver rotating on a 50-minute tank over a
// four-hour race, no practice phase.
func DefaultConfig() Config {
	return Config{
		Drivers:             []Driver{{ID: "driver-1", Name: "Driver 1"}},
		StintSequence:       []StintEntry{{DriverID: "driver-1"}},
		FuelDurationMinutes: 50,
		FuelWarningMinutes:  10,
		RaceDurationMinutes: 240,
	}
}
