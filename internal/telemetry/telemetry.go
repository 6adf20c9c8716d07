// Package telemetry publishes timing snapshots over MQTT with an
// abstraction for testing. Publishing is outbound-only: the broker never
// feeds events back into the timekeeper.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/roach88/enduro/internal/race"
)

// DefaultTopic is the MQTT topic for timing snapshots.
const DefaultTopic = "enduro/timing"

// Publisher publishes timing snapshots to MQTT.
type Publisher interface {
	// Publish sends a snapshot to the broker.
	// Returns error if publishing fails (must not crash the session).
	Publish(snap Snapshot) error

	// Close disconnects from the broker.
	Close() error
}

// Snapshot is the wire representation of the timing picture at one instant.
// All durations are whole seconds; instants are RFC3339 UTC strings. Optional
// fields are omitted when the underlying clock is not armed.
type Snapshot struct {
	Timestamp         string  `json:"timestamp"`
	Phase             string  `json:"phase"`
	Epoch             int     `json:"epoch"`
	DriverID          string  `json:"driver_id,omitempty"`
	DriverName        string  `json:"driver_name,omitempty"`
	StintNumber       int     `json:"stint_number"`
	StintElapsedSec   int64   `json:"stint_elapsed_sec"`
	StintRemainSec    int64   `json:"stint_remain_sec"`
	StintETA          string  `json:"stint_eta,omitempty"`
	RaceElapsedSec    int64   `json:"race_elapsed_sec"`
	RaceRemainSec     int64   `json:"race_remain_sec"`
	PracticeRemainSec int64   `json:"practice_remain_sec,omitempty"`
	FuelRemainSec     int64   `json:"fuel_remain_sec"`
	FuelLevel         float64 `json:"fuel_level"`
	FuelAlert         bool    `json:"fuel_alert"`
	NextCheckup       string  `json:"next_checkup,omitempty"`
	CompletedStints   int     `json:"completed_stints"`
}

// BuildSnapshot derives the published picture from the state at now.
func BuildSnapshot(s race.State, now time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:       now.UTC().Format(time.RFC3339),
		Phase:           string(s.CurrentPhase()),
		Epoch:           s.Epoch,
		DriverID:        s.CurrentDriverID,
		DriverName:      s.Config.DriverName(s.CurrentDriverID),
		StintNumber:     len(s.CompletedStints) + 1,
		StintElapsedSec: seconds(race.StintElapsed(s, now)),
		StintRemainSec:  seconds(race.StintRemaining(s, now)),
		RaceElapsedSec:  seconds(race.RaceElapsed(s, now)),
		RaceRemainSec:   seconds(race.RaceRemaining(s, now)),
		FuelRemainSec:   seconds(race.FuelRemaining(s, now)),
		FuelLevel:       race.FuelLevel(s, now),
		FuelAlert:       s.FuelAlertActive,
		CompletedStints: len(s.CompletedStints),
	}

	if s.PracticeActive {
		snap.PracticeRemainSec = seconds(race.PracticeRemaining(s, now))
	}
	if eta := race.StintETA(s); eta != nil {
		snap.StintETA = eta.UTC().Format(time.RFC3339)
	}
	if next := race.NextCheckup(s, now); next != nil {
		snap.NextCheckup = next.UTC().Format(time.RFC3339)
	}
	return snap
}

// FormatPayload creates the JSON payload for a snapshot.
func FormatPayload(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
