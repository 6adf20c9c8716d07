package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/enduro/internal/race"
)

var t0 = time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

func snapshotConfig() race.Config {
	planned := 30.0
	return race.Config{
		Drivers: []race.Driver{
			{ID: "d1", Name: "Alex"},
			{ID: "d2", Name: "Sam"},
		},
		StintSequence: []race.StintEntry{
			{DriverID: "d1", PlannedMinutes: &planned},
			{DriverID: "d2", PlannedMinutes: &planned},
		},
		FuelDurationMinutes: 40,
		FuelWarningMinutes:  10,
		RaceDurationMinutes: 60,
	}
}

func TestBuildSnapshot_Idle(t *testing.T) {
	s := race.New(snapshotConfig())
	snap := BuildSnapshot(s, t0)

	assert.Equal(t, "idle", snap.Phase)
	assert.Equal(t, "d1", snap.DriverID)
	assert.Equal(t, "Alex", snap.DriverName)
	assert.Equal(t, int64(0), snap.RaceElapsedSec)
	assert.Equal(t, int64(3600), snap.RaceRemainSec)
	assert.Equal(t, int64(2400), snap.FuelRemainSec)
	assert.Equal(t, 1.0, snap.FuelLevel)
	assert.Empty(t, snap.StintETA, "no running stint while idle")
	assert.Empty(t, snap.NextCheckup)
}

func TestBuildSnapshot_RunningRace(t *testing.T) {
	s := race.Apply(race.New(snapshotConfig()), race.StartRace{}, t0)
	now := t0.Add(12 * time.Minute)
	snap := BuildSnapshot(s, now)

	assert.Equal(t, "race", snap.Phase)
	assert.Equal(t, 1, snap.Epoch)
	assert.Equal(t, 1, snap.StintNumber)
	assert.Equal(t, int64(12*60), snap.StintElapsedSec)
	assert.Equal(t, int64(18*60), snap.StintRemainSec)
	assert.Equal(t, int64(12*60), snap.RaceElapsedSec)
	assert.Equal(t, int64(48*60), snap.RaceRemainSec)
	assert.Equal(t, int64(28*60), snap.FuelRemainSec)
	assert.InDelta(t, 0.7, snap.FuelLevel, 1e-9)
	assert.Equal(t, t0.Add(30*time.Minute).Format(time.RFC3339), snap.StintETA)
}

func TestBuildSnapshot_FuelAlertCarriedFromState(t *testing.T) {
	s := race.Apply(race.New(snapshotConfig()), race.StartRace{}, t0)
	now := t0.Add(33 * time.Minute)
	s = race.Tick(s, now)

	snap := BuildSnapshot(s, now)
	assert.True(t, snap.FuelAlert)
	assert.Equal(t, int64(7*60), snap.FuelRemainSec)
}

func TestBuildSnapshot_StintNumberAdvancesAfterSwap(t *testing.T) {
	s := race.Apply(race.New(snapshotConfig()), race.StartRace{}, t0)
	s = race.Apply(s, race.SwapDriver{}, t0.Add(10*time.Minute))

	snap := BuildSnapshot(s, t0.Add(11*time.Minute))
	assert.Equal(t, 2, snap.StintNumber)
	assert.Equal(t, 1, snap.CompletedStints)
	assert.Equal(t, "Sam", snap.DriverName)
}

func TestFormatPayload_OmitsUnarmedClocks(t *testing.T) {
	s := race.New(snapshotConfig())
	payload, err := FormatPayload(BuildSnapshot(s, t0))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.NotContains(t, decoded, "stint_eta")
	assert.NotContains(t, decoded, "next_checkup")
	assert.NotContains(t, decoded, "practice_remain_sec")
	assert.Equal(t, "idle", decoded["phase"])
}

func TestFakePublisher_Records(t *testing.T) {
	fake := NewFakePublisher()
	s := race.Apply(race.New(snapshotConfig()), race.StartRace{}, t0)

	require.NoError(t, fake.Publish(BuildSnapshot(s, t0)))
	require.NoError(t, fake.Publish(BuildSnapshot(s, t0.Add(time.Minute))))

	require.Len(t, fake.Snapshots, 2)
	require.Len(t, fake.Payloads, 2)
	assert.Equal(t, "race", fake.Snapshots[0].Phase)

	require.NoError(t, fake.Close())
	assert.True(t, fake.Closed)
}

func TestFakePublisher_PublishError(t *testing.T) {
	fake := NewFakePublisher()
	fake.PublishError = errors.New("broker gone")

	err := fake.Publish(Snapshot{})
	assert.Error(t, err)
	assert.Empty(t, fake.Snapshots)
}
