package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/enduro/internal/race"
)

func sampleStints(base time.Time) []race.CompletedStint {
	planned := 30.0
	return []race.CompletedStint{
		{
			DriverID:       "d1",
			DriverName:     "Alex",
			StintNumber:    1,
			StartTime:      base,
			EndTime:        base.Add(30 * time.Minute),
			ActualDuration: 30 * time.Minute,
			PlannedMinutes: &planned,
			Refuelled:      true,
		},
		{
			DriverID:       "d2",
			DriverName:     "Sam",
			StintNumber:    2,
			StartTime:      base.Add(30 * time.Minute),
			EndTime:        base.Add(55 * time.Minute),
			ActualDuration: 25 * time.Minute,
		},
	}
}

func TestAppendStints_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

	stints := sampleStints(base)
	require.NoError(t, s.AppendStints(ctx, 1, stints))

	got, err := s.ListStints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, stints, got)
}

func TestAppendStints_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

	stints := sampleStints(base)
	require.NoError(t, s.AppendStints(ctx, 1, stints))

	// Re-submitting the full list after every transition must not duplicate.
	require.NoError(t, s.AppendStints(ctx, 1, stints))
	require.NoError(t, s.AppendStints(ctx, 1, stints[:1]))

	got, err := s.ListStints(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAppendStints_EpochsAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendStints(ctx, 1, sampleStints(base)))
	require.NoError(t, s.AppendStints(ctx, 2, sampleStints(base.Add(2*time.Hour))[:1]))

	first, err := s.ListStints(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.ListStints(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second, 1, "a race reset opens a new epoch without touching earlier logs")
}

func TestAppendStints_EmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AppendStints(context.Background(), 1, nil))
}

func TestListStints_EmptyEpoch(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListStints(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLatestEpoch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)

	_, ok, err := s.LatestEpoch(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AppendStints(ctx, 3, sampleStints(base)[:1]))
	require.NoError(t, s.AppendStints(ctx, 5, sampleStints(base)[:1]))

	epoch, ok, err := s.LatestEpoch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, epoch)
}
