package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/enduro/internal/race"
)

// AppendStints inserts completed stints into the log for the given epoch.
// Uses ON CONFLICT(epoch, stint_number) DO NOTHING for idempotency - the
// session re-submits the whole completed list after every transition, and
// rows already logged are silently ignored.
func (s *Store) AppendStints(ctx context.Context, epoch int, stints []race.CompletedStint) error {
	if len(stints) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append stints: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stint_log
		(epoch, stint_number, driver_id, driver_name, start_time, end_time, actual_seconds, planned_minutes, refuelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(epoch, stint_number) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("append stints: prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range stints {
		var planned any
		if st.PlannedMinutes != nil {
			planned = *st.PlannedMinutes
		}
		_, err := stmt.ExecContext(ctx,
			epoch,
			st.StintNumber,
			st.DriverID,
			st.DriverName,
			st.StartTime.UTC().Format(time.RFC3339Nano),
			st.EndTime.UTC().Format(time.RFC3339Nano),
			st.ActualDuration.Seconds(),
			planned,
			boolToInt(st.Refuelled),
		)
		if err != nil {
			return fmt.Errorf("append stints: insert stint %d: %w", st.StintNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append stints: commit: %w", err)
	}
	return nil
}

// ListStints returns the logged stints for an epoch ordered by stint number.
func (s *Store) ListStints(ctx context.Context, epoch int) ([]race.CompletedStint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stint_number, driver_id, driver_name, start_time, end_time, actual_seconds, planned_minutes, refuelled
		FROM stint_log
		WHERE epoch = ?
		ORDER BY stint_number ASC
	`, epoch)
	if err != nil {
		return nil, fmt.Errorf("list stints: %w", err)
	}
	defer rows.Close()

	var out []race.CompletedStint
	for rows.Next() {
		var (
			st            race.CompletedStint
			start, end    string
			actualSeconds float64
			planned       sql.NullFloat64
			refuelled     int
		)
		if err := rows.Scan(&st.StintNumber, &st.DriverID, &st.DriverName,
			&start, &end, &actualSeconds, &planned, &refuelled); err != nil {
			return nil, fmt.Errorf("list stints: scan: %w", err)
		}
		if st.StartTime, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("list stints: parse start_time: %w", err)
		}
		if st.EndTime, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("list stints: parse end_time: %w", err)
		}
		st.ActualDuration = time.Duration(actualSeconds * float64(time.Second))
		if planned.Valid {
			p := planned.Float64
			st.PlannedMinutes = &p
		}
		st.Refuelled = refuelled != 0
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stints: %w", err)
	}
	return out, nil
}

// LatestEpoch returns the highest epoch present in the stint log.
// Returns ok=false when the log is empty.
func (s *Store) LatestEpoch(ctx context.Context) (int, bool, error) {
	var epoch sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(epoch) FROM stint_log`,
	).Scan(&epoch)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !epoch.Valid) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest epoch: %w", err)
	}
	return int(epoch.Int64), true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
