package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/enduro/internal/race"
)

// Blob keys. One row each; saves overwrite in place.
const (
	keyState  = "race_state"
	keyConfig = "team_config"
)

// SaveState overwrites the persisted race state snapshot.
func (s *Store) SaveState(ctx context.Context, state race.State, now time.Time) error {
	if err := s.saveBlob(ctx, keyState, state, now); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState reads the persisted race state snapshot.
//
// Returns ok=false when no snapshot exists or the stored document fails to
// decode or validate. A stale or corrupt snapshot is discarded, never fatal:
// the caller starts from a fresh state instead.
func (s *Store) LoadState(ctx context.Context) (race.State, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, keyState,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return race.State{}, false, nil
	}
	if err != nil {
		return race.State{}, false, fmt.Errorf("load state: %w", err)
	}

	var state race.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return race.State{}, false, nil
	}
	if err := state.Validate(); err != nil {
		return race.State{}, false, nil
	}
	return state, true, nil
}

// SaveConfig overwrites the persisted team configuration.
func (s *Store) SaveConfig(ctx context.Context, cfg race.Config, now time.Time) error {
	if err := s.saveBlob(ctx, keyConfig, cfg, now); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// LoadConfig reads the persisted team configuration.
// Returns ok=false when no configuration exists or the stored document is
// unusable, mirroring LoadState.
func (s *Store) LoadConfig(ctx context.Context) (race.Config, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = ?`, keyConfig,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return race.Config{}, false, nil
	}
	if err != nil {
		return race.Config{}, false, fmt.Errorf("load config: %w", err)
	}

	var cfg race.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return race.Config{}, false, nil
	}
	if err := cfg.Validate(); err != nil {
		return race.Config{}, false, nil
	}
	return cfg, true, nil
}

func (s *Store) saveBlob(ctx context.Context, key string, v any, now time.Time) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, string(doc), now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
