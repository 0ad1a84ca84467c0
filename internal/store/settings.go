// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// ErrNoSettings is returned when no active scoring-settings row exists.
// Callers fall back to types.DefaultScoringSettings.
var ErrNoSettings = errors.New("no active scoring settings")

// ActiveSettings returns the active scoring settings: the active row named
// "default" if present, otherwise any active row.
func (s *Store) ActiveSettings(ctx context.Context) (types.ScoringSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var settingsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM scoring_settings WHERE is_active = 1 AND name = 'default'`,
	).Scan(&settingsJSON)

	if err == sql.ErrNoRows {
		err = s.db.QueryRowContext(ctx,
			`SELECT settings FROM scoring_settings WHERE is_active = 1 LIMIT 1`,
		).Scan(&settingsJSON)
	}
	if err == sql.ErrNoRows {
		return types.ScoringSettings{}, ErrNoSettings
	}
	if err != nil {
		return types.ScoringSettings{}, fmt.Errorf("loading scoring settings: %w", err)
	}

	var settings types.ScoringSettings
	if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
		return types.ScoringSettings{}, fmt.Errorf("parsing scoring settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts a named settings row. When activate is true the row
// becomes the only active one.
func (s *Store) SaveSettings(ctx context.Context, settings types.ScoringSettings, activate bool) error {
	if settings.Name == "" {
		return fmt.Errorf("settings name is empty")
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if activate {
		if _, err := tx.ExecContext(ctx, `UPDATE scoring_settings SET is_active = 0`); err != nil {
			return fmt.Errorf("deactivating settings: %w", err)
		}
	}

	active := 0
	if activate {
		active = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scoring_settings (name, is_active, settings, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			is_active=excluded.is_active,
			settings=excluded.settings,
			updated_at=excluded.updated_at`,
		settings.Name, active, string(settingsJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting settings %s: %w", settings.Name, err)
	}
	return tx.Commit()
}

// seedFile is the YAML shape consumed by SeedFromYAML.
type seedFile struct {
	Settings  *types.ScoringSettings  `yaml:"settings"`
	Items     []types.GlobalItem      `yaml:"items"`
	Snapshots []types.CountrySnapshot `yaml:"snapshots"`
}

// SeedSummary holds counts from a seed run.
type SeedSummary struct {
	Items     int
	Snapshots int
	Settings  bool
}

// SeedFromYAML loads settings, items, and snapshots from a YAML file into
// the store. Seeded settings are activated.
func (s *Store) SeedFromYAML(ctx context.Context, path string) (SeedSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedSummary{}, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedSummary{}, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	var summary SeedSummary

	if seed.Settings != nil {
		if err := s.SaveSettings(ctx, *seed.Settings, true); err != nil {
			return summary, err
		}
		summary.Settings = true
	}

	for _, item := range seed.Items {
		if err := s.AddGlobalItem(ctx, item); err != nil {
			return summary, err
		}
		summary.Items++
	}

	for _, snap := range seed.Snapshots {
		if err := s.UpsertSnapshot(ctx, snap); err != nil {
			return summary, err
		}
		summary.Snapshots++
	}

	return summary, nil
}
