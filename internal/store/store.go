// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the structured event datastore: global news items,
// country-activity snapshots, and scoring settings. All retrieval filtering
// is pushed into SQL; callers never load unfiltered tables.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

const defaultQueryTimeout = 10 * time.Second

// Store manages the engine's SQLite database.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewStore opens or creates the SQLite database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.DatastoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "geointel.db"
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	s := &Store{db: db, queryTimeout: timeout}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS global_items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			summary TEXT,
			topic TEXT,
			source_name TEXT,
			url TEXT,
			countries TEXT,
			published_at TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_global_items_published ON global_items(published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_global_items_topic ON global_items(topic)`,
		`CREATE TABLE IF NOT EXISTS country_snapshots (
			name TEXT PRIMARY KEY,
			activity_level TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			events TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_activity ON country_snapshots(activity_level)`,
		`CREATE TABLE IF NOT EXISTS scoring_settings (
			name TEXT PRIMARY KEY,
			is_active INTEGER NOT NULL DEFAULT 0,
			settings TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddGlobalItem inserts one news item. The publication timestamp is
// normalized to RFC 3339 UTC so SQL date comparisons stay lexicographic.
func (s *Store) AddGlobalItem(ctx context.Context, item types.GlobalItem) error {
	countriesJSON, err := json.Marshal(item.Countries)
	if err != nil {
		return fmt.Errorf("marshaling countries: %w", err)
	}

	publishedAt := ""
	if !item.PublishedAt.IsZero() {
		publishedAt = item.PublishedAt.UTC().Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO global_items (title, summary, topic, source_name, url, countries, published_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Summary, item.Topic, item.SourceName, item.URL,
		string(countriesJSON), publishedAt, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting global item: %w", err)
	}
	return nil
}

// UpsertSnapshot inserts or replaces a country-activity snapshot.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot types.CountrySnapshot) error {
	eventsJSON, err := json.Marshal(snapshot.Events)
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO country_snapshots (name, activity_level, updated_at, events)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			activity_level=excluded.activity_level,
			updated_at=excluded.updated_at,
			events=excluded.events`,
		snapshot.Name, snapshot.ActivityLevel,
		snapshot.UpdatedAt.UTC().Format(time.RFC3339), string(eventsJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot %s: %w", snapshot.Name, err)
	}
	return nil
}
