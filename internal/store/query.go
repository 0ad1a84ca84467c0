// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/geointel-engine/pkg/types"
)

// ItemFilter narrows a global-items query. Zero-value fields are not
// applied.
type ItemFilter struct {
	// Countries matches items tagged with any of these countries.
	Countries []string

	// Topics matches items with any of these topics.
	Topics []string

	// DaysLookback excludes items published more than N days ago.
	DaysLookback int

	// Limit caps returned rows; zero means 200.
	Limit int
}

// SnapshotFilter narrows a country-snapshot query.
type SnapshotFilter struct {
	// CountryName matches snapshot names case-insensitively as a substring.
	CountryName string

	// ActivityLevels matches any of these levels (e.g. Critical, High).
	ActivityLevels []string

	// DaysLookback excludes snapshots updated more than N days ago.
	DaysLookback int

	// Limit caps returned rows; zero means 50.
	Limit int
}

// GlobalItems returns news items matching the filter, newest first. Country
// containment is evaluated inside SQL over the JSON countries column.
func (s *Store) GlobalItems(ctx context.Context, f ItemFilter) ([]types.GlobalItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var qb strings.Builder
	var args []any

	qb.WriteString(
		`SELECT title, summary, topic, source_name, url, countries, published_at
		 FROM global_items WHERE 1=1`)

	if len(f.Countries) > 0 {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(countries) WHERE value IN (`)
		for i, country := range f.Countries {
			if i > 0 {
				qb.WriteString(`, `)
			}
			qb.WriteString(`?`)
			args = append(args, country)
		}
		qb.WriteString(`))`)
	}

	if len(f.Topics) > 0 {
		qb.WriteString(` AND topic IN (`)
		for i, topic := range f.Topics {
			if i > 0 {
				qb.WriteString(`, `)
			}
			qb.WriteString(`?`)
			args = append(args, topic)
		}
		qb.WriteString(`)`)
	}

	if f.DaysLookback > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -f.DaysLookback).Format(time.RFC3339)
		qb.WriteString(` AND published_at >= ?`)
		args = append(args, cutoff)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	qb.WriteString(` ORDER BY published_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying global items: %w", err)
	}
	defer rows.Close()

	var items []types.GlobalItem
	for rows.Next() {
		var item types.GlobalItem
		var countriesJSON, publishedAt sql.NullString

		if err := rows.Scan(
			&item.Title, &item.Summary, &item.Topic, &item.SourceName,
			&item.URL, &countriesJSON, &publishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning global item: %w", err)
		}

		if countriesJSON.Valid {
			json.Unmarshal([]byte(countriesJSON.String), &item.Countries)
		}
		if publishedAt.Valid && publishedAt.String != "" {
			if t, parseErr := time.Parse(time.RFC3339, publishedAt.String); parseErr == nil {
				item.PublishedAt = t
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Snapshots returns country snapshots matching the filter, ordered by
// activity level priority (Critical first) then recency.
func (s *Store) Snapshots(ctx context.Context, f SnapshotFilter) ([]types.CountrySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var qb strings.Builder
	var args []any

	qb.WriteString(
		`SELECT name, activity_level, updated_at, events
		 FROM country_snapshots WHERE 1=1`)

	if f.CountryName != "" {
		qb.WriteString(` AND name LIKE ? COLLATE NOCASE`)
		args = append(args, "%"+f.CountryName+"%")
	}

	if len(f.ActivityLevels) > 0 {
		qb.WriteString(` AND activity_level IN (`)
		for i, level := range f.ActivityLevels {
			if i > 0 {
				qb.WriteString(`, `)
			}
			qb.WriteString(`?`)
			args = append(args, level)
		}
		qb.WriteString(`)`)
	}

	if f.DaysLookback > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -f.DaysLookback).Format(time.RFC3339)
		qb.WriteString(` AND updated_at >= ?`)
		args = append(args, cutoff)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	qb.WriteString(` ORDER BY CASE activity_level
			WHEN 'Critical' THEN 1
			WHEN 'High' THEN 2
			WHEN 'Medium' THEN 3
			WHEN 'Low' THEN 4
			ELSE 5 END ASC,
		updated_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.CountrySnapshot
	for rows.Next() {
		var snap types.CountrySnapshot
		var updatedAt string
		var eventsJSON sql.NullString

		if err := rows.Scan(&snap.Name, &snap.ActivityLevel, &updatedAt, &eventsJSON); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}

		if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
			snap.UpdatedAt = t
		}
		if eventsJSON.Valid {
			json.Unmarshal([]byte(eventsJSON.String), &snap.Events)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
