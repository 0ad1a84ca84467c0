// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GlobalItem is a news/event row from the structured event datastore.
type GlobalItem struct {
	Title       string    `json:"title" yaml:"title"`
	Summary     string    `json:"summary" yaml:"summary"`
	Topic       string    `json:"topic" yaml:"topic"`
	SourceName  string    `json:"source_name" yaml:"source_name"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Countries   []string  `json:"countries" yaml:"countries"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// SnapshotEvent is one event inside a country-activity snapshot.
type SnapshotEvent struct {
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary" yaml:"summary"`
	Why     string `json:"why,omitempty" yaml:"why,omitempty"`
	Topic   string `json:"topic" yaml:"topic"`
}

// CountrySnapshot is an aggregated country-activity row from the datastore.
type CountrySnapshot struct {
	Name          string          `json:"name" yaml:"name"`
	ActivityLevel string          `json:"activity_level" yaml:"activity_level"`
	UpdatedAt     time.Time       `json:"updated_at" yaml:"updated_at"`
	Events        []SnapshotEvent `json:"events" yaml:"events"`
}

// WebResult is one hit from the web-search provider, already passed through
// the adapter's quality filters.
type WebResult struct {
	Title       string    `json:"title" yaml:"title"`
	URL         string    `json:"url" yaml:"url"`
	Snippet     string    `json:"snippet" yaml:"snippet"`
	SourceName  string    `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// Trusted is set by the adapter when the URL belongs to the trusted
	// news-domain list; it earns a small source-quality boost.
	Trusted bool `json:"trusted,omitempty" yaml:"trusted,omitempty"`
}
