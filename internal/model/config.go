package model

import (
	"encoding/json"
	"time"
)

// ConfigRecord is the current value of one configuration category, stored as
// JSONB. At most one live record exists per category; prior values are moved
// to ConfigHistoryEntry rows on overwrite.
type ConfigRecord struct {
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ConfigHistoryEntry is an append-only capture of a category's value
// immediately before it was overwritten. Write-once, never mutated.
type ConfigHistoryEntry struct {
	ID        int64           `json:"id"`
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ConfigSnapshot is the export/import format for all categories at once.
type ConfigSnapshot struct {
	Version    string                     `json:"version"`
	ExportedAt time.Time                  `json:"exported_at"`
	Configs    map[string]json.RawMessage `json:"configs"`
}

// SnapshotVersion is the format version written by ExportAll.
const SnapshotVersion = "1.0"
