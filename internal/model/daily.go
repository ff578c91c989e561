package model

import "time"

// DailyMetrics is one day's synced execution state: which checklist tasks were
// completed, how many of each action were logged, and the computed score.
// Keyed by calendar date (YYYY-MM-DD); upserts replace the whole row.
type DailyMetrics struct {
	Date      string          `json:"date"`
	Checklist map[string]bool `json:"checklist"`
	Actions   map[string]int  `json:"actions"`
	Score     int             `json:"score"`
}

// DailyExport is the export format for the full daily-metrics table.
type DailyExport struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Rows       []*DailyMetrics `json:"rows"`
}
