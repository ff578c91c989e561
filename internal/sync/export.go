package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groblegark/cadence/internal/store"
)

// exportHistoryLimit caps how many history entries per category are included,
// matching the store's retention window.
const exportHistoryLimit = 50

// Backup is one assembled export: the JSONL payload plus the counts that
// destinations surface in object metadata and commit messages.
type Backup struct {
	Data         []byte
	ExportedAt   time.Time
	ConfigCount  int
	HistoryCount int
	DailyCount   int
}

// header is the first JSONL record in a backup.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	ConfigCount  int       `json:"config_count"`
	HistoryCount int       `json:"history_count"`
	DailyCount   int       `json:"daily_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BuildBackup reads all configs, their recent history, and all daily rows
// from the store and assembles them as JSONL. Configs are ordered by category
// and daily rows by date.
func BuildBackup(ctx context.Context, s store.Store) (*Backup, error) {
	configs, err := s.ListConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	type historyLine struct {
		category string
		data     interface{}
	}
	var history []historyLine
	for _, c := range configs {
		entries, err := s.ConfigHistory(ctx, c.Category, exportHistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", c.Category, err)
		}
		for _, e := range entries {
			history = append(history, historyLine{category: c.Category, data: e})
		}
	}

	rows, err := s.ListDaily(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daily rows: %w", err)
	}

	exportedAt := time.Now().UTC()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      "1",
		Type:         "header",
		Timestamp:    exportedAt,
		ConfigCount:  len(configs),
		HistoryCount: len(history),
		DailyCount:   len(rows),
	}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}

	for _, c := range configs {
		if err := enc.Encode(record{Type: "config", Data: c}); err != nil {
			return nil, fmt.Errorf("encode config %s: %w", c.Category, err)
		}
	}

	for _, h := range history {
		if err := enc.Encode(record{Type: "history", Data: h.data}); err != nil {
			return nil, fmt.Errorf("encode history for %s: %w", h.category, err)
		}
	}

	for _, r := range rows {
		if err := enc.Encode(record{Type: "daily", Data: r}); err != nil {
			return nil, fmt.Errorf("encode daily %s: %w", r.Date, err)
		}
	}

	return &Backup{
		Data:         buf.Bytes(),
		ExportedAt:   exportedAt,
		ConfigCount:  len(configs),
		HistoryCount: len(history),
		DailyCount:   len(rows),
	}, nil
}
