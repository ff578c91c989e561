package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/groblegark/cadence/internal/model"
)

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanConfig(row scannable) (*model.ConfigRecord, error) {
	var rec model.ConfigRecord
	var data []byte
	if err := row.Scan(&rec.Category, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Data = json.RawMessage(data)
	return &rec, nil
}

func scanConfigs(rows *sql.Rows) ([]*model.ConfigRecord, error) {
	var out []*model.ConfigRecord
	for rows.Next() {
		rec, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanHistoryEntry(row scannable) (*model.ConfigHistoryEntry, error) {
	var entry model.ConfigHistoryEntry
	var data []byte
	if err := row.Scan(&entry.ID, &entry.Category, &data, &entry.CreatedAt); err != nil {
		return nil, err
	}
	entry.Data = json.RawMessage(data)
	return &entry, nil
}

func scanHistoryEntries(rows *sql.Rows) ([]*model.ConfigHistoryEntry, error) {
	var out []*model.ConfigHistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanDaily(row scannable) (*model.DailyMetrics, error) {
	var m model.DailyMetrics
	var checklist, actions []byte
	if err := row.Scan(&m.Date, &checklist, &actions, &m.Score); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(checklist, &m.Checklist); err != nil {
		return nil, fmt.Errorf("decode checklist for %s: %w", m.Date, err)
	}
	if err := json.Unmarshal(actions, &m.Actions); err != nil {
		return nil, fmt.Errorf("decode actions for %s: %w", m.Date, err)
	}
	return &m, nil
}

func scanDailyRows(rows *sql.Rows) ([]*model.DailyMetrics, error) {
	var out []*model.DailyMetrics
	for rows.Next() {
		m, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// dailyJSON marshals the map columns for storage as JSONB.
func dailyJSON(m *model.DailyMetrics) (checklist, actions []byte, err error) {
	checklist, err = json.Marshal(m.Checklist)
	if err != nil {
		return nil, nil, fmt.Errorf("encode checklist: %w", err)
	}
	actions, err = json.Marshal(m.Actions)
	if err != nil {
		return nil, nil, fmt.Errorf("encode actions: %w", err)
	}
	return checklist, actions, nil
}
