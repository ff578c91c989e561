package sync

import (
	"context"
	"database/sql"
	"sort"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/store"
)

// mockStore is an in-memory store.Store for export tests.
type mockStore struct {
	configs       map[string]*model.ConfigRecord
	history       map[string][]*model.ConfigHistoryEntry
	daily         map[string]*model.DailyMetrics
	historyNextID int64
}

func newMockStore() *mockStore {
	return &mockStore{
		configs: map[string]*model.ConfigRecord{},
		history: map[string][]*model.ConfigHistoryEntry{},
		daily:   map[string]*model.DailyMetrics{},
	}
}

func (m *mockStore) GetConfig(_ context.Context, category string) (*model.ConfigRecord, error) {
	rec, ok := m.configs[category]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rec, nil
}

func (m *mockStore) SetConfig(_ context.Context, rec *model.ConfigRecord) error {
	m.configs[rec.Category] = rec
	return nil
}

func (m *mockStore) ListConfigs(_ context.Context) ([]*model.ConfigRecord, error) {
	cats := make([]string, 0, len(m.configs))
	for cat := range m.configs {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	out := make([]*model.ConfigRecord, 0, len(cats))
	for _, cat := range cats {
		out = append(out, m.configs[cat])
	}
	return out, nil
}

func (m *mockStore) AddConfigHistory(_ context.Context, entry *model.ConfigHistoryEntry) error {
	m.historyNextID++
	entry.ID = m.historyNextID
	m.history[entry.Category] = append([]*model.ConfigHistoryEntry{entry}, m.history[entry.Category]...)
	return nil
}

func (m *mockStore) ConfigHistory(_ context.Context, category string, limit int) ([]*model.ConfigHistoryEntry, error) {
	entries := m.history[category]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *mockStore) PruneConfigHistory(_ context.Context, category string, keep int) error {
	if entries := m.history[category]; len(entries) > keep {
		m.history[category] = entries[:keep]
	}
	return nil
}

func (m *mockStore) GetDaily(_ context.Context, date string) (*model.DailyMetrics, error) {
	row, ok := m.daily[date]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (m *mockStore) GetDailyRange(_ context.Context, start, end string) ([]*model.DailyMetrics, error) {
	var out []*model.DailyMetrics
	for date, row := range m.daily {
		if date >= start && date <= end {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *mockStore) UpsertDaily(_ context.Context, row *model.DailyMetrics) error {
	m.daily[row.Date] = row
	return nil
}

func (m *mockStore) ListDaily(_ context.Context) ([]*model.DailyMetrics, error) {
	var out []*model.DailyMetrics
	for _, row := range m.daily {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
