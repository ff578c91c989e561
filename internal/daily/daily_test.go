package daily

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"

	"github.com/groblegark/cadence/internal/events"
	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/store"
)

type mockStore struct {
	daily map[string]*model.DailyMetrics

	upsertErr error
}

func newMockStore() *mockStore {
	return &mockStore{daily: make(map[string]*model.DailyMetrics)}
}

func (m *mockStore) GetConfig(_ context.Context, category string) (*model.ConfigRecord, error) {
	return nil, sql.ErrNoRows
}

func (m *mockStore) SetConfig(_ context.Context, rec *model.ConfigRecord) error { return nil }

func (m *mockStore) ListConfigs(_ context.Context) ([]*model.ConfigRecord, error) { return nil, nil }

func (m *mockStore) AddConfigHistory(_ context.Context, entry *model.ConfigHistoryEntry) error {
	return nil
}

func (m *mockStore) ConfigHistory(_ context.Context, category string, limit int) ([]*model.ConfigHistoryEntry, error) {
	return nil, nil
}

func (m *mockStore) PruneConfigHistory(_ context.Context, category string, keep int) error {
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
	if m.upsertErr != nil {
		return m.upsertErr
	}
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

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

type capturePublisher struct {
	topics []string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestDisabledService_AllOperationsFailFast(t *testing.T) {
	svc := New(nil, nil, nil)

	if svc.Enabled() {
		t.Fatal("service with nil store must report disabled")
	}
	if _, err := svc.GetByDate(context.Background(), "2026-09-01"); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("GetByDate: expected ErrBackendDisabled, got %v", err)
	}
	if _, err := svc.GetRange(context.Background(), "2026-08-01", "2026-09-01"); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("GetRange: expected ErrBackendDisabled, got %v", err)
	}
	if err := svc.Upsert(context.Background(), &model.DailyMetrics{Date: "2026-09-01"}); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("Upsert: expected ErrBackendDisabled, got %v", err)
	}
	if _, err := svc.ExportAll(context.Background()); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("ExportAll: expected ErrBackendDisabled, got %v", err)
	}
	if _, err := svc.ImportAll(context.Background(), &model.DailyExport{}); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("ImportAll: expected ErrBackendDisabled, got %v", err)
	}
}

func TestUpsert_WritesAndPublishes(t *testing.T) {
	ms := newMockStore()
	pub := &capturePublisher{}
	svc := New(ms, pub, nil)

	row := &model.DailyMetrics{
		Date:      "2026-09-01",
		Checklist: map[string]bool{"t1": true},
		Actions:   map[string]int{"dm": 2},
		Score:     4,
	}
	if err := svc.Upsert(context.Background(), row); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := svc.GetByDate(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if got.Score != 4 || !got.Checklist["t1"] {
		t.Fatalf("unexpected row: %+v", got)
	}
	if len(pub.topics) != 1 || pub.topics[0] != events.TopicDailyUpserted {
		t.Fatalf("expected one %s event, got %v", events.TopicDailyUpserted, pub.topics)
	}
}

func TestUpsert_LastWriteWins(t *testing.T) {
	ms := newMockStore()
	svc := New(ms, nil, nil)

	first := &model.DailyMetrics{Date: "2026-09-01", Actions: map[string]int{"dm": 2}, Score: 4}
	second := &model.DailyMetrics{Date: "2026-09-01", Actions: map[string]int{"dm": 5}, Score: 9}
	if err := svc.Upsert(context.Background(), first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	if err := svc.Upsert(context.Background(), second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := svc.GetByDate(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if got.Actions["dm"] != 5 || got.Score != 9 {
		t.Fatalf("expected replacement, got %+v", got)
	}
}

func TestUpsert_RejectsInvalidRow(t *testing.T) {
	ms := newMockStore()
	pub := &capturePublisher{}
	svc := New(ms, pub, nil)

	row := &model.DailyMetrics{Date: "09/01/2026", Score: 4}
	err := svc.Upsert(context.Background(), row)
	var valErr *schema.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ms.daily) != 0 {
		t.Fatal("invalid row must not be written")
	}
	if len(pub.topics) != 0 {
		t.Fatal("invalid row must not publish")
	}
}

func TestGetByDate_NotFound(t *testing.T) {
	svc := New(newMockStore(), nil, nil)

	_, err := svc.GetByDate(context.Background(), "2026-01-01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRange_OrderedAndSparse(t *testing.T) {
	ms := newMockStore()
	svc := New(ms, nil, nil)

	for _, date := range []string{"2026-08-29", "2026-08-31", "2026-09-02"} {
		if err := svc.Upsert(context.Background(), &model.DailyMetrics{Date: date}); err != nil {
			t.Fatalf("Upsert %s: %v", date, err)
		}
	}

	rows, err := svc.GetRange(context.Background(), "2026-08-29", "2026-09-01")
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2026-08-29" || rows[1].Date != "2026-08-31" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestGetRange_InvertedRange(t *testing.T) {
	svc := New(newMockStore(), nil, nil)

	_, err := svc.GetRange(context.Background(), "2026-09-01", "2026-08-01")
	var valErr *schema.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ms := newMockStore()
	svc := New(ms, nil, nil)

	for _, date := range []string{"2026-08-30", "2026-08-31"} {
		if err := svc.Upsert(context.Background(), &model.DailyMetrics{Date: date, Score: 3}); err != nil {
			t.Fatalf("Upsert %s: %v", date, err)
		}
	}

	export, err := svc.ExportAll(context.Background())
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if export.Version != model.SnapshotVersion || len(export.Rows) != 2 {
		t.Fatalf("unexpected export: %+v", export)
	}

	// Import into a fresh service.
	fresh := New(newMockStore(), nil, nil)
	count, err := fresh.ImportAll(context.Background(), export)
	if err != nil {
		t.Fatalf("ImportAll: %v", err)
	}
	if count != 2 {
		t.Fatalf("imported %d rows, want 2", count)
	}
}

func TestImportAll_InvalidRowWritesNothing(t *testing.T) {
	ms := newMockStore()
	svc := New(ms, nil, nil)

	export := &model.DailyExport{
		Rows: []*model.DailyMetrics{
			{Date: "2026-08-30"},
			{Date: "not-a-date"},
			{Date: "2026-08-31"},
		},
	}
	count, err := svc.ImportAll(context.Background(), export)
	if err == nil {
		t.Fatal("expected error for invalid row")
	}
	if count != 0 {
		t.Fatalf("expected 0 rows imported, got %d", count)
	}
	// The whole import is rejected up front, so the valid rows around the
	// invalid one must not land either.
	if len(ms.daily) != 0 {
		t.Fatalf("expected empty store after failed import, got %d rows", len(ms.daily))
	}
}
