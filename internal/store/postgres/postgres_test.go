package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var configColumns = []string{"category", "data", "created_at", "updated_at"}

var dailyColumns = []string{"date", "checklist", "actions", "score"}

func TestQuerySetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rec := &model.ConfigRecord{Category: "checklist", Data: []byte(`{"tasks":[]}`)}

	mock.ExpectQuery("INSERT INTO configs").
		WithArgs("checklist", []byte(`{"tasks":[]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := querySetConfig(context.Background(), db, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.CreatedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not populated: %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestQueryGetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM configs WHERE category = \\$1").
		WithArgs("rhythm").
		WillReturnRows(sqlmock.NewRows(configColumns).AddRow("rhythm", []byte(`{"blocks":[]}`), now, now))

	rec, err := queryGetConfig(context.Background(), db, "rhythm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Category != "rhythm" || string(rec.Data) != `{"blocks":[]}` {
		t.Fatalf("got category=%q data=%s", rec.Category, rec.Data)
	}
}

func TestQueryGetConfig_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM configs WHERE category = \\$1").
		WithArgs("scoring").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetConfig(context.Background(), db, "scoring")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListConfigs(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(configColumns).
		AddRow("actions", []byte(`{"actions":[]}`), now, now).
		AddRow("checklist", []byte(`{"tasks":[]}`), now, now)
	mock.ExpectQuery("SELECT .+ FROM configs ORDER BY category").WillReturnRows(rows)

	configs, err := queryListConfigs(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(configs) != 2 || configs[0].Category != "actions" || configs[1].Category != "checklist" {
		t.Fatalf("unexpected configs: %+v", configs)
	}
}

func TestQueryAddConfigHistory(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	entry := &model.ConfigHistoryEntry{Category: "checklist", Data: []byte(`{}`)}

	mock.ExpectQuery("INSERT INTO config_history").
		WithArgs("checklist", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	if err := queryAddConfigHistory(context.Background(), db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != 7 || !entry.CreatedAt.Equal(now) {
		t.Fatalf("entry not populated: id=%d created_at=%v", entry.ID, entry.CreatedAt)
	}
}

func TestQueryConfigHistory(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "category", "data", "created_at"}).
		AddRow(int64(3), "rhythm", []byte(`{"v":3}`), now).
		AddRow(int64(2), "rhythm", []byte(`{"v":2}`), now.Add(-time.Hour))
	mock.ExpectQuery("SELECT .+ FROM config_history").
		WithArgs("rhythm", 10).
		WillReturnRows(rows)

	entries, err := queryConfigHistory(context.Background(), db, "rhythm", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 3 || entries[1].ID != 2 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestQueryPruneConfigHistory(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM config_history").
		WithArgs("checklist", 50).
		WillReturnResult(sqlmock.NewResult(0, 4))

	if err := queryPruneConfigHistory(context.Background(), db, "checklist", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryUpsertDaily(t *testing.T) {
	db, mock := newMockDB(t)
	row := &model.DailyMetrics{
		Date:      "2026-09-01",
		Checklist: map[string]bool{"t1": true},
		Actions:   map[string]int{"dm": 3},
		Score:     6,
	}

	mock.ExpectExec("INSERT INTO daily_data").
		WithArgs("2026-09-01", []byte(`{"t1":true}`), []byte(`{"dm":3}`), 6).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryUpsertDaily(context.Background(), db, row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetDaily(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM daily_data WHERE date = \\$1").
		WithArgs("2026-09-01").
		WillReturnRows(sqlmock.NewRows(dailyColumns).
			AddRow("2026-09-01", []byte(`{"t1":true}`), []byte(`{"dm":3}`), 6))

	m, err := queryGetDaily(context.Background(), db, "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Date != "2026-09-01" || !m.Checklist["t1"] || m.Actions["dm"] != 3 || m.Score != 6 {
		t.Fatalf("unexpected row: %+v", m)
	}
}

func TestQueryGetDaily_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM daily_data WHERE date = \\$1").
		WithArgs("2026-01-01").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetDaily(context.Background(), db, "2026-01-01")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryGetDailyRange(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(dailyColumns).
		AddRow("2026-08-30", []byte(`{}`), []byte(`{}`), 4).
		AddRow("2026-08-31", []byte(`{}`), []byte(`{}`), 8)
	mock.ExpectQuery("SELECT .+ FROM daily_data").
		WithArgs("2026-08-30", "2026-08-31").
		WillReturnRows(rows)

	metrics, err := queryGetDailyRange(context.Background(), db, "2026-08-30", "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metrics) != 2 || metrics[0].Date != "2026-08-30" || metrics[1].Score != 8 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestQueryGetDaily_CorruptChecklist(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM daily_data WHERE date = \\$1").
		WithArgs("2026-09-01").
		WillReturnRows(sqlmock.NewRows(dailyColumns).
			AddRow("2026-09-01", []byte(`not json`), []byte(`{}`), 0))

	if _, err := queryGetDaily(context.Background(), db, "2026-09-01"); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM config_history").
		WithArgs("checklist", 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.PruneConfigHistory(context.Background(), "checklist", 50)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
