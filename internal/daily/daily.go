// Package daily manages per-day metric rows. The package degrades to a
// disabled mode when no database is configured: every operation fails fast
// with ErrBackendDisabled so callers can surface the condition instead of
// timing out.
package daily

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groblegark/cadence/internal/events"
	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/store"
)

// ErrBackendDisabled is returned by every operation when the service was
// constructed without a store. Transport layers map it to 501.
var ErrBackendDisabled = errors.New("metrics backend disabled")

// ErrNotFound is returned when no row exists for the requested date.
var ErrNotFound = errors.New("no metrics for date")

// Service stores and retrieves daily metric rows. A nil store puts the
// service in disabled mode.
type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
}

// New returns a Service. Pass a nil store to construct a disabled service.
func New(s store.Store, p events.Publisher, logger *slog.Logger) *Service {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, publisher: p, logger: logger}
}

// Enabled reports whether a metrics backend is configured.
func (s *Service) Enabled() bool { return s.store != nil }

// GetByDate returns the row for one date, or ErrNotFound.
func (s *Service) GetByDate(ctx context.Context, date string) (*model.DailyMetrics, error) {
	if s.store == nil {
		return nil, ErrBackendDisabled
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	row, err := s.store.GetDaily(ctx, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	if err != nil {
		return nil, fmt.Errorf("get daily %s: %w", date, err)
	}
	return row, nil
}

// GetRange returns rows between start and end inclusive, ordered by date.
// Dates with no row are simply absent from the result.
func (s *Service) GetRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error) {
	if s.store == nil {
		return nil, ErrBackendDisabled
	}
	if err := validateDate(start); err != nil {
		return nil, err
	}
	if err := validateDate(end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, &schema.ValidationError{Errors: []schema.FieldError{
			{Field: "start", Message: "start date is after end date"},
		}}
	}
	rows, err := s.store.GetDailyRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("get daily range: %w", err)
	}
	if rows == nil {
		rows = []*model.DailyMetrics{}
	}
	return rows, nil
}

// Upsert validates the row and writes it, replacing any existing row for the
// same date. Last write wins; there is no merge. A change event is published
// fire-and-forget after the write.
func (s *Service) Upsert(ctx context.Context, row *model.DailyMetrics) error {
	if s.store == nil {
		return ErrBackendDisabled
	}
	if err := schema.ValidateDaily(row); err != nil {
		return err
	}
	if err := s.store.UpsertDaily(ctx, row); err != nil {
		return fmt.Errorf("upsert daily %s: %w", row.Date, err)
	}
	if err := s.publisher.Publish(ctx, events.TopicDailyUpserted, events.DailyUpserted{Row: row}); err != nil {
		s.logger.Warn("failed to publish event", "topic", events.TopicDailyUpserted, "error", err)
	}
	return nil
}

// ExportAll returns every stored row ordered by date.
func (s *Service) ExportAll(ctx context.Context) (*model.DailyExport, error) {
	if s.store == nil {
		return nil, ErrBackendDisabled
	}
	rows, err := s.store.ListDaily(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daily: %w", err)
	}
	if rows == nil {
		rows = []*model.DailyMetrics{}
	}
	return &model.DailyExport{
		Version:    model.SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Rows:       rows,
	}, nil
}

// ImportAll upserts every row in the export. All rows are validated up front;
// an invalid row fails the import before anything is written.
func (s *Service) ImportAll(ctx context.Context, export *model.DailyExport) (int, error) {
	if s.store == nil {
		return 0, ErrBackendDisabled
	}
	for _, row := range export.Rows {
		if err := schema.ValidateDaily(row); err != nil {
			return 0, fmt.Errorf("import row %q: %w", row.Date, err)
		}
	}
	count := 0
	for _, row := range export.Rows {
		if err := s.Upsert(ctx, row); err != nil {
			return count, fmt.Errorf("import row %q: %w", row.Date, err)
		}
		count++
	}
	return count, nil
}

func validateDate(date string) error {
	if !schema.IsValidDate(date) {
		return &schema.ValidationError{Errors: []schema.FieldError{
			{Field: "date", Message: "must be formatted YYYY-MM-DD"},
		}}
	}
	return nil
}
