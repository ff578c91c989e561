package store

import (
	"context"

	"github.com/groblegark/cadence/internal/model"
)

// Store defines the persistence interface for config and daily-metrics rows.
// Absence is signaled with sql.ErrNoRows from implementations.
type Store interface {
	// Configs
	GetConfig(ctx context.Context, category string) (*model.ConfigRecord, error)
	SetConfig(ctx context.Context, rec *model.ConfigRecord) error // single-row upsert
	ListConfigs(ctx context.Context) ([]*model.ConfigRecord, error)

	// Config history
	AddConfigHistory(ctx context.Context, entry *model.ConfigHistoryEntry) error
	ConfigHistory(ctx context.Context, category string, limit int) ([]*model.ConfigHistoryEntry, error)
	PruneConfigHistory(ctx context.Context, category string, keep int) error

	// Daily metrics
	GetDaily(ctx context.Context, date string) (*model.DailyMetrics, error)
	GetDailyRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error)
	UpsertDaily(ctx context.Context, row *model.DailyMetrics) error
	ListDaily(ctx context.Context) ([]*model.DailyMetrics, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
