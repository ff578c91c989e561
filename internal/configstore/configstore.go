// Package configstore implements persistence and lifecycle for dashboard
// configuration categories: defaults, validation, bounded history, and
// change notification.
package configstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groblegark/cadence/internal/events"
	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/store"
)

const (
	// DefaultHistoryLimit is the number of history entries returned when the
	// caller does not ask for a specific count.
	DefaultHistoryLimit = 10

	// historyRetention is the maximum number of history rows kept per category.
	historyRetention = 50
)

// StorageError wraps a driver or I/O failure from the underlying store. It is
// distinct from validation errors so transport layers can map it to a 5xx.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Service manages the four configuration categories on top of a store.Store.
// Writes are published to the event bus fire-and-forget after commit.
type Service struct {
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
}

// New returns a Service backed by the given store and publisher.
func New(s store.Store, p events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, publisher: p, logger: logger}
}

// Get returns the current value for a category. If no value has been stored
// yet, the built-in default is persisted and returned. A stored value that no
// longer passes validation is replaced by the default rather than failing the
// read; the corruption is logged.
func (s *Service) Get(ctx context.Context, cat schema.Category) (json.RawMessage, error) {
	if !cat.IsValid() {
		return nil, &schema.UnknownCategoryError{Category: string(cat)}
	}

	rec, err := s.store.GetConfig(ctx, string(cat))
	if errors.Is(err, sql.ErrNoRows) {
		return s.seedDefault(ctx, cat)
	}
	if err != nil {
		return nil, &StorageError{Op: "get config", Err: err}
	}

	normalized, err := schema.Validate(cat, rec.Data)
	if err != nil {
		s.logger.Warn("stored config failed validation, falling back to default",
			"category", cat, "error", err)
		return schema.Default(cat)
	}
	return normalized, nil
}

func (s *Service) seedDefault(ctx context.Context, cat schema.Category) (json.RawMessage, error) {
	def, err := schema.Default(cat)
	if err != nil {
		return nil, err
	}
	rec := &model.ConfigRecord{Category: string(cat), Data: def}
	if err := s.store.SetConfig(ctx, rec); err != nil {
		return nil, &StorageError{Op: "seed default", Err: err}
	}
	return def, nil
}

// Set validates raw against the category schema, then in one transaction
// archives the value being overwritten, prunes history to the retention cap,
// and upserts the record. The normalized value is returned. A change event is
// published after the transaction commits.
func (s *Service) Set(ctx context.Context, cat schema.Category, raw json.RawMessage) (json.RawMessage, error) {
	normalized, err := schema.Validate(cat, raw)
	if err != nil {
		return nil, err
	}

	if err := s.writeConfig(ctx, cat, normalized); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicConfigUpdated, events.ConfigUpdated{
		Category: string(cat),
		Data:     normalized,
	})
	return normalized, nil
}

// Reset replaces the category value with its built-in default and publishes a
// reset event. The replaced value is still recorded in history.
func (s *Service) Reset(ctx context.Context, cat schema.Category) (json.RawMessage, error) {
	if !cat.IsValid() {
		return nil, &schema.UnknownCategoryError{Category: string(cat)}
	}

	def, err := schema.Default(cat)
	if err != nil {
		return nil, err
	}

	if err := s.writeConfig(ctx, cat, def); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicConfigReset, events.ConfigReset{
		Category: string(cat),
		Data:     def,
	})
	return def, nil
}

// writeConfig runs the prior-value archive, prune, and upsert as one
// transaction. History holds the value each write replaced, so the first
// write for a category leaves history empty.
func (s *Service) writeConfig(ctx context.Context, cat schema.Category, data json.RawMessage) error {
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		prior, err := tx.GetConfig(ctx, string(cat))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Nothing stored yet, nothing to archive.
		case err != nil:
			return fmt.Errorf("read prior config: %w", err)
		default:
			entry := &model.ConfigHistoryEntry{Category: string(cat), Data: prior.Data}
			if err := tx.AddConfigHistory(ctx, entry); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
			if err := tx.PruneConfigHistory(ctx, string(cat), historyRetention); err != nil {
				return fmt.Errorf("prune history: %w", err)
			}
		}
		rec := &model.ConfigRecord{Category: string(cat), Data: data}
		if err := tx.SetConfig(ctx, rec); err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "write config", Err: err}
	}
	return nil
}

// History returns up to limit previous values for a category, newest first.
// A non-positive limit uses DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, cat schema.Category, limit int) ([]*model.ConfigHistoryEntry, error) {
	if !cat.IsValid() {
		return nil, &schema.UnknownCategoryError{Category: string(cat)}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := s.store.ConfigHistory(ctx, string(cat), limit)
	if err != nil {
		return nil, &StorageError{Op: "read history", Err: err}
	}
	if entries == nil {
		entries = []*model.ConfigHistoryEntry{}
	}
	return entries, nil
}

// ExportAll returns a snapshot of every category's current value. Categories
// with no stored value export their defaults.
func (s *Service) ExportAll(ctx context.Context) (*model.ConfigSnapshot, error) {
	snapshot := &model.ConfigSnapshot{
		Version:    model.SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Configs:    make(map[string]json.RawMessage, len(schema.Categories)),
	}
	for _, cat := range schema.Categories {
		value, err := s.Get(ctx, cat)
		if err != nil {
			return nil, err
		}
		snapshot.Configs[string(cat)] = value
	}
	return snapshot, nil
}

// ImportAll applies each recognized category from the snapshot via Set, so
// imports are validated and recorded in history like any other write. Unknown
// categories are skipped so snapshots from newer versions import cleanly.
// It returns the categories that were applied.
func (s *Service) ImportAll(ctx context.Context, snapshot *model.ConfigSnapshot) ([]string, error) {
	var applied []string
	for _, cat := range schema.Categories {
		raw, ok := snapshot.Configs[string(cat)]
		if !ok {
			continue
		}
		if _, err := s.Set(ctx, cat, raw); err != nil {
			return applied, fmt.Errorf("import %s: %w", cat, err)
		}
		applied = append(applied, string(cat))
	}
	for tag := range snapshot.Configs {
		if !schema.Category(tag).IsValid() {
			s.logger.Debug("skipping unrecognized config tag in import", "tag", tag)
		}
	}
	return applied, nil
}

// publish emits a change event best-effort; failures are logged, never
// propagated to the caller.
func (s *Service) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
