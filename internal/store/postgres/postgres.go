// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetConfig(ctx context.Context, category string) (*model.ConfigRecord, error) {
	return queryGetConfig(ctx, s.db, category)
}

func (s *PostgresStore) SetConfig(ctx context.Context, rec *model.ConfigRecord) error {
	return querySetConfig(ctx, s.db, rec)
}

func (s *PostgresStore) ListConfigs(ctx context.Context) ([]*model.ConfigRecord, error) {
	return queryListConfigs(ctx, s.db)
}

func (s *PostgresStore) AddConfigHistory(ctx context.Context, entry *model.ConfigHistoryEntry) error {
	return queryAddConfigHistory(ctx, s.db, entry)
}

func (s *PostgresStore) ConfigHistory(ctx context.Context, category string, limit int) ([]*model.ConfigHistoryEntry, error) {
	return queryConfigHistory(ctx, s.db, category, limit)
}

func (s *PostgresStore) PruneConfigHistory(ctx context.Context, category string, keep int) error {
	return queryPruneConfigHistory(ctx, s.db, category, keep)
}

func (s *PostgresStore) GetDaily(ctx context.Context, date string) (*model.DailyMetrics, error) {
	return queryGetDaily(ctx, s.db, date)
}

func (s *PostgresStore) GetDailyRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error) {
	return queryGetDailyRange(ctx, s.db, start, end)
}

func (s *PostgresStore) UpsertDaily(ctx context.Context, row *model.DailyMetrics) error {
	return queryUpsertDaily(ctx, s.db, row)
}

func (s *PostgresStore) ListDaily(ctx context.Context) ([]*model.DailyMetrics, error) {
	return queryListDaily(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) GetConfig(ctx context.Context, category string) (*model.ConfigRecord, error) {
	return queryGetConfig(ctx, s.tx, category)
}

func (s *txStore) SetConfig(ctx context.Context, rec *model.ConfigRecord) error {
	return querySetConfig(ctx, s.tx, rec)
}

func (s *txStore) ListConfigs(ctx context.Context) ([]*model.ConfigRecord, error) {
	return queryListConfigs(ctx, s.tx)
}

func (s *txStore) AddConfigHistory(ctx context.Context, entry *model.ConfigHistoryEntry) error {
	return queryAddConfigHistory(ctx, s.tx, entry)
}

func (s *txStore) ConfigHistory(ctx context.Context, category string, limit int) ([]*model.ConfigHistoryEntry, error) {
	return queryConfigHistory(ctx, s.tx, category, limit)
}

func (s *txStore) PruneConfigHistory(ctx context.Context, category string, keep int) error {
	return queryPruneConfigHistory(ctx, s.tx, category, keep)
}

func (s *txStore) GetDaily(ctx context.Context, date string) (*model.DailyMetrics, error) {
	return queryGetDaily(ctx, s.tx, date)
}

func (s *txStore) GetDailyRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error) {
	return queryGetDailyRange(ctx, s.tx, start, end)
}

func (s *txStore) UpsertDaily(ctx context.Context, row *model.DailyMetrics) error {
	return queryUpsertDaily(ctx, s.tx, row)
}

func (s *txStore) ListDaily(ctx context.Context) ([]*model.DailyMetrics, error) {
	return queryListDaily(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
