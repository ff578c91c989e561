package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/groblegark/cadence/internal/model"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySetConfig(ctx context.Context, db executor, rec *model.ConfigRecord) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO configs (category, data)
		VALUES ($1, $2)
		ON CONFLICT (category) DO UPDATE SET data = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		rec.Category, []byte(rec.Data),
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func queryGetConfig(ctx context.Context, db executor, category string) (*model.ConfigRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT category, data, created_at, updated_at
		FROM configs WHERE category = $1`, category)
	return scanConfig(row)
}

func queryListConfigs(ctx context.Context, db executor) ([]*model.ConfigRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT category, data, created_at, updated_at
		FROM configs ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func queryAddConfigHistory(ctx context.Context, db executor, entry *model.ConfigHistoryEntry) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO config_history (category, data)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		entry.Category, []byte(entry.Data),
	).Scan(&entry.ID, &entry.CreatedAt)
}

func queryConfigHistory(ctx context.Context, db executor, category string, limit int) ([]*model.ConfigHistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, category, data, created_at
		FROM config_history
		WHERE category = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		category, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryEntries(rows)
}

func queryPruneConfigHistory(ctx context.Context, db executor, category string, keep int) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM config_history
		WHERE category = $1 AND id NOT IN (
			SELECT id FROM config_history
			WHERE category = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)`,
		category, keep,
	)
	return err
}

func queryUpsertDaily(ctx context.Context, db executor, row *model.DailyMetrics) error {
	checklist, actions, err := dailyJSON(row)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO daily_data (date, checklist, actions, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE SET
			checklist = EXCLUDED.checklist,
			actions = EXCLUDED.actions,
			score = EXCLUDED.score,
			updated_at = NOW()`,
		row.Date, checklist, actions, row.Score,
	)
	return err
}

func queryGetDaily(ctx context.Context, db executor, date string) (*model.DailyMetrics, error) {
	row := db.QueryRowContext(ctx, `
		SELECT date, checklist, actions, score
		FROM daily_data WHERE date = $1`, date)
	return scanDaily(row)
}

func queryGetDailyRange(ctx context.Context, db executor, start, end string) ([]*model.DailyMetrics, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, checklist, actions, score
		FROM daily_data
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("daily range: %w", err)
	}
	defer rows.Close()
	return scanDailyRows(rows)
}

func queryListDaily(ctx context.Context, db executor) ([]*model.DailyMetrics, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, checklist, actions, score
		FROM daily_data ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDailyRows(rows)
}
