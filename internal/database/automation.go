package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/productpraat/productpraat/internal/models"
)

func (db *DB) InsertRun(ctx context.Context, r *models.Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = models.RunStatusPending
	}

	categories, err := json.Marshal(r.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	err = db.pool.QueryRow(ctx, `
		INSERT INTO automation_runs (id, kind, categories, max_items, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		r.ID, r.Kind, categories, r.Limit, r.Status,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// ClaimNextRun picks the oldest pending run and marks it running. Uses
// FOR UPDATE SKIP LOCKED so multiple workers never claim the same run.
func (db *DB) ClaimNextRun(ctx context.Context) (*models.Run, error) {
	var run *models.Run

	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT id, kind, categories, max_items, status, products_found, products_new,
				articles_generated, items_failed, COALESCE(error_message, ''),
				created_at, started_at, completed_at
			FROM automation_runs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED`)

		r, err := scanRun(row)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE automation_runs SET status = 'running', started_at = $2 WHERE id = $1`,
			r.ID, now); err != nil {
			return fmt.Errorf("failed to mark run running: %w", err)
		}

		r.Status = models.RunStatusRunning
		r.StartedAt = &now
		run = r
		return nil
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return run, nil
}

// FinishRun records the outcome and counters of a completed or failed run.
func (db *DB) FinishRun(ctx context.Context, r *models.Run) error {
	now := time.Now()
	r.CompletedAt = &now

	var errMsg interface{}
	if r.Error != "" {
		errMsg = r.Error
	}

	_, err := db.pool.Exec(ctx, `
		UPDATE automation_runs SET
			status = $2, products_found = $3, products_new = $4,
			articles_generated = $5, items_failed = $6, error_message = $7,
			completed_at = $8
		WHERE id = $1`,
		r.ID, r.Status, r.ProductsFound, r.ProductsNew,
		r.ArticlesGenerated, r.ItemsFailed, errMsg, now)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

func (db *DB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, kind, categories, max_items, status, products_found, products_new,
			articles_generated, items_failed, COALESCE(error_message, ''),
			created_at, started_at, completed_at
		FROM automation_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (db *DB) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, kind, categories, max_items, status, products_found, products_new,
			articles_generated, items_failed, COALESCE(error_message, ''),
			created_at, started_at, completed_at
		FROM automation_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// LastCompletedRun returns the completion time of the most recent successful
// run of a kind, or the zero time when none exists.
func (db *DB) LastCompletedRun(ctx context.Context, kind string) (time.Time, error) {
	var completed *time.Time
	err := db.pool.QueryRow(ctx, `
		SELECT MAX(completed_at) FROM automation_runs
		WHERE kind = $1 AND status = 'completed'`, kind).Scan(&completed)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last run: %w", err)
	}
	if completed == nil {
		return time.Time{}, nil
	}
	return *completed, nil
}

// SaveConfigJSON stores the automation configuration blob (single row table).
func (db *DB) SaveConfigJSON(ctx context.Context, raw json.RawMessage) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO automation_config (id, config) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET config = EXCLUDED.config, updated_at = CURRENT_TIMESTAMP`,
		raw)
	if err != nil {
		return fmt.Errorf("failed to save automation config: %w", err)
	}
	return nil
}

func (db *DB) LoadConfigJSON(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := db.pool.QueryRow(ctx, `SELECT config FROM automation_config WHERE id = 1`).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load automation config: %w", err)
	}
	return raw, nil
}

// AppendLog writes an audit log row for a run.
func (db *DB) AppendLog(ctx context.Context, runID, level, message string, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal log fields: %w", err)
	}

	var run interface{}
	if runID != "" {
		run = runID
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO automation_logs (run_id, level, message, fields)
		VALUES ($1, $2, $3, $4)`, run, level, message, data)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}

	return nil
}

func (db *DB) InsertAlert(ctx context.Context, a *models.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = models.AlertStatusOpen
	}
	if a.MaxRetries == 0 {
		a.MaxRetries = 5
	}

	err := db.pool.QueryRow(ctx, `
		INSERT INTO alerts (id, kind, subject, message, status, retry_count, max_retries, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.Kind, a.Subject, a.Message, a.Status, a.RetryCount, a.MaxRetries, a.NextRetryAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// ListDueAlerts returns open alerts whose next retry time has passed.
func (db *DB) ListDueAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, kind, subject, message, status, retry_count, max_retries,
			next_retry_at, created_at, updated_at
		FROM alerts
		WHERE status = 'open' AND (next_retry_at IS NULL OR next_retry_at <= CURRENT_TIMESTAMP)
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Kind, &a.Subject, &a.Message, &a.Status,
			&a.RetryCount, &a.MaxRetries, &a.NextRetryAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

func (db *DB) UpdateAlert(ctx context.Context, a *models.Alert) error {
	_, err := db.pool.Exec(ctx, `
		UPDATE alerts SET status = $2, retry_count = $3, next_retry_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		a.ID, a.Status, a.RetryCount, a.NextRetryAt)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*models.Run, error) {
	var r models.Run
	var categories []byte

	err := row.Scan(&r.ID, &r.Kind, &categories, &r.Limit, &r.Status,
		&r.ProductsFound, &r.ProductsNew, &r.ArticlesGenerated, &r.ItemsFailed,
		&r.Error, &r.CreatedAt, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &r.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}

	return &r, nil
}
