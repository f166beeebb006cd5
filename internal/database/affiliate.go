package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/productpraat/productpraat/internal/models"
)

func (db *DB) InsertAffiliateLink(ctx context.Context, l *models.AffiliateLink) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = models.LinkStatusActive
	}

	query := `
		INSERT INTO affiliate_links (id, product_id, network, original_url, tracking_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := db.pool.QueryRow(ctx, query,
		l.ID, l.ProductID, l.Network, l.OriginalURL, l.TrackingURL, l.Status,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert affiliate link: %w", err)
	}

	return nil
}

func (db *DB) GetAffiliateLink(ctx context.Context, id string) (*models.AffiliateLink, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, product_id, network, original_url, tracking_url, status,
			last_checked, fail_count, created_at, updated_at
		FROM affiliate_links WHERE id = $1`, id)
	return scanLink(row)
}

// ListActiveLinks returns links due for a health check, oldest check first.
func (db *DB) ListActiveLinks(ctx context.Context, limit int) ([]*models.AffiliateLink, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, product_id, network, original_url, tracking_url, status,
			last_checked, fail_count, created_at, updated_at
		FROM affiliate_links
		WHERE status = $1
		ORDER BY last_checked NULLS FIRST
		LIMIT $2`, models.LinkStatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active links: %w", err)
	}
	defer rows.Close()

	var links []*models.AffiliateLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}

	return links, rows.Err()
}

// RecordLinkCheck updates the health state of a link after a liveness probe.
// A link that failed threshold times in a row is marked dead.
func (db *DB) RecordLinkCheck(ctx context.Context, id string, ok bool, threshold int) error {
	now := time.Now()

	if ok {
		_, err := db.pool.Exec(ctx, `
			UPDATE affiliate_links
			SET last_checked = $2, fail_count = 0, status = $3, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`, id, now, models.LinkStatusActive)
		if err != nil {
			return fmt.Errorf("failed to record link check: %w", err)
		}
		return nil
	}

	_, err := db.pool.Exec(ctx, `
		UPDATE affiliate_links
		SET last_checked = $2,
			fail_count = fail_count + 1,
			status = CASE WHEN fail_count + 1 >= $3 THEN 'dead' ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id, now, threshold)
	if err != nil {
		return fmt.Errorf("failed to record link check: %w", err)
	}
	return nil
}

func (db *DB) InsertClick(ctx context.Context, c *models.Click) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	var articleID interface{}
	if c.ArticleID != "" {
		articleID = c.ArticleID
	}

	_, err := db.pool.Exec(ctx, `
		INSERT INTO affiliate_clicks (id, link_id, article_id, referer, user_agent)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.LinkID, articleID, c.Referer, c.UserAgent)
	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}

	return nil
}

func (db *DB) CountClicksSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM affiliate_clicks WHERE created_at >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// UpsertCommission stores a commission pulled from a network API, keyed by the
// network's own transaction ID so repeated syncs are idempotent.
func (db *DB) UpsertCommission(ctx context.Context, c *models.CommissionRecord) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Currency == "" {
		c.Currency = "EUR"
	}

	var linkID interface{}
	if c.LinkID != "" {
		linkID = c.LinkID
	}

	_, err := db.pool.Exec(ctx, `
		INSERT INTO commission_records (id, network, external_id, link_id, amount, currency, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (network, external_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			synced_at = CURRENT_TIMESTAMP`,
		c.ID, c.Network, c.ExternalID, linkID, c.Amount, c.Currency, c.Status, c.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert commission: %w", err)
	}

	return nil
}

// CommissionTotals sums commission amounts per status.
func (db *DB) CommissionTotals(ctx context.Context) (map[models.CommissionStatus]float64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT status, COALESCE(SUM(amount), 0) FROM commission_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions: %w", err)
	}
	defer rows.Close()

	totals := make(map[models.CommissionStatus]float64)
	for rows.Next() {
		var status models.CommissionStatus
		var total float64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan commission total: %w", err)
		}
		totals[status] = total
	}

	return totals, rows.Err()
}

func scanLink(row pgx.Row) (*models.AffiliateLink, error) {
	var l models.AffiliateLink
	err := row.Scan(&l.ID, &l.ProductID, &l.Network, &l.OriginalURL, &l.TrackingURL,
		&l.Status, &l.LastChecked, &l.FailCount, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan affiliate link: %w", err)
	}
	return &l, nil
}
