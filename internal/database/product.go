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

// UpsertProduct inserts a product or refreshes an existing row matched by URL.
// Reports whether a new row was created.
func (db *DB) UpsertProduct(ctx context.Context, p *models.Product) (bool, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Slug == "" {
		p.Slug = models.Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDiscovered
	}

	// Identical titles on different URLs would collide on the slug unique
	// index, which ON CONFLICT (url) does not cover.
	slug, err := db.resolveProductSlug(ctx, p.Slug, p.URL)
	if err != nil {
		return false, err
	}
	p.Slug = slug

	images, err := json.Marshal(p.Images)
	if err != nil {
		return false, fmt.Errorf("failed to marshal images: %w", err)
	}

	var price []byte
	if p.Price != nil {
		price, err = json.Marshal(p.Price)
		if err != nil {
			return false, fmt.Errorf("failed to marshal price: %w", err)
		}
	}

	query := `
		INSERT INTO products (id, ean, slug, title, description, brand, category, url,
			images, price, rating, review_count, status, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (url) DO UPDATE SET
			ean = EXCLUDED.ean,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			brand = EXCLUDED.brand,
			images = EXCLUDED.images,
			price = EXCLUDED.price,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, (created_at = updated_at), created_at, updated_at`

	var created bool
	err = db.pool.QueryRow(ctx, query,
		p.ID, p.EAN, p.Slug, p.Title, p.Description, p.Brand, p.Category, p.URL,
		images, price, p.Rating, p.ReviewCount, p.Status, p.ScrapedAt,
	).Scan(&p.ID, &created, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return false, fmt.Errorf("failed to upsert product: %w", err)
	}

	return created, nil
}

// resolveProductSlug returns the first slug variant not taken by a product
// with a different URL.
func (db *DB) resolveProductSlug(ctx context.Context, slug, url string) (string, error) {
	candidate := slug
	for i := 2; ; i++ {
		var taken bool
		err := db.pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1 AND url <> $2)`,
			candidate, url).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if i > 1000 {
			return "", fmt.Errorf("no free slug variant for %q", slug)
		}
		candidate = models.SlugWithSuffix(slug, i)
	}
}

func (db *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, ean, slug, title, description, brand, category, url,
			images, price, rating, review_count, status, scraped_at, created_at, updated_at
		FROM products WHERE id = $1`, id)

	return scanProduct(row)
}

// GetProductByURL returns nil without error when the URL is unknown.
func (db *DB) GetProductByURL(ctx context.Context, url string) (*models.Product, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, ean, slug, title, description, brand, category, url,
			images, price, rating, review_count, status, scraped_at, created_at, updated_at
		FROM products WHERE url = $1`, url)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

// ListProducts returns products newest first, optionally filtered by status.
func (db *DB) ListProducts(ctx context.Context, status models.ProductStatus, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ean, slug, title, description, brand, category, url,
			images, price, rating, review_count, status, scraped_at, created_at, updated_at
		FROM products`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (db *DB) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE products SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s not found", id)
	}
	return nil
}

// CountProductsByStatus returns a status -> count map for the stats endpoint.
func (db *DB) CountProductsByStatus(ctx context.Context) (map[models.ProductStatus]int, error) {
	rows, err := db.pool.Query(ctx, `SELECT status, COUNT(*) FROM products GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ProductStatus]int)
	for rows.Next() {
		var status models.ProductStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// CountProductsCreatedSince counts products created after the cutoff, used for
// the per-day generation budget.
func (db *DB) CountProductsCreatedSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE created_at >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent products: %w", err)
	}
	return count, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	var images []byte
	var price []byte

	err := row.Scan(&p.ID, &p.EAN, &p.Slug, &p.Title, &p.Description, &p.Brand,
		&p.Category, &p.URL, &images, &price, &p.Rating, &p.ReviewCount,
		&p.Status, &p.ScrapedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}
	if len(price) > 0 {
		p.Price = &models.Price{}
		if err := json.Unmarshal(price, p.Price); err != nil {
			return nil, fmt.Errorf("failed to unmarshal price: %w", err)
		}
	}

	return &p, nil
}
