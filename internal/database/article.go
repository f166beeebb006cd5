package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/productpraat/productpraat/internal/models"
)

func (db *DB) InsertArticle(ctx context.Context, a *models.Article) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Slug == "" {
		a.Slug = models.Slugify(a.Title)
	}
	if a.Status == "" {
		a.Status = models.ArticleStatusDraft
	}
	if a.ContentType == "" {
		a.ContentType = "review"
	}

	// Dedupe against articles of other products first, so the conflict
	// clause below only ever refreshes this product's own article.
	slug, err := db.resolveArticleSlug(ctx, a.Slug, a.ProductID)
	if err != nil {
		return err
	}
	a.Slug = slug

	var productID interface{}
	if a.ProductID != "" {
		productID = a.ProductID
	}

	query := `
		INSERT INTO articles (id, product_id, slug, title, content, content_type, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	err = db.pool.QueryRow(ctx, query,
		a.ID, productID, a.Slug, a.Title, a.Content, a.ContentType, a.Status, a.PublishedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

// resolveArticleSlug returns the first slug variant not held by an article
// of a different product.
func (db *DB) resolveArticleSlug(ctx context.Context, slug, productID string) (string, error) {
	candidate := slug
	for i := 2; ; i++ {
		var taken bool
		err := db.pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM articles
				WHERE slug = $1 AND COALESCE(product_id::text, '') <> $2)`,
			candidate, productID).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("failed to check article slug: %w", err)
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

// PublishArticle marks an article published and stamps the publication time.
func (db *DB) PublishArticle(ctx context.Context, id string) error {
	now := time.Now()
	tag, err := db.pool.Exec(ctx, `
		UPDATE articles SET status = $2, published_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		id, models.ArticleStatusPublished, now)
	if err != nil {
		return fmt.Errorf("failed to publish article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s not found", id)
	}
	return nil
}

func (db *DB) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, COALESCE(product_id::text, ''), slug, title, content, content_type,
			status, published_at, created_at, updated_at
		FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (db *DB) ListArticles(ctx context.Context, status models.ArticleStatus, limit int) ([]*models.Article, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, COALESCE(product_id::text, ''), slug, title, content, content_type,
			status, published_at, created_at, updated_at
		FROM articles`
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
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.ProductID, &a.Slug, &a.Title, &a.Content, &a.ContentType,
		&a.Status, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	return &a, nil
}
