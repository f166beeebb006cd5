package models

import (
	"time"
)

// ProductStatus tracks a product through the content pipeline.
type ProductStatus string

const (
	ProductStatusDiscovered ProductStatus = "discovered"
	ProductStatusScraped    ProductStatus = "scraped"
	ProductStatusReviewed   ProductStatus = "reviewed"
	ProductStatusPublished  ProductStatus = "published"
	ProductStatusFailed     ProductStatus = "failed"
)

type Product struct {
	ID          string        `json:"id"`
	EAN         string        `json:"ean,omitempty"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Brand       string        `json:"brand,omitempty"`
	Category    string        `json:"category"`
	URL         string        `json:"url"`
	Images      []string      `json:"images,omitempty"`
	Price       *Price        `json:"price,omitempty"`
	Rating      float64       `json:"rating,omitempty"`
	ReviewCount int           `json:"review_count,omitempty"`
	Status      ProductStatus `json:"status"`
	ScrapedAt   *time.Time    `json:"scraped_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Original float64 `json:"original,omitempty"`
}

// Review is the synthesized editorial review for a product.
type Review struct {
	Summary  string   `json:"summary"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
	Verdict  string   `json:"verdict"`
	Rating   float64  `json:"rating"` // 0-10
}

func (r *Review) Validate() []string {
	var errs []string
	if r.Summary == "" {
		errs = append(errs, "summary is required")
	}
	if r.Verdict == "" {
		errs = append(errs, "verdict is required")
	}
	if r.Rating < 0 || r.Rating > 10 {
		errs = append(errs, "rating must be between 0 and 10")
	}
	return errs
}

type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

type Article struct {
	ID          string        `json:"id"`
	ProductID   string        `json:"product_id,omitempty"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	ContentType string        `json:"content_type"` // review, comparison, best_of
	Status      ArticleStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type LinkStatus string

const (
	LinkStatusActive LinkStatus = "active"
	LinkStatusDead   LinkStatus = "dead"
)

type AffiliateLink struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	Network     string     `json:"network"`
	OriginalURL string     `json:"original_url"`
	TrackingURL string     `json:"tracking_url"`
	Status      LinkStatus `json:"status"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	FailCount   int        `json:"fail_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Click struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"link_id"`
	ArticleID string    `json:"article_id,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CommissionStatus string

const (
	CommissionStatusOpen     CommissionStatus = "open"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusRejected CommissionStatus = "rejected"
	CommissionStatusPaid     CommissionStatus = "paid"
)

type CommissionRecord struct {
	ID         string           `json:"id"`
	Network    string           `json:"network"`
	ExternalID string           `json:"external_id"`
	LinkID     string           `json:"link_id,omitempty"`
	Amount     float64          `json:"amount"`
	Currency   string           `json:"currency"`
	Status     CommissionStatus `json:"status"`
	OccurredAt time.Time        `json:"occurred_at"`
	SyncedAt   time.Time        `json:"synced_at"`
}

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one execution of a discovery/generation/monitoring job.
type Run struct {
	ID                string     `json:"id"`
	Kind              string     `json:"kind"` // discover, generate, link_check, commission_sync
	Categories        []string   `json:"categories,omitempty"`
	Limit             int        `json:"limit"`
	Status            RunStatus  `json:"status"`
	ProductsFound     int        `json:"products_found"`
	ProductsNew       int        `json:"products_new"`
	ArticlesGenerated int        `json:"articles_generated"`
	ItemsFailed       int        `json:"items_failed"`
	Error             string     `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

type AlertStatus string

const (
	AlertStatusOpen      AlertStatus = "open"
	AlertStatusResolved  AlertStatus = "resolved"
	AlertStatusExhausted AlertStatus = "exhausted"
)

type Alert struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"` // dead_link, run_failed, sync_failed
	Subject     string      `json:"subject"`
	Message     string      `json:"message"`
	Status      AlertStatus `json:"status"`
	RetryCount  int         `json:"retry_count"`
	MaxRetries  int         `json:"max_retries"`
	NextRetryAt *time.Time  `json:"next_retry_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Exhausted reports whether the alert has used up its retries.
func (a *Alert) Exhausted() bool {
	return a.RetryCount >= a.MaxRetries
}
