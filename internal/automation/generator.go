package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/productpraat/productpraat/internal/affiliate"
	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/llm"
	"github.com/productpraat/productpraat/internal/models"
	"github.com/productpraat/productpraat/internal/queue"
	"github.com/productpraat/productpraat/internal/ratelimit"
	"github.com/productpraat/productpraat/internal/scraper"
)

// Pipeline executes the content automation stages: discover products,
// scrape them, generate reviews and publish articles with affiliate links.
type Pipeline struct {
	db       *database.DB
	outbox   *database.OutboxRepository
	scraper  *scraper.Service
	bol      *affiliate.BolClient
	reviewer *llm.Reviewer
	links    *affiliate.Generator
	limiter  ratelimit.RateLimiter
	imports  queue.Queue
	logger   *slog.Logger
	stopped  atomic.Bool
}

func NewPipeline(
	db *database.DB,
	outbox *database.OutboxRepository,
	scraperSvc *scraper.Service,
	bol *affiliate.BolClient,
	reviewer *llm.Reviewer,
	links *affiliate.Generator,
	limiter ratelimit.RateLimiter,
	imports queue.Queue,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		db:       db,
		outbox:   outbox,
		scraper:  scraperSvc,
		bol:      bol,
		reviewer: reviewer,
		links:    links,
		limiter:  limiter,
		imports:  imports,
		logger:   logger.With("component", "pipeline"),
	}
}

// Stop asks running stages to finish their current item and return.
func (p *Pipeline) Stop() {
	p.stopped.Store(true)
}

// noteOutcome feeds call results back into the limiter so an adaptive one
// backs off when the retailer or API starts failing.
func (p *Pipeline) noteOutcome(err error) {
	recorder, ok := p.limiter.(ratelimit.Recorder)
	if !ok {
		return
	}
	if err != nil {
		recorder.RecordError()
	} else {
		recorder.RecordSuccess()
	}
}

// startOfDay returns midnight of t's calendar day in t's location. The daily
// budget is a wall-clock notion, so truncating to UTC days would reset it at
// the wrong hour.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Discover searches the Bol catalog for each configured category and
// upserts new products, respecting the daily budget.
func (p *Pipeline) Discover(ctx context.Context, run *models.Run, settings *Settings) error {
	if !p.bol.Configured() {
		return fmt.Errorf("bol api credentials are not configured")
	}

	createdToday, err := p.db.CountProductsCreatedSince(ctx, startOfDay(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to count today's products: %w", err)
	}

	budget := settings.Discovery.ProductsPerDay - createdToday
	if budget <= 0 {
		p.logger.Info("daily product budget already used", "budget", settings.Discovery.ProductsPerDay)
		return nil
	}

	categories := run.Categories
	if len(categories) == 0 {
		categories = settings.Discovery.Categories
	}

	for _, category := range categories {
		if p.stopped.Load() || ctx.Err() != nil {
			break
		}
		if budget <= 0 {
			break
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		result, err := p.bol.SearchProducts(ctx, category, 1, budget)
		p.noteOutcome(err)
		if err != nil {
			run.ItemsFailed++
			p.appendLog(ctx, run.ID, "error", "catalog search failed", map[string]interface{}{
				"category": category,
				"error":    err.Error(),
			})
			continue
		}

		for i := range result.Results {
			if budget <= 0 {
				break
			}
			product := bolProductToModel(&result.Results[i], category)
			run.ProductsFound++

			created, err := p.db.UpsertProduct(ctx, product)
			if err != nil {
				run.ItemsFailed++
				p.appendLog(ctx, run.ID, "error", "failed to store product", map[string]interface{}{
					"url":   product.URL,
					"error": err.Error(),
				})
				continue
			}
			if created {
				run.ProductsNew++
				budget--
				p.logger.Info("discovered product", "title", product.Title, "category", category)
			}
		}
	}

	return nil
}

// Generate takes discovered products through scraping, review synthesis
// and article creation.
func (p *Pipeline) Generate(ctx context.Context, run *models.Run, settings *Settings) error {
	limit := run.Limit
	if limit <= 0 {
		limit = settings.Content.ArticlesPerRun
	}

	products, err := p.db.ListProducts(ctx, models.ProductStatusDiscovered, limit)
	if err != nil {
		return fmt.Errorf("failed to list discovered products: %w", err)
	}

	for _, product := range products {
		if p.stopped.Load() || ctx.Err() != nil {
			break
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := p.generateOne(ctx, run, product, settings.Content.PublishDrafts); err != nil {
			run.ItemsFailed++
			p.appendLog(ctx, run.ID, "error", "article generation failed", map[string]interface{}{
				"product_id": product.ID,
				"error":      err.Error(),
			})
			if err := p.db.UpdateProductStatus(ctx, product.ID, models.ProductStatusFailed); err != nil {
				p.logger.Error("failed to mark product failed", "product_id", product.ID, "error", err)
			}
			continue
		}
		run.ArticlesGenerated++
	}

	return nil
}

func (p *Pipeline) generateOne(ctx context.Context, run *models.Run, product *models.Product, publish bool) error {
	// Enrich the catalog record with a live page scrape; a failed scrape
	// is not fatal when the catalog data already has a description.
	scraped, err := p.scraper.Scrape(ctx, product.URL)
	p.noteOutcome(err)
	if err != nil {
		if product.Description == "" {
			return fmt.Errorf("scrape failed and no catalog description: %w", err)
		}
		p.logger.Warn("scrape failed, using catalog data", "url", product.URL, "error", err)
	} else {
		mergeScraped(product, scraped)
	}

	now := time.Now()
	product.ScrapedAt = &now
	product.Status = models.ProductStatusScraped
	if _, err := p.db.UpsertProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to update scraped product: %w", err)
	}

	review, err := p.reviewer.GenerateReview(ctx, product)
	if err != nil {
		return fmt.Errorf("review generation failed: %w", err)
	}

	trackingURL, network := p.links.Link(product.URL, product.Title)
	link := &models.AffiliateLink{
		ProductID:   product.ID,
		Network:     string(network),
		OriginalURL: product.URL,
		TrackingURL: trackingURL,
		Status:      models.LinkStatusActive,
	}
	if err := p.db.InsertAffiliateLink(ctx, link); err != nil {
		return fmt.Errorf("failed to store affiliate link: %w", err)
	}

	article := &models.Article{
		ProductID:   product.ID,
		Slug:        models.Slugify(product.Title),
		Title:       product.Title,
		Content:     llm.BuildArticle(product, review, trackingURL),
		ContentType: "review",
		Status:      models.ArticleStatusDraft,
	}
	if publish {
		article.Status = models.ArticleStatusPublished
		publishedAt := time.Now()
		article.PublishedAt = &publishedAt
	}
	if err := p.db.InsertArticle(ctx, article); err != nil {
		return fmt.Errorf("failed to store article: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"article_id": article.ID,
		"product_id": product.ID,
		"slug":       article.Slug,
		"status":     article.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal article event: %w", err)
	}
	event := &database.OutboxEvent{
		EventType:     "article.generated",
		AggregateID:   article.ID,
		AggregateType: "article",
		Payload:       payload,
	}
	if err := p.outbox.Insert(ctx, event); err != nil {
		p.logger.Error("failed to enqueue article event", "article_id", article.ID, "error", err)
	}

	status := models.ProductStatusReviewed
	if publish {
		status = models.ProductStatusPublished
	}
	if err := p.db.UpdateProductStatus(ctx, product.ID, status); err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}

	p.appendLog(ctx, run.ID, "info", "article generated", map[string]interface{}{
		"article_id": article.ID,
		"slug":       article.Slug,
	})
	return nil
}

// EnqueueImports queues operator-submitted product URLs for scraping.
func (p *Pipeline) EnqueueImports(urls []string, category string) (int, error) {
	queued := 0
	for i, u := range urls {
		task := &queue.Task{
			URL:      u,
			Category: category,
			Priority: len(urls) - i,
		}
		if err := p.imports.Push(task); err != nil {
			return queued, fmt.Errorf("failed to queue %s: %w", u, err)
		}
		queued++
	}
	return queued, nil
}

// RunImportWorker drains the import queue until the context is cancelled.
func (p *Pipeline) RunImportWorker(ctx context.Context) {
	for {
		task, err := p.imports.Pop(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("import queue failed", "error", err)
			}
			return
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		if err := p.importOne(ctx, task); err != nil {
			p.logger.Error("import failed", "url", task.URL, "error", err)
		}
	}
}

func (p *Pipeline) importOne(ctx context.Context, task *queue.Task) error {
	existing, err := p.db.GetProductByURL(ctx, task.URL)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", task.URL, err)
	}
	if existing != nil && existing.Status != models.ProductStatusFailed {
		p.logger.Info("product already imported", "url", task.URL, "status", existing.Status)
		return nil
	}

	product, err := p.scraper.Scrape(ctx, task.URL)
	p.noteOutcome(err)
	if err != nil {
		return fmt.Errorf("failed to scrape %s: %w", task.URL, err)
	}
	if task.Category != "" {
		product.Category = task.Category
	}
	product.Status = models.ProductStatusDiscovered

	created, err := p.db.UpsertProduct(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to store imported product: %w", err)
	}
	p.logger.Info("imported product", "url", task.URL, "new", created)
	return nil
}

func (p *Pipeline) appendLog(ctx context.Context, runID, level, message string, fields map[string]interface{}) {
	if err := p.db.AppendLog(ctx, runID, level, message, fields); err != nil {
		p.logger.Error("failed to append run log", "run_id", runID, "error", err)
	}
}

func bolProductToModel(bp *affiliate.BolProduct, category string) *models.Product {
	product := &models.Product{
		EAN:         bp.EAN,
		Slug:        models.Slugify(bp.Title),
		Title:       bp.Title,
		Description: bp.Description,
		Category:    category,
		URL:         bp.URL,
		Rating:      bp.Rating,
		Status:      models.ProductStatusDiscovered,
	}
	if bp.Image != nil && bp.Image.URL != "" {
		product.Images = []string{bp.Image.URL}
	}
	if bp.Offer != nil && bp.Offer.Price > 0 {
		product.Price = &models.Price{Amount: bp.Offer.Price, Currency: "EUR"}
	}
	return product
}

// mergeScraped copies fields the live page knows better than the catalog.
func mergeScraped(dst, src *models.Product) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Brand != "" {
		dst.Brand = src.Brand
	}
	if len(src.Images) > 0 {
		dst.Images = src.Images
	}
	if src.Price != nil {
		dst.Price = src.Price
	}
}
