package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/productpraat/productpraat/internal/models"
)

// Renderer renders a page in a real browser and returns its HTML. Used as a
// fallback when the plain fetch is blocked.
type Renderer interface {
	RenderHTML(ctx context.Context, url string) (string, error)
}

// Service scrapes retailer product pages into Product records.
type Service struct {
	fetcher  *Fetcher
	parser   *PageParser
	renderer Renderer
	logger   *slog.Logger
}

func NewService(fetcher *Fetcher, renderer Renderer, logger *slog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		parser:   NewPageParser(),
		renderer: renderer,
		logger:   logger.With("component", "scraper"),
	}
}

// Scrape fetches and parses a single product page.
func (s *Service) Scrape(ctx context.Context, rawURL string) (*models.Product, error) {
	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if s.renderer == nil || !errors.Is(err, ErrBlocked) && !errors.Is(err, ErrFetchFailed) {
			return nil, err
		}

		s.logger.Info("plain fetch failed, falling back to browser", "url", rawURL)
		html, err = s.renderer.RenderHTML(ctx, rawURL)
		if err != nil {
			return nil, err
		}
	}

	product, err := s.parser.ParsePage(html, rawURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product.ScrapedAt = &now

	s.logger.Debug("scraped product",
		"url", rawURL, "title", product.Title, "images", len(product.Images))

	return product, nil
}
