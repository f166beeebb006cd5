package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/models"
)

// URLChecker reports whether a URL still resolves to a live page.
type URLChecker interface {
	HeadOK(ctx context.Context, rawURL string) bool
}

// LinkMonitor walks active affiliate links in batches and records their
// health. Links that fail the configured number of consecutive checks are
// marked dead and raise an alert.
type LinkMonitor struct {
	db      *database.DB
	checker URLChecker
	logger  *slog.Logger

	batchSize     int
	pause         time.Duration
	failThreshold int
}

func NewLinkMonitor(db *database.DB, checker URLChecker, batchSize int, pause time.Duration, failThreshold int, logger *slog.Logger) *LinkMonitor {
	if batchSize <= 0 {
		batchSize = 10
	}
	if failThreshold <= 0 {
		failThreshold = 3
	}
	return &LinkMonitor{
		db:            db,
		checker:       checker,
		logger:        logger.With("component", "link_monitor"),
		batchSize:     batchSize,
		pause:         pause,
		failThreshold: failThreshold,
	}
}

// CheckLinks runs one full pass over active links, oldest check first.
func (m *LinkMonitor) CheckLinks(ctx context.Context, run *models.Run) error {
	limit := run.Limit
	if limit <= 0 {
		limit = 500
	}

	links, err := m.db.ListActiveLinks(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list active links: %w", err)
	}

	for start := 0; start < len(links); start += m.batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := start + m.batchSize
		if end > len(links) {
			end = len(links)
		}
		m.checkBatch(ctx, run, links[start:end])

		if end < len(links) && m.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}

	return nil
}

func (m *LinkMonitor) checkBatch(ctx context.Context, run *models.Run, links []*models.AffiliateLink) {
	var wg sync.WaitGroup
	results := make([]bool, len(links))

	for i, link := range links {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = m.checker.HeadOK(ctx, url)
		}(i, link.OriginalURL)
	}
	wg.Wait()

	for i, link := range links {
		ok := results[i]
		run.ProductsFound++
		if !ok {
			run.ItemsFailed++
		}

		if err := m.db.RecordLinkCheck(ctx, link.ID, ok, m.failThreshold); err != nil {
			m.logger.Error("failed to record link check", "link_id", link.ID, "error", err)
			continue
		}

		if !ok && link.FailCount+1 >= m.failThreshold {
			m.logger.Warn("affiliate link marked dead", "link_id", link.ID, "url", link.OriginalURL)
			alert := &models.Alert{
				Kind:    "dead_link",
				Subject: link.ID,
				Message: fmt.Sprintf("affiliate link no longer resolves: %s", link.OriginalURL),
			}
			if err := m.db.InsertAlert(ctx, alert); err != nil {
				m.logger.Error("failed to create dead link alert", "link_id", link.ID, "error", err)
			}
		}
	}
}
