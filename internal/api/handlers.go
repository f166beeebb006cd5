package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/productpraat/productpraat/internal/automation"
	"github.com/productpraat/productpraat/internal/database"
	"github.com/productpraat/productpraat/internal/models"
)

type Handlers struct {
	db       *database.DB
	config   *automation.ConfigService
	pipeline *automation.Pipeline
	logger   *slog.Logger
}

func NewHandlers(db *database.DB, config *automation.ConfigService, pipeline *automation.Pipeline, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		config:   config,
		pipeline: pipeline,
		logger:   logger,
	}
}

// DiscoverRequest starts a product discovery run.
type DiscoverRequest struct {
	Categories []string `json:"categories"`
	Limit      int      `json:"limit"`
}

type RunCreatedResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Discover queues a discovery run; the automation runner picks it up.
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	run := &models.Run{
		Kind:       automation.KindDiscover,
		Categories: req.Categories,
		Limit:      req.Limit,
	}
	if err := h.db.InsertRun(r.Context(), run); err != nil {
		h.logger.Error("failed to queue discovery run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to queue run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, RunCreatedResponse{
		RunID:  run.ID,
		Status: string(run.Status),
	})
}

// GenerateRequest starts a content generation run. Listing product IDs
// requeues those products for generation, also when they already have an
// article.
type GenerateRequest struct {
	ProductIDs []string `json:"product_ids"`
	Limit      int      `json:"limit"`
}

// Generate queues a content generation run.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for _, id := range req.ProductIDs {
		if err := h.db.UpdateProductStatus(r.Context(), id, models.ProductStatusDiscovered); err != nil {
			h.respondError(w, http.StatusNotFound, "unknown product: "+id)
			return
		}
	}

	limit := req.Limit
	if limit == 0 && len(req.ProductIDs) > 0 {
		limit = len(req.ProductIDs)
	}

	run := &models.Run{
		Kind:  automation.KindGenerate,
		Limit: limit,
	}
	if err := h.db.InsertRun(r.Context(), run); err != nil {
		h.logger.Error("failed to queue generation run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to queue run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, RunCreatedResponse{
		RunID:  run.ID,
		Status: string(run.Status),
	})
}

// ListRuns returns recent automation runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	runs, err := h.db.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	h.respondJSON(w, http.StatusOK, runs)
}

// GetRun returns one automation run by id.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.db.GetRun(r.Context(), runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

// GetConfig returns the active automation settings.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := h.config.Current(r.Context())
	if err != nil {
		h.logger.Error("failed to load config", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load config")
		return
	}

	h.respondJSON(w, http.StatusOK, settings)
}

// PutConfig validates and stores new automation settings. The body is
// merged over the defaults so partial documents are accepted.
func (h *Handlers) PutConfig(w http.ResponseWriter, r *http.Request) {
	settings := automation.DefaultSettings()
	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.config.Save(r.Context(), settings); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, settings)
}

// ImportRequest carries product URLs to import, either as a list or as
// pasted text with one URL per line.
type ImportRequest struct {
	URLs     []string `json:"urls"`
	Text     string   `json:"text"`
	Category string   `json:"category"`
}

type ImportResponse struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}

// ImportProducts queues URLs for background scraping.
func (h *Handlers) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidates := len(req.URLs)
	urls := automation.ParseURLsFromText(joinLines(req.URLs))
	if req.Text != "" {
		candidates += countLines(req.Text)
		urls = append(urls, automation.ParseURLsFromText(req.Text)...)
	}

	if len(urls) == 0 {
		h.respondError(w, http.StatusBadRequest, "no valid product URLs found")
		return
	}

	queued, err := h.pipeline.EnqueueImports(urls, req.Category)
	if err != nil {
		h.logger.Error("failed to queue imports", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to queue imports")
		return
	}

	h.respondJSON(w, http.StatusAccepted, ImportResponse{
		Queued:  queued,
		Skipped: candidates - queued,
	})
}

// ListProducts returns products, optionally filtered by status.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	status := models.ProductStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)

	products, err := h.db.ListProducts(r.Context(), status, limit)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	h.respondJSON(w, http.StatusOK, products)
}

// StatsResponse aggregates operational counters for the admin dashboard.
type StatsResponse struct {
	Products    map[models.ProductStatus]int        `json:"products"`
	Clicks24h   int                                 `json:"clicks_24h"`
	Clicks7d    int                                 `json:"clicks_7d"`
	Commissions map[models.CommissionStatus]float64 `json:"commissions"`
}

// GetStats returns dashboard statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.db.CountProductsByStatus(ctx)
	if err != nil {
		h.logger.Error("failed to count products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	now := time.Now()
	clicksDay, err := h.db.CountClicksSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		h.logger.Error("failed to count clicks", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	clicksWeek, err := h.db.CountClicksSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to count clicks", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	commissions, err := h.db.CommissionTotals(ctx)
	if err != nil {
		h.logger.Error("failed to total commissions", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	h.respondJSON(w, http.StatusOK, StatsResponse{
		Products:    products,
		Clicks24h:   clicksDay,
		Clicks7d:    clicksWeek,
		Commissions: commissions,
	})
}

// ListArticles returns articles for the public site, published only by
// default.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	status := models.ArticleStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.ArticleStatusPublished
	}
	limit := queryInt(r, "limit", 50)

	articles, err := h.db.ListArticles(r.Context(), status, limit)
	if err != nil {
		h.logger.Error("failed to list articles", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}

	h.respondJSON(w, http.StatusOK, articles)
}

// GetArticle returns one article by id.
func (h *Handlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")
	if articleID == "" {
		h.respondError(w, http.StatusBadRequest, "article ID is required")
		return
	}

	article, err := h.db.GetArticle(r.Context(), articleID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "article not found")
		return
	}

	h.respondJSON(w, http.StatusOK, article)
}

// PublishArticle promotes a draft article to published.
func (h *Handlers) PublishArticle(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")
	if articleID == "" {
		h.respondError(w, http.StatusBadRequest, "article ID is required")
		return
	}

	if err := h.db.PublishArticle(r.Context(), articleID); err != nil {
		h.logger.Error("failed to publish article", "article_id", articleID, "error", err)
		h.respondError(w, http.StatusNotFound, "article not found")
		return
	}

	article, err := h.db.GetArticle(r.Context(), articleID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "article not found")
		return
	}

	h.respondJSON(w, http.StatusOK, article)
}

// Redirect resolves an affiliate link, records the click and sends the
// visitor to the tracking URL. Dead links still redirect; the retailer
// page is a better landing than an error.
func (h *Handlers) Redirect(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")
	if linkID == "" {
		http.NotFound(w, r)
		return
	}

	link, err := h.db.GetAffiliateLink(r.Context(), linkID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	click := &models.Click{
		LinkID:    link.ID,
		Referer:   r.Referer(),
		UserAgent: r.UserAgent(),
	}
	if err := h.db.InsertClick(r.Context(), click); err != nil {
		h.logger.Error("failed to record click", "link_id", link.ID, "error", err)
	}

	http.Redirect(w, r, link.TrackingURL, http.StatusFound)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func countLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
