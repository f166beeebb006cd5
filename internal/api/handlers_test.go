package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productpraat/productpraat/internal/automation"
	"github.com/productpraat/productpraat/internal/queue"
)

func newImportHandlers(q queue.Queue) *Handlers {
	logger := slog.Default()
	pipeline := automation.NewPipeline(nil, nil, nil, nil, nil, nil, nil, q, logger)
	return NewHandlers(nil, nil, pipeline, logger)
}

func TestDiscoverRejectsInvalidBody(t *testing.T) {
	h := newImportHandlers(queue.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodPost, "/api/automation/discover", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Discover(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsInvalidBody(t *testing.T) {
	h := newImportHandlers(queue.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodPost, "/api/automation/generate", strings.NewReader("["))
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportProductsQueuesValidURLs(t *testing.T) {
	q := queue.NewInMemoryQueue()
	h := newImportHandlers(q)

	body := `{
		"urls": ["https://www.bol.com/p/1", "niet een url"],
		"text": "https://www.coolblue.nl/product/2\nrommel",
		"category": "tech"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ImportProducts(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ImportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Queued)
	assert.Equal(t, 2, resp.Skipped)
	assert.Equal(t, 2, q.Size())

	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.bol.com/p/1", task.URL)
	assert.Equal(t, "tech", task.Category)
}

func TestImportProductsRejectsEmptyInput(t *testing.T) {
	h := newImportHandlers(queue.NewInMemoryQueue())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/import",
		strings.NewReader(`{"text": "geen urls hier"}`))
	rec := httptest.NewRecorder()
	h.ImportProducts(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 50},
		{"limit=10", 10},
		{"limit=0", 50},
		{"limit=-5", 50},
		{"limit=abc", 50},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/products?"+tt.query, nil)
		assert.Equal(t, tt.want, queryInt(req, "limit", 50), "query %q", tt.query)
	}
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 2, countLines("een\n\ntwee\n"))
}
