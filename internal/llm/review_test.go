package llm

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

	"github.com/productpraat/productpraat/internal/models"
)

func TestExtractReview(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
		hasError bool
	}{
		{
			name:     "bare JSON",
			text:     `{"summary":"Prima koptelefoon.","pros":["geluid"],"cons":["prijs"],"verdict":"Aanrader.","rating":8.5}`,
			expected: 8.5,
		},
		{
			name:     "JSON in code fence",
			text:     "Hier is de review:\n```json\n{\"summary\":\"Goed.\",\"pros\":[],\"cons\":[],\"verdict\":\"Prima.\",\"rating\":7}\n```\nSucces!",
			expected: 7,
		},
		{
			name:     "JSON with braces in strings",
			text:     `{"summary":"Let op: {accolades} in tekst.","pros":[],"cons":[],"verdict":"Ok.","rating":6}`,
			expected: 6,
		},
		{
			name:     "no JSON at all",
			text:     "Sorry, ik kan geen review schrijven.",
			hasError: true,
		},
		{
			name:     "unbalanced JSON",
			text:     `{"summary":"afgebroken`,
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := ExtractReview(tt.text)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, review.Rating)
		})
	}
}

func TestReviewerGenerateReview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet", req["model"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"summary":"Stevige airfryer met ruime mand.","pros":["snel","zuinig"],"cons":["luidruchtig"],"verdict":"Goede koop.","rating":8}`,
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{APIKey: "test-key", BaseURL: srv.URL})
	router := NewRouter("claude-3-5-sonnet", "claude-3-haiku")
	reviewer := NewReviewer(client, router, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))

	review, err := reviewer.GenerateReview(context.Background(), &models.Product{
		Title:    "Airfryer XL",
		Category: "home",
		Price:    &models.Price{Amount: 89.99, Currency: "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, review.Rating)
	assert.Len(t, review.Pros, 2)
}

func TestReviewerRejectsOutOfRangeRating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"summary":"x","pros":[],"cons":[],"verdict":"y","rating":14}`,
				}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{APIKey: "k", BaseURL: srv.URL})
	reviewer := NewReviewer(client, NewRouter("m", ""), slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))

	_, err := reviewer.GenerateReview(context.Background(), &models.Product{Title: "X"})
	assert.Error(t, err)
}

func TestRouterSelect(t *testing.T) {
	router := NewRouter("claude-3-5-sonnet", "claude-3-haiku")

	assert.Equal(t, "claude-3-5-sonnet", router.Select(TaskReview, 0.5))
	assert.Equal(t, "claude-3-haiku", router.Select(TaskMeta, 0.1))
	assert.Equal(t, "claude-3-5-sonnet", router.Select(TaskMeta, 0.9))
	assert.Equal(t, "claude-3-5-sonnet", router.Select(TaskSummary, 0.5))
}

func TestBuildArticle(t *testing.T) {
	article := BuildArticle(
		&models.Product{Title: "Airfryer XL"},
		&models.Review{
			Summary: "Ruime airfryer.",
			Pros:    []string{"snel"},
			Cons:    []string{"groot"},
			Verdict: "Aanrader.",
			Rating:  8,
		},
		"https://partner.bol.com/click/click?p=2",
	)

	assert.Contains(t, article, "# Airfryer XL")
	assert.Contains(t, article, "## Pluspunten")
	assert.Contains(t, article, "- snel")
	assert.Contains(t, article, "Beoordeling: 8.0/10")
	assert.Contains(t, article, "affiliate links")
	assert.Contains(t, article, "https://partner.bol.com/click/click?p=2")
}
