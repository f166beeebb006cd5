package affiliate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBolClient(t *testing.T, handler http.Handler) (*BolClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewBolClient("id", "secret", 5*time.Second)
	client.baseURL = srv.URL
	client.authURL = srv.URL + "/token"
	return client, srv
}

func TestBolClient_SearchProducts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/products/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "airfryer", r.URL.Query().Get("search-term"))
		assert.Equal(t, "NL", r.URL.Query().Get("country-code"))
		json.NewEncoder(w).Encode(BolSearchResult{
			TotalResults: 1,
			Results: []BolProduct{{
				EAN:   "8712345678901",
				Title: "Airfryer XL",
				URL:   "https://www.bol.com/nl/nl/p/airfryer/1/",
				Offer: &BolOffer{Price: 89.99},
			}},
		})
	})

	client, _ := newTestBolClient(t, mux)

	result, err := client.SearchProducts(context.Background(), "airfryer", 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "8712345678901", result.Results[0].EAN)
	assert.Equal(t, 89.99, result.Results[0].Offer.Price)
}

func TestBolClient_TokenCached(t *testing.T) {
	var tokenCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/products/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BolSearchResult{})
	})

	client, _ := newTestBolClient(t, mux)

	for i := 0; i < 3; i++ {
		_, err := client.SearchProducts(context.Background(), "x", 1, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token must be fetched once and cached")
}

func TestBolClient_GetProductNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-1",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestBolClient(t, mux)

	product, err := client.GetProduct(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestBolClient_AuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestBolClient(t, mux)

	_, err := client.SearchProducts(context.Background(), "x", 1, 1)
	assert.Error(t, err)
}

func TestBolClient_Configured(t *testing.T) {
	assert.True(t, NewBolClient("id", "secret", 0).Configured())
	assert.False(t, NewBolClient("", "", 0).Configured())
}
