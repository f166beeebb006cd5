package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPage = fmt.Sprintf(`<html><body><h1>Testproduct</h1>%s</body></html>`,
	strings.Repeat("<p>vulling</p>", 60))

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func TestFetcher_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{}, testLogger())

	html, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "Testproduct")
}

func TestFetcher_ProxyFallback(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer proxy.Close()

	f := NewFetcher(FetcherOptions{
		ProxyPrefixes: []string{proxy.URL + "/?url="},
	}, testLogger())

	html, err := f.Fetch(context.Background(), blocked.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "Testproduct")
}

func TestFetcher_AllRoutesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{}, testLogger())

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetcher_BotWallDetected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat(" ", 600)+"Please solve this CAPTCHA to continue")
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{}, testLogger())

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetcher_HeadOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dood" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{}, testLogger())

	assert.True(t, f.HeadOK(context.Background(), srv.URL+"/ok"))
	assert.False(t, f.HeadOK(context.Background(), srv.URL+"/dood"))
}

func TestFetcher_HeadFallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{}, testLogger())
	assert.True(t, f.HeadOK(context.Background(), srv.URL))
}

func TestFetcher_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(FetcherOptions{}, testLogger())
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
