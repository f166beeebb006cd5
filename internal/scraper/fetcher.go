package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrBlocked indicates the retailer served a bot wall instead of content.
	ErrBlocked = errors.New("request blocked by retailer")
	// ErrFetchFailed indicates the page could not be fetched through any route.
	ErrFetchFailed = errors.New("all fetch attempts failed")
)

// Fetcher retrieves retailer pages over plain HTTP with User-Agent rotation
// and an ordered list of proxy prefixes tried when the direct fetch fails.
type Fetcher struct {
	client        *http.Client
	userAgents    []string
	proxyPrefixes []string
	logger        *slog.Logger
	counter       atomic.Uint64
}

type FetcherOptions struct {
	Timeout       time.Duration
	UserAgents    []string
	ProxyPrefixes []string
}

func NewFetcher(opts FetcherOptions, logger *slog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	userAgents := opts.UserAgents
	if len(userAgents) == 0 {
		userAgents = []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"}
	}

	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		userAgents:    userAgents,
		proxyPrefixes: opts.ProxyPrefixes,
		logger:        logger.With("component", "fetcher"),
	}
}

// Fetch retrieves the HTML of a page. The direct URL is tried first, then
// each proxy prefix in order.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	attempts := make([]string, 0, 1+len(f.proxyPrefixes))
	attempts = append(attempts, rawURL)
	for _, prefix := range f.proxyPrefixes {
		attempts = append(attempts, prefix+url.QueryEscape(rawURL))
	}

	var lastErr error
	for i, attempt := range attempts {
		html, err := f.fetchOnce(ctx, attempt)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		f.logger.Debug("fetch attempt failed",
			"url", rawURL, "attempt", i+1, "error", err)
	}

	return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", ErrBlocked, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	html := string(body)
	if looksBlocked(html) {
		return "", ErrBlocked
	}

	return html, nil
}

// HeadOK issues a HEAD request and reports whether the URL is alive. Some
// shops reject HEAD, so 405 falls back to GET.
func (f *Fetcher) HeadOK(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", f.nextUserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return false
		}
		getReq.Header.Set("User-Agent", f.nextUserAgent())
		getResp, err := f.client.Do(getReq)
		if err != nil {
			return false
		}
		io.Copy(io.Discard, getResp.Body)
		getResp.Body.Close()
		return getResp.StatusCode < 400
	}

	return resp.StatusCode < 400
}

func (f *Fetcher) nextUserAgent() string {
	n := f.counter.Add(1)
	return f.userAgents[int(n)%len(f.userAgents)]
}

func looksBlocked(html string) bool {
	if len(html) < 512 {
		return true
	}
	lower := strings.ToLower(html)
	for _, marker := range []string{"captcha", "are you a robot", "toegang geweigerd", "access denied"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
