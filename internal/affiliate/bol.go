package affiliate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	bolBaseURL = "https://api.bol.com/marketing/catalog/v1"
	bolAuthURL = "https://login.bol.com/token"
)

// BolClient talks to the Bol.com Marketing API for product search and
// catalog lookups. Tokens are cached until shortly before expiry.
type BolClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type BolProduct struct {
	EAN         string    `json:"ean"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Rating      float64   `json:"rating"`
	Image       *BolImage `json:"image"`
	Offer       *BolOffer `json:"offer"`
}

type BolImage struct {
	URL string `json:"url"`
}

type BolOffer struct {
	Price               float64 `json:"price"`
	StrikethroughPrice  float64 `json:"strikethroughPrice"`
	DeliveryDescription string  `json:"deliveryDescription"`
}

type BolSearchResult struct {
	TotalResults int          `json:"totalResults"`
	Results      []BolProduct `json:"results"`
}

func NewBolClient(clientID, clientSecret string, timeout time.Duration) *BolClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &BolClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      bolBaseURL,
		authURL:      bolAuthURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Configured reports whether API credentials are present.
func (c *BolClient) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// SearchProducts queries the Bol catalog for a search term.
func (c *BolClient) SearchProducts(ctx context.Context, query string, page, pageSize int) (*BolSearchResult, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	params := url.Values{}
	params.Set("search-term", query)
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("page-size", fmt.Sprintf("%d", pageSize))
	params.Set("country-code", "NL")
	params.Set("include-image", "true")
	params.Set("include-offer", "true")
	params.Set("include-rating", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/products/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "nl")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bol search failed: status %d: %s", resp.StatusCode, body)
	}

	var result BolSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}

	return &result, nil
}

// GetProduct fetches catalog details for an EAN. A missing product returns
// nil without error.
func (c *BolClient) GetProduct(ctx context.Context, ean string) (*BolProduct, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("country-code", "NL")
	params.Set("include-specifications", "true")
	params.Set("include-image", "true")
	params.Set("include-offer", "true")
	params.Set("include-rating", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s?%s", c.baseURL, url.PathEscape(ean), params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build product request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bol product lookup failed: status %d", resp.StatusCode)
	}

	var product BolProduct
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}

	return &product, nil
}

type BolCommission struct {
	OrderItemID string  `json:"orderItemId"`
	OrderDate   string  `json:"orderDate"` // YYYY-MM-DD
	Commission  float64 `json:"commission"`
	Status      string  `json:"status"` // OPEN, APPROVED, REJECTED, PAID
}

type bolCommissionPage struct {
	Commissions []BolCommission `json:"commissions"`
}

// FetchCommissions returns commission records reported since the given
// date.
func (c *BolClient) FetchCommissions(ctx context.Context, since time.Time) ([]BolCommission, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start-date", since.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/commissions?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build commissions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commissions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bol commissions failed: status %d: %s", resp.StatusCode, body)
	}

	var page bolCommissionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode commissions: %w", err)
	}

	return page.Commissions, nil
}

func (c *BolClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.token, nil
	}

	credentials := base64.StdEncoding.EncodeToString(
		[]byte(c.clientID + ":" + c.clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with bol: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bol auth failed: status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return c.token, nil
}
