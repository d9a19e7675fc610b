// Package alphavantage is a minimal REST client for the Alpha Vantage
// GLOBAL_QUOTE endpoint.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"arbsim/internal/domain"
)

// DefaultBaseURL is the public Alpha Vantage API root.
const DefaultBaseURL = "https://www.alphavantage.co"

// Client is the REST client for the Alpha Vantage quote API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Alpha Vantage client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// globalQuote mirrors the numbered-field payload of the GLOBAL_QUOTE
// endpoint. Prices come back as decimal strings.
type globalQuote struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
		Change string `json:"09. change"`
	} `json:"Global Quote"`
}

// GetQuote fetches the latest reference quote for a symbol. An empty payload
// (the API's response for unknown symbols and for exhausted quotas alike)
// maps to domain.ErrNotFound.
func (c *Client) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	endpoint := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: build request %s: %w", symbol, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: get quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Quote{}, fmt.Errorf("alphavantage: get quote %s: %w", symbol, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("alphavantage: get quote %s: unexpected status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: read quote %s: %w", symbol, err)
	}

	var payload globalQuote
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: decode quote %s: %w", symbol, err)
	}

	if payload.GlobalQuote.Price == "" {
		return domain.Quote{}, fmt.Errorf("alphavantage: quote %s: %w", symbol, domain.ErrNotFound)
	}

	price, err := strconv.ParseFloat(payload.GlobalQuote.Price, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("alphavantage: parse price %s: %w", symbol, err)
	}
	if price <= 0 {
		return domain.Quote{}, fmt.Errorf("alphavantage: quote %s: non-positive price %v: %w", symbol, price, domain.ErrInvalidInput)
	}

	return domain.Quote{
		Symbol:    symbol,
		Price:     price,
		Change:    payload.GlobalQuote.Change,
		Timestamp: time.Now().UTC(),
	}, nil
}
