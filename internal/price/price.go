// Package price fetches fiat quotes for the balance table from the
// CryptoCompare pricemulti endpoint.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://min-api.cryptocompare.com/data/pricemulti"

// Client fetches spot prices. Quotes are best effort; callers render
// balances without valuations when the service is unreachable.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the quote endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a quote client. The API key may be empty; the
// public endpoint serves unauthenticated requests at a lower rate.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prices returns the spot price of each symbol in the given fiat
// currency. Symbols the service does not know are absent from the
// result rather than an error.
func (c *Client) Prices(ctx context.Context, symbols []string, currency string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	q := url.Values{}
	q.Set("fsyms", strings.ToUpper(strings.Join(symbols, ",")))
	q.Set("tsyms", strings.ToUpper(currency))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price service returned HTTP %d", resp.StatusCode)
	}

	// Success: {"ETH":{"USD":1234.5}}. Errors come back as 200 with a
	// Response field instead of quote objects.
	var failure struct {
		Response string `json:"Response"`
		Message  string `json:"Message"`
	}
	if err := json.Unmarshal(body, &failure); err == nil && failure.Response == "Error" {
		return nil, fmt.Errorf("price service: %s", failure.Message)
	}

	var quotes map[string]map[string]float64
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("parsing price response: %w", err)
	}

	currency = strings.ToUpper(currency)
	prices := make(map[string]float64, len(quotes))
	for symbol, byCurrency := range quotes {
		if p, ok := byCurrency[currency]; ok {
			prices[symbol] = p
		}
	}
	return prices, nil
}
