// Package fx calls the external exchange-rate service. The lookup is the only
// network dependency of a transfer and is bounded by the client timeout; any
// non-200 response fails the enclosing operation.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Client wraps the rate service endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
}

// NewClient constructs a client. cache may be nil to disable caching.
func NewClient(baseURL string, timeout time.Duration, cache *Cache) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
	}
}

type convertResponse struct {
	Result json.Number `json:"result"`
}

// Convert returns amount expressed in the target currency. A cached rate for
// the pair is used when fresh; cache failures fall through to the network.
func (c *Client) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if rate, ok := c.cache.Rate(ctx, from, to); ok {
		return amount.Mul(rate), nil
	}

	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)
	query.Set("amount", amount.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fx: rate service returned status %d", resp.StatusCode)
	}

	var body convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("fx: decode response: %w", err)
	}
	result, err := decimal.NewFromString(body.Result.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("fx: parse result %q: %w", body.Result, err)
	}

	if amount.IsPositive() {
		c.cache.StoreRate(ctx, from, to, result.Div(amount))
	}
	return result, nil
}
