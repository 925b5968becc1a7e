package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.coingecko.com/api/v3"
	vsCurrency                 = "usd"
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("price oracle base url is required")

// Client wraps the CoinGecko simple-price API used for USD conversion rates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey attaches a pro API key to each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// NewClient builds the oracle client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	if client.baseURL == "" {
		return nil, errBaseURLRequired
	}

	return client, nil
}

// USDPrice fetches the USD price for a single oracle asset ID, for
// example "ethereum" or "binancecoin".
func (c *Client) USDPrice(ctx context.Context, oracleID string) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeOracle, "price oracle client not configured")
	}
	trimmed := strings.TrimSpace(oracleID)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "oracle asset id is required")
	}

	query := url.Values{}
	query.Set("ids", trimmed)
	query.Set("vs_currencies", vsCurrency)
	endpoint := fmt.Sprintf("%s/simple/price?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeOracle, err, "build price request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeOracle, err, "execute price request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeOracle, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "price request failed")
	}

	var apiResp map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeOracle, err, "decode price response")
	}

	entry, ok := apiResp[trimmed]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeOracle, "oracle returned no price for asset").WithDetails(map[string]string{"oracle_id": trimmed})
	}
	raw, ok := entry[vsCurrency]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeOracle, "oracle returned no usd quote").WithDetails(map[string]string{"oracle_id": trimmed})
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeOracle, err, "parse oracle price")
	}
	if price.IsZero() || price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeOracle, "oracle price must be positive").WithDetails(map[string]string{"oracle_id": trimmed})
	}

	return price, nil
}
