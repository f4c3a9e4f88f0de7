// Package currency converts USD amounts to KRW using the exchangerate-api
// quote endpoint, with a process-wide cached rate and a static fallback.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// defaultAPIURL takes the API key as the single format argument.
	defaultAPIURL  = "https://v6.exchangerate-api.com/v6/%s/latest/USD"
	defaultTimeout = 10 * time.Second
	defaultTTL     = 10 * time.Minute
)

// DefaultRate is the static USD→KRW rate used when the quote API is
// unreachable or returns a malformed payload.
var DefaultRate = decimal.NewFromInt(1300)

// Logger receives conversion warnings. Satisfied by the observability logger.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// Config holds the settings for the currency client.
type Config struct {
	APIKey      string
	APIURL      string // format string with one %s for the API key
	CacheTTL    time.Duration
	DefaultRate decimal.Decimal // zero value uses DefaultRate
	Timeout     time.Duration
	Now         func() time.Time // injected clock; nil uses time.Now
}

// Client fetches and caches the USD→KRW rate. Safe for concurrent use: the
// cached rate is guarded by a mutex and refreshed by whichever caller's fetch
// completes first once the TTL has lapsed.
type Client struct {
	apiKey      string
	apiURL      string
	ttl         time.Duration
	defaultRate decimal.Decimal
	client      *http.Client
	now         func() time.Time
	logger      Logger

	mu        sync.Mutex
	rate      decimal.Decimal
	fetchedAt time.Time
}

// NewClient creates a currency client from config, applying defaults.
func NewClient(cfg Config) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	fallback := cfg.DefaultRate
	if fallback.IsZero() {
		fallback = DefaultRate
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		apiKey:      cfg.APIKey,
		apiURL:      apiURL,
		ttl:         ttl,
		defaultRate: fallback,
		client:      &http.Client{Timeout: timeout},
		now:         now,
	}
}

// SetLogger wires warning logging.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// ConvertUSDToKRW converts a USD amount to KRW rounded half-up to whole won.
// A zero amount returns zero without any network call. Any rate-fetch failure
// falls back to the configured default rate; conversion never blocks review
// creation on the quote API.
func (c *Client) ConvertUSDToKRW(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	if usd.IsZero() {
		return decimal.Zero.Round(0), nil
	}

	rate, err := c.usdToKrwRate(ctx)
	if err != nil {
		c.warn(ctx, "exchange rate fetch failed, using default rate", map[string]interface{}{
			"error":       err.Error(),
			"defaultRate": c.defaultRate.String(),
		})
		rate = c.defaultRate
	}
	return usd.Mul(rate).Round(0), nil
}

// usdToKrwRate returns the cached rate when fresh, otherwise fetches a new
// quote and updates the cache.
func (c *Client) usdToKrwRate(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	if !c.rate.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		rate := c.rate
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	rate, err := c.fetchRate(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.rate = rate
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context) (decimal.Decimal, error) {
	if c.apiKey == "" {
		return decimal.Zero, fmt.Errorf("exchange rate API key is not configured")
	}

	url := fmt.Sprintf(c.apiURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("exchange rate API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read rate response: %w", err)
	}

	var payload struct {
		ConversionRates map[string]json.Number `json:"conversion_rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("parse rate response: %w", err)
	}
	raw, ok := payload.ConversionRates["KRW"]
	if !ok {
		return decimal.Zero, fmt.Errorf("KRW rate not found in response")
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse KRW rate %q: %w", raw.String(), err)
	}
	return rate, nil
}

func (c *Client) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.LogWarning(ctx, msg, fields)
	}
}
