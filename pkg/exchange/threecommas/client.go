// Package threecommas is a REST client for the 3Commas accounts and SmartTrade v2 API
package threecommas

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://api.3commas.io"
	DefaultMarketCode = "binance"

	apiV1 = "/public/api/ver1"
	apiV2 = "/public/api/v2"

	defaultTimeout    = 30 * time.Second
	defaultRetries    = 5
	defaultRatePerSec = 5
)

// APIError is a non successful answer of the API
type APIError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("3commas: status %d: %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("3commas: status %d: %s", e.Status, e.Code)
}

// Temporary reports whether retrying the same request later may succeed
func (e *APIError) Temporary() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithRateLimit limits outgoing requests per second, zero disables the limit
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets how many times a 502 answer is retried and the backoff between attempts
func WithRetry(attempts int, min, max time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.backoffMin = min
		c.backoffMax = max
	}
}

// WithMarketCode sets the market used to resolve currency rates
func WithMarketCode(marketCode string) Option {
	return func(c *Client) {
		if marketCode != "" {
			c.marketCode = marketCode
		}
	}
}

// WithLogger sets the client logger
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// Client implements core.Venue and core.PriceFeed on top of the 3Commas API.
// It is safe for concurrent use.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	marketCode string

	http       *http.Client
	limiter    *rate.Limiter
	retries    int
	backoffMin time.Duration
	backoffMax time.Duration
	log        logger.Logger
}

// NewClient creates a 3Commas client signing requests with the given credentials
func NewClient(apiKey, apiSecret string, log logger.Logger, options ...Option) *Client {
	client := &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    DefaultBaseURL,
		marketCode: DefaultMarketCode,
		http:       &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		retries:    defaultRetries,
		backoffMin: 500 * time.Millisecond,
		backoffMax: 5 * time.Second,
		log:        log,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// sign returns the hex HMAC-SHA256 of the request path with its query or body
func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// do sends a signed request, retrying 502 answers with backoff, and decodes the JSON answer into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var content []byte
	if body != nil {
		var err error
		content, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	signed := path
	if encoded := query.Encode(); encoded != "" {
		signed += "?" + encoded
	}

	retry := &backoff.Backoff{
		Min:    c.backoffMin,
		Max:    c.backoffMax,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 0; ; attempt++ {
		status, answer, err := c.send(ctx, method, signed, content)
		if err != nil {
			return err
		}

		if status == http.StatusBadGateway && attempt < c.retries {
			wait := retry.Duration()
			c.log.WithFields(map[string]any{
				"path":    path,
				"attempt": attempt + 1,
				"wait":    wait,
			}).Warn("3commas answered 502, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if err := json.Unmarshal(answer, apiErr); err != nil || apiErr.Code == "" {
				apiErr.Code = http.StatusText(status)
				apiErr.Description = string(bytes.TrimSpace(answer))
			}
			return apiErr
		}

		if out == nil {
			return nil
		}

		if err := json.Unmarshal(answer, out); err != nil {
			return fmt.Errorf("failed to decode %s answer: %w", path, err)
		}

		return nil
	}
}

func (c *Client) send(ctx context.Context, method, signed string, content []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if content != nil {
		reader = bytes.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+signed, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("APIKEY", c.apiKey)
	req.Header.Set("Signature", c.sign(signed+string(content)))
	req.Header.Set("Accept", "application/json")
	if content != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", core.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read answer: %w", core.ErrTransientFetch, err)
	}

	return resp.StatusCode, answer, nil
}

// fetchError maps a read failure to ErrTransientFetch so callers retry on the next cycle
func fetchError(operation string, err error) error {
	if errors.Is(err, core.ErrTransientFetch) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %w", operation, core.ErrTransientFetch, err)
}
