// Package membershipclient reads subscriptions from a remote membership service.
package membershipclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

// DefaultRetryDelays are the waits between attempts after a transient failure
var DefaultRetryDelays = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}

// Client is a client for the membership service.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	retryDelays []time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelays replaces DefaultRetryDelays; its length is the retry count
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) { c.retryDelays = delays }
}

// NewClient creates a new membership service client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:      strings.TrimSpace(apiKey),
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		retryDelays: DefaultRetryDelays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetByUserAndCreator calls GET /api/v1/subscriptions/{user_id}?creator_id=.
// Failures that remain after retrying are reported as models.ErrUpstreamUnavailable.
func (c *Client) GetByUserAndCreator(ctx context.Context, userID, creatorID string) ([]models.Subscription, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: membership service base url is empty", models.ErrUpstreamUnavailable)
	}

	endpoint := fmt.Sprintf("%s/api/v1/subscriptions/%s?creator_id=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(creatorID))

	var lastErr error
	for attempt := 0; ; attempt++ {
		subs, retry, err := c.get(ctx, endpoint)
		if err == nil {
			return subs, nil
		}
		lastErr = err
		if !retry || attempt >= len(c.retryDelays) {
			break
		}

		metrics.MembershipClientRetriesTotal.Inc()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, ctx.Err())
		case <-time.After(c.retryDelays[attempt]):
		}
	}

	return nil, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, lastErr)
}

// get performs one attempt and reports whether a failure is worth retrying
func (c *Client) get(ctx context.Context, endpoint string) ([]models.Subscription, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors are transient unless the caller gave up
		return nil, ctx.Err() == nil, fmt.Errorf("failed to execute request to membership service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("membership service returned status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, fmt.Errorf("membership service returned status %d", resp.StatusCode)
	}

	var subs []models.Subscription
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return subs, false, nil
}
