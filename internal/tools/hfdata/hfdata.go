// Package hfdata provides a client for the HuggingFace Hub dataset search
// API, used during the data preparation phase to suggest datasets.
package hfdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultHubURL is the HuggingFace Hub API endpoint for datasets.
const DefaultHubURL = "https://huggingface.co/api/datasets"

// Dataset is a single dataset search result from the hub.
type Dataset struct {
	ID          string   `json:"id"`
	Author      string   `json:"author"`
	Downloads   int64    `json:"downloads"`
	Likes       int64    `json:"likes"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Client queries the HuggingFace Hub for datasets.
type Client struct {
	hubURL     string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHubURL overrides the hub endpoint (used in tests).
func WithHubURL(u string) Option {
	return func(c *Client) { c.hubURL = u }
}

// WithToken sets a bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a HuggingFace dataset search client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		hubURL:     DefaultHubURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the hub for datasets matching query, sorted by downloads,
// returning at most limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Dataset, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("sort", "downloads")
	params.Set("full", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.hubURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build hub request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub request: unexpected status %d", resp.StatusCode)
	}

	var datasets []Dataset
	if err := json.NewDecoder(resp.Body).Decode(&datasets); err != nil {
		return nil, fmt.Errorf("decode hub response: %w", err)
	}
	return datasets, nil
}
