// Package semanticscholar provides a client for the Semantic Scholar Graph
// API used during the literature review phase.
package semanticscholar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public Semantic Scholar Graph API endpoint.
const DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

// searchFields are the paper fields requested on search.
const searchFields = "title,abstract,year,citationCount,authors"

// Paper is a single Semantic Scholar result.
type Paper struct {
	PaperID       string
	Title         string
	Abstract      string
	Year          int
	CitationCount int
	Authors       []string
}

// Reference is a cited paper in a paper's reference list.
type Reference struct {
	PaperID string
	Title   string
	Year    int
}

// Details is the full record for a single paper.
type Details struct {
	Paper
	References []Reference
}

// Client queries the Semantic Scholar Graph API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithAPIKey sets the optional x-api-key header for higher rate limits.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
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

// NewClient creates a Semantic Scholar client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries for papers matching query, returning at most limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("fields", searchFields)

	body, err := c.get(ctx, "/paper/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var papers []Paper
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		papers = append(papers, paperFromResult(item))
		return true
	})
	return papers, nil
}

// PaperDetails fetches the full record for a paper, including references.
func (c *Client) PaperDetails(ctx context.Context, paperID string) (*Details, error) {
	params := url.Values{}
	params.Set("fields", searchFields+",references")

	body, err := c.get(ctx, "/paper/"+url.PathEscape(paperID)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	if !root.Get("paperId").Exists() {
		return nil, fmt.Errorf("paper %s not found", paperID)
	}

	d := &Details{Paper: paperFromResult(root)}
	root.Get("references").ForEach(func(_, ref gjson.Result) bool {
		d.References = append(d.References, Reference{
			PaperID: ref.Get("paperId").String(),
			Title:   ref.Get("title").String(),
			Year:    int(ref.Get("year").Int()),
		})
		return true
	})
	return d, nil
}

func paperFromResult(item gjson.Result) Paper {
	p := Paper{
		PaperID:       item.Get("paperId").String(),
		Title:         item.Get("title").String(),
		Abstract:      item.Get("abstract").String(),
		Year:          int(item.Get("year").Int()),
		CitationCount: int(item.Get("citationCount").Int()),
	}
	item.Get("authors").ForEach(func(_, a gjson.Result) bool {
		if name := a.Get("name").String(); name != "" {
			p.Authors = append(p.Authors, name)
		}
		return true
	})
	return p
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build semantic scholar request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read semantic scholar response: %w", err)
	}
	return body, nil
}
