// Package arxiv provides a client for the arXiv export API used during the
// literature review phase.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// DefaultBaseURL is the public arXiv export API endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// Paper is a single arXiv search result.
type Paper struct {
	ID        string
	Title     string
	Authors   []string
	Summary   string
	Published string
}

// Client queries the arXiv Atom API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
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

// NewClient creates an arXiv client.
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

// Search queries arXiv for papers matching the query, returning at most
// maxResults entries.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	return parseFeed(body)
}

// FullText retrieves the available text for a paper by arXiv ID. The export
// API carries only the abstract, so the returned text is the title and
// summary; PDF extraction is deliberately not attempted.
func (c *Client) FullText(ctx context.Context, arxivID string) (string, error) {
	params := url.Values{}
	params.Set("id_list", arxivID)
	params.Set("max_results", "1")

	body, err := c.get(ctx, params)
	if err != nil {
		return "", err
	}
	papers, err := parseFeed(body)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return "", fmt.Errorf("paper %s not found", arxivID)
	}
	p := papers[0]
	return p.Title + "\n\n" + p.Summary, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read arxiv response: %w", err)
	}
	return body, nil
}

// parseFeed extracts papers from an Atom feed document.
func parseFeed(body []byte) ([]Paper, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	feed := doc.SelectElement("feed")
	if feed == nil {
		return nil, fmt.Errorf("parse arxiv feed: missing feed element")
	}

	var papers []Paper
	for _, entry := range feed.SelectElements("entry") {
		p := Paper{
			ID:        normalizeID(elementText(entry, "id")),
			Title:     cleanWhitespace(elementText(entry, "title")),
			Summary:   cleanWhitespace(elementText(entry, "summary")),
			Published: elementText(entry, "published"),
		}
		for _, author := range entry.SelectElements("author") {
			if name := elementText(author, "name"); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func elementText(parent *etree.Element, name string) string {
	if el := parent.SelectElement(name); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// normalizeID strips the URL prefix and version suffix from an entry ID,
// e.g. "http://arxiv.org/abs/2201.12345v2" becomes "2201.12345".
func normalizeID(id string) string {
	if i := strings.LastIndex(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	}
	if i := strings.LastIndex(id, "v"); i > 0 {
		if allDigits(id[i+1:]) {
			id = id[:i]
		}
	}
	return id
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cleanWhitespace collapses runs of whitespace into single spaces.
func cleanWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
