package semanticscholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const searchResponse = `{
  "total": 2,
  "data": [
    {
      "paperId": "abc123",
      "title": "Deep Learning in Natural Language Processing",
      "abstract": "This paper explores deep learning approaches in NLP.",
      "year": 2021,
      "citationCount": 150,
      "authors": [{"name": "John Smith"}, {"name": "Jane Doe"}]
    },
    {
      "paperId": "def456",
      "title": "Transformers for Computer Vision",
      "abstract": "This paper applies transformer architectures to vision tasks.",
      "year": 2022,
      "citationCount": 75,
      "authors": [{"name": "Alice Johnson"}]
    }
  ]
}`

const detailsResponse = `{
  "paperId": "abc123",
  "title": "Deep Learning in Natural Language Processing",
  "abstract": "This paper explores deep learning approaches in NLP.",
  "year": 2021,
  "citationCount": 150,
  "authors": [{"name": "John Smith"}],
  "references": [
    {"paperId": "ref123", "title": "Earlier Work on NLP", "year": 2019},
    {"paperId": "ref456", "title": "Foundations of Deep Learning", "year": 2018}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSearch(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(searchResponse))
	})

	papers, err := c.Search(context.Background(), "deep learning", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/paper/search" {
		t.Errorf("path = %q, want /paper/search", gotPath)
	}
	if gotQuery != "deep learning" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(papers) != 2 {
		t.Fatalf("len(papers) = %d, want 2", len(papers))
	}

	p := papers[0]
	if p.PaperID != "abc123" {
		t.Errorf("PaperID = %q", p.PaperID)
	}
	if p.Year != 2021 || p.CitationCount != 150 {
		t.Errorf("Year/CitationCount = %d/%d, want 2021/150", p.Year, p.CitationCount)
	}
	if len(p.Authors) != 2 || p.Authors[1] != "Jane Doe" {
		t.Errorf("Authors = %v", p.Authors)
	}
}

func TestSearchSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("s2-key"), WithHTTPClient(srv.Client()))
	if _, err := c.Search(context.Background(), "q", 1); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotKey != "s2-key" {
		t.Errorf("x-api-key = %q, want s2-key", gotKey)
	}
}

func TestSearchServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.Search(context.Background(), "q", 5); err == nil {
		t.Error("Search() expected error on 429, got nil")
	}
}

func TestPaperDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/abc123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(detailsResponse))
	})

	d, err := c.PaperDetails(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("PaperDetails() error = %v", err)
	}
	if d.Title != "Deep Learning in Natural Language Processing" {
		t.Errorf("Title = %q", d.Title)
	}
	if len(d.References) != 2 {
		t.Fatalf("len(References) = %d, want 2", len(d.References))
	}
	if d.References[0].PaperID != "ref123" || d.References[0].Year != 2019 {
		t.Errorf("References[0] = %+v", d.References[0])
	}
}

func TestPaperDetailsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "paper not found"}`))
	})

	if _, err := c.PaperDetails(context.Background(), "missing"); err == nil {
		t.Error("PaperDetails() expected error, got nil")
	}
}

func TestWithTimeout(t *testing.T) {
	c := NewClient(WithTimeout(5 * time.Second))
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}
	c = NewClient(WithTimeout(0))
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want default 30s", c.httpClient.Timeout)
	}
}
