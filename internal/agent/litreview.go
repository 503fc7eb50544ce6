package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentlaboratory/agentlab/pkg/models"
)

// Fetcher retrieves the text of a paper by its arXiv identifier.
type Fetcher interface {
	FullText(ctx context.Context, arxivID string) (string, error)
}

// LitReview accumulates reviewed papers during the literature review phase.
type LitReview struct {
	entries []models.LitEntry
	limit   int
}

// NewLitReview creates a review capped at limit papers. A limit of zero
// means unbounded.
func NewLitReview(limit int) *LitReview {
	return &LitReview{limit: limit}
}

// Entries returns the reviewed papers.
func (lr *LitReview) Entries() []models.LitEntry { return lr.entries }

// Restore replaces the entries, used when resuming from a saved state.
func (lr *LitReview) Restore(entries []models.LitEntry) {
	lr.entries = append([]models.LitEntry(nil), entries...)
}

// Len returns the number of reviewed papers.
func (lr *LitReview) Len() int { return len(lr.entries) }

// Full reports whether the review has reached its paper limit.
func (lr *LitReview) Full() bool {
	return lr.limit > 0 && len(lr.entries) >= lr.limit
}

// Add parses an ADD_PAPER command body of the form "<arxiv id>\n<summary>",
// fetches the paper text, and records the entry. It returns a message for
// the agent dialogue.
func (lr *LitReview) Add(ctx context.Context, body string, fetcher Fetcher) (string, error) {
	id, summary, ok := strings.Cut(strings.TrimSpace(body), "\n")
	if !ok || strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("add paper: expected \"<arxiv id>\\n<summary>\", got %q", body)
	}
	id = strings.TrimSpace(id)

	for _, e := range lr.entries {
		if e.ArxivID == id {
			return fmt.Sprintf("Paper %s is already in the literature review.", id), nil
		}
	}

	fullText := ""
	if fetcher != nil {
		text, err := fetcher.FullText(ctx, id)
		if err != nil {
			return "", fmt.Errorf("add paper %s: %w", id, err)
		}
		fullText = text
	}

	lr.entries = append(lr.entries, models.LitEntry{
		ArxivID:  id,
		Summary:  strings.TrimSpace(summary),
		FullText: fullText,
	})
	return fmt.Sprintf("Successfully added paper %s to the literature review.", id), nil
}

// Format renders the review as prompt context, summaries only.
func (lr *LitReview) Format() string {
	if len(lr.entries) == 0 {
		return "The literature review is empty."
	}
	var b strings.Builder
	b.WriteString("Current literature review:\n")
	for _, e := range lr.entries {
		fmt.Fprintf(&b, "- arXiv %s: %s\n", e.ArxivID, e.Summary)
	}
	return b.String()
}
