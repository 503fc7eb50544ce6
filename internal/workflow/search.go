package workflow

import (
	"context"
	"fmt"

	"github.com/agentlaboratory/agentlab/internal/agent"
	"github.com/agentlaboratory/agentlab/internal/tools/arxiv"
	"github.com/agentlaboratory/agentlab/internal/tools/semanticscholar"
)

// scholarEngine adapts the Semantic Scholar client to the literature search
// seam so the review can keep going when arXiv is unavailable.
type scholarEngine struct {
	client *semanticscholar.Client
}

func (s scholarEngine) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error) {
	results, err := s.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	papers := make([]arxiv.Paper, 0, len(results))
	for _, r := range results {
		papers = append(papers, arxiv.Paper{
			ID:        r.PaperID,
			Title:     r.Title,
			Authors:   r.Authors,
			Summary:   r.Abstract,
			Published: fmt.Sprintf("%d", r.Year),
		})
	}
	return papers, nil
}

// FullText resolves a Semantic Scholar paper ID to its title and abstract.
func (s scholarEngine) FullText(ctx context.Context, paperID string) (string, error) {
	d, err := s.client.PaperDetails(ctx, paperID)
	if err != nil {
		return "", err
	}
	return d.Title + "\n\n" + d.Abstract, nil
}

// fallbackSearcher queries the primary engine and falls back to the backup
// when the primary fails or finds nothing.
type fallbackSearcher struct {
	primary PaperSearcher
	backup  PaperSearcher
}

func (f fallbackSearcher) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error) {
	papers, err := f.primary.Search(ctx, query, maxResults)
	if err == nil && len(papers) > 0 {
		return papers, nil
	}
	backup, berr := f.backup.Search(ctx, query, maxResults)
	if berr != nil {
		if err != nil {
			return nil, err
		}
		return nil, berr
	}
	return backup, nil
}

// fallbackFetcher resolves paper text through the primary fetcher first, so
// papers surfaced by the backup engine can still be read.
type fallbackFetcher struct {
	primary agent.Fetcher
	backup  agent.Fetcher
}

func (f fallbackFetcher) FullText(ctx context.Context, id string) (string, error) {
	text, err := f.primary.FullText(ctx, id)
	if err == nil {
		return text, nil
	}
	if backupText, berr := f.backup.FullText(ctx, id); berr == nil {
		return backupText, nil
	}
	return "", err
}
