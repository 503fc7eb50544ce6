package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/solver"
	"github.com/agentlaboratory/agentlab/internal/textutil"
)

// reviewerPersonas are the three reviewer framings used during report
// refinement. Distinct dispositions surface different classes of problems.
var reviewerPersonas = []string{
	"a harsh but fair conference reviewer focused on methodological soundness",
	"a reviewer focused on clarity of writing and presentation",
	"a reviewer focused on novelty and significance of the contribution",
}

// Review is one reviewer's verdict on a paper.
type Review struct {
	Persona string  `json:"persona"`
	Comment string  `json:"comment"`
	Score   float64 `json:"score"`
}

// ReviewPaper collects a review from each persona and returns them with the
// mean score.
func ReviewPaper(ctx context.Context, b inference.Backend, model, paper string) ([]Review, float64, error) {
	reviews := make([]Review, 0, len(reviewerPersonas))
	total := 0.0

	for _, persona := range reviewerPersonas {
		prompt := fmt.Sprintf(
			"Review the following research paper. End your review with a line of the "+
				"form \"Score: <number between 0 and 1>\".\n\nPaper:\n%s", paper)
		resp, err := inference.Query(ctx, b, inference.Request{
			Model:        model,
			SystemPrompt: fmt.Sprintf("You are %s.", persona),
			Prompt:       prompt,
			Temperature:  0.4,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("review paper: %w", err)
		}

		score, err := solver.ParseScore(lastLine(resp))
		if err != nil {
			// A reviewer who forgot the score line still contributes feedback.
			score = 0
		}
		reviews = append(reviews, Review{Persona: persona, Comment: resp, Score: score})
		total += score
	}

	return reviews, total / float64(len(reviews)), nil
}

// FormatReviews renders reviews as feedback for the report refinement phase.
func FormatReviews(reviews []Review) string {
	var b []byte
	for i, r := range reviews {
		b = fmt.Appendf(b, "Reviewer %d (%s):\n%s\n\n", i+1, r.Persona, textutil.Truncate(r.Comment, 2000))
	}
	return string(b)
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n \t")
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
