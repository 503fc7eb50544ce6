package solver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/inference"
)

var floatRe = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// ScoreProgram asks a reward model how well the program output realizes the
// research plan, on a scale from 0 to 1.
func ScoreProgram(ctx context.Context, b inference.Backend, model, plan, output string) (float64, error) {
	prompt := fmt.Sprintf(
		"You are a grading professor. Given the research plan and the output of an "+
			"experiment run, grade how well the experiment addresses the plan.\n\n"+
			"Research plan:\n%s\n\nExperiment output:\n%s\n\n"+
			"Respond with only a single number between 0 and 1, where 1 means the plan "+
			"was fully realized with strong results.",
		plan, output)

	text, err := inference.Query(ctx, b, inference.Request{
		Model:       model,
		Prompt:      prompt,
		Temperature: 0.0,
		MaxTokens:   64,
	})
	if err != nil {
		return 0, fmt.Errorf("score program: %w", err)
	}

	score, err := ParseScore(text)
	if err != nil {
		return 0, fmt.Errorf("score program: %w", err)
	}
	return score, nil
}

// ParseScore extracts the first number in the response and clamps it to the
// unit interval. Reward models occasionally wrap the number in prose, so
// anything numeric counts.
func ParseScore(text string) (float64, error) {
	m := floatRe.FindString(strings.TrimSpace(text))
	if m == "" {
		return 0, fmt.Errorf("no numeric score in %q", text)
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", m, err)
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, nil
}
