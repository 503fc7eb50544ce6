package paper

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/agentlaboratory/agentlab/internal/inference"
)

// scriptedBackend returns canned responses in order.
type scriptedBackend struct {
	responses []string
	calls     int
	requests  []inference.Request
}

func (s *scriptedBackend) Complete(_ context.Context, req inference.Request) (inference.Response, error) {
	s.requests = append(s.requests, req)
	if s.calls >= len(s.responses) {
		return inference.Response{Text: "0.0"}, nil
	}
	text := s.responses[s.calls]
	s.calls++
	return inference.Response{Text: text}, nil
}

func newSolver(t *testing.T, b inference.Backend, maxSteps int) *PaperSolver {
	t.Helper()
	p, err := New(Config{
		Backend:    b,
		Model:      "test-model",
		Topic:      "Attention Mechanisms",
		Plan:       "Investigate attention mechanisms in transformers.",
		ExpResults: "92% accuracy with attention enabled.",
		MaxSteps:   maxSteps,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// sectionDrafts builds one REPLACE response per paper section.
func sectionDrafts() []string {
	drafts := make([]string, 0, len(Sections))
	for _, sec := range Sections {
		drafts = append(drafts, fmt.Sprintf("```REPLACE\n\\section{%s}\nContent for %s.\n```", sec, sec))
	}
	return drafts
}

func TestSystemPromptSectionTarget(t *testing.T) {
	p := newSolver(t, &scriptedBackend{}, 1)

	prompt := p.SystemPrompt("abstract")
	if !strings.Contains(prompt, "Write only the abstract section now.") {
		t.Error("missing section directive")
	}
	if !strings.Contains(prompt, "Investigate attention mechanisms in transformers.") {
		t.Error("missing plan")
	}
	if !strings.Contains(prompt, "92% accuracy") {
		t.Error("missing experiment results")
	}

	general := p.SystemPrompt("")
	if strings.Contains(general, "Write only the") {
		t.Error("section directive leaked into general prompt")
	}
}

func TestProcessCommandReplace(t *testing.T) {
	b := &scriptedBackend{responses: []string{"0.8"}}
	p := newSolver(t, b, 1)

	step, err := p.ProcessCommand(context.Background(), "```REPLACE\n\\section{Introduction}\nWe study attention.\n```")
	if err != nil {
		t.Fatalf("ProcessCommand() error = %v", err)
	}
	if step.Score != 0.8 {
		t.Errorf("Score = %v, want 0.8", step.Score)
	}
	if step.Note != "" {
		t.Errorf("Note = %q, want empty", step.Note)
	}
	if !strings.Contains(p.Body(), "We study attention.") {
		t.Errorf("Body() = %q", p.Body())
	}
	if p.BestScore() != 0.8 {
		t.Errorf("BestScore() = %v", p.BestScore())
	}
}

func TestProcessCommandUnbalancedRejected(t *testing.T) {
	p := newSolver(t, &scriptedBackend{}, 1)

	step, err := p.ProcessCommand(context.Background(), "```REPLACE\n\\begin{table}\nno end\n```")
	if err != nil {
		t.Fatalf("ProcessCommand() error = %v", err)
	}
	if step.Note == "" {
		t.Error("Note empty, want rejection reason")
	}
	if step.Score != 0 {
		t.Errorf("Score = %v, want 0 for rejected candidate", step.Score)
	}
	if p.Body() != "" {
		t.Errorf("Body() = %q, want unchanged", p.Body())
	}
}

func TestProcessCommandNoCommand(t *testing.T) {
	p := newSolver(t, &scriptedBackend{}, 1)
	if _, err := p.ProcessCommand(context.Background(), "no fences here"); err == nil {
		t.Error("expected error for response without a command")
	}
}

func TestInitialDraftSectionOrder(t *testing.T) {
	b := &scriptedBackend{responses: sectionDrafts()}
	p := newSolver(t, b, 1)

	if err := p.InitialDraft(context.Background()); err != nil {
		t.Fatalf("InitialDraft() error = %v", err)
	}

	body := p.Body()
	last := -1
	for _, sec := range Sections {
		idx := strings.Index(body, "\\section{"+sec+"}")
		if idx < 0 {
			t.Fatalf("section %q missing from draft", sec)
		}
		if idx < last {
			t.Errorf("section %q out of order", sec)
		}
		last = idx
	}

	// Each drafting query targets its section.
	for i, sec := range Sections {
		if !strings.Contains(b.requests[i].SystemPrompt, "Write only the "+sec+" section") {
			t.Errorf("request %d does not target section %q", i, sec)
		}
	}
}

func TestSolveKeepsBestDraft(t *testing.T) {
	responses := sectionDrafts()
	responses = append(responses,
		"0.5", // score of the initial draft
		"```REPLACE\n\\section{Introduction}\nMuch improved paper.\n```",
		"0.9",
	)
	b := &scriptedBackend{responses: responses}
	p := newSolver(t, b, 1)

	draft, err := p.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if draft.Score != 0.9 {
		t.Errorf("Score = %v, want 0.9", draft.Score)
	}
	if !strings.Contains(draft.Body, "Much improved paper.") {
		t.Errorf("Body = %q, want refined draft", draft.Body)
	}
	if len(draft.Steps) != 1 {
		t.Errorf("len(Steps) = %d, want 1", len(draft.Steps))
	}
}

func TestAssemble(t *testing.T) {
	b := &scriptedBackend{responses: []string{"0.8"}}
	p := newSolver(t, b, 1)
	if _, err := p.ProcessCommand(context.Background(), "```REPLACE\n\\section{Results}\nStrong results.\n```"); err != nil {
		t.Fatalf("ProcessCommand() error = %v", err)
	}

	doc := p.Assemble()
	if !strings.Contains(doc, "\\documentclass{article}") {
		t.Error("missing preamble")
	}
	if !strings.Contains(doc, "\\section{Results}") {
		t.Error("missing body")
	}
	if !strings.Contains(doc, "Attention Mechanisms") {
		t.Error("missing title")
	}
}
