package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/pkg/models"
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
		return inference.Response{Text: "ok"}, nil
	}
	text := s.responses[s.calls]
	s.calls++
	return inference.Response{Text: text}, nil
}

func TestProfilePhases(t *testing.T) {
	tests := []struct {
		profile Profile
		want    []models.Phase
	}{
		{Professor{}, []models.Phase{models.PhaseReportWriting}},
		{Postdoc{}, []models.Phase{models.PhasePlanFormulation, models.PhaseResultsInterpretation}},
		{PhDStudent{}, []models.Phase{
			models.PhaseLiteratureReview,
			models.PhasePlanFormulation,
			models.PhaseRunningExperiments,
			models.PhaseResultsInterpretation,
			models.PhaseReportWriting,
			models.PhaseReportRefinement,
		}},
		{MLEngineer{}, []models.Phase{models.PhaseDataPreparation, models.PhaseRunningExperiments}},
		{SWEngineer{}, []models.Phase{models.PhaseDataPreparation}},
	}
	for _, tt := range tests {
		got := tt.profile.Phases()
		if len(got) != len(tt.want) {
			t.Errorf("%s: phases = %v, want %v", tt.profile.Role(), got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: phases[%d] = %v, want %v", tt.profile.Role(), i, got[i], tt.want[i])
			}
		}
	}
}

func TestProfileDescriptions(t *testing.T) {
	tests := []struct {
		profile Profile
		want    string
	}{
		{Professor{}, "computer science professor"},
		{PhDStudent{}, "computer science PhD student"},
		{MLEngineer{}, "machine learning engineer"},
		{SWEngineer{}, "software engineer"},
		{Postdoc{}, "postdoctoral researcher"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.profile.Description(), tt.want) {
			t.Errorf("%s: Description() = %q, want substring %q", tt.profile.Role(), tt.profile.Description(), tt.want)
		}
	}
}

func TestNotesForPhase(t *testing.T) {
	notes := []Note{
		{Phases: []models.Phase{models.PhaseDataPreparation}, Note: "use MNIST"},
		{Phases: []models.Phase{models.PhaseDataPreparation, models.PhaseRunningExperiments}, Note: "keep runs short"},
		{Phases: []models.Phase{models.PhaseReportWriting}, Note: "cite baselines"},
	}

	got := NotesForPhase(notes, models.PhaseDataPreparation)
	if len(got) != 2 || got[0] != "use MNIST" || got[1] != "keep runs short" {
		t.Errorf("NotesForPhase(data preparation) = %v", got)
	}
	if got := NotesForPhase(notes, models.PhaseLiteratureReview); got != nil {
		t.Errorf("NotesForPhase(literature review) = %v, want nil", got)
	}
}

func TestInference(t *testing.T) {
	b := &scriptedBackend{responses: []string{"I propose a contrastive baseline."}}
	a := New(PhDStudent{}, b, "test-model", []Note{
		{Phases: []models.Phase{models.PhasePlanFormulation}, Note: "prefer small models"},
	})

	resp, err := a.Inference(context.Background(), "contrastive learning", models.PhasePlanFormulation, 1, "What should we try first?")
	if err != nil {
		t.Fatalf("Inference() error = %v", err)
	}
	if resp != "I propose a contrastive baseline." {
		t.Errorf("resp = %q", resp)
	}
	if a.PrevComm() != resp {
		t.Errorf("PrevComm() = %q", a.PrevComm())
	}

	req := b.requests[0]
	if !strings.Contains(req.SystemPrompt, "computer science PhD student") {
		t.Error("system prompt missing role description")
	}
	if !strings.Contains(req.SystemPrompt, "contrastive learning") {
		t.Error("system prompt missing topic")
	}
	if !strings.Contains(req.SystemPrompt, "Plan Formulation") {
		t.Error("system prompt missing phase")
	}
	if !strings.Contains(req.SystemPrompt, "prefer small models") {
		t.Error("system prompt missing phase-scoped note")
	}
	if !strings.Contains(req.Prompt, "What should we try first?") {
		t.Error("prompt missing feedback")
	}
}

func TestInferenceHistoryAccumulates(t *testing.T) {
	b := &scriptedBackend{responses: []string{"first answer", "second answer"}}
	a := New(Postdoc{}, b, "test-model", nil)

	ctx := context.Background()
	if _, err := a.Inference(ctx, "topic", models.PhasePlanFormulation, 1, ""); err != nil {
		t.Fatalf("Inference() error = %v", err)
	}
	if _, err := a.Inference(ctx, "topic", models.PhasePlanFormulation, 2, ""); err != nil {
		t.Fatalf("Inference() error = %v", err)
	}

	if !strings.Contains(b.requests[1].Prompt, "first answer") {
		t.Errorf("second prompt missing history: %q", b.requests[1].Prompt)
	}

	a.Reset()
	if a.PrevComm() != "" {
		t.Error("PrevComm() not cleared by Reset")
	}
	if _, err := a.Inference(ctx, "topic", models.PhasePlanFormulation, 1, ""); err != nil {
		t.Fatalf("Inference() error = %v", err)
	}
	if strings.Contains(b.requests[2].Prompt, "first answer") {
		t.Error("history survived Reset")
	}
}

func TestHistoryClipping(t *testing.T) {
	a := New(PhDStudent{}, &scriptedBackend{}, "test-model", nil)

	// Push well past the budget; oldest entries must fall off.
	big := strings.Repeat("word ", 2000)
	for i := 0; i < 12; i++ {
		a.appendHistory(fmt.Sprintf("entry %d: %s", i, big))
	}

	// The retained history may overshoot the budget by at most the size of
	// one entry, whichever counter is in effect.
	if inference.CountTokens(a.historyText()) > historyTokenBudget+inference.CountTokens(big) {
		t.Error("history grew far past the budget")
	}
	if strings.Contains(a.historyText(), "entry 0:") {
		t.Error("oldest entry not dropped")
	}
	if !strings.Contains(a.historyText(), "entry 11:") {
		t.Error("newest entry dropped")
	}
}

func TestHasPhase(t *testing.T) {
	a := New(SWEngineer{}, &scriptedBackend{}, "test-model", nil)
	if !a.HasPhase(models.PhaseDataPreparation) {
		t.Error("HasPhase(data preparation) = false for sw engineer")
	}
	if a.HasPhase(models.PhaseReportWriting) {
		t.Error("HasPhase(report writing) = true for sw engineer")
	}
}
