package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentlaboratory/agentlab/internal/agent"
	"github.com/agentlaboratory/agentlab/internal/config"
	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/tools/arxiv"
	"github.com/agentlaboratory/agentlab/internal/tools/executor"
	"github.com/agentlaboratory/agentlab/internal/tools/hfdata"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

// scriptedBackend returns canned responses in order and records usage into
// the ledger the way the real backend does.
type scriptedBackend struct {
	responses []string
	calls     int
	ledger    *inference.Ledger
}

func (s *scriptedBackend) Complete(_ context.Context, req inference.Request) (inference.Response, error) {
	if s.ledger != nil {
		s.ledger.Record(req.Model, 10, 20)
	}
	if s.calls >= len(s.responses) {
		return inference.Response{Text: "ok"}, nil
	}
	text := s.responses[s.calls]
	s.calls++
	return inference.Response{Text: text, InputTokens: 10, OutputTokens: 20}, nil
}

type stubSearcher struct{ papers []arxiv.Paper }

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]arxiv.Paper, error) {
	return s.papers, nil
}

type stubFetcher struct{ text string }

func (f *stubFetcher) FullText(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

type stubDatasets struct{ datasets []hfdata.Dataset }

func (d *stubDatasets) Search(_ context.Context, _ string, _ int) ([]hfdata.Dataset, error) {
	return d.datasets, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Defaults.NumPapersLitReview = 1
	cfg.Defaults.SolverSteps = 1
	cfg.Defaults.PaperSteps = 1
	cfg.Research.Dir = t.TempDir()
	cfg.Research.StateDir = t.TempDir()
	return cfg
}

func testOptions(t *testing.T, b inference.Backend) Options {
	t.Helper()
	ledger := inference.NewLedger()
	if sb, ok := b.(*scriptedBackend); ok {
		sb.ledger = ledger
	}
	return Options{
		Config:   testConfig(t),
		Backend:  b,
		Topic:    "contrastive representation learning",
		Ledger:   ledger,
		Searcher: &stubSearcher{},
		Fetcher:  &stubFetcher{text: "full paper text"},
		Datasets: &stubDatasets{},
		Executor: executor.New(executor.WithInterpreter("sh", ".sh")),
	}
}

// fullRunScript scripts every model call of a complete workflow run.
func fullRunScript() []string {
	script := []string{
		// literature review: one paper fills the quota
		"```ADD_PAPER\n1234.5678\nA strong contrastive baseline\n```",
		// plan formulation: phd proposal, postdoc commits
		"I propose comparing contrastive and supervised pretraining.",
		"Sensible.\n```PLAN\nTrain a small contrastive model and compare to a supervised baseline.\n```",
		// data preparation: working code on the first try
		"```SUBMIT_CODE\necho dataset ready\n```",
		// running experiments: initial program, score, one improvement, score
		"```REPLACE\necho accuracy=0.90\n```",
		"0.8",
		"```REPLACE\necho accuracy=0.95\n```",
		"0.9",
		// results interpretation: phd reading, postdoc commits
		"Accuracy improved over the baseline.",
		"Agreed.\n```INTERPRETATION\nContrastive pretraining improves accuracy.\n```",
	}
	// report writing: one REPLACE per section
	for _, sec := range []string{"abstract", "introduction", "related work", "background",
		"methods", "experimental setup", "results", "discussion"} {
		script = append(script, fmt.Sprintf("```REPLACE\n\\section{%s}\nText.\n```", sec))
	}
	script = append(script,
		"0.5", // initial draft score
		"```REPLACE\n\\section{Paper}\nThe full improved paper.\n```",
		"0.7", // refined draft score
		// report refinement: three reviews, then the decision
		"Sound methodology.\nScore: 0.8",
		"Clear writing.\nScore: 0.7",
		"Novel enough.\nScore: 0.6",
		"The reviews are positive. The paper is ready as is.",
	)
	return script
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{Topic: "t"}); err == nil {
		t.Error("expected error for missing backend")
	}
	if _, err := New(Options{Backend: &scriptedBackend{}}); err == nil {
		t.Error("expected error for missing topic")
	}
}

func TestRunAllPhases(t *testing.T) {
	b := &scriptedBackend{responses: fullRunScript()}
	opts := testOptions(t, b)
	lab, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := lab.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a := lab.Artifacts()
	if len(a.LitReview) != 1 || a.LitReview[0].ArxivID != "1234.5678" {
		t.Errorf("LitReview = %+v", a.LitReview)
	}
	if !strings.Contains(a.Plan, "contrastive model") {
		t.Errorf("Plan = %q", a.Plan)
	}
	if a.DatasetCode != "echo dataset ready" {
		t.Errorf("DatasetCode = %q", a.DatasetCode)
	}
	if a.ExpCode != "echo accuracy=0.95" {
		t.Errorf("ExpCode = %q, want best program", a.ExpCode)
	}
	if !strings.Contains(a.ExpResults, "accuracy=0.95") {
		t.Errorf("ExpResults = %q", a.ExpResults)
	}
	if !strings.Contains(a.Interpretation, "improves accuracy") {
		t.Errorf("Interpretation = %q", a.Interpretation)
	}
	if !strings.Contains(a.ReportBody, "The full improved paper.") {
		t.Errorf("ReportBody = %q", a.ReportBody)
	}
	if want := (0.8 + 0.7 + 0.6) / 3; a.ReviewScore != want {
		t.Errorf("ReviewScore = %v, want %v", a.ReviewScore, want)
	}

	if len(lab.Stats()) != 7 {
		t.Errorf("len(Stats) = %d, want 7", len(lab.Stats()))
	}
	// Every phase makes at least one model call.
	for _, s := range lab.Stats() {
		if s.Steps == 0 {
			t.Errorf("phase %s recorded no calls", s.Phase)
		}
		if s.InputTokens == 0 || s.OutputTokens == 0 {
			t.Errorf("phase %s recorded no usage", s.Phase)
		}
	}

	// Artifacts land in the research directory.
	for _, name := range []string{"experiment.py", "results.txt", "report.tex"} {
		if _, err := os.Stat(filepath.Join(opts.Config.Research.Dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	// A snapshot exists for the final phase.
	snapPath := filepath.Join(opts.Config.Research.StateDir, "report-refinement.json")
	if _, err := os.Stat(snapPath); err != nil {
		t.Errorf("missing snapshot: %v", err)
	}
}

func TestRunPhaseDisabled(t *testing.T) {
	b := &scriptedBackend{}
	opts := testOptions(t, b)
	opts.Config.Phases.LiteratureReview = false
	lab, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := lab.RunPhase(context.Background(), models.PhaseLiteratureReview); err == nil {
		t.Error("expected error for disabled phase")
	}
}

func TestCopilotFeedback(t *testing.T) {
	b := &scriptedBackend{responses: []string{
		"```ADD_PAPER\n1111.2222\nRelevant paper\n```",
	}}
	opts := testOptions(t, b)
	opts.Config.Defaults.CopilotMode = true

	var gotPhase models.Phase
	var gotSummary string
	opts.HumanInput = func(phase models.Phase, summary string) string {
		gotPhase = phase
		gotSummary = summary
		return "focus on efficiency"
	}

	lab, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := lab.RunPhase(context.Background(), models.PhaseLiteratureReview); err != nil {
		t.Fatalf("RunPhase() error = %v", err)
	}

	if gotPhase != models.PhaseLiteratureReview {
		t.Errorf("phase = %v", gotPhase)
	}
	if !strings.Contains(gotSummary, "1111.2222") {
		t.Errorf("summary = %q", gotSummary)
	}
	if lab.feedback != "focus on efficiency" {
		t.Errorf("feedback = %q", lab.feedback)
	}
}

func TestSaveLoadState(t *testing.T) {
	b := &scriptedBackend{}
	opts := testOptions(t, b)
	lab, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lab.artifacts.Plan = "the plan"
	lab.artifacts.ExpResults = "the results"
	lab.artifacts.LitReview = []models.LitEntry{{ArxivID: "1.2", Summary: "s"}}
	lab.stats = []models.PhaseStats{{Phase: models.PhasePlanFormulation, Steps: 3}}

	if err := lab.SaveState(models.PhasePlanFormulation); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	restored, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	path := filepath.Join(opts.Config.Research.StateDir, "plan-formulation.json")
	phase, err := restored.LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if phase != models.PhasePlanFormulation {
		t.Errorf("phase = %v", phase)
	}
	if restored.artifacts.Plan != "the plan" {
		t.Errorf("Plan = %q", restored.artifacts.Plan)
	}
	if restored.litReview.Len() != 1 {
		t.Errorf("litReview.Len() = %d, want 1", restored.litReview.Len())
	}
	if len(restored.stats) != 1 || restored.stats[0].Steps != 3 {
		t.Errorf("stats = %+v", restored.stats)
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	lab, err := New(testOptions(t, &scriptedBackend{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := lab.LoadState(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestResumeFrom(t *testing.T) {
	lab, err := New(testOptions(t, &scriptedBackend{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := lab.ResumeFrom(models.PhaseDataPreparation)
	want := []models.Phase{
		models.PhaseRunningExperiments,
		models.PhaseResultsInterpretation,
		models.PhaseReportWriting,
		models.PhaseReportRefinement,
	}
	if len(got) != len(want) {
		t.Fatalf("ResumeFrom() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("ResumeFrom()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	lab.cfg.Phases.ReportRefinement = false
	got = lab.ResumeFrom(models.PhaseReportWriting)
	if len(got) != 0 {
		t.Errorf("ResumeFrom(report writing) = %v, want empty", got)
	}
}

func TestSetNotes(t *testing.T) {
	lab, err := New(testOptions(t, &scriptedBackend{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	notes := []agent.Note{{Phases: []models.Phase{models.PhaseReportWriting}, Note: "cite baselines"}}
	lab.SetNotes(notes)
	if len(lab.opts.Notes) != 1 || lab.opts.Notes[0].Note != "cite baselines" {
		t.Errorf("Notes = %+v", lab.opts.Notes)
	}
}
