// Package workflow orchestrates the research phases from literature review
// through report refinement. A Laboratory owns the agents, the research
// artifacts they produce, and the bookkeeping around each phase: timing,
// cost, persistence, and optional human feedback.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/agentlaboratory/agentlab/internal/agent"
	"github.com/agentlaboratory/agentlab/internal/config"
	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/latex"
	"github.com/agentlaboratory/agentlab/internal/state"
	"github.com/agentlaboratory/agentlab/internal/tools/arxiv"
	"github.com/agentlaboratory/agentlab/internal/tools/executor"
	"github.com/agentlaboratory/agentlab/internal/tools/hfdata"
	"github.com/agentlaboratory/agentlab/internal/tools/semanticscholar"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

// maxDialogueSteps bounds agent dialogues within a single phase.
const maxDialogueSteps = 10

// PaperSearcher finds papers for the literature review.
type PaperSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]arxiv.Paper, error)
}

// DatasetSearcher finds datasets during data preparation.
type DatasetSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]hfdata.Dataset, error)
}

// Options configures a Laboratory.
type Options struct {
	Config  *config.Config
	Backend inference.Backend
	Topic   string
	Notes   []agent.Note

	// Ledger tracks token usage across the run. Defaults to the process
	// ledger when nil.
	Ledger *inference.Ledger

	// DB records sessions and phase outcomes when set.
	DB *state.DB

	// Searcher and Fetcher serve the literature review. Both default to
	// the public arXiv API with Semantic Scholar as fallback.
	Searcher PaperSearcher
	Fetcher  agent.Fetcher

	// Datasets serves data preparation. Defaults to the Hugging Face hub.
	Datasets DatasetSearcher

	// Executor runs generated code. Defaults to python3.
	Executor *executor.Executor

	// Compiler builds the report PDF when set.
	Compiler *latex.Compiler

	// HumanInput is consulted after each phase in copilot mode. The
	// returned text is fed to the agents as feedback for the next phase.
	HumanInput func(phase models.Phase, summary string) string

	// OnPhaseStart and OnPhaseDone observe phase progress, for progress
	// displays.
	OnPhaseStart func(phase models.Phase)
	OnPhaseDone  func(stats models.PhaseStats)
}

// Artifacts holds everything the workflow produces.
type Artifacts struct {
	LitReview      []models.LitEntry `json:"lit_review"`
	Plan           string            `json:"plan"`
	DatasetCode    string            `json:"dataset_code"`
	ExpCode        string            `json:"exp_code"`
	ExpResults     string            `json:"exp_results"`
	Interpretation string            `json:"interpretation"`
	ReportBody     string            `json:"report_body"`
	ReviewScore    float64           `json:"review_score"`
}

// Laboratory runs the research workflow.
type Laboratory struct {
	opts  Options
	cfg   *config.Config
	topic string

	phd       *agent.Agent
	postdoc   *agent.Agent
	professor *agent.Agent
	mle       *agent.Agent
	swe       *agent.Agent

	litReview *agent.LitReview
	ledger    *inference.Ledger
	session   *state.Session

	artifacts Artifacts
	stats     []models.PhaseStats
	reviews   []agent.Review
	feedback  string
}

// New creates a Laboratory for the given topic.
func New(opts Options) (*Laboratory, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("workflow: backend is required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("workflow: topic is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Searcher == nil || opts.Fetcher == nil {
		ax := arxiv.NewClient(arxiv.WithTimeout(cfg.Timeouts.Search))
		scholar := scholarEngine{client: semanticscholar.NewClient(
			semanticscholar.WithTimeout(cfg.Timeouts.Search),
		)}
		if opts.Searcher == nil {
			opts.Searcher = fallbackSearcher{primary: ax, backup: scholar}
		}
		if opts.Fetcher == nil {
			opts.Fetcher = fallbackFetcher{primary: ax, backup: scholar}
		}
	}
	if opts.Datasets == nil {
		opts.Datasets = hfdata.NewClient(hfdata.WithTimeout(cfg.Timeouts.Search))
	}
	if opts.Executor == nil {
		opts.Executor = executor.New(executor.WithTimeout(cfg.Timeouts.Execute))
	}
	if opts.Ledger == nil {
		opts.Ledger = inference.DefaultLedger()
	}

	model := cfg.Defaults.Model
	lab := &Laboratory{
		opts:      opts,
		cfg:       cfg,
		topic:     opts.Topic,
		phd:       agent.New(agent.PhDStudent{}, opts.Backend, model, opts.Notes),
		postdoc:   agent.New(agent.Postdoc{}, opts.Backend, model, opts.Notes),
		professor: agent.New(agent.Professor{}, opts.Backend, model, opts.Notes),
		mle:       agent.New(agent.MLEngineer{}, opts.Backend, model, opts.Notes),
		swe:       agent.New(agent.SWEngineer{}, opts.Backend, model, opts.Notes),
		litReview: agent.NewLitReview(cfg.Defaults.NumPapersLitReview),
		ledger:    opts.Ledger,
	}
	return lab, nil
}

// Topic returns the research topic.
func (l *Laboratory) Topic() string { return l.topic }

// Artifacts returns the artifacts produced so far.
func (l *Laboratory) Artifacts() Artifacts { return l.artifacts }

// Stats returns per-phase resource usage for completed phases.
func (l *Laboratory) Stats() []models.PhaseStats { return l.stats }

// SetModel switches all agents to a new model for subsequent phases.
func (l *Laboratory) SetModel(model string) {
	l.cfg.Defaults.Model = model
	backend := l.opts.Backend
	notes := l.opts.Notes
	l.phd = agent.New(agent.PhDStudent{}, backend, model, notes)
	l.postdoc = agent.New(agent.Postdoc{}, backend, model, notes)
	l.professor = agent.New(agent.Professor{}, backend, model, notes)
	l.mle = agent.New(agent.MLEngineer{}, backend, model, notes)
	l.swe = agent.New(agent.SWEngineer{}, backend, model, notes)
}

// SetNotes replaces the task notes for subsequent phases.
func (l *Laboratory) SetNotes(notes []agent.Note) {
	l.opts.Notes = notes
	l.SetModel(l.cfg.Defaults.Model)
}

// phaseFunc runs the work of one phase.
type phaseFunc func(ctx context.Context) error

// phases returns the enabled phases in execution order with their
// implementations.
func (l *Laboratory) phases() []struct {
	phase models.Phase
	run   phaseFunc
} {
	all := []struct {
		phase models.Phase
		run   phaseFunc
	}{
		{models.PhaseLiteratureReview, l.literatureReview},
		{models.PhasePlanFormulation, l.planFormulation},
		{models.PhaseDataPreparation, l.dataPreparation},
		{models.PhaseRunningExperiments, l.runningExperiments},
		{models.PhaseResultsInterpretation, l.resultsInterpretation},
		{models.PhaseReportWriting, l.reportWriting},
		{models.PhaseReportRefinement, l.reportRefinement},
	}
	var enabled []struct {
		phase models.Phase
		run   phaseFunc
	}
	for _, p := range all {
		if l.cfg.Phases.Enabled(p.phase.String()) {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// EnabledPhases returns the phases this run will execute, in order.
func (l *Laboratory) EnabledPhases() []models.Phase {
	var out []models.Phase
	for _, p := range l.phases() {
		out = append(out, p.phase)
	}
	return out
}

// Run executes all enabled phases in order.
func (l *Laboratory) Run(ctx context.Context) error {
	if l.opts.DB != nil && l.session == nil {
		sess, err := l.opts.DB.CreateSession(l.topic, l.cfg.Defaults.Model)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		l.session = sess
	}

	for _, p := range l.phases() {
		if err := l.runPhase(ctx, p.phase, p.run); err != nil {
			l.completeSession("failed")
			return err
		}
	}

	l.completeSession("completed")
	return nil
}

// RunPhase executes a single phase by name.
func (l *Laboratory) RunPhase(ctx context.Context, phase models.Phase) error {
	for _, p := range l.phases() {
		if p.phase == phase {
			return l.runPhase(ctx, phase, p.run)
		}
	}
	return fmt.Errorf("phase %q is not enabled", phase)
}

// runPhase wraps a phase with timing, usage accounting, persistence, and
// the copilot feedback hook.
func (l *Laboratory) runPhase(ctx context.Context, phase models.Phase, run phaseFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.resetAgents()
	l.recordPhaseStart(phase)
	if l.opts.OnPhaseStart != nil {
		l.opts.OnPhaseStart(phase)
	}

	start := time.Now()
	inBefore, outBefore := l.ledger.TokensIn(), l.ledger.TokensOut()
	costBefore := l.ledger.CostEstimate()
	callsBefore := l.ledger.Calls()

	err := run(ctx)

	stat := models.PhaseStats{
		Phase:        phase,
		Seconds:      time.Since(start).Seconds(),
		CostUSD:      l.ledger.CostEstimate() - costBefore,
		InputTokens:  l.ledger.TokensIn() - inBefore,
		OutputTokens: l.ledger.TokensOut() - outBefore,
		Steps:        l.ledger.Calls() - callsBefore,
	}

	if err != nil {
		l.recordPhaseDone(phase, "failed", stat)
		return fmt.Errorf("phase %s: %w", phase, err)
	}

	l.stats = append(l.stats, stat)
	l.recordPhaseDone(phase, "completed", stat)
	if l.opts.OnPhaseDone != nil {
		l.opts.OnPhaseDone(stat)
	}

	if l.cfg.Research.StateDir != "" {
		if serr := l.SaveState(phase); serr != nil {
			return fmt.Errorf("save state after %s: %w", phase, serr)
		}
	}

	if l.cfg.Defaults.CopilotMode && l.opts.HumanInput != nil {
		l.feedback = l.opts.HumanInput(phase, l.phaseSummary(phase))
	}
	return nil
}

func (l *Laboratory) resetAgents() {
	l.phd.Reset()
	l.postdoc.Reset()
	l.professor.Reset()
	l.mle.Reset()
	l.swe.Reset()
}

// phaseSummary renders what a phase produced, for the copilot prompt.
func (l *Laboratory) phaseSummary(phase models.Phase) string {
	switch phase {
	case models.PhaseLiteratureReview:
		return l.litReview.Format()
	case models.PhasePlanFormulation:
		return l.artifacts.Plan
	case models.PhaseDataPreparation:
		return l.artifacts.DatasetCode
	case models.PhaseRunningExperiments:
		return l.artifacts.ExpResults
	case models.PhaseResultsInterpretation:
		return l.artifacts.Interpretation
	case models.PhaseReportWriting, models.PhaseReportRefinement:
		return l.artifacts.ReportBody
	default:
		return ""
	}
}

func (l *Laboratory) recordPhaseStart(phase models.Phase) {
	if l.opts.DB == nil || l.session == nil {
		return
	}
	_ = l.opts.DB.StartPhase(l.session.ID, phase.String())
}

func (l *Laboratory) recordPhaseDone(phase models.Phase, status string, stat models.PhaseStats) {
	if l.opts.DB == nil || l.session == nil {
		return
	}
	_ = l.opts.DB.CompletePhase(l.session.ID, phase.String(), status, stat.Seconds, stat.CostUSD)
	_ = l.opts.DB.RecordUsage(l.session.ID, l.cfg.Defaults.Model, stat.InputTokens, stat.OutputTokens)
}

func (l *Laboratory) completeSession(status string) {
	if l.opts.DB == nil || l.session == nil {
		return
	}
	_ = l.opts.DB.CompleteSession(l.session.ID, status)
}
