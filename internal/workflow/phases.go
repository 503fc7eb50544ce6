package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/agent"
	"github.com/agentlaboratory/agentlab/internal/fileutil"
	"github.com/agentlaboratory/agentlab/internal/paper"
	"github.com/agentlaboratory/agentlab/internal/solver"
	"github.com/agentlaboratory/agentlab/internal/textutil"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

// literatureReview drives the PhD student through search, read, and add
// commands until enough papers are collected.
func (l *Laboratory) literatureReview(ctx context.Context) error {
	phase := models.PhaseLiteratureReview
	maxSteps := l.cfg.Defaults.NumPapersLitReview * 5
	if maxSteps < maxDialogueSteps {
		maxSteps = maxDialogueSteps
	}

	feedback := l.feedback
	for step := 1; step <= maxSteps && !l.litReview.Full(); step++ {
		prompt := strings.TrimSpace(feedback + "\n\n" + l.litReview.Format())
		resp, err := l.phd.Inference(ctx, l.topic, phase, step, prompt)
		if err != nil {
			return err
		}

		switch {
		case hasFence(resp, "SUMMARY"):
			query, _ := textutil.ExtractFenced(resp, "SUMMARY")
			papers, err := l.opts.Searcher.Search(ctx, query, 10)
			if err != nil {
				feedback = fmt.Sprintf("Search failed: %v", err)
				continue
			}
			var b strings.Builder
			b.WriteString("Search results:\n")
			for _, p := range papers {
				fmt.Fprintf(&b, "- %s: %s\n  %s\n", p.ID, p.Title, textutil.Truncate(p.Summary, 300))
			}
			feedback = b.String()

		case hasFence(resp, "FULL_TEXT"):
			id, _ := textutil.ExtractFenced(resp, "FULL_TEXT")
			text, err := l.opts.Fetcher.FullText(ctx, strings.TrimSpace(id))
			if err != nil {
				feedback = fmt.Sprintf("Could not retrieve %s: %v", id, err)
				continue
			}
			feedback = fmt.Sprintf("Paper %s:\n%s", strings.TrimSpace(id), text)

		case hasFence(resp, "ADD_PAPER"):
			body, _ := textutil.ExtractFenced(resp, "ADD_PAPER")
			msg, err := l.litReview.Add(ctx, body, l.opts.Fetcher)
			if err != nil {
				feedback = fmt.Sprintf("Could not add paper: %v", err)
				continue
			}
			feedback = msg

		default:
			feedback = "Respond with a SUMMARY, FULL_TEXT, or ADD_PAPER command."
		}
	}

	if l.litReview.Len() == 0 {
		return fmt.Errorf("no papers collected in %d steps", maxSteps)
	}
	l.artifacts.LitReview = l.litReview.Entries()
	return nil
}

// planFormulation runs a PhD student and postdoc dialogue until the postdoc
// commits to a plan.
func (l *Laboratory) planFormulation(ctx context.Context) error {
	phase := models.PhasePlanFormulation
	feedback := strings.TrimSpace(l.feedback + "\n\n" + l.litReview.Format())

	for step := 1; step <= maxDialogueSteps; step++ {
		proposal, err := l.phd.Inference(ctx, l.topic, phase, step, feedback)
		if err != nil {
			return err
		}
		reply, err := l.postdoc.Inference(ctx, l.topic, phase, step, proposal)
		if err != nil {
			return err
		}
		if plan, ok := textutil.ExtractFenced(reply, "PLAN"); ok {
			l.artifacts.Plan = plan
			return nil
		}
		feedback = reply
	}
	return fmt.Errorf("no plan agreed in %d steps", maxDialogueSteps)
}

// dataPreparation has the ML engineer produce working dataset code, with
// the software engineer reviewing proposals along the way.
func (l *Laboratory) dataPreparation(ctx context.Context) error {
	phase := models.PhaseDataPreparation
	feedback := strings.TrimSpace(l.feedback + "\n\nExperiment plan:\n" + l.artifacts.Plan)

	for step := 1; step <= maxDialogueSteps; step++ {
		resp, err := l.mle.Inference(ctx, l.topic, phase, step, feedback)
		if err != nil {
			return err
		}

		switch {
		case hasFence(resp, "SEARCH_HF"):
			query, _ := textutil.ExtractFenced(resp, "SEARCH_HF")
			datasets, err := l.opts.Datasets.Search(ctx, query, 5)
			if err != nil {
				feedback = fmt.Sprintf("Dataset search failed: %v", err)
				continue
			}
			var b strings.Builder
			b.WriteString("Datasets found:\n")
			for _, d := range datasets {
				fmt.Fprintf(&b, "- %s (%d downloads): %s\n", d.ID, d.Downloads, textutil.Truncate(d.Description, 200))
			}
			feedback = b.String()

		case hasFence(resp, "SUBMIT_CODE"):
			code, _ := textutil.ExtractFenced(resp, "SUBMIT_CODE")
			res, err := l.opts.Executor.Run(ctx, l.cfg.Research.Dir, code)
			if err != nil {
				return err
			}
			if !res.OK {
				feedback = res.Feedback()
				continue
			}
			l.artifacts.DatasetCode = code
			return nil

		default:
			critique, err := l.swe.Inference(ctx, l.topic, phase, step, resp)
			if err != nil {
				return err
			}
			feedback = critique
		}
	}
	return fmt.Errorf("no working dataset code in %d steps", maxDialogueSteps)
}

// runningExperiments hands the plan and dataset code to the experiment
// solver and records the best program and its output.
func (l *Laboratory) runningExperiments(ctx context.Context) error {
	s, err := solver.New(solver.Config{
		Backend:     l.opts.Backend,
		Model:       l.cfg.Defaults.Model,
		DatasetCode: l.artifacts.DatasetCode,
		Plan:        l.artifacts.Plan,
		Insights:    l.litReview.Format(),
		Notes:       agent.NotesForPhase(l.opts.Notes, models.PhaseRunningExperiments),
		WorkDir:     l.cfg.Research.Dir,
		MaxSteps:    l.cfg.Defaults.SolverSteps,
		Executor:    l.opts.Executor,
	})
	if err != nil {
		return err
	}

	sol, err := s.Solve(ctx)
	if err != nil {
		return err
	}
	l.artifacts.ExpCode = sol.Code
	l.artifacts.ExpResults = sol.Output

	if l.cfg.Research.Dir != "" {
		if err := fileutil.WriteText(filepath.Join(l.cfg.Research.Dir, "experiment.py"), sol.Code); err != nil {
			return err
		}
		if err := fileutil.WriteText(filepath.Join(l.cfg.Research.Dir, "results.txt"), sol.Output); err != nil {
			return err
		}
	}
	return nil
}

// resultsInterpretation runs a PhD student and postdoc dialogue until the
// postdoc commits to an interpretation of the results.
func (l *Laboratory) resultsInterpretation(ctx context.Context) error {
	phase := models.PhaseResultsInterpretation
	feedback := strings.TrimSpace(l.feedback + "\n\nExperiment results:\n" + l.artifacts.ExpResults)

	for step := 1; step <= maxDialogueSteps; step++ {
		reading, err := l.phd.Inference(ctx, l.topic, phase, step, feedback)
		if err != nil {
			return err
		}
		reply, err := l.postdoc.Inference(ctx, l.topic, phase, step, reading)
		if err != nil {
			return err
		}
		if interp, ok := textutil.ExtractFenced(reply, "INTERPRETATION"); ok {
			l.artifacts.Interpretation = interp
			return nil
		}
		feedback = reply
	}
	return fmt.Errorf("no interpretation agreed in %d steps", maxDialogueSteps)
}

// reportWriting runs the paper solver over the accumulated artifacts and
// writes the report to the research directory.
func (l *Laboratory) reportWriting(ctx context.Context) error {
	p, err := paper.New(paper.Config{
		Backend:    l.opts.Backend,
		Model:      l.cfg.Defaults.Model,
		Topic:      l.topic,
		Plan:       l.artifacts.Plan,
		Insights:   l.artifacts.Interpretation,
		LitReview:  l.litReview.Format(),
		ExpCode:    l.artifacts.ExpCode,
		ExpResults: l.artifacts.ExpResults,
		Notes:      agent.NotesForPhase(l.opts.Notes, models.PhaseReportWriting),
		MaxSteps:   l.cfg.Defaults.PaperSteps,
		Compiler:   l.opts.Compiler,
		WorkDir:    l.cfg.Research.Dir,
		CompilePDF: l.opts.Compiler != nil && l.opts.Compiler.Available(),
	})
	if err != nil {
		return err
	}

	draft, err := p.Solve(ctx)
	if err != nil {
		return err
	}
	l.artifacts.ReportBody = draft.Body

	if l.cfg.Research.Dir != "" {
		doc := p.Assemble()
		if err := fileutil.WriteText(filepath.Join(l.cfg.Research.Dir, "report.tex"), doc); err != nil {
			return err
		}
	}
	return nil
}

// reportRefinement collects reviews and lets the PhD student decide whether
// the paper needs another writing pass.
func (l *Laboratory) reportRefinement(ctx context.Context) error {
	phase := models.PhaseReportRefinement

	reviews, avg, err := agent.ReviewPaper(ctx, l.opts.Backend, l.cfg.Defaults.Model, l.artifacts.ReportBody)
	if err != nil {
		return err
	}
	l.reviews = reviews
	l.artifacts.ReviewScore = avg

	decision, err := l.phd.Inference(ctx, l.topic, phase, 1, agent.FormatReviews(reviews))
	if err != nil {
		return err
	}

	if strings.Contains(strings.ToLower(decision), "revise") {
		for _, r := range reviews {
			l.opts.Notes = append(l.opts.Notes, agent.Note{
				Phases: []models.Phase{models.PhaseReportWriting},
				Note:   textutil.Truncate(r.Comment, 1000),
			})
		}
		return l.reportWriting(ctx)
	}
	return nil
}

func hasFence(text, tag string) bool {
	return strings.Contains(text, "```"+tag)
}
