// Package paper implements the report writing loop. The model drafts a LaTeX
// paper section by section, then iteratively rewrites it through the same
// fenced REPLACE and EDIT commands the experiment solver uses, with each
// candidate checked for LaTeX sanity and scored by a reviewer model.
package paper

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/latex"
	"github.com/agentlaboratory/agentlab/internal/solver"
)

// DefaultMaxSteps bounds the refinement loop.
const DefaultMaxSteps = 10

// Sections lists the paper sections in writing order.
var Sections = []string{
	"abstract",
	"introduction",
	"related work",
	"background",
	"methods",
	"experimental setup",
	"results",
	"discussion",
}

// Config carries the research artifacts the paper is written from.
type Config struct {
	Backend    inference.Backend
	Model      string
	Topic      string
	Plan       string
	Insights   string
	LitReview  string
	ExpCode    string
	ExpResults string
	Notes      []string
	MaxSteps   int

	// Compiler, when set together with CompilePDF, gates candidate papers
	// on a successful pdflatex run.
	Compiler   *latex.Compiler
	WorkDir    string
	CompilePDF bool
}

// StepResult records one refinement iteration.
type StepResult struct {
	Command string
	Score   float64
	Note    string
}

// Draft is the best paper found by Solve.
type Draft struct {
	Body  string
	Score float64
	Steps []StepResult
}

// PaperSolver iteratively writes and refines the research paper.
type PaperSolver struct {
	cfg      Config
	commands []solver.Command

	paperLines []string
	bestLines  []string
	bestScore  float64
}

// New creates a paper solver.
func New(cfg Config) (*PaperSolver, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("paper: backend is required")
	}
	if cfg.Plan == "" {
		return nil, fmt.Errorf("paper: plan is required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &PaperSolver{
		cfg:      cfg,
		commands: []solver.Command{solver.Replace{}, solver.Edit{}},
	}, nil
}

// Body returns the current working paper body.
func (p *PaperSolver) Body() string { return strings.Join(p.paperLines, "\n") }

// BestScore returns the highest reviewer score seen so far.
func (p *PaperSolver) BestScore() float64 { return p.bestScore }

// SystemPrompt builds the instruction block. When section is non-empty the
// prompt targets drafting that single section.
func (p *PaperSolver) SystemPrompt(section string) string {
	var b strings.Builder
	b.WriteString("You are an expert academic writer preparing a research paper in LaTeX.\n\n")
	fmt.Fprintf(&b, "Topic: %s\n\n", p.cfg.Topic)
	fmt.Fprintf(&b, "Research plan:\n%s\n\n", p.cfg.Plan)
	if p.cfg.Insights != "" {
		fmt.Fprintf(&b, "Interpretation of results:\n%s\n\n", p.cfg.Insights)
	}
	if p.cfg.LitReview != "" {
		fmt.Fprintf(&b, "Literature review:\n%s\n\n", p.cfg.LitReview)
	}
	if p.cfg.ExpCode != "" {
		fmt.Fprintf(&b, "Experiment code:\n%s\n\n", p.cfg.ExpCode)
	}
	if p.cfg.ExpResults != "" {
		fmt.Fprintf(&b, "Experiment results:\n%s\n\n", p.cfg.ExpResults)
	}
	if len(p.cfg.Notes) > 0 {
		fmt.Fprintf(&b, "Task notes:\n- %s\n\n", strings.Join(p.cfg.Notes, "\n- "))
	}
	if section != "" {
		fmt.Fprintf(&b, "Write only the %s section now.\n\n", section)
	}
	b.WriteString("Write the paper body only; the document preamble is added later.\n\n")
	b.WriteString(p.CommandDescriptions())
	return b.String()
}

// CommandDescriptions concatenates the docstrings of the registered commands.
func (p *PaperSolver) CommandDescriptions() string {
	docs := make([]string, 0, len(p.commands))
	for _, c := range p.commands {
		docs = append(docs, c.Docstring())
	}
	return strings.Join(docs, "\n\n")
}

// numberedBody renders the working paper with line indices for EDIT.
func (p *PaperSolver) numberedBody() string {
	var b strings.Builder
	for i, line := range p.paperLines {
		fmt.Fprintf(&b, "%d %s\n", i, line)
	}
	return b.String()
}

// verify checks a candidate body before it can be scored. Environment
// balance is always required; a compile is added when configured.
func (p *PaperSolver) verify(ctx context.Context, lines []string) error {
	body := strings.Join(lines, "\n")
	if !latex.BalancedEnvironments(body) {
		return fmt.Errorf("unbalanced LaTeX environments")
	}
	if p.cfg.CompilePDF && p.cfg.Compiler != nil {
		doc := latex.WrapDocument(p.cfg.Topic, body)
		if _, err := p.cfg.Compiler.Compile(ctx, p.cfg.WorkDir, "draft", doc); err != nil {
			return err
		}
	}
	return nil
}

// ProcessCommand applies the first matching command, verifies the result,
// and scores it with the reviewer model.
func (p *PaperSolver) ProcessCommand(ctx context.Context, response string) (StepResult, error) {
	var matched solver.Command
	for _, c := range p.commands {
		if c.Matches(response) {
			matched = c
			break
		}
	}
	if matched == nil {
		return StepResult{}, fmt.Errorf("response contains no recognized command")
	}

	lines, err := matched.Apply(p.paperLines, response)
	if err != nil {
		return StepResult{}, fmt.Errorf("apply %s: %w", matched.Name(), err)
	}
	if err := p.verify(ctx, lines); err != nil {
		return StepResult{Command: matched.Name(), Note: err.Error()}, nil
	}

	score, err := p.score(ctx, strings.Join(lines, "\n"))
	if err != nil {
		return StepResult{}, err
	}

	p.paperLines = lines
	if score > p.bestScore || p.bestLines == nil {
		p.bestLines = append([]string(nil), lines...)
		p.bestScore = score
	}
	return StepResult{Command: matched.Name(), Score: score}, nil
}

// score asks the reviewer model to rate the paper from 0 to 1.
func (p *PaperSolver) score(ctx context.Context, body string) (float64, error) {
	prompt := fmt.Sprintf(
		"You are a conference reviewer. Rate how well this paper presents the research "+
			"plan and its results, from 0 to 1.\n\nResearch plan:\n%s\n\nPaper:\n%s\n\n"+
			"Respond with only a single number between 0 and 1.",
		p.cfg.Plan, body)

	text, err := inference.Query(ctx, p.cfg.Backend, inference.Request{
		Model:       p.cfg.Model,
		Prompt:      prompt,
		Temperature: 0.0,
		MaxTokens:   64,
	})
	if err != nil {
		return 0, fmt.Errorf("score paper: %w", err)
	}
	score, err := solver.ParseScore(text)
	if err != nil {
		return 0, fmt.Errorf("score paper: %w", err)
	}
	return score, nil
}

// InitialDraft asks the model for each section in order and installs the
// concatenation as the working paper.
func (p *PaperSolver) InitialDraft(ctx context.Context) error {
	var lines []string
	for _, section := range Sections {
		prompt := fmt.Sprintf("Write the %s section of the paper in LaTeX. "+
			"Respond with a single REPLACE command containing only that section.", section)
		resp, err := inference.Query(ctx, p.cfg.Backend, inference.Request{
			Model:        p.cfg.Model,
			SystemPrompt: p.SystemPrompt(section),
			Prompt:       prompt,
			Temperature:  0.7,
		})
		if err != nil {
			return fmt.Errorf("draft %s: %w", section, err)
		}
		sec, err := (solver.Replace{}).Apply(nil, resp)
		if err != nil {
			return fmt.Errorf("draft %s: %w", section, err)
		}
		lines = append(lines, sec...)
		lines = append(lines, "")
	}
	p.paperLines = lines
	return nil
}

// Solve drafts the paper and refines it for up to MaxSteps iterations,
// returning the highest scoring version.
func (p *PaperSolver) Solve(ctx context.Context) (Draft, error) {
	if err := p.InitialDraft(ctx); err != nil {
		return Draft{}, err
	}
	if err := p.verify(ctx, p.paperLines); err == nil {
		if score, serr := p.score(ctx, p.Body()); serr == nil {
			p.bestLines = append([]string(nil), p.paperLines...)
			p.bestScore = score
		}
	}

	steps := make([]StepResult, 0, p.cfg.MaxSteps)
	feedback := ""
	for i := 0; i < p.cfg.MaxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return Draft{}, err
		}

		prompt := fmt.Sprintf(
			"Current paper:\n%s\n%sCurrent best reviewer score: %.3f. "+
				"Improve the paper with one command.",
			p.numberedBody(), feedback, p.bestScore)

		resp, err := inference.Query(ctx, p.cfg.Backend, inference.Request{
			Model:        p.cfg.Model,
			SystemPrompt: p.SystemPrompt(""),
			Prompt:       prompt,
			Temperature:  0.7,
		})
		if err != nil {
			return Draft{}, fmt.Errorf("refine step %d: %w", i+1, err)
		}

		step, err := p.ProcessCommand(ctx, resp)
		if err != nil {
			feedback = fmt.Sprintf("Command rejected: %v\n", err)
			continue
		}
		steps = append(steps, step)
		if step.Note != "" {
			feedback = fmt.Sprintf("Candidate rejected: %s\n", step.Note)
		} else {
			feedback = ""
		}
	}

	if p.bestLines == nil {
		return Draft{}, fmt.Errorf("no valid paper produced in %d steps", p.cfg.MaxSteps)
	}
	return Draft{
		Body:  strings.Join(p.bestLines, "\n"),
		Score: p.bestScore,
		Steps: steps,
	}, nil
}

// Assemble wraps the best paper body into a complete LaTeX document.
func (p *PaperSolver) Assemble() string {
	body := p.Body()
	if p.bestLines != nil {
		body = strings.Join(p.bestLines, "\n")
	}
	return latex.WrapDocument(p.cfg.Topic, body)
}
