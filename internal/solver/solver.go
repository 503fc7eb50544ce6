package solver

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/tools/executor"
)

// DefaultMaxSteps bounds the improvement loop.
const DefaultMaxSteps = 10

// repairAttempts bounds how many times a broken candidate is sent back to
// the model for fixing before the step is abandoned.
const repairAttempts = 2

// Config carries everything the solver needs to run.
type Config struct {
	Backend     inference.Backend
	Model       string
	DatasetCode string
	Plan        string
	Insights    string
	Notes       []string
	WorkDir     string
	MaxSteps    int
	Executor    *executor.Executor
}

// StepResult records one iteration of the loop.
type StepResult struct {
	Command  string
	Output   string
	Score    float64
	Executed bool
}

// Solution is the best program found by Solve.
type Solution struct {
	Code   string
	Output string
	Score  float64
	Steps  []StepResult
}

// MLESolver iteratively improves experiment code against a research plan.
type MLESolver struct {
	cfg      Config
	commands []Command

	codeLines  []string
	bestLines  []string
	bestOutput string
	bestScore  float64
}

// New creates a solver with the REPLACE and EDIT commands registered.
func New(cfg Config) (*MLESolver, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("solver: backend is required")
	}
	if cfg.Plan == "" {
		return nil, fmt.Errorf("solver: plan is required")
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Executor == nil {
		cfg.Executor = executor.New()
	}
	return &MLESolver{
		cfg:      cfg,
		commands: []Command{Replace{}, Edit{}},
	}, nil
}

// Code returns the current working program.
func (s *MLESolver) Code() string { return strings.Join(s.codeLines, "\n") }

// BestScore returns the highest score seen so far.
func (s *MLESolver) BestScore() float64 { return s.bestScore }

// SystemPrompt builds the instruction block sent with every query.
func (s *MLESolver) SystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert machine learning engineer working on a research experiment.\n\n")
	fmt.Fprintf(&b, "Research plan:\n%s\n\n", s.cfg.Plan)
	if s.cfg.Insights != "" {
		fmt.Fprintf(&b, "Insights from the literature:\n%s\n\n", s.cfg.Insights)
	}
	if len(s.cfg.Notes) > 0 {
		fmt.Fprintf(&b, "Task notes:\n- %s\n\n", strings.Join(s.cfg.Notes, "\n- "))
	}
	if s.cfg.DatasetCode != "" {
		fmt.Fprintf(&b, "The following dataset code is prepended to your program automatically; "+
			"do not repeat it:\n%s\n\n", s.cfg.DatasetCode)
	}
	b.WriteString("Improve the experiment code one command at a time.\n\n")
	b.WriteString(s.CommandDescriptions())
	return b.String()
}

// CommandDescriptions concatenates the docstrings of the registered commands.
func (s *MLESolver) CommandDescriptions() string {
	docs := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		docs = append(docs, c.Docstring())
	}
	return strings.Join(docs, "\n\n")
}

// numberedCode renders the working program with line indices for EDIT.
func (s *MLESolver) numberedCode() string {
	var b strings.Builder
	for i, line := range s.codeLines {
		fmt.Fprintf(&b, "%d %s\n", i, line)
	}
	return b.String()
}

// ProcessCommand applies the first matching command in the model response,
// executes the resulting program, and scores it. A response with no
// recognized command returns an error so the caller can re-prompt.
func (s *MLESolver) ProcessCommand(ctx context.Context, response string) (StepResult, error) {
	var matched Command
	for _, c := range s.commands {
		if c.Matches(response) {
			matched = c
			break
		}
	}
	if matched == nil {
		return StepResult{}, fmt.Errorf("response contains no recognized command")
	}

	lines, err := matched.Apply(s.codeLines, response)
	if err != nil {
		return StepResult{}, fmt.Errorf("apply %s: %w", matched.Name(), err)
	}

	res, err := s.execute(ctx, lines)
	if err != nil {
		return StepResult{}, err
	}
	step := StepResult{
		Command:  matched.Name(),
		Output:   res.Feedback(),
		Executed: true,
	}
	if !res.OK {
		return step, nil
	}

	score, err := ScoreProgram(ctx, s.cfg.Backend, s.cfg.Model, s.cfg.Plan, res.Output)
	if err != nil {
		return StepResult{}, err
	}
	step.Score = score

	s.codeLines = lines
	if score > s.bestScore || s.bestLines == nil {
		s.bestLines = append([]string(nil), lines...)
		s.bestOutput = res.Output
		s.bestScore = score
	}
	return step, nil
}

// execute runs the dataset code plus the candidate program.
func (s *MLESolver) execute(ctx context.Context, lines []string) (executor.Result, error) {
	program := strings.Join(lines, "\n")
	if s.cfg.DatasetCode != "" {
		program = s.cfg.DatasetCode + "\n\n" + program
	}
	res, err := s.cfg.Executor.Run(ctx, s.cfg.WorkDir, program)
	if err != nil {
		return executor.Result{}, fmt.Errorf("execute candidate: %w", err)
	}
	return res, nil
}

// Repair asks the model to fix a program that failed to run, feeding it the
// execution error verbatim.
func (s *MLESolver) Repair(ctx context.Context, code, errOutput string) (string, error) {
	prompt := fmt.Sprintf(
		"The following code failed to run.\n\nCode:\n%s\n\nError:\n%s\n\n"+
			"Return the corrected code using:\n```REPLACE\n<code here>\n```",
		code, errOutput)
	resp, err := inference.Query(ctx, s.cfg.Backend, inference.Request{
		Model:        s.cfg.Model,
		SystemPrompt: s.SystemPrompt(),
		Prompt:       prompt,
		Temperature:  0.2,
	})
	if err != nil {
		return "", fmt.Errorf("repair: %w", err)
	}
	lines, err := Replace{}.Apply(nil, resp)
	if err != nil {
		return "", fmt.Errorf("repair: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// InitialSolve asks the model for a first complete program and installs it
// as the working code.
func (s *MLESolver) InitialSolve(ctx context.Context) (StepResult, error) {
	prompt := "Write the first complete version of the experiment code. " +
		"Respond with a single REPLACE command."
	resp, err := inference.Query(ctx, s.cfg.Backend, inference.Request{
		Model:        s.cfg.Model,
		SystemPrompt: s.SystemPrompt(),
		Prompt:       prompt,
		Temperature:  0.7,
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("initial solve: %w", err)
	}
	return s.ProcessCommand(ctx, resp)
}

// Solve runs the full loop: an initial program followed by up to MaxSteps
// improvement iterations. Failed executions are routed through Repair before
// the step is given up.
func (s *MLESolver) Solve(ctx context.Context) (Solution, error) {
	steps := make([]StepResult, 0, s.cfg.MaxSteps+1)

	first, err := s.InitialSolve(ctx)
	if err != nil {
		return Solution{}, err
	}
	steps = append(steps, first)
	feedback := first.Output

	for i := 0; i < s.cfg.MaxSteps; i++ {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}

		prompt := fmt.Sprintf(
			"Current code:\n%s\nLast execution result:\n%s\n\n"+
				"Current best score: %.3f. Improve the code with one command.",
			s.numberedCode(), feedback, s.bestScore)

		resp, err := inference.Query(ctx, s.cfg.Backend, inference.Request{
			Model:        s.cfg.Model,
			SystemPrompt: s.SystemPrompt(),
			Prompt:       prompt,
			Temperature:  0.7,
		})
		if err != nil {
			return Solution{}, fmt.Errorf("solve step %d: %w", i+1, err)
		}

		step, err := s.ProcessCommand(ctx, resp)
		if err != nil {
			feedback = fmt.Sprintf("Command rejected: %v", err)
			continue
		}

		if step.Executed && step.Score == 0 && strings.HasPrefix(step.Output, "[CODE EXECUTION ERROR]") {
			step = s.tryRepair(ctx, step)
		}

		steps = append(steps, step)
		feedback = step.Output
	}

	if s.bestLines == nil {
		return Solution{}, fmt.Errorf("no working program found in %d steps", s.cfg.MaxSteps)
	}
	return Solution{
		Code:   strings.Join(s.bestLines, "\n"),
		Output: s.bestOutput,
		Score:  s.bestScore,
		Steps:  steps,
	}, nil
}

// tryRepair attempts to recover a failed step. On any repair failure the
// original step is returned unchanged.
func (s *MLESolver) tryRepair(ctx context.Context, failed StepResult) StepResult {
	code := s.Code()
	output := failed.Output
	for i := 0; i < repairAttempts; i++ {
		fixed, err := s.Repair(ctx, code, output)
		if err != nil {
			return failed
		}
		step, err := s.ProcessCommand(ctx, "```REPLACE\n"+fixed+"\n```")
		if err != nil {
			return failed
		}
		if !strings.HasPrefix(step.Output, "[CODE EXECUTION ERROR]") {
			return step
		}
		code, output = fixed, step.Output
	}
	return failed
}
