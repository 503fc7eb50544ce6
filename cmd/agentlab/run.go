package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentlaboratory/agentlab/internal/config"
	"github.com/agentlaboratory/agentlab/internal/exec"
	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/internal/latex"
	"github.com/agentlaboratory/agentlab/internal/state"
	"github.com/agentlaboratory/agentlab/internal/tui"
	"github.com/agentlaboratory/agentlab/internal/workflow"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

var (
	runModel    string
	runHeadless bool
	runCopilot  bool
	runResume   string
	runNotes    string
	runPapers   int
	runSteps    int
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the research workflow on a topic",
	Long: `Run the full research workflow on the given topic.

The workflow walks through literature review, planning, data preparation,
experiments, interpretation, and report writing. Progress is shown in a
TUI by default; use --headless for plain output.

A snapshot is saved after each phase. Resume an interrupted run with:

  agentlab run --resume state_saves/plan-formulation.json "<topic>"

In copilot mode (--copilot) the workflow pauses after each phase and asks
for your feedback, which is handed to the agents going into the next
phase. Task notes can also be supplied in a YAML file (--notes); the file
is watched, so notes edited mid-run apply from the next phase on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "Model to use for all agents")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (plain output)")
	runCmd.Flags().BoolVar(&runCopilot, "copilot", false, "Pause for human feedback after each phase")
	runCmd.Flags().StringVar(&runResume, "resume", "", "Resume from a snapshot file")
	runCmd.Flags().StringVar(&runNotes, "notes", "", "Task notes YAML file (watched for changes)")
	runCmd.Flags().IntVar(&runPapers, "papers", 0, "Papers to collect in the literature review")
	runCmd.Flags().IntVar(&runSteps, "solver-steps", 0, "Experiment solver iterations")
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runModel != "" {
		cfg.Defaults.Model = runModel
	}
	if runCopilot {
		cfg.Defaults.CopilotMode = true
	}
	if runPapers > 0 {
		cfg.Defaults.NumPapersLitReview = runPapers
	}
	if runSteps > 0 {
		cfg.Defaults.SolverSteps = runSteps
	}
	if runNotes != "" {
		cfg.Research.NotesFile = runNotes
	}

	if !cfg.Anthropic.UseBedrock {
		if _, err := config.GetAPIKey(cfg); err != nil {
			return err
		}
	}

	backend, err := inference.NewClient(inference.ClientConfig{
		Model:         anthropic.Model(cfg.Defaults.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create inference client: %w", err)
	}

	db, err := openStateDB()
	if err != nil {
		color.Yellow("State database unavailable (%v); continuing without session tracking.", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	opts := workflow.Options{
		Config:   cfg,
		Backend:  backend,
		Topic:    topic,
		DB:       db,
		Compiler: latex.NewCompiler(exec.NewRunner(), cfg.Timeouts.Compile),
	}

	var watcher *workflow.NotesWatcher
	if cfg.Research.NotesFile != "" {
		if _, err := os.Stat(cfg.Research.NotesFile); err == nil {
			watcher, err = workflow.NewNotesWatcher(cfg.Research.NotesFile)
			if err != nil {
				return err
			}
			defer watcher.Close()
			opts.Notes = watcher.Notes()
		}
	}

	if copilotForcesHeadless(cfg.Defaults.CopilotMode, runHeadless) {
		color.Yellow("Copilot mode reads feedback from the terminal; running without the TUI.")
		runHeadless = true
	}
	if cfg.Defaults.CopilotMode {
		opts.HumanInput = promptHumanFeedback
	}

	// TUI hooks are bound after the program exists.
	var program *tea.Program
	opts.OnPhaseStart = func(phase models.Phase) {
		if program != nil {
			program.Send(tui.PhaseStartMsg{Phase: phase})
		}
	}
	opts.OnPhaseDone = func(stats models.PhaseStats) {
		if program != nil {
			program.Send(tui.PhaseDoneMsg{Stats: stats})
		}
	}

	lab, err := workflow.New(opts)
	if err != nil {
		return err
	}
	if watcher != nil {
		// Reloaded notes apply from the next phase on.
		watcher.OnChange(lab.SetNotes)
	}

	resumeAfter := models.Phase("")
	if runResume != "" {
		phase, err := lab.LoadState(runResume)
		if err != nil {
			return err
		}
		resumeAfter = phase
		color.Cyan("Resuming after %s.", phase.Title())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watcher != nil {
		go watcher.Start(ctx)
	}

	execute := func(ctx context.Context) error {
		if resumeAfter != "" {
			for _, p := range lab.ResumeFrom(resumeAfter) {
				if err := lab.RunPhase(ctx, p); err != nil {
					return err
				}
			}
			return nil
		}
		return lab.Run(ctx)
	}

	if runHeadless {
		return runHeadlessMode(ctx, lab, execute)
	}

	program = tea.NewProgram(tui.New(topic, lab.EnabledPhases()))
	go func() {
		err := execute(ctx)
		program.Send(tui.RunDoneMsg{Err: err})
	}()
	if _, err := program.Run(); err != nil {
		return err
	}
	printRunSummary(lab)
	return nil
}

// runHeadlessMode prints phase progress as plain text.
func runHeadlessMode(ctx context.Context, lab *workflow.Laboratory, execute func(context.Context) error) error {
	color.Cyan("Researching: %s", lab.Topic())

	start := time.Now()
	if err := execute(ctx); err != nil {
		color.Red("Run failed: %v", err)
		return err
	}

	color.Green("Run complete in %s.", time.Since(start).Round(time.Second))
	printRunSummary(lab)
	return nil
}

// printRunSummary reports per-phase time and cost after a run.
func printRunSummary(lab *workflow.Laboratory) {
	stats := lab.Stats()
	if len(stats) == 0 {
		return
	}
	total := 0.0
	fmt.Println()
	for _, s := range stats {
		fmt.Printf("  %-24s %6.0fs  $%.4f  (%d calls)\n", s.Phase.Title(), s.Seconds, s.CostUSD, s.Steps)
		total += s.CostUSD
	}
	fmt.Printf("  %-24s %8s  $%.4f\n", "total", "", total)
}

// copilotForcesHeadless reports whether a copilot run must drop the TUI so
// the feedback prompt can own the terminal.
func copilotForcesHeadless(copilot, headless bool) bool {
	return copilot && !headless
}

// promptHumanFeedback reads one line of feedback between phases.
func promptHumanFeedback(phase models.Phase, summary string) string {
	color.Cyan("\n%s complete.", phase.Title())
	if summary != "" {
		fmt.Println(summary)
	}
	fmt.Print("Feedback for the next phase (enter to skip): ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// openStateDB opens the project database, falling back to the global one.
func openStateDB() (*state.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		dbPath = state.GlobalDBPath()
	}
	db, err := state.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
