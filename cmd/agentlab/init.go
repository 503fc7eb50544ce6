package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

const exampleProjectConfig = `# agentlab project configuration
defaults:
  model: claude-sonnet-4-20250514
  num_papers_lit_review: 5
  solver_steps: 6
  paper_steps: 4

research:
  dir: research_dir
  notes_file: notes.yaml
  state_dir: state_saves

# Disable phases by setting them to false.
phases:
  literature_review: true
  plan_formulation: true
  data_preparation: true
  running_experiments: true
  results_interpretation: true
  report_writing: true
  report_refinement: true
`

const exampleNotes = `# Task notes handed to the agents, scoped by phase.
# The file is watched during a run; edits apply from the next phase on.
- phases: [literature-review]
  note: Prefer papers from the last three years.
- phases: [data-preparation, running-experiments]
  note: Keep dataset sizes small enough for quick iteration.
`

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a research project",
	Long: `Initialize a directory for use with agentlab.

Creates a project configuration file (.agentlab.yaml), an example notes
file, and the research output directories.

The directory argument is optional and defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing project files")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{".agentlab.yaml", exampleProjectConfig},
		{"notes.yaml", exampleNotes},
	}
	for _, f := range files {
		path := filepath.Join(absPath, f.name)
		if _, err := os.Stat(path); err == nil && !initForce {
			color.Yellow("%s already exists, skipping (use --force to overwrite)", f.name)
			continue
		}
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		color.Green("Created %s", f.name)
	}

	for _, dir := range []string{"research_dir", "state_saves"} {
		if err := os.MkdirAll(filepath.Join(absPath, dir), 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	color.Green("Created research_dir/ and state_saves/")

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your API key:  export ANTHROPIC_API_KEY=sk-ant-...")
	fmt.Println("  2. Start a run:       agentlab run \"<research topic>\"")
	return nil
}
