package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentlab",
	Short: "Autonomous research workflow orchestrator",
	Long: `Agentlab runs an autonomous research workflow on a topic you give it.

A team of model-driven agents (professor, postdoc, PhD student, ML engineer,
software engineer) carries the topic through seven phases:

  1. Literature review       survey prior work on arXiv
  2. Plan formulation        agree on an experiment plan
  3. Data preparation        write and verify dataset code
  4. Running experiments     iterate on experiment code until it scores well
  5. Results interpretation  distill what the results mean
  6. Report writing          draft a LaTeX paper
  7. Report refinement       revise from reviewer feedback

Artifacts (code, results, report) are written to the research directory,
and a resumable snapshot is saved after each phase.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
