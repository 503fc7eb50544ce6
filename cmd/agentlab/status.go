package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentlaboratory/agentlab/internal/state"
	"github.com/agentlaboratory/agentlab/internal/textutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent research sessions",
	Long: `Display recent research sessions and their phase progress.

Shows each session's topic, status, per-phase outcomes, and token usage.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := openStateDB()
	if err != nil {
		fmt.Println("No sessions recorded yet. Run 'agentlab run <topic>' to start.")
		return nil
	}
	defer db.Close()

	sessions, err := db.ListSessions(5)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet. Run 'agentlab run <topic>' to start.")
		return nil
	}

	for _, s := range sessions {
		printSession(db, s)
		fmt.Println()
	}
	return nil
}

func printSession(db *state.DB, s *state.Session) {
	switch s.Status {
	case state.SessionActive:
		color.Cyan("%s  [active]", textutil.Truncate(s.Topic, 60))
	case state.SessionCompleted:
		color.Green("%s  [completed]", textutil.Truncate(s.Topic, 60))
	default:
		color.Red("%s  [%s]", textutil.Truncate(s.Topic, 60), s.Status)
	}
	fmt.Printf("  started %s  model %s\n", s.StartedAt.Format(time.DateTime), s.Model)

	phases, err := db.Phases(s.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  (phases unavailable: %v)\n", err)
		return
	}
	for _, p := range phases {
		mark := "·"
		if p.Status == "completed" {
			mark = "✓"
		} else if p.Status == "failed" {
			mark = "✗"
		}
		fmt.Printf("  %s %-24s %6.0fs  $%.4f\n", mark, p.Phase, p.Seconds, p.CostUSD)
	}

	in, out, err := db.SessionUsage(s.ID)
	if err == nil && (in > 0 || out > 0) {
		fmt.Printf("  tokens: %d in / %d out\n", in, out)
	}
}
