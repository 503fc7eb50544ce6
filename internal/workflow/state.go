package workflow

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/agentlaboratory/agentlab/internal/fileutil"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

// Snapshot is a resumable workflow state written after each phase.
type Snapshot struct {
	Topic     string              `json:"topic"`
	Model     string              `json:"model"`
	Phase     models.Phase        `json:"phase"`
	SavedAt   time.Time           `json:"saved_at"`
	Artifacts Artifacts           `json:"artifacts"`
	Stats     []models.PhaseStats `json:"stats"`
}

// SaveState writes a snapshot named after the phase that just completed.
func (l *Laboratory) SaveState(phase models.Phase) error {
	snap := Snapshot{
		Topic:     l.topic,
		Model:     l.cfg.Defaults.Model,
		Phase:     phase,
		SavedAt:   time.Now().UTC(),
		Artifacts: l.artifacts,
		Stats:     l.stats,
	}
	path := filepath.Join(l.cfg.Research.StateDir, string(phase)+".json")
	if err := fileutil.SaveJSON(path, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadState restores a snapshot into the laboratory so the workflow can
// resume from the phase after the one recorded.
func (l *Laboratory) LoadState(path string) (models.Phase, error) {
	var snap Snapshot
	if err := fileutil.LoadJSON(path, &snap); err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	if !snap.Phase.Valid() {
		return "", fmt.Errorf("snapshot %s has unknown phase %q", path, snap.Phase)
	}

	l.topic = snap.Topic
	l.artifacts = snap.Artifacts
	l.stats = snap.Stats
	l.litReview.Restore(snap.Artifacts.LitReview)
	if snap.Model != "" && snap.Model != l.cfg.Defaults.Model {
		l.SetModel(snap.Model)
	}
	return snap.Phase, nil
}

// ResumeFrom runs the phases that follow the given completed phase.
func (l *Laboratory) ResumeFrom(phase models.Phase) []models.Phase {
	var remaining []models.Phase
	seen := false
	for _, p := range models.AllPhases() {
		if seen && l.cfg.Phases.Enabled(p.String()) {
			remaining = append(remaining, p)
		}
		if p == phase {
			seen = true
		}
	}
	return remaining
}
