// Package agent implements the research agents that collaborate through the
// workflow phases. Each agent pairs a role profile with a shared dialogue
// engine that assembles prompts, tracks history under a token budget, and
// queries the model backend.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/inference"
	"github.com/agentlaboratory/agentlab/pkg/models"
)

// historyTokenBudget caps how much dialogue history rides along with each
// query. Oldest entries are dropped first.
const historyTokenBudget = 4096

// Note is a task note scoped to one or more phases.
type Note struct {
	Phases []models.Phase `yaml:"phases" json:"phases"`
	Note   string         `yaml:"note" json:"note"`
}

// NotesForPhase returns the note texts that apply to the given phase.
func NotesForPhase(notes []Note, phase models.Phase) []string {
	var out []string
	for _, n := range notes {
		for _, p := range n.Phases {
			if p == phase {
				out = append(out, n.Note)
				break
			}
		}
	}
	return out
}

// Profile defines a research role.
type Profile interface {
	// Role is the short role name used in logs and dialogue transcripts.
	Role() string
	// Description is the first-person role framing for the system prompt.
	Description() string
	// Phases lists the workflow phases this role participates in.
	Phases() []models.Phase
	// PhasePrompt states the role's objective during the given phase.
	PhasePrompt(phase models.Phase) string
}

// Agent is one research agent: a role profile plus dialogue state.
type Agent struct {
	profile Profile
	backend inference.Backend
	model   string
	notes   []Note

	history  []string
	prevComm string
}

// New creates an agent for the given role.
func New(profile Profile, backend inference.Backend, model string, notes []Note) *Agent {
	return &Agent{
		profile: profile,
		backend: backend,
		model:   model,
		notes:   notes,
	}
}

// Role returns the agent's role name.
func (a *Agent) Role() string { return a.profile.Role() }

// Profile returns the agent's role profile.
func (a *Agent) Profile() Profile { return a.profile }

// PrevComm returns the agent's most recent response.
func (a *Agent) PrevComm() string { return a.prevComm }

// Reset clears the dialogue state between phases.
func (a *Agent) Reset() {
	a.history = nil
	a.prevComm = ""
}

// HasPhase reports whether the agent's role participates in the phase.
func (a *Agent) HasPhase(phase models.Phase) bool {
	for _, p := range a.profile.Phases() {
		if p == phase {
			return true
		}
	}
	return false
}

// systemPrompt assembles the role framing, phase objective, and any task
// notes scoped to the phase.
func (a *Agent) systemPrompt(topic string, phase models.Phase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n\n", a.profile.Description())
	fmt.Fprintf(&b, "Research topic: %s\n\n", topic)
	fmt.Fprintf(&b, "Current phase: %s.\n%s\n", phase.Title(), a.profile.PhasePrompt(phase))
	if notes := NotesForPhase(a.notes, phase); len(notes) > 0 {
		fmt.Fprintf(&b, "\nTask notes:\n- %s\n", strings.Join(notes, "\n- "))
	}
	return b.String()
}

// Inference runs one dialogue step: context and feedback in, the agent's
// response out. The exchange is appended to history.
func (a *Agent) Inference(ctx context.Context, topic string, phase models.Phase, step int, feedback string) (string, error) {
	var b strings.Builder
	if h := a.historyText(); h != "" {
		fmt.Fprintf(&b, "Dialogue so far:\n%s\n", h)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "%s\n\n", feedback)
	}
	fmt.Fprintf(&b, "[Step %d] Respond as the %s.", step, a.profile.Role())

	resp, err := inference.Query(ctx, a.backend, inference.Request{
		Model:        a.model,
		SystemPrompt: a.systemPrompt(topic, phase),
		Prompt:       b.String(),
		Temperature:  0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%s inference: %w", a.profile.Role(), err)
	}

	a.prevComm = resp
	a.appendHistory(fmt.Sprintf("[%s, step %d]: %s", a.profile.Role(), step, resp))
	return resp, nil
}

// appendHistory records an entry and drops the oldest entries while the
// history exceeds the token budget. Counting is tokenizer-accurate when the
// encoding is available.
func (a *Agent) appendHistory(entry string) {
	a.history = append(a.history, entry)
	for len(a.history) > 1 && inference.CountTokens(a.historyText()) > historyTokenBudget {
		a.history = a.history[1:]
	}
}

func (a *Agent) historyText() string {
	return strings.Join(a.history, "\n")
}
