// Package models defines core types shared across agentlab packages.
package models

import "fmt"

// Phase represents a stage of the research workflow.
type Phase string

const (
	// PhaseLiteratureReview surveys prior work on the research topic.
	PhaseLiteratureReview Phase = "literature-review"
	// PhasePlanFormulation produces the experiment plan.
	PhasePlanFormulation Phase = "plan-formulation"
	// PhaseDataPreparation writes the dataset loading code.
	PhaseDataPreparation Phase = "data-preparation"
	// PhaseRunningExperiments writes and runs the experiment code.
	PhaseRunningExperiments Phase = "running-experiments"
	// PhaseResultsInterpretation turns raw results into findings.
	PhaseResultsInterpretation Phase = "results-interpretation"
	// PhaseReportWriting produces the LaTeX report.
	PhaseReportWriting Phase = "report-writing"
	// PhaseReportRefinement revises the report from reviewer feedback.
	PhaseReportRefinement Phase = "report-refinement"
)

// AllPhases lists the workflow phases in execution order.
func AllPhases() []Phase {
	return []Phase{
		PhaseLiteratureReview,
		PhasePlanFormulation,
		PhaseDataPreparation,
		PhaseRunningExperiments,
		PhaseResultsInterpretation,
		PhaseReportWriting,
		PhaseReportRefinement,
	}
}

// ParsePhase converts a string to a Phase.
func ParsePhase(s string) (Phase, error) {
	for _, p := range AllPhases() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase: %q", s)
}

// Valid reports whether the phase is one of the known workflow phases.
func (p Phase) Valid() bool {
	_, err := ParsePhase(string(p))
	return err == nil
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// Title returns a human-readable title for the phase.
func (p Phase) Title() string {
	switch p {
	case PhaseLiteratureReview:
		return "Literature Review"
	case PhasePlanFormulation:
		return "Plan Formulation"
	case PhaseDataPreparation:
		return "Data Preparation"
	case PhaseRunningExperiments:
		return "Running Experiments"
	case PhaseResultsInterpretation:
		return "Results Interpretation"
	case PhaseReportWriting:
		return "Report Writing"
	case PhaseReportRefinement:
		return "Report Refinement"
	default:
		return string(p)
	}
}
