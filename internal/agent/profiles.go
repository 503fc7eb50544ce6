package agent

import (
	"fmt"

	"github.com/agentlaboratory/agentlab/pkg/models"
)

// Professor supervises the research and leads the report writing.
type Professor struct{}

func (Professor) Role() string { return "professor" }

func (Professor) Description() string {
	return "a computer science professor supervising a research project"
}

func (Professor) Phases() []models.Phase {
	return []models.Phase{models.PhaseReportWriting}
}

func (Professor) PhasePrompt(phase models.Phase) string {
	switch phase {
	case models.PhaseReportWriting:
		return "Direct the writing of the research paper. Instruct the PhD student " +
			"on structure, framing, and which results to emphasize."
	default:
		return defaultPhasePrompt(phase)
	}
}

// Postdoc guides planning and results interpretation.
type Postdoc struct{}

func (Postdoc) Role() string { return "postdoc" }

func (Postdoc) Description() string {
	return "a postdoctoral researcher guiding a PhD student through a research project"
}

func (Postdoc) Phases() []models.Phase {
	return []models.Phase{models.PhasePlanFormulation, models.PhaseResultsInterpretation}
}

func (Postdoc) PhasePrompt(phase models.Phase) string {
	switch phase {
	case models.PhasePlanFormulation:
		return "Work with the PhD student to produce a focused, feasible experiment plan. " +
			"When you are satisfied with the plan, state it inside a ```PLAN block."
	case models.PhaseResultsInterpretation:
		return "Discuss the experiment results with the PhD student and distill what they mean. " +
			"When you are satisfied, state the interpretation inside an ```INTERPRETATION block."
	default:
		return defaultPhasePrompt(phase)
	}
}

// PhDStudent carries the project through most phases.
type PhDStudent struct{}

func (PhDStudent) Role() string { return "phd student" }

func (PhDStudent) Description() string {
	return "a computer science PhD student conducting a research project"
}

func (PhDStudent) Phases() []models.Phase {
	return []models.Phase{
		models.PhaseLiteratureReview,
		models.PhasePlanFormulation,
		models.PhaseRunningExperiments,
		models.PhaseResultsInterpretation,
		models.PhaseReportWriting,
		models.PhaseReportRefinement,
	}
}

func (PhDStudent) PhasePrompt(phase models.Phase) string {
	switch phase {
	case models.PhaseLiteratureReview:
		return "Survey prior work relevant to the topic. To search, respond with " +
			"```SUMMARY\n<query>\n```. To read one paper, respond with ```FULL_TEXT\n<arxiv id>\n```. " +
			"To add a reviewed paper, respond with ```ADD_PAPER\n<arxiv id>\n<summary>\n```."
	case models.PhasePlanFormulation:
		return "Propose experiment directions to the postdoc and refine the plan together."
	case models.PhaseRunningExperiments:
		return "Work with the ML engineer to produce experiment code that realizes the plan."
	case models.PhaseResultsInterpretation:
		return "Explain the raw experiment results to the postdoc and work toward an interpretation."
	case models.PhaseReportWriting:
		return "Draft the research paper under the professor's direction."
	case models.PhaseReportRefinement:
		return "Revise the paper in response to the reviewer feedback. If the feedback does " +
			"not warrant another revision, say so plainly."
	default:
		return defaultPhasePrompt(phase)
	}
}

// MLEngineer writes the dataset and experiment code.
type MLEngineer struct{}

func (MLEngineer) Role() string { return "ml engineer" }

func (MLEngineer) Description() string {
	return "a machine learning engineer implementing research experiments"
}

func (MLEngineer) Phases() []models.Phase {
	return []models.Phase{models.PhaseDataPreparation, models.PhaseRunningExperiments}
}

func (MLEngineer) PhasePrompt(phase models.Phase) string {
	switch phase {
	case models.PhaseDataPreparation:
		return "Write code that loads and prepares the dataset the plan calls for. " +
			"Search for datasets with ```SEARCH_HF\n<query>\n``` and submit working code with " +
			"```SUBMIT_CODE\n<code>\n```."
	case models.PhaseRunningExperiments:
		return "Implement the experiments and iterate until the results support the plan."
	default:
		return defaultPhasePrompt(phase)
	}
}

// SWEngineer reviews the data preparation code.
type SWEngineer struct{}

func (SWEngineer) Role() string { return "sw engineer" }

func (SWEngineer) Description() string {
	return "a software engineer reviewing research code for correctness"
}

func (SWEngineer) Phases() []models.Phase {
	return []models.Phase{models.PhaseDataPreparation}
}

func (SWEngineer) PhasePrompt(phase models.Phase) string {
	switch phase {
	case models.PhaseDataPreparation:
		return "Review the ML engineer's dataset code. Point out bugs and omissions, " +
			"and push back until the code is correct."
	default:
		return defaultPhasePrompt(phase)
	}
}

func defaultPhasePrompt(phase models.Phase) string {
	return fmt.Sprintf("Contribute to the %s phase.", phase.Title())
}
