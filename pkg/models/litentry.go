package models

// LitEntry is a single reviewed paper in the literature review.
type LitEntry struct {
	// ArxivID identifies the paper (e.g. "2201.12345").
	ArxivID string `json:"arxiv_id"`
	// Summary is the agent-written summary of the paper.
	Summary string `json:"summary"`
	// FullText is the retrieved paper text, when available.
	FullText string `json:"full_text,omitempty"`
}

// PhaseStats aggregates resource usage for one completed phase.
type PhaseStats struct {
	Phase        Phase   `json:"phase"`
	Seconds      float64 `json:"seconds"`
	CostUSD      float64 `json:"cost_usd"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Steps        int     `json:"steps"`
}
