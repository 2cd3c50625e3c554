package domain

// RequirementAnalysis is the coverage verdict for a single requirement.
type RequirementAnalysis struct {
	Requirement string         `json:"requirement"`
	Covered     bool           `json:"covered"`
	Confidence  float64        `json:"confidence"` // best similarity, 0 when nothing found
	Summary     string         `json:"summary"`
	Sources     []AnswerSource `json:"sources"`
}

// CompletenessReport aggregates per-requirement coverage of the knowledge base.
type CompletenessReport struct {
	CompletenessPercentage float64               `json:"completeness_percentage"`
	TotalRequirements      int                   `json:"total_requirements"`
	CoveredCount           int                   `json:"covered_count"`
	Gaps                   []string              `json:"gaps"`
	DetailedAnalysis       []RequirementAnalysis `json:"detailed_analysis"`
}
