package generator

import "time"

// Validate marks a user-corrected inventory as authoritative. Content is not
// checked and empty lists are allowed.
func Validate(outcomes []LearningOutcome, assessments []AssessmentMethod) ValidatedInventory {
	inv := ValidatedInventory{
		LearningOutcomes:  make([]LearningOutcome, len(outcomes)),
		AssessmentMethods: make([]AssessmentMethod, len(assessments)),
		ValidatedAt:       time.Now().UTC(),
	}
	copy(inv.LearningOutcomes, outcomes)
	copy(inv.AssessmentMethods, assessments)
	return inv
}

// Request builds a generation request that reads outcomes from inv only.
func (inv ValidatedInventory) Request(dimensions []string, influencePercent int) GenerationRequest {
	return GenerationRequest{
		Outcomes:           append([]LearningOutcome(nil), inv.LearningOutcomes...),
		SelectedDimensions: append([]string(nil), dimensions...),
		InfluencePercent:   influencePercent,
	}
}
