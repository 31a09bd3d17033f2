package generator

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Confidence is the extractor's quality hint for an outcome. It is not a
// probability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// UnmarshalJSON lower-cases the value. Non-string values decode to "".
func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*c = ""
		return nil
	}
	*c = Confidence(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// Weight 是自由格式的评估权重，例如 "20%"。数字保留原文，其他非字符串值
// 保留紧凑的 JSON 文本。
type Weight string

func (w *Weight) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*w = Weight(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*w = Weight(n.String())
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		*w = ""
		return nil
	}
	*w = Weight(buf.String())
	return nil
}

// LearningOutcome is one course outcome, extracted or entered by a user.
// A bare JSON string decodes as the outcome text.
type LearningOutcome struct {
	Outcome    string     `json:"outcome"`
	Confidence Confidence `json:"confidence,omitempty"`
}

func (lo *LearningOutcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*lo = LearningOutcome{Outcome: s}
		return nil
	}
	type plain LearningOutcome
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*lo = LearningOutcome(p)
	return nil
}

// AssessmentMethod describes how a course assesses students. A bare JSON
// string decodes as the method.
type AssessmentMethod struct {
	Method      string `json:"method"`
	Description string `json:"description,omitempty"`
	Weight      Weight `json:"weight,omitempty"`
}

func (m *AssessmentMethod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = AssessmentMethod{Method: s}
		return nil
	}
	type plain AssessmentMethod
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = AssessmentMethod(p)
	return nil
}

// ExtractionResult holds the extracted inventory or, when Error is set, a
// failure with empty lists.
type ExtractionResult struct {
	LearningOutcomes  []LearningOutcome  `json:"learning_outcomes"`
	AssessmentMethods []AssessmentMethod `json:"assessment_methods"`
	Error             string             `json:"error,omitempty"`
}

// Failed reports whether the result is a failure marker.
func (r ExtractionResult) Failed() bool {
	return r.Error != ""
}

// ValidatedInventory is the human-approved inventory. Build it with Validate.
type ValidatedInventory struct {
	LearningOutcomes  []LearningOutcome  `json:"learning_outcomes"`
	AssessmentMethods []AssessmentMethod `json:"assessment_methods"`
	ValidatedAt       time.Time          `json:"validated_at"`
}

// AssessmentStrategy recommends how to assess one AILO.
type AssessmentStrategy struct {
	Method       string   `json:"method"`
	Description  string   `json:"description"`
	RubricPoints []string `json:"rubric_points"`
}

// AILO is an AI-enhanced learning outcome derived from one source outcome and
// one framework dimension.
type AILO struct {
	OriginalOutcome    string             `json:"original_outcome"`
	AILO               string             `json:"ailo"`
	DECDimension       string             `json:"dec_dimension"`
	AssessmentStrategy AssessmentStrategy `json:"assessment_strategy"`
	Explanation        string             `json:"explanation"`
}

// GenerationRequest scopes a single AILO generation call.
type GenerationRequest struct {
	Outcomes           []LearningOutcome
	SelectedDimensions []string
	InfluencePercent   int
}

// GenerationResult carries the AILOs, or an empty list and Error on an
// upstream failure.
type GenerationResult struct {
	AILOs       []AILO `json:"ailos"`
	TargetCount int    `json:"target_count"`
	Error       string `json:"error,omitempty"`
}

// Failed reports whether generation hit an upstream failure.
func (r GenerationResult) Failed() bool {
	return r.Error != ""
}

// GenerationRecord is the last generation kept for a session's export.
type GenerationRecord struct {
	SelectedDimensions []string         `json:"selected_dimensions"`
	InfluencePercent   int              `json:"ai_influence_percent"`
	Result             GenerationResult `json:"result"`
	CreatedAt          time.Time        `json:"created_at"`
}
