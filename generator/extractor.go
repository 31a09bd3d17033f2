package generator

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Extractor pulls learning outcomes and assessment methods out of syllabus
// text with one oracle call.
type Extractor struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewExtractor(llm LLMClient, logger *zap.Logger) (*Extractor, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{llm: llm, logger: logger}, nil
}

type extractionPayload struct {
	LearningOutcomes  []LearningOutcome  `json:"learning_outcomes"`
	AssessmentMethods []AssessmentMethod `json:"assessment_methods"`
}

// Extract never returns an error: oracle and parse failures come back as a
// result with Error set and empty lists. An empty outcome list is a valid
// result.
func (e *Extractor) Extract(ctx context.Context, text string) ExtractionResult {
	raw, err := e.llm.Complete(ctx, BuildExtractionPrompt(text))
	if err != nil {
		return e.fail(upstream("oracle call failed", err))
	}

	var payload extractionPayload
	if err := ParseModelJSON(raw, &payload); err != nil {
		return e.fail(upstream("invalid model response", err))
	}

	res := ExtractionResult{
		LearningOutcomes:  payload.LearningOutcomes,
		AssessmentMethods: payload.AssessmentMethods,
	}
	if res.LearningOutcomes == nil {
		res.LearningOutcomes = []LearningOutcome{}
	}
	if res.AssessmentMethods == nil {
		res.AssessmentMethods = []AssessmentMethod{}
	}
	e.logger.Info("extracted syllabus inventory",
		zap.Int("outcomes", len(res.LearningOutcomes)),
		zap.Int("assessments", len(res.AssessmentMethods)))
	return res
}

func (e *Extractor) fail(err error) ExtractionResult {
	e.logger.Warn("extraction failed", zap.Error(err))
	return ExtractionResult{
		LearningOutcomes:  []LearningOutcome{},
		AssessmentMethods: []AssessmentMethod{},
		Error:             err.Error(),
	}
}
