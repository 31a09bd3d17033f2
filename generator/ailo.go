package generator

import (
	"context"
	"errors"
	"strings"

	"ailo_generator/framework"

	"go.uber.org/zap"
)

// AILOGenerator rewrites a share of validated outcomes into AILOs.
type AILOGenerator struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewAILOGenerator(llm LLMClient, logger *zap.Logger) (*AILOGenerator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AILOGenerator{llm: llm, logger: logger}, nil
}

// TargetCount is max(1, floor(n*percent/100)). The count is a hint for the
// oracle; 0% still asks for one outcome.
func TargetCount(n, percent int) int {
	percent = clampPercent(percent)
	if c := n * percent / 100; c > 1 {
		return c
	}
	return 1
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Generate validates req, asks the oracle for AILOs and parses them. Input
// problems return ErrNoOutcomesProvided or ErrNoDimensionSelected before any
// oracle call. Oracle and parse failures are reported in the result's Error
// with an empty AILO list and a nil error.
func (g *AILOGenerator) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if len(req.Outcomes) == 0 {
		return GenerationResult{}, ErrNoOutcomesProvided
	}
	dims := CanonicalDimensions(req.SelectedDimensions)
	if len(dims) == 0 {
		return GenerationResult{}, ErrNoDimensionSelected
	}

	percent := clampPercent(req.InfluencePercent)
	target := TargetCount(len(req.Outcomes), percent)
	prompt := BuildAILOPrompt(framework.JSON(), req.Outcomes, dims, target, percent)

	raw, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return g.fail(target, upstream("oracle call failed", err)), nil
	}

	var payload struct {
		AILOs []AILO `json:"ailos"`
	}
	if err := ParseModelJSON(raw, &payload); err != nil {
		return g.fail(target, upstream("invalid model response", err)), nil
	}
	if payload.AILOs == nil {
		payload.AILOs = []AILO{}
	}

	g.checkAlignment(payload.AILOs, req.Outcomes, dims)
	g.logger.Info("generated AILOs",
		zap.Int("outcomes", len(req.Outcomes)),
		zap.Int("target", target),
		zap.Int("returned", len(payload.AILOs)),
		zap.Strings("dimensions", dims))

	return GenerationResult{AILOs: payload.AILOs, TargetCount: target}, nil
}

func (g *AILOGenerator) fail(target int, err error) GenerationResult {
	g.logger.Warn("AILO generation failed", zap.Error(err))
	return GenerationResult{AILOs: []AILO{}, TargetCount: target, Error: err.Error()}
}

// checkAlignment logs AILOs that stray from the selected dimensions or the
// supplied outcomes. They are kept as returned.
func (g *AILOGenerator) checkAlignment(ailos []AILO, outcomes []LearningOutcome, dims []string) {
	known := make(map[string]bool, len(outcomes))
	for _, lo := range outcomes {
		known[normalizeText(lo.Outcome)] = true
	}
	for i, a := range ailos {
		if !containsFold(dims, a.DECDimension) {
			g.logger.Warn("AILO uses an unselected dimension",
				zap.Int("index", i), zap.String("dimension", a.DECDimension))
		}
		if !known[normalizeText(a.OriginalOutcome)] {
			g.logger.Warn("AILO source outcome not among validated outcomes",
				zap.Int("index", i), zap.String("original_outcome", a.OriginalOutcome))
		}
		if len(a.AssessmentStrategy.RubricPoints) < 3 {
			g.logger.Warn("AILO rubric has fewer than three criteria",
				zap.Int("index", i), zap.Int("rubric_points", len(a.AssessmentStrategy.RubricPoints)))
		}
	}
}

// CanonicalDimensions trims, drops blanks and case-insensitive duplicates,
// and maps names onto their framework spelling when known.
func CanonicalDimensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if d, ok := framework.Lookup(name); ok {
			name = d.Name
		}
		if !containsFold(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
