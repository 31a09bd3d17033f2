package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAILOGenerator(t *testing.T, llm LLMClient) *AILOGenerator {
	t.Helper()
	g, err := NewAILOGenerator(llm, zap.NewNop())
	require.NoError(t, err)
	return g
}

func outcomes(texts ...string) []LearningOutcome {
	out := make([]LearningOutcome, len(texts))
	for i, s := range texts {
		out[i] = LearningOutcome{Outcome: s, Confidence: ConfidenceHigh}
	}
	return out
}

func ailoJSON(pairs ...[2]string) string {
	items := make([]string, len(pairs))
	for i, p := range pairs {
		items[i] = fmt.Sprintf(`{
			"original_outcome": %q,
			"ailo": "Use AI tools to %s",
			"dec_dimension": %q,
			"assessment_strategy": {
				"method": "AI-assisted project",
				"description": "Students document their AI use.",
				"rubric_points": ["accuracy", "tool use", "verification"]
			},
			"explanation": "Fits the dimension."
		}`, p[0], strings.ToLower(p[0]), p[1])
	}
	return `{"ailos": [` + strings.Join(items, ",") + `]}`
}

func TestTargetCount(t *testing.T) {
	tests := []struct {
		n, pct, want int
	}{
		{10, 0, 1},
		{10, 50, 5},
		{10, 100, 10},
		{3, 10, 1},
		{4, 50, 2},
		{7, 33, 2},
		{1, 100, 1},
		{10, 150, 10},
		{10, -5, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d@%d", tt.n, tt.pct), func(t *testing.T) {
			assert.Equal(t, tt.want, TargetCount(tt.n, tt.pct))
		})
	}
}

func TestTargetCount_MonotonicAndPositive(t *testing.T) {
	for n := 1; n <= 25; n++ {
		prev := 0
		for pct := 0; pct <= 100; pct++ {
			got := TargetCount(n, pct)
			assert.GreaterOrEqual(t, got, 1)
			assert.GreaterOrEqual(t, got, prev, "n=%d pct=%d", n, pct)
			assert.LessOrEqual(t, got, n)
			prev = got
		}
	}
}

func TestGenerate_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		req  GenerationRequest
		want error
	}{
		{"no outcomes", GenerationRequest{SelectedDimensions: []string{"Using AI"}, InfluencePercent: 50}, ErrNoOutcomesProvided},
		{"no outcomes and no dimensions", GenerationRequest{}, ErrNoOutcomesProvided},
		{"no dimensions", GenerationRequest{Outcomes: outcomes("a"), InfluencePercent: 50}, ErrNoDimensionSelected},
		{"blank dimensions", GenerationRequest{Outcomes: outcomes("a"), SelectedDimensions: []string{" ", ""}}, ErrNoDimensionSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &ScriptedLLM{Responses: []string{ailoJSON()}}
			_, err := newAILOGenerator(t, llm).Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, llm.Calls())
		})
	}
}

func TestGenerate_FourOutcomesHalfInfluence(t *testing.T) {
	llm := &ScriptedLLM{Responses: []string{"```json\n" + ailoJSON(
		[2]string{"Analyze financial statements", "Using AI"},
		[2]string{"Prepare a budget", "Using AI"},
	) + "\n```"}}
	req := GenerationRequest{
		Outcomes:           outcomes("Analyze financial statements", "Prepare a budget", "Explain accrual accounting", "Present findings"),
		SelectedDimensions: []string{"Using AI"},
		InfluencePercent:   50,
	}

	res, err := newAILOGenerator(t, llm).Generate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, 1, llm.Calls())
	prompt := llm.Prompts()[0]
	assert.Equal(t, TaskGeneration, prompt.Task)
	assert.Contains(t, prompt.User, "2 out of 4")
	assert.Contains(t, prompt.User, "(about 50%)")
	assert.Contains(t, prompt.User, "- Analyze financial statements\n")
	assert.Contains(t, prompt.User, "- Present findings\n")
	assert.Contains(t, prompt.User, dimensionsMarker+" Using AI\n")
	assert.Contains(t, prompt.User, `"name": "Creating with AI"`)

	assert.False(t, res.Failed())
	assert.Equal(t, 2, res.TargetCount)
	require.Len(t, res.AILOs, 2)
	for _, a := range res.AILOs {
		assert.Equal(t, "Using AI", a.DECDimension)
		assert.Len(t, a.AssessmentStrategy.RubricPoints, 3)
	}
}

func TestGenerate_SoftTargetNotEnforced(t *testing.T) {
	llm := &ScriptedLLM{Responses: []string{ailoJSON(
		[2]string{"a", "Using AI"},
		[2]string{"b", "Using AI"},
		[2]string{"c", "Evaluating AI"},
	)}}
	req := GenerationRequest{
		Outcomes:           outcomes("a", "b", "c", "d"),
		SelectedDimensions: []string{"Using AI"},
		InfluencePercent:   0,
	}

	res, err := newAILOGenerator(t, llm).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TargetCount)
	assert.Len(t, res.AILOs, 3)
	assert.Contains(t, llm.Prompts()[0].User, "1 out of 4")
}

func TestGenerate_DimensionsCanonicalizedAndDeduplicated(t *testing.T) {
	llm := &ScriptedLLM{Responses: []string{ailoJSON()}}
	req := GenerationRequest{
		Outcomes:           outcomes("a"),
		SelectedDimensions: []string{"using ai", "Using AI", " Evaluating AI "},
		InfluencePercent:   100,
	}

	_, err := newAILOGenerator(t, llm).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, llm.Prompts()[0].User, dimensionsMarker+" Using AI, Evaluating AI\n")
}

func TestGenerate_MalformedOutput(t *testing.T) {
	llm := &ScriptedLLM{Responses: []string{"I could not do that."}}
	req := GenerationRequest{Outcomes: outcomes("a"), SelectedDimensions: []string{"Using AI"}, InfluencePercent: 50}

	res, err := newAILOGenerator(t, llm).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.NotNil(t, res.AILOs)
	assert.Empty(t, res.AILOs)
}

func TestGenerate_OracleFailure(t *testing.T) {
	llm := &ScriptedLLM{Err: errors.New("unauthenticated")}
	req := GenerationRequest{Outcomes: outcomes("a"), SelectedDimensions: []string{"Using AI"}, InfluencePercent: 50}

	res, err := newAILOGenerator(t, llm).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "unauthenticated")
	assert.Empty(t, res.AILOs)
}

func TestBuildAILOPrompt_FallbackDimensions(t *testing.T) {
	p := BuildAILOPrompt("{}", outcomes("a"), nil, 1, 50)
	assert.Contains(t, p.User, dimensionsMarker+" "+anyDimensions)
}

func TestUpstreamError(t *testing.T) {
	base := errors.New("boom")
	err := upstream("oracle call failed", base)
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "oracle call failed: boom", err.Error())
	assert.False(t, IsUpstream(base))
}
