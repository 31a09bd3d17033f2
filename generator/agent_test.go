package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAgent_ExtractThenGenerateWithMock(t *testing.T) {
	agent, err := NewAgent(MockLLM{}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	syllabus := strings.Join([]string{
		"FIN 101 Syllabus",
		"Learning Outcomes",
		"1. Students will analyze financial statements.",
		"2. Students will be able to prepare a budget.",
		"Assessment",
		"- Midterm exam 30%",
		"- Group project 40%",
	}, "\n")

	ext := agent.Extract(ctx, syllabus)
	require.False(t, ext.Failed(), ext.Error)
	require.Len(t, ext.LearningOutcomes, 2)
	assert.Equal(t, "Students will analyze financial statements.", ext.LearningOutcomes[0].Outcome)
	require.Len(t, ext.AssessmentMethods, 2)
	assert.Equal(t, Weight("30%"), ext.AssessmentMethods[0].Weight)

	inv := Validate(ext.LearningOutcomes, ext.AssessmentMethods)
	res, err := agent.Generate(ctx, inv, []string{"Evaluating AI"}, 50)
	require.NoError(t, err)
	require.False(t, res.Failed(), res.Error)
	require.Len(t, res.AILOs, 1)
	assert.Equal(t, "Evaluating AI", res.AILOs[0].DECDimension)
	assert.Equal(t, "Students will analyze financial statements.", res.AILOs[0].OriginalOutcome)
}

func TestAgent_GenerateRejectsEmptyInventory(t *testing.T) {
	llm := &ScriptedLLM{}
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	_, err = agent.Generate(context.Background(), Validate(nil, nil), []string{"Using AI"}, 50)
	assert.ErrorIs(t, err, ErrNoOutcomesProvided)
	assert.Zero(t, llm.Calls())
}

func TestMockLLM_UnknownTask(t *testing.T) {
	_, err := MockLLM{}.Complete(context.Background(), Prompt{Task: "summarize"})
	assert.Error(t, err)
}

func TestMetrics_Instrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	llm := m.Instrument(&ScriptedLLM{Responses: []string{inventoryJSON}})

	ex, err := NewExtractor(llm, nil)
	require.NoError(t, err)
	ex.Extract(context.Background(), "a")
	ex.Extract(context.Background(), "b")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(TaskExtraction, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(TaskExtraction, "error")))
}
