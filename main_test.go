package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ailo_generator/config"
	"ailo_generator/generator"
	"ailo_generator/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildLLM(t *testing.T) {
	ctx := context.Background()

	llm, err := buildLLM(ctx, config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)

	llm, err = buildLLM(ctx, config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &generator.OpenAILLM{}, llm)

	_, err = buildLLM(ctx, config.LLMConfig{Provider: "deepseek"})
	assert.ErrorContains(t, err, "base_url")

	_, err = buildLLM(ctx, config.LLMConfig{Provider: "claude"})
	assert.ErrorContains(t, err, "not supported")

	_, err = buildLLM(ctx, config.LLMConfig{})
	assert.Error(t, err)
}

func TestBuildStore(t *testing.T) {
	st, err := buildStore(config.SessionConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	st, err = buildStore(config.SessionConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = buildStore(config.SessionConfig{Backend: "redis"})
	assert.Error(t, err)
}

func TestFrameworkCommand(t *testing.T) {
	out, err := run(t, "framework", "--config", writeFile(t, "c.yaml", "llm:\n  provider: mock\n"))
	require.NoError(t, err)

	var fw struct {
		Dimensions []struct {
			Name string `json:"name"`
		} `json:"dimensions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fw))
	assert.Len(t, fw.Dimensions, 5)
}

func TestExtractAndGenerateCommands(t *testing.T) {
	cfgPath := writeFile(t, "c.yaml", "llm:\n  provider: mock\nlog:\n  level: error\n")
	syllabus := writeFile(t, "fin101.txt", `FIN 101
Students will analyze financial statements.
Students will be able to prepare a budget.
Final exam 40%
`)

	out, err := run(t, "extract", syllabus, "-c", cfgPath)
	require.NoError(t, err)
	var res generator.ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.LearningOutcomes, 2)
	require.NotEmpty(t, res.AssessmentMethods)

	inventory := writeFile(t, "inventory.json", out)
	out, err = run(t, "generate", "-c", cfgPath, "-i", inventory, "-d", "Using AI", "-p", "100")
	require.NoError(t, err)
	var gen generator.GenerationResult
	require.NoError(t, json.Unmarshal([]byte(out), &gen))
	assert.Equal(t, 2, gen.TargetCount)
	require.Len(t, gen.AILOs, 2)
	for _, a := range gen.AILOs {
		assert.Equal(t, "Using AI", a.DECDimension)
	}
}

func TestGenerateCommand_NoDimension(t *testing.T) {
	cfgPath := writeFile(t, "c.yaml", "llm:\n  provider: mock\n")
	inventory := writeFile(t, "inventory.json", `{"learning_outcomes": [{"outcome": "Analyze data"}]}`)
	_, err := run(t, "generate", "-c", cfgPath, "-i", inventory)
	assert.ErrorIs(t, err, generator.ErrNoDimensionSelected)
}
