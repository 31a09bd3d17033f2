package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// MockLLM 一个简单的离线实现，便于本地调试，不调用外部模型。
// 输出和真实模型一样包在 ```json 代码块里。
type MockLLM struct{}

var (
	targetPattern = regexp.MustCompile(`approximately (\d+) out of`)
	weightPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)

	outcomeCues    = []string{" will ", "able to", "objective", "outcome:"}
	assessmentCues = []string{"exam", "quiz", "project", "assignment", "presentation", "participation", "paper", "essay"}
)

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var payload any
	switch prompt.Task {
	case TaskExtraction:
		payload = mockExtraction(section(prompt.User, syllabusMarker, "Only return valid JSON"))
	case TaskGeneration:
		payload = mockGeneration(prompt.User)
	default:
		return "", fmt.Errorf("mock llm: unknown task %q", prompt.Task)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return jsonFence + "\n" + string(data) + "\n" + bareFence, nil
}

func mockExtraction(syllabus string) ExtractionResult {
	res := ExtractionResult{LearningOutcomes: []LearningOutcome{}, AssessmentMethods: []AssessmentMethod{}}
	for _, line := range strings.Split(syllabus, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•0123456789.) "))
		if line == "" {
			continue
		}
		lower := " " + strings.ToLower(line) + " "
		if containsAny(lower, outcomeCues) {
			res.LearningOutcomes = append(res.LearningOutcomes, LearningOutcome{Outcome: line, Confidence: ConfidenceMedium})
			continue
		}
		if containsAny(lower, assessmentCues) {
			res.AssessmentMethods = append(res.AssessmentMethods, AssessmentMethod{
				Method:      line,
				Description: "Mentioned in the syllabus",
				Weight:      Weight(weightPattern.FindString(line)),
			})
		}
	}
	return res
}

func mockGeneration(user string) map[string][]AILO {
	var outcomes []string
	for _, line := range strings.Split(section(user, outcomesMarker, taskMarker), "\n") {
		if o, ok := strings.CutPrefix(strings.TrimSpace(line), "- "); ok {
			outcomes = append(outcomes, o)
		}
	}

	var dims []string
	for _, line := range strings.Split(user, "\n") {
		if d, ok := strings.CutPrefix(strings.TrimSpace(line), "- "+dimensionsMarker); ok {
			d = strings.TrimSpace(d)
			if d != anyDimensions {
				for _, name := range strings.Split(d, ",") {
					dims = append(dims, strings.TrimSpace(name))
				}
			}
			break
		}
	}
	if len(dims) == 0 {
		dims = []string{"Using AI"}
	}

	target := len(outcomes)
	if m := targetPattern.FindStringSubmatch(user); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n < target {
			target = n
		}
	}

	ailos := make([]AILO, 0, target)
	for i := 0; i < target; i++ {
		dim := dims[i%len(dims)]
		ailos = append(ailos, AILO{
			OriginalOutcome: outcomes[i],
			AILO:            fmt.Sprintf("%s, critically using AI tools and evaluating their outputs (%s).", strings.TrimRight(outcomes[i], ". "), dim),
			DECDimension:    dim,
			AssessmentStrategy: AssessmentStrategy{
				Method:      "AI-assisted project with reflection",
				Description: "Students complete the task with an AI assistant and submit a reflection on how they verified its output.",
				RubricPoints: []string{
					"Applies the core subject knowledge accurately",
					"Uses AI tools appropriately for the task",
					"Critically evaluates and verifies AI output",
				},
			},
			Explanation: fmt.Sprintf("The outcome lends itself to %q because students can practise the subject skill while reasoning about AI support.", dim),
		})
	}
	return map[string][]AILO{"ailos": ailos}
}

// section 取 start 首次出现之后、end 之前的文本。
func section(s, start, end string) string {
	_, after, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	before, _, _ := strings.Cut(after, end)
	return before
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ScriptedLLM 按顺序回放固定响应并记录每次提示词，可并发使用。
type ScriptedLLM struct {
	mu        sync.Mutex
	Responses []string
	Err       error // returned instead of a response when set
	prompts   []Prompt
}

func (s *ScriptedLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	if s.Err != nil {
		return "", s.Err
	}
	idx := len(s.prompts) - 1
	if idx >= len(s.Responses) {
		return "", errors.New("scripted llm: no response left")
	}
	return s.Responses[idx], nil
}

// Calls 返回 Complete 被调用的次数。
func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts 返回已记录提示词的副本。
func (s *ScriptedLLM) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
