package generator

import (
	"fmt"
	"strings"
)

// Prompt tasks, used for metrics labels and the offline mock.
const (
	TaskExtraction = "extraction"
	TaskGeneration = "generation"
)

// Markers shared by the prompt builders and MockLLM.
const (
	syllabusMarker   = "Syllabus text:"
	outcomesMarker   = "Existing course learning outcomes:"
	taskMarker       = "TASK:"
	dimensionsMarker = "Focus on incorporating these DEC dimensions:"
	anyDimensions    = "any relevant dimensions"
)

// Prompt 表示发送给 LLM 的一次请求。
type Prompt struct {
	Task   string
	System string
	User   string
}

const jsonOnlySystem = "You respond with a single valid JSON object and no additional text."

// BuildExtractionPrompt 生成抽取学习成果和考核方式的提示词。
func BuildExtractionPrompt(syllabusText string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert educational content analyst. Analyze the following syllabus and extract:\n\n")
	sb.WriteString("1. All learning outcomes (also look for objectives, goals, or competencies)\n")
	sb.WriteString("2. All assessment methods mentioned (exams, projects, assignments, presentations, etc.)\n\n")
	sb.WriteString("Return your response in the following JSON format:\n")
	sb.WriteString(`{
    "learning_outcomes": [
        {"outcome": "specific learning outcome text", "confidence": "high|medium|low"}
    ],
    "assessment_methods": [
        {"method": "assessment method", "description": "brief description", "weight": "percentage if mentioned"}
    ]
}`)
	sb.WriteString("\n\n")
	sb.WriteString(syllabusMarker)
	sb.WriteString("\n")
	sb.WriteString(syllabusText)
	sb.WriteString("\n\nOnly return valid JSON, no additional text.\n")

	return Prompt{Task: TaskExtraction, System: jsonOnlySystem, User: sb.String()}
}

// BuildAILOPrompt 生成 AILO 提示词：按所选维度改写约 target 条学习成果。
func BuildAILOPrompt(frameworkJSON string, outcomes []LearningOutcome, dimensions []string, target, percent int) Prompt {
	dimensionsText := strings.Join(dimensions, ", ")
	if dimensionsText == "" {
		dimensionsText = anyDimensions
	}

	var sb strings.Builder
	sb.WriteString("You are an AI literacy expert familiar with the Digital Education Council (DEC) AI Literacy Framework.\n\n")
	sb.WriteString("DEC AI Literacy Framework:\n")
	sb.WriteString(frameworkJSON)
	sb.WriteString("\n\n")
	sb.WriteString(outcomesMarker)
	sb.WriteString("\n")
	for _, lo := range outcomes {
		sb.WriteString(fmt.Sprintf("- %s\n", lo.Outcome))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s Transform approximately %d out of %d learning outcomes (about %d%%) into AI-enhanced learning outcomes (AILOs).\n\n",
		taskMarker, target, len(outcomes), percent))
	sb.WriteString("CONSTRAINTS:\n")
	sb.WriteString(fmt.Sprintf("- %s %s\n", dimensionsMarker, dimensionsText))
	sb.WriteString("- For each AILO you create:\n")
	sb.WriteString("  1. Choose an existing learning outcome that would benefit most from AI literacy integration\n")
	sb.WriteString("  2. Determine which selected DEC dimension BEST fits; use exactly one of the selected dimensions\n")
	sb.WriteString("  3. REWRITE it to integrate AI literacy concepts while maintaining the core subject matter\n")
	sb.WriteString("  4. Recommend specific assessment methods to evaluate this AILO, with at least three rubric criteria\n")
	sb.WriteString("  5. Explain WHY and HOW the DEC framework influenced this transformation\n")
	sb.WriteString("- Transform each existing learning outcome at most once\n\n")
	sb.WriteString("Return your response in the following JSON format:\n")
	sb.WriteString(`{
    "ailos": [
        {
            "original_outcome": "the original learning outcome text",
            "ailo": "the AI-enhanced learning outcome (AILO)",
            "dec_dimension": "the DEC dimension used",
            "assessment_strategy": {
                "method": "specific assessment method (e.g., AI-assisted project, critical evaluation assignment)",
                "description": "detailed description of how to assess this AILO",
                "rubric_points": ["key rubric criterion 1", "key rubric criterion 2", "key rubric criterion 3"]
            },
            "explanation": "Explain WHY this DEC dimension was selected for this outcome and HOW it influenced the transformation. Focus on the pedagogical reasoning behind aligning with this specific dimension of the DEC AI Literacy Framework."
        }
    ]
}`)
	sb.WriteString("\n\nOnly return valid JSON, no additional text.\n")

	return Prompt{Task: TaskGeneration, System: jsonOnlySystem, User: sb.String()}
}
