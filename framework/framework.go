// Package framework holds the DEC AI Literacy Framework used as the
// transformation target space for AI-enhanced learning outcomes.
package framework

import (
	"encoding/json"
	"strings"
)

// Dimension is one competency area of the framework.
type Dimension struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// LearningOutcomes are illustrative outcome statements for the dimension.
	LearningOutcomes []string `json:"learning_outcomes"`
}

// Framework is an ordered list of dimensions.
type Framework struct {
	Dimensions []Dimension `json:"dimensions"`
}

var dec = Framework{
	Dimensions: []Dimension{
		{
			Name:        "Understanding AI",
			Description: "Foundational knowledge of AI concepts, capabilities, and limitations",
			LearningOutcomes: []string{
				"Explain what artificial intelligence is and how it works",
				"Identify different types of AI systems and their applications",
				"Understand the capabilities and limitations of current AI technologies",
				"Recognize the difference between narrow AI and general AI",
			},
		},
		{
			Name:        "Using AI",
			Description: "Practical skills in applying AI tools and technologies",
			LearningOutcomes: []string{
				"Effectively use AI-powered tools for various tasks",
				"Evaluate AI outputs critically and verify accuracy",
				"Apply AI tools ethically and responsibly",
				"Integrate AI tools into workflows and problem-solving processes",
			},
		},
		{
			Name:        "Evaluating AI",
			Description: "Critical assessment of AI systems, outputs, and impacts",
			LearningOutcomes: []string{
				"Critically assess the quality and reliability of AI-generated content",
				"Identify potential biases in AI systems",
				"Evaluate the appropriateness of AI for specific contexts",
				"Assess the ethical implications of AI applications",
			},
		},
		{
			Name:        "AI Ethics and Society",
			Description: "Understanding broader implications of AI on society",
			LearningOutcomes: []string{
				"Understand ethical considerations in AI development and deployment",
				"Recognize societal impacts of AI including equity and fairness issues",
				"Discuss privacy and data protection in AI contexts",
				"Consider the environmental impact of AI technologies",
			},
		},
		{
			Name:        "Creating with AI",
			Description: "Developing and innovating with AI technologies",
			LearningOutcomes: []string{
				"Design solutions that incorporate AI technologies",
				"Collaborate with AI systems in creative processes",
				"Develop AI-enhanced products or services",
				"Innovate using AI within specific domain contexts",
			},
		},
	},
}

// Get returns a copy of the framework. Callers may modify the copy freely.
func Get() Framework {
	out := Framework{Dimensions: make([]Dimension, len(dec.Dimensions))}
	for i, d := range dec.Dimensions {
		d.LearningOutcomes = append([]string(nil), d.LearningOutcomes...)
		out.Dimensions[i] = d
	}
	return out
}

// Names lists dimension names in framework order.
func Names() []string {
	names := make([]string, len(dec.Dimensions))
	for i, d := range dec.Dimensions {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a dimension by name, ignoring case and surrounding space.
func Lookup(name string) (Dimension, bool) {
	name = strings.TrimSpace(name)
	for _, d := range dec.Dimensions {
		if strings.EqualFold(d.Name, name) {
			d.LearningOutcomes = append([]string(nil), d.LearningOutcomes...)
			return d, true
		}
	}
	return Dimension{}, false
}

// JSON renders the framework as indented JSON for embedding in prompts.
func JSON() string {
	data, err := json.MarshalIndent(dec, "", "  ")
	if err != nil {
		// plain structs of strings always marshal
		panic(err)
	}
	return string(data)
}
