// Package report renders a session's AILO results for download.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"ailo_generator/generator"

	"github.com/yuin/goldmark"
)

// Formats accepted by Render.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Configuration is the generation setup echoed in the report.
type Configuration struct {
	AIInfluencePercent int      `json:"ai_influence_percent"`
	SelectedDimensions []string `json:"selected_dimensions"`
}

// Report is everything exported for one session.
type Report struct {
	Filename             string                       `json:"filename"`
	Date                 time.Time                    `json:"date"`
	Configuration        Configuration                `json:"configuration"`
	ValidatedOutcomes    []generator.LearningOutcome  `json:"validated_outcomes"`
	ValidatedAssessments []generator.AssessmentMethod `json:"validated_assessments"`
	AILOs                []generator.AILO             `json:"ailos"`
}

// New assembles a report from session state.
func New(filename string, inv generator.ValidatedInventory, rec generator.GenerationRecord) Report {
	if filename == "" {
		filename = "syllabus"
	}
	r := Report{
		Filename: filename,
		Date:     rec.CreatedAt,
		Configuration: Configuration{
			AIInfluencePercent: rec.InfluencePercent,
			SelectedDimensions: rec.SelectedDimensions,
		},
		ValidatedOutcomes:    inv.LearningOutcomes,
		ValidatedAssessments: inv.AssessmentMethods,
		AILOs:                rec.Result.AILOs,
	}
	if r.ValidatedOutcomes == nil {
		r.ValidatedOutcomes = []generator.LearningOutcome{}
	}
	if r.ValidatedAssessments == nil {
		r.ValidatedAssessments = []generator.AssessmentMethod{}
	}
	if r.AILOs == nil {
		r.AILOs = []generator.AILO{}
	}
	return r
}

// Render encodes r in format and returns the body, its content type and a
// download file extension.
func Render(r Report, format string) (body []byte, contentType, ext string, err error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		body, err = json.MarshalIndent(r, "", "  ")
		return body, "application/json", "json", err
	case FormatText, "txt":
		return []byte(r.Text()), "text/plain; charset=utf-8", "txt", nil
	case FormatMarkdown, "md":
		return []byte(r.Markdown()), "text/markdown; charset=utf-8", "md", nil
	case FormatHTML:
		page, err := r.HTML()
		return []byte(page), "text/html; charset=utf-8", "html", err
	}
	return nil, "", "", fmt.Errorf("unsupported report format %q", format)
}

// Text is the plain readable report.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString("AI Learning Outcomes Report\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", r.Date.Format(time.RFC1123)))
	b.WriteString(fmt.Sprintf("Original Syllabus: %s\n", r.Filename))
	b.WriteString(fmt.Sprintf("AI influence: %d%%  Dimensions: %s\n", r.Configuration.AIInfluencePercent, strings.Join(r.Configuration.SelectedDimensions, ", ")))
	b.WriteString("\n" + strings.Repeat("=", 80) + "\n\n")

	for i, a := range r.AILOs {
		b.WriteString(fmt.Sprintf("%d. %s\n\n", i+1, dimensionOrDefault(a.DECDimension)))
		b.WriteString(fmt.Sprintf("   EXISTING OUTCOME:\n   %s\n\n", a.OriginalOutcome))
		b.WriteString(fmt.Sprintf("   AI-ENHANCED OUTCOME:\n   %s\n\n", a.AILO))
		b.WriteString(fmt.Sprintf("   ASSESSMENT: %s\n   %s\n", a.AssessmentStrategy.Method, a.AssessmentStrategy.Description))
		for _, p := range a.AssessmentStrategy.RubricPoints {
			b.WriteString(fmt.Sprintf("   - %s\n", p))
		}
		b.WriteString(fmt.Sprintf("\n   RATIONALE:\n   %s\n\n", a.Explanation))
		b.WriteString(strings.Repeat("-", 80) + "\n\n")
	}
	return b.String()
}

// Markdown is the report as a Markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# AI Learning Outcomes Report\n\n")
	b.WriteString(fmt.Sprintf("- **Original syllabus:** %s\n", escapeMarkdown(r.Filename)))
	b.WriteString(fmt.Sprintf("- **Generated:** %s\n", r.Date.Format(time.RFC1123)))
	b.WriteString(fmt.Sprintf("- **AI influence:** %d%%\n", r.Configuration.AIInfluencePercent))
	b.WriteString(fmt.Sprintf("- **Dimensions:** %s\n\n", escapeMarkdown(strings.Join(r.Configuration.SelectedDimensions, ", "))))

	b.WriteString("## AI-enhanced learning outcomes\n\n")
	if len(r.AILOs) == 0 {
		b.WriteString("_No AILOs were generated._\n\n")
	}
	for i, a := range r.AILOs {
		b.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, escapeMarkdown(dimensionOrDefault(a.DECDimension))))
		b.WriteString(fmt.Sprintf("**Existing outcome:** %s\n\n", escapeMarkdown(a.OriginalOutcome)))
		b.WriteString(fmt.Sprintf("**AI-enhanced outcome:** %s\n\n", escapeMarkdown(a.AILO)))
		b.WriteString(fmt.Sprintf("**Assessment:** %s. %s\n\n", escapeMarkdown(a.AssessmentStrategy.Method), escapeMarkdown(a.AssessmentStrategy.Description)))
		for _, p := range a.AssessmentStrategy.RubricPoints {
			b.WriteString(fmt.Sprintf("- %s\n", escapeMarkdown(p)))
		}
		b.WriteString(fmt.Sprintf("\n**Rationale:** %s\n\n", escapeMarkdown(a.Explanation)))
	}

	b.WriteString("## Validated learning outcomes\n\n")
	for i, lo := range r.ValidatedOutcomes {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, escapeMarkdown(lo.Outcome)))
	}
	if len(r.ValidatedAssessments) > 0 {
		b.WriteString("\n## Assessment methods\n\n")
		for _, m := range r.ValidatedAssessments {
			line := escapeMarkdown(m.Method)
			if m.Weight != "" {
				line += fmt.Sprintf(" (%s)", escapeMarkdown(string(m.Weight)))
			}
			if m.Description != "" {
				line += ": " + escapeMarkdown(m.Description)
			}
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

// HTML converts the Markdown report with goldmark and wraps it in a page.
// Raw HTML in user content is not rendered.
func (r Report) HTML() (string, error) {
	body, err := mdToHTML(r.Markdown())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	b.WriteString(fmt.Sprintf("<title>AI Learning Outcomes: %s</title>", html.EscapeString(r.Filename)))
	b.WriteString(fmt.Sprintf("<meta name=\"description\" content=\"%s\">", html.EscapeString(r.Digest(160))))
	b.WriteString("</head><body>\n")
	b.WriteString(body)
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

// Digest is a one-line summary of the first AILOs, cut to limit runes.
func (r Report) Digest(limit int) string {
	parts := make([]string, 0, len(r.AILOs))
	for _, a := range r.AILOs {
		parts = append(parts, a.AILO)
	}
	joined := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if runes := []rune(joined); len(runes) > limit {
		return string(runes[:limit])
	}
	return joined
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func dimensionOrDefault(d string) string {
	if strings.TrimSpace(d) == "" {
		return "General AI Literacy"
	}
	return d
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"\n", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
