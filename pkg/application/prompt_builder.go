package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

const (
	reportBegin = "<<<FA_REPORT_BEGIN"
	reportEnd   = "<<<FA_REPORT_END"
	markerClose = ">>>"
)

const systemPrompt = `You are a senior failure analysis (FA) engineer who reviews FA reports for
semiconductor and electronics products. You score reports strictly against the
rubric you are given and answer with a single JSON object and nothing else.`

// PromptBuilder renders the scoring instructions for a rubric. Build is pure:
// the same rubric and report text always give the same prompt.
type PromptBuilder struct {
	rubric *rubric.Rubric
}

func NewPromptBuilder(r *rubric.Rubric) *PromptBuilder {
	return &PromptBuilder{rubric: r}
}

// SystemPrompt is sent alongside every prompt.
func (b *PromptBuilder) SystemPrompt() string {
	return systemPrompt
}

// Build embeds reportText between delimiters that do not occur in it and
// describes the exact response shape the validator accepts.
func (b *PromptBuilder) Build(reportText string) string {
	begin, end := delimiters(reportText)

	var sb strings.Builder
	sb.WriteString("Evaluate the failure analysis report below against this rubric.\n\n")

	sb.WriteString("## Dimensions\n")
	for i, d := range b.rubric.Dimensions() {
		fmt.Fprintf(&sb, "%d. %s (weight %s points)\n", i+1, d.Name, formatNumber(d.Weight))
		for _, c := range d.Criteria {
			fmt.Fprintf(&sb, "   - %s\n", c)
		}
	}

	sb.WriteString("\n## Grade bands\n")
	for _, band := range b.rubric.Bands() {
		fmt.Fprintf(&sb, "- %s: %s to %s (%s)\n", band.Letter, formatNumber(band.Min), formatNumber(band.Max), band.Label)
	}
	sb.WriteString("A score on a shared boundary belongs to the higher band.\n")

	sb.WriteString("\n## Scoring rules\n")
	sb.WriteString("- Score every dimension from 0 up to its weight; percentage is score divided by weight times 100.\n")
	sb.WriteString("- totalScore is the sum of the dimension scores, between 0 and 100.\n")
	sb.WriteString("- grade is the letter of the band that contains totalScore.\n")
	fmt.Fprintf(&sb, "- Use exactly these dimension names as keys, no others: %s.\n", quotedList(b.rubric.DimensionNames()))
	fmt.Fprintf(&sb, "- Improvement priority is one of: %s.\n", priorityList())
	if b.rubric.Locale() == rubric.LocaleTraditionalChinese {
		sb.WriteString("- Write comments, strengths, improvements and the summary in Traditional Chinese.\n")
	}

	sb.WriteString("\n## Response format\n")
	sb.WriteString("Return only a JSON object with exactly this structure. Do not wrap it in prose or code fences.\n")
	sb.WriteString(b.schemaExample())
	sb.WriteString("\n\n## Report\n")
	sb.WriteString("The report text is everything between the two marker lines.\n")
	sb.WriteString(begin)
	sb.WriteString("\n")
	sb.WriteString(reportText)
	if !strings.HasSuffix(reportText, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(end)
	sb.WriteString("\n")
	return sb.String()
}

func (b *PromptBuilder) schemaExample() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	sb.WriteString("  \"totalScore\": <number 0-100>,\n")
	fmt.Fprintf(&sb, "  \"grade\": \"<%s>\",\n", letterList())
	sb.WriteString("  \"dimensionScores\": {\n")
	dims := b.rubric.Dimensions()
	for i, d := range dims {
		fmt.Fprintf(&sb, "    %s: {\"score\": <number 0-%s>, \"percentage\": <number 0-100>, \"comment\": \"<assessment>\"}",
			quote(d.Name), formatNumber(d.Weight))
		if i < len(dims)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  },\n")
	sb.WriteString("  \"strengths\": [\"<strength>\"],\n")
	sb.WriteString("  \"improvements\": [{\"priority\": \"<high|medium|low>\", \"item\": \"<what is missing>\", \"suggestion\": \"<how to fix it>\"}],\n")
	sb.WriteString("  \"summary\": \"<overall assessment>\"\n")
	sb.WriteString("}")
	return sb.String()
}

// delimiters picks begin/end markers absent from text, adding a numeric
// suffix until neither collides.
func delimiters(text string) (string, string) {
	for i := 0; ; i++ {
		suffix := ""
		if i > 0 {
			suffix = fmt.Sprintf("_%d", i)
		}
		begin := reportBegin + suffix + markerClose
		end := reportEnd + suffix + markerClose
		if !strings.Contains(text, begin) && !strings.Contains(text, end) {
			return begin, end
		}
	}
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func quotedList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return strings.Join(out, ", ")
}

func letterList() string {
	letters := rubric.Letters()
	out := make([]string, len(letters))
	for i, l := range letters {
		out[i] = string(l)
	}
	return strings.Join(out, "|")
}

func priorityList() string {
	ps := evaluation.Priorities()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return strings.Join(out, ", ")
}

// formatNumber prints whole numbers without a fractional part.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
