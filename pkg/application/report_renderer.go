package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

const (
	rendererWidth   = 80
	timestampLayout = "2006-01-02 15:04:05"
)

// reportLabels holds the fixed wording of a report in one language.
type reportLabels struct {
	Title        string
	Generated    string
	ScoreSection string
	TotalScore   string
	Grade        string
	Note         string
	TableSection string
	Columns      [5]string
	Strengths    string
	Improvements string
	Priority     map[evaluation.Priority]string
	Suggestion   string
	Summary      string
	None         string
	End          string
}

var englishLabels = reportLabels{
	Title:        "FA Report Evaluation",
	Generated:    "Generated: %s",
	ScoreSection: "[Total Score and Grade]",
	TotalScore:   "Total score: %.1f / 100",
	Grade:        "Grade: %s%s",
	Note:         "Note: %s",
	TableSection: "[Dimension Scores]",
	Columns:      [5]string{"Dimension", "Weight", "Score", "Completion", "Comment"},
	Strengths:    "[Strengths]",
	Improvements: "[Improvements] (by priority)",
	Priority: map[evaluation.Priority]string{
		evaluation.PriorityHigh:   "high priority",
		evaluation.PriorityMedium: "medium priority",
		evaluation.PriorityLow:    "low priority",
	},
	Suggestion: "Suggestion: %s",
	Summary:    "[Summary]",
	None:       "(none)",
	End:        "End of report",
}

var chineseLabels = reportLabels{
	Title:        "FA 報告評估結果",
	Generated:    "生成時間: %s",
	ScoreSection: "【總分與等級】",
	TotalScore:   "總分: %.1f 分",
	Grade:        "等級: %s 級%s",
	Note:         "注意: %s",
	TableSection: "【各維度評分表】",
	Columns:      [5]string{"評估維度", "權重", "得分", "完成度", "評語"},
	Strengths:    "【優點分析】",
	Improvements: "【待改進項目】(依優先級排序)",
	Priority: map[evaluation.Priority]string{
		evaluation.PriorityHigh:   "高優先級",
		evaluation.PriorityMedium: "中優先級",
		evaluation.PriorityLow:    "低優先級",
	},
	Suggestion: "改善建議: %s",
	Summary:    "【總評與建議】",
	None:       "(無)",
	End:        "報告結束",
}

// labelsFor picks the report wording for a rubric locale. Custom locales fall
// back to English.
func labelsFor(locale string) reportLabels {
	if locale == rubric.LocaleTraditionalChinese {
		return chineseLabels
	}
	return englishLabels
}

func (l reportLabels) priority(p evaluation.Priority) string {
	if s, ok := l.Priority[p]; ok {
		return s
	}
	return string(p)
}

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// ReportRenderer formats an AnalysisResult as the plain-text evaluation
// report. Output depends only on the result, the warnings and the clock.
type ReportRenderer struct {
	rubric *rubric.Rubric
	clock  Clock
	labels reportLabels
}

func NewReportRenderer(r *rubric.Rubric, clock Clock) *ReportRenderer {
	if clock == nil {
		clock = time.Now
	}
	return &ReportRenderer{rubric: r, clock: clock, labels: labelsFor(r.Locale())}
}

func (rr *ReportRenderer) Render(result evaluation.AnalysisResult, warnings []evaluation.ConsistencyWarning) string {
	rule := strings.Repeat("=", rendererWidth)
	l := rr.labels
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString(center(l.Title, rendererWidth) + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, l.Generated+"\n\n", rr.clock().Format(timestampLayout))

	b.WriteString(l.ScoreSection + "\n")
	fmt.Fprintf(&b, l.TotalScore+"\n", result.TotalScore)
	label := ""
	if band, ok := rr.rubric.Band(result.Grade); ok {
		label = " - " + band.Label
	}
	fmt.Fprintf(&b, l.Grade+"\n", result.Grade, label)
	for _, w := range warnings {
		fmt.Fprintf(&b, l.Note+"\n", w.Message())
	}
	b.WriteString("\n")

	b.WriteString(l.TableSection + "\n")
	b.WriteString(rr.dimensionTable(result))
	b.WriteString("\n")

	b.WriteString(l.Strengths + "\n")
	if len(result.Strengths) == 0 {
		b.WriteString(l.None + "\n")
	}
	for i, s := range result.Strengths {
		fmt.Fprintf(&b, "%d. %s\n", i+1, oneLine(s))
	}
	b.WriteString("\n")

	b.WriteString(l.Improvements + "\n")
	if len(result.Improvements) == 0 {
		b.WriteString(l.None + "\n")
	}
	for i, item := range result.Improvements {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, l.priority(item.Priority), oneLine(item.Item))
		if item.Suggestion != "" {
			fmt.Fprintf(&b, "   "+l.Suggestion+"\n", oneLine(item.Suggestion))
		}
	}
	b.WriteString("\n")

	b.WriteString(l.Summary + "\n")
	b.WriteString(strings.TrimSpace(result.Summary) + "\n\n")

	b.WriteString(rule + "\n")
	b.WriteString(center(l.End, rendererWidth) + "\n")
	b.WriteString(rule + "\n")
	return b.String()
}

// dimensionTable lays the scores out in rubric order. Column widths use
// display width so CJK dimension names stay aligned.
func (rr *ReportRenderer) dimensionTable(result evaluation.AnalysisResult) string {
	header := rr.labels.Columns[:]
	rows := [][]string{header}
	for _, d := range rr.rubric.Dimensions() {
		s, ok := result.DimensionScores[d.Name]
		if !ok {
			rows = append(rows, []string{d.Name, formatNumber(d.Weight), "-", "-", ""})
			continue
		}
		rows = append(rows, []string{
			d.Name,
			formatNumber(d.Weight),
			fmt.Sprintf("%.1f", s.Score),
			fmt.Sprintf("%.1f%%", s.Percentage),
			oneLine(s.Comment),
		})
	}

	widths := make([]int, len(header)-1)
	for _, row := range rows {
		for i := range widths {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for n, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(widths) {
				cells[i] = pad(cell, widths[i])
			} else {
				cells[i] = cell
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " | "), " "))
		b.WriteString("\n")
		if n == 0 {
			sep := make([]string, len(widths))
			for i, w := range widths {
				sep[i] = strings.Repeat("-", w)
			}
			b.WriteString(strings.Join(sep, "-+-") + "-+-" + strings.Repeat("-", lipgloss.Width(header[len(header)-1])) + "\n")
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func center(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return strings.Repeat(" ", gap/2) + s
}

// oneLine folds embedded line breaks so list items and table cells stay on
// a single line.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
