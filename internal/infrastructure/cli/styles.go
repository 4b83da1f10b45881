package cli

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// gradeStyle colors a grade letter from green (A) to red (F).
func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return okStyle
	case "C", "D":
		return warnStyle
	default:
		return errStyle
	}
}

func padRight(s string, width int) string {
	for lipgloss.Width(s) < width {
		s += " "
	}
	return s
}
