package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

var dashboardLimit int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI of recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		m := loadDashboardModel(cmd, root)
		if os.Getenv("FAREVIEW_SKIP_DASHBOARD_RUN") == "true" {
			fmt.Fprintln(cmd.OutOrStdout(), m.View())
			return nil
		}
		p := tea.NewProgram(m)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardLimit, "limit", 50, "Number of analyses to show")
	RootCmd.AddCommand(dashboardCmd)
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

type dashboardModel struct {
	table   table.Model
	records []evaluation.RunRecord
	stats   evaluation.HistoryStats
	err     error
}

func loadDashboardModel(cmd *cobra.Command, root string) dashboardModel {
	repo := storage.NewFilesystemRepository(root)
	if !repo.IsInitialized() {
		return newDashboardModel(nil, evaluation.HistoryStats{})
	}
	store, err := repo.OpenHistory()
	if err != nil {
		return dashboardModel{err: err}
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), dashboardLimit)
	if err != nil {
		return dashboardModel{err: err}
	}
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return dashboardModel{err: err}
	}
	return newDashboardModel(records, stats)
}

func newDashboardModel(records []evaluation.RunRecord, stats evaluation.HistoryStats) dashboardModel {
	columns := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Grade", Width: 5},
		{Title: "Score", Width: 6},
		{Title: "Report", Width: 36},
		{Title: "Provider", Width: 22},
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			rec.Grade,
			fmt.Sprintf("%.1f", rec.TotalScore),
			filepath.Base(rec.InputPath),
			rec.Provider,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return dashboardModel{table: t, records: records, stats: stats}
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	header := headerStyle.Render("Fareview analyses")
	if len(m.records) == 0 {
		return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"\nNo analyses recorded yet.",
			dimStyle.Render("\nPress q to quit."),
		))
	}

	summary := fmt.Sprintf("%d analyses, average %.1f, highest %.1f, lowest %.1f",
		m.stats.Count, m.stats.Average, m.stats.Max, m.stats.Min)

	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		summary,
		gradeSpread(m.stats.ByGrade),
		"",
		m.table.View(),
		m.selectedSummary(),
		dimStyle.Render("\nj/k to move, q to quit."),
	))
}

func (m dashboardModel) selectedSummary() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return ""
	}
	return "\n" + oneLineSummary(m.records[i].Result.Summary)
}

func gradeSpread(byGrade map[string]int) string {
	out := ""
	for _, letter := range []string{"A", "B", "C", "D", "F"} {
		out += gradeStyle(letter).Render(fmt.Sprintf("%s:%d", letter, byGrade[letter])) + "  "
	}
	return out
}

func oneLineSummary(s string) string {
	const limit = 100
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
