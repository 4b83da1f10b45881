package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

var rubricLocale string

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Show the evaluation dimensions and grade bands",
	Long: `Rubric prints the rubric used for scoring: the workspace's .fareview/rubric.yaml
when present, otherwise the built-in English rubric. --locale shows a built-in
rubric instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			r   *rubric.Rubric
			err error
		)
		if rubricLocale != "" {
			r, err = rubric.ForLocale(rubricLocale)
		} else {
			root, rerr := getProjectRoot()
			if rerr != nil {
				return rerr
			}
			r, err = config.LoadRubric(root)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, headerStyle.Render("Rubric ("+r.Locale()+")"))
		fmt.Fprintln(w)

		nameWidth := 0
		for _, d := range r.Dimensions() {
			if n := len([]rune(d.Name)); n > nameWidth {
				nameWidth = n
			}
		}
		for _, d := range r.Dimensions() {
			fmt.Fprintf(w, "%s %5.1f\n", padRight(d.Name, nameWidth), d.Weight)
			for _, c := range d.Criteria {
				fmt.Fprintln(w, dimStyle.Render("  - "+c))
			}
		}

		fmt.Fprintln(w)
		var bands []string
		for _, b := range r.Bands() {
			bands = append(bands, fmt.Sprintf("%s  %g-%g  %s", gradeStyle(string(b.Letter)).Render(string(b.Letter)), b.Min, b.Max, b.Label))
		}
		fmt.Fprintln(w, strings.Join(bands, "\n"))
		return nil
	},
}

func init() {
	rubricCmd.Flags().StringVar(&rubricLocale, "locale", "", "Show a built-in rubric: "+strings.Join(rubric.Locales(), ", "))
	RootCmd.AddCommand(rubricCmd)
}
