package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/pkg/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent analyses and score statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if !repo.IsInitialized() {
			return NewCLIError("no analyses recorded yet", "Run 'fareview analyze -i <report>' first", nil)
		}
		store, err := repo.OpenHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		records, err := store.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(w, "No analyses recorded yet.")
			return nil
		}
		for _, rec := range records {
			fmt.Fprintf(w, "%s  %s  %5.1f  %s  %s\n",
				rec.CreatedAt.Local().Format("2006-01-02 15:04"),
				gradeStyle(rec.Grade).Render(rec.Grade),
				rec.TotalScore,
				filepath.Base(rec.InputPath),
				dimStyle.Render(rec.Provider))
		}
		fmt.Fprintf(w, "\n%d analyses, average %.1f, highest %.1f, lowest %.1f\n", stats.Count, stats.Average, stats.Max, stats.Min)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of analyses to list")
	RootCmd.AddCommand(historyCmd)
}
