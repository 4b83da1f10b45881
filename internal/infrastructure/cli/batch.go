package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/pkg/application"
)

var (
	batchOutDir      string
	batchConcurrency int
	batchJSON        bool
	batchFlags       providerFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch <report>...",
	Short: "Score several FA reports and summarize the scores",
	Long: `Batch analyzes each report independently. A report that fails is listed with
its error and the remaining reports still run. Evaluations are written to
--out-dir as <name>_evaluation.txt.`,
	Example: `  fareview batch reports/*.pdf --out-dir evaluations
  fareview batch a.docx b.docx --concurrency 4 --json=false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := loadApp(batchFlags)
		if err != nil {
			return err
		}
		defer app.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = app.AIConfig.Workers()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res := app.Pipeline.AnalyzeBatch(ctx, args, application.BatchOptions{
			OutDir:      batchOutDir,
			WriteJSON:   batchJSON,
			Concurrency: concurrency,
		})

		w := cmd.OutOrStdout()
		for _, item := range res.Items {
			if item.Err != nil {
				fmt.Fprintf(w, "FAIL %s: %v\n", item.InputPath, MapError(item.Err))
				continue
			}
			fmt.Fprintf(w, "OK   %s: %.1f (%s) -> %s\n", item.InputPath, item.Outcome.Result.TotalScore, item.Outcome.Result.Grade, item.Outcome.OutputPath)
		}

		s := res.Stats
		fmt.Fprintf(w, "\nAnalyzed %d of %d reports\n", s.Count, len(res.Items))
		if s.Count > 0 {
			fmt.Fprintf(w, "Average %.1f, highest %.1f, lowest %.1f\n", s.Average, s.Max, s.Min)
		}
		if s.Failed > 0 {
			return NewCLIError(fmt.Sprintf("%d of %d reports failed", s.Failed, len(res.Items)), "See the FAIL lines above", nil)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", ".", "Directory for the evaluations")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Reports analyzed at once (default: concurrency in .fareview/ai.yaml, or 1)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", true, "Write <name>_evaluation.json next to each evaluation (--json=false to skip)")
	addProviderFlags(batchCmd, &batchFlags)
	RootCmd.AddCommand(batchCmd)
}
