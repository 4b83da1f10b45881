package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/pkg/application"
)

var (
	analyzeInput    string
	analyzeOutput   string
	analyzeJSONPath string
	analyzeQuiet    bool
	analyzeFlags    providerFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one FA report and write the evaluation",
	Long: `Analyze reads a failure-analysis report, asks the configured evaluator to
score it against the rubric and writes a plain-text evaluation.

Without -o the evaluation is written to fa_evaluation_YYYYMMDD_HHMMSS.txt in
the current directory. --json additionally writes the structured result.`,
	Example: `  fareview analyze -i FA-0042.pdf
  fareview analyze -i report.docx -o eval.txt --json eval.json
  fareview analyze -i report.txt --provider openai --model gpt-4o`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeInput == "" {
			return NewCLIError("no report given", "Pass the report path with -i", nil)
		}
		app, _, err := loadApp(analyzeFlags)
		if err != nil {
			return err
		}
		defer app.Close()

		output := analyzeOutput
		if output == "" {
			output = application.DefaultOutputPath(time.Now())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out, err := app.Pipeline.Analyze(ctx, application.AnalyzeRequest{
			InputPath:  analyzeInput,
			OutputPath: output,
			JSONPath:   analyzeJSONPath,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if !analyzeQuiet {
			fmt.Fprintln(w, out.Report)
		}
		printOutcomeSummary(w, out)
		return nil
	},
}

func printOutcomeSummary(w io.Writer, out *application.AnalysisOutcome) {
	fmt.Fprintf(w, "%s: %.1f / 100, grade %s\n", out.InputPath, out.Result.TotalScore, out.Result.Grade)
	for _, warn := range out.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn.Message())
	}
	if out.OutputPath != "" {
		fmt.Fprintf(w, "Evaluation written to %s\n", out.OutputPath)
	}
	if out.JSONPath != "" {
		fmt.Fprintf(w, "Result written to %s\n", out.JSONPath)
	}
}

// addProviderFlags registers the evaluator selection flags on cmd.
func addProviderFlags(cmd *cobra.Command, f *providerFlags) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "AI provider (anthropic, openai, gemini, ollama, mock)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name for the provider")
	cmd.Flags().StringVarP(&f.apiKey, "api-key", "k", "", "API key (default: the provider's environment variable)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Scoring timeout (default: timeout_sec in .fareview/ai.yaml, or 300s)")
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Report to analyze (.txt, .md, .pdf, .docx, .html)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Evaluation output path")
	analyzeCmd.Flags().StringVar(&analyzeJSONPath, "json", "", "Also write the structured result as JSON to this path")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Print only the score summary")
	addProviderFlags(analyzeCmd, &analyzeFlags)
	RootCmd.AddCommand(analyzeCmd)
}
