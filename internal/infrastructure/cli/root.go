package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	verbose     bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "fareview",
	Version: Version,
	Short:   "Score failure-analysis reports against a weighted rubric",
	Long: `Fareview evaluates semiconductor failure-analysis (FA) reports.
It reads a report (text, Markdown, PDF, DOCX or HTML), asks an AI evaluator to
score it against a six-dimension rubric, checks the answer and writes a
plain-text evaluation with a total score, a letter grade, strengths and
prioritized improvements.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd.ErrOrStderr(), verbose)
	},
}

// Execute runs the command tree and prints mapped errors to stderr. The
// caller exits non-zero when an error is returned.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(RootCmd.ErrOrStderr(), MapError(err))
	}
	return err
}

// configureLogging installs the default slog handler. Only warnings and
// errors are shown unless verbose is set.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func printError(w io.Writer, err error) {
	if cliErr, ok := err.(*CLIError); ok {
		fmt.Fprintf(w, "Error: %s\n", cliErr.Message)
		if cliErr.Hint != "" {
			fmt.Fprintf(w, "Hint: %s\n", cliErr.Hint)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func init() {
	RootCmd.SetVersionTemplate(fmt.Sprintf("fareview {{.Version}} (commit %s, built %s)\n", Commit, Date))
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Workspace root holding .fareview (default: current directory)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output, including raw evaluator responses")
}
