package cli

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	"github.com/felixgeelhaar/fareview/pkg/ai"
)

var (
	aiProvider     string
	aiModel        string
	aiMaxRetries   int
	aiRetryDelayMs int
	aiTimeoutSec   int
	aiMaxTokens    int
	aiConcurrency  int
	aiInteractive  bool
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Manage the AI evaluator settings",
}

var aiShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective .fareview/ai.yaml settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.LoadAIConfig(root)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = &config.AIConfig{Provider: ai.DefaultProvider}
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("# no ai.yaml, showing defaults"))
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		fmt.Fprintf(cmd.OutOrStdout(), "# effective timeout %s, max tokens %d, concurrency %d\n", cfg.ScoringTimeout(), cfg.Tokens(), cfg.Workers())
		return nil
	},
}

var aiConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the AI evaluator settings to .fareview/ai.yaml",
	Example: `  fareview ai configure --provider openai --model gpt-4o --timeout-sec 120
  fareview ai configure --interactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.LoadAIConfig(root)
		if err != nil {
			return err
		}
		if cfg == nil {
			cfg = &config.AIConfig{Provider: ai.DefaultProvider}
		}

		if aiInteractive {
			if err := promptAIConfig(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
				return err
			}
		} else {
			applyAIFlags(cmd, cfg)
		}

		if !slices.Contains(ai.Providers(), cfg.Provider) {
			return NewCLIError(fmt.Sprintf("unknown provider %q", cfg.Provider), "Choose one of: "+strings.Join(ai.Providers(), ", "), nil)
		}
		if err := config.SaveAIConfig(root, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved AI settings: provider %s", cfg.Provider)
		if cfg.Model != "" {
			fmt.Fprintf(cmd.OutOrStdout(), ", model %s", cfg.Model)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		if env := ai.APIKeyEnv(cfg.Provider); env != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s before analyzing.\n", env)
		}
		return nil
	},
}

func applyAIFlags(cmd *cobra.Command, cfg *config.AIConfig) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = aiProvider
	}
	if flags.Changed("model") {
		cfg.Model = aiModel
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = aiMaxRetries
	}
	if flags.Changed("retry-delay-ms") {
		cfg.RetryDelayMs = aiRetryDelayMs
	}
	if flags.Changed("timeout-sec") {
		cfg.TimeoutSec = aiTimeoutSec
	}
	if flags.Changed("max-tokens") {
		cfg.MaxTokens = aiMaxTokens
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = aiConcurrency
	}
}

func promptAIConfig(in io.Reader, out io.Writer, cfg *config.AIConfig) error {
	reader := bufio.NewReader(in)
	var err error

	label := fmt.Sprintf("AI provider (%s)", strings.Join(ai.Providers(), "/"))
	if cfg.Provider, err = promptString(reader, out, label, cfg.Provider); err != nil {
		return err
	}
	if cfg.Model, err = promptString(reader, out, "Model (empty for the provider default)", cfg.Model); err != nil {
		return err
	}
	if cfg.TimeoutSec, err = promptInt(reader, out, "Scoring timeout in seconds", timeoutDefault(cfg)); err != nil {
		return err
	}
	if cfg.MaxRetries, err = promptInt(reader, out, "Retries on transient failures", cfg.MaxRetries); err != nil {
		return err
	}
	if cfg.Concurrency, err = promptInt(reader, out, "Reports analyzed at once in batch mode", cfg.Workers()); err != nil {
		return err
	}
	return nil
}

func timeoutDefault(cfg *config.AIConfig) int {
	if cfg.TimeoutSec > 0 {
		return cfg.TimeoutSec
	}
	return config.DefaultTimeoutSec
}

func promptString(reader *bufio.Reader, out io.Writer, label string, def string) (string, error) {
	fmt.Fprintf(out, "%s [%s]: ", label, def)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return def, nil
	}
	return value, nil
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, def int) (int, error) {
	for {
		fmt.Fprintf(out, "%s [%d]: ", label, def)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return 0, err
		}
		value := strings.TrimSpace(line)
		if value == "" {
			return def, nil
		}
		parsed, perr := strconv.Atoi(value)
		if perr != nil || parsed < 0 {
			fmt.Fprintln(out, "Please enter a non-negative number.")
			if err == io.EOF {
				return 0, err
			}
			continue
		}
		return parsed, nil
	}
}

func init() {
	f := aiConfigureCmd.Flags()
	f.StringVar(&aiProvider, "provider", "", "AI provider: "+strings.Join(ai.Providers(), ", "))
	f.StringVar(&aiModel, "model", "", "Model name")
	f.IntVar(&aiMaxRetries, "max-retries", 0, "Retries on transient scoring failures")
	f.IntVar(&aiRetryDelayMs, "retry-delay-ms", 0, "Initial delay between retries in milliseconds")
	f.IntVar(&aiTimeoutSec, "timeout-sec", 0, "Scoring timeout in seconds")
	f.IntVar(&aiMaxTokens, "max-tokens", 0, "Response token budget")
	f.IntVar(&aiConcurrency, "concurrency", 0, "Reports analyzed at once in batch mode")
	f.BoolVar(&aiInteractive, "interactive", false, "Prompt for each setting")

	aiCmd.AddCommand(aiShowCmd, aiConfigureCmd)
	RootCmd.AddCommand(aiCmd)
}
