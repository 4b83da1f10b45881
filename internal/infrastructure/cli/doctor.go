package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	"github.com/felixgeelhaar/fareview/pkg/ai"
	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/loader"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

type checkResult struct {
	name   string
	ok     bool
	detail string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the workspace configuration and report format support",
	Long: `Doctor validates the .fareview configuration files, the selected AI provider
and its API key, the readable report formats, the audit trail and the history
database. It does not contact the AI provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		checks := runDoctorChecks(root)

		w := cmd.OutOrStdout()
		failed := 0
		for _, c := range checks {
			mark := okStyle.Render("ok  ")
			if !c.ok {
				mark = errStyle.Render("FAIL")
				failed++
			}
			fmt.Fprintf(w, "%s %s: %s\n", mark, c.name, c.detail)
		}
		if failed > 0 {
			return NewCLIError(fmt.Sprintf("%d checks failed", failed), "Fix the FAIL lines above", nil)
		}
		fmt.Fprintln(w, okStyle.Render("All checks passed."))
		return nil
	},
}

func runDoctorChecks(root string) []checkResult {
	var checks []checkResult
	repo := storage.NewFilesystemRepository(root)

	if repo.IsInitialized() {
		checks = append(checks, checkResult{"workspace", true, filepath.Join(root, storage.FareviewDir)})
	} else {
		checks = append(checks, checkResult{"workspace", true, "not created yet, the first analysis creates it"})
	}

	aiCfg, err := config.LoadAIConfig(root)
	switch {
	case err != nil:
		checks = append(checks, checkResult{"ai config", false, err.Error()})
	case aiCfg == nil:
		checks = append(checks, checkResult{"ai config", true, "defaults (no ai.yaml)"})
	default:
		checks = append(checks, checkResult{"ai config", true, fmt.Sprintf("provider %s, timeout %s", firstNonEmptyString(aiCfg.Provider, ai.DefaultProvider), aiCfg.ScoringTimeout())})
	}

	if r, err := config.LoadRubric(root); err != nil {
		checks = append(checks, checkResult{"rubric", false, err.Error()})
	} else {
		checks = append(checks, checkResult{"rubric", true, fmt.Sprintf("%s, %d dimensions, %d grade bands", r.Locale(), len(r.Dimensions()), len(r.Bands()))})
	}

	if cfg, err := config.LoadWebhookConfig(root); err != nil {
		checks = append(checks, checkResult{"webhooks", false, err.Error()})
	} else {
		checks = append(checks, checkResult{"webhooks", true, fmt.Sprintf("%d endpoints", len(cfg.Webhooks))})
	}

	checks = append(checks, providerKeyCheck(aiCfg))

	var readable, unavailable []string
	for _, c := range loader.NewDefaultRegistry().Capabilities() {
		if c.Available {
			readable = append(readable, c.Extensions...)
		} else {
			unavailable = append(unavailable, c.Extensions...)
		}
	}
	detail := "readable: " + strings.Join(readable, " ")
	if len(unavailable) > 0 {
		detail += "; unavailable: " + strings.Join(unavailable, " ")
	}
	checks = append(checks, checkResult{"formats", true, detail})

	if repo.IsInitialized() {
		violations, err := application.NewAuditService(repo).VerifyIntegrity()
		switch {
		case err != nil:
			checks = append(checks, checkResult{"audit trail", false, err.Error()})
		case len(violations) > 0:
			checks = append(checks, checkResult{"audit trail", false, fmt.Sprintf("%d violations, run 'fareview audit verify'", len(violations))})
		default:
			checks = append(checks, checkResult{"audit trail", true, "intact"})
		}

		store, err := repo.OpenHistory()
		if err != nil {
			checks = append(checks, checkResult{"history", false, err.Error()})
		} else {
			defer store.Close()
			checks = append(checks, checkResult{"history", true, filepath.Join(storage.FareviewDir, storage.HistoryFile)})
		}
	}
	return checks
}

func providerKeyCheck(aiCfg *config.AIConfig) checkResult {
	name := ai.DefaultProvider
	if aiCfg != nil && aiCfg.Provider != "" {
		name = aiCfg.Provider
	}
	if env := os.Getenv("FAREVIEW_AI_PROVIDER"); env != "" {
		name = env
	}
	if !slices.Contains(ai.Providers(), name) {
		return checkResult{"provider", false, fmt.Sprintf("unknown provider %q (known: %s)", name, strings.Join(ai.Providers(), ", "))}
	}
	env := ai.APIKeyEnv(name)
	switch {
	case env == "":
		return checkResult{"provider", true, name + " (no API key needed)"}
	case os.Getenv(env) == "":
		return checkResult{"provider", false, fmt.Sprintf("%s: %s is not set (or pass -k)", name, env)}
	default:
		return checkResult{"provider", true, fmt.Sprintf("%s, key from %s", name, env)}
	}
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
