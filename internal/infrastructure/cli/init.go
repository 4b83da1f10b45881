package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	"github.com/felixgeelhaar/fareview/pkg/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

var (
	initLocale string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .fareview workspace with editable defaults",
	Long: `Init writes .fareview/ai.yaml and .fareview/rubric.yaml filled with the
defaults so they can be edited. Existing files are kept unless --force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		r, err := rubric.ForLocale(initLocale)
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if err := repo.Initialize(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if initForce || !workspaceFileExists(repo, storage.AIConfigFile) {
			cfg := &config.AIConfig{Provider: ai.DefaultProvider, TimeoutSec: config.DefaultTimeoutSec, MaxTokens: config.DefaultMaxTokens, Concurrency: 1}
			if err := config.SaveAIConfig(root, cfg); err != nil {
				return err
			}
			fmt.Fprintf(w, "Wrote %s/%s\n", storage.FareviewDir, storage.AIConfigFile)
		}
		if initForce || !workspaceFileExists(repo, storage.RubricFile) {
			cfg := &config.RubricConfig{Locale: r.Locale(), Dimensions: r.Dimensions(), Bands: r.Bands()}
			if err := config.SaveRubric(root, cfg); err != nil {
				return err
			}
			fmt.Fprintf(w, "Wrote %s/%s\n", storage.FareviewDir, storage.RubricFile)
		}
		fmt.Fprintf(w, "Workspace ready in %s\n", root)
		return nil
	},
}

func workspaceFileExists(repo *storage.FilesystemRepository, name string) bool {
	path, err := repo.ResolvePath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func init() {
	initCmd.Flags().StringVar(&initLocale, "locale", rubric.LocaleEnglish, "Rubric locale to start from")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration files")
	RootCmd.AddCommand(initCmd)
}
