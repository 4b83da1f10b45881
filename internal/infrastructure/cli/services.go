package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/fareview/pkg/application"
)

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

// providerFlags are shared by every command that scores reports.
type providerFlags struct {
	provider string
	model    string
	apiKey   string
	timeout  time.Duration
}

func (f providerFlags) options() wiring.ProviderOptions {
	return wiring.ProviderOptions{Provider: f.provider, Model: f.model, APIKey: f.apiKey}
}

func loadApp(flags providerFlags, notifiers ...application.Notifier) (*wiring.App, string, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, "", err
	}
	app, err := wiring.BuildApp(root, wiring.AppOptions{
		Provider:  flags.options(),
		Timeout:   flags.timeout,
		Logger:    slog.Default(),
		Notifiers: notifiers,
	})
	if err != nil {
		return nil, "", err
	}
	return app, root, nil
}
