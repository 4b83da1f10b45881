package wiring

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	webhook "github.com/felixgeelhaar/fareview/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root     string
	Repo     *storage.FilesystemRepository
	Audit    *application.AuditService
	Notifier *webhook.Notifier
}

// NewWorkspace opens the .fareview workspace under root. The notifier is nil
// unless webhooks.yaml configures at least one endpoint.
func NewWorkspace(root string) (*Workspace, error) {
	repo := storage.NewFilesystemRepository(root)

	cfg, err := config.LoadWebhookConfig(root)
	if err != nil {
		return nil, fmt.Errorf("load webhooks: %w", err)
	}
	var notifier *webhook.Notifier
	if len(cfg.Webhooks) > 0 {
		dlPath := filepath.Join(root, storage.FareviewDir, storage.DeadLetterFile)
		notifier = webhook.NewNotifier(cfg.Webhooks, webhook.NewDeadLetterStore(dlPath))
	}

	return &Workspace{
		Root:     root,
		Repo:     repo,
		Audit:    application.NewAuditService(repo),
		Notifier: notifier,
	}, nil
}
