package wiring

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/config"
	"github.com/felixgeelhaar/fareview/pkg/application"
	domainai "github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
	"github.com/felixgeelhaar/fareview/pkg/loader"
	"github.com/felixgeelhaar/fareview/pkg/metrics"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

// AppOptions adjusts how BuildApp wires the pipeline.
type AppOptions struct {
	Provider ProviderOptions
	// Timeout overrides the ai.yaml scoring timeout when positive.
	Timeout  time.Duration
	Logger   *slog.Logger
	Registry prometheus.Registerer
	// Notifiers receive analysis events alongside the configured webhooks.
	Notifiers []application.Notifier
}

// App exposes the pipeline and stores wired together for a workspace.
type App struct {
	Workspace *Workspace
	AIConfig  *config.AIConfig
	Rubric    *rubric.Rubric
	Loader    *loader.Registry
	Provider  domainai.Provider
	History   *storage.HistoryStore
	Metrics   *metrics.Metrics
	Pipeline  *application.AnalysisPipeline
}

// BuildApp reads the workspace configuration and constructs the analysis
// pipeline. A rubric ConfigurationError is returned unwrapped so callers can
// treat it as fatal.
func BuildApp(root string, opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r, err := config.LoadRubric(root)
	if err != nil {
		return nil, err
	}
	aiCfg, err := config.LoadAIConfig(root)
	if err != nil {
		return nil, err
	}
	if opts.Timeout > 0 {
		if aiCfg == nil {
			aiCfg = &config.AIConfig{}
		}
		aiCfg.TimeoutSec = int(opts.Timeout.Round(time.Second) / time.Second)
		if aiCfg.TimeoutSec == 0 {
			aiCfg.TimeoutSec = 1
		}
	}

	provider, err := LoadAIProvider(aiCfg, opts.Provider, r)
	if err != nil {
		return nil, err
	}

	workspace, err := NewWorkspace(root)
	if err != nil {
		return nil, err
	}
	if err := workspace.Repo.Initialize(); err != nil {
		return nil, err
	}
	history, err := workspace.Repo.OpenHistory()
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	m := metrics.MustNewMetrics(opts.Registry)
	registry := loader.NewDefaultRegistry()

	pipelineOpts := []application.PipelineOption{
		application.WithReportWriter(workspace.Repo),
		application.WithHistory(history),
		application.WithAudit(workspace.Audit),
		application.WithMetrics(m),
		application.WithLogger(logger),
		application.WithScoringTimeout(aiCfg.ScoringTimeout()),
		application.WithMaxTokens(aiCfg.Tokens()),
	}
	notifiers := append(application.Notifiers(nil), opts.Notifiers...)
	if workspace.Notifier != nil {
		notifiers = append(notifiers, workspace.Notifier.WithLogger(logger))
	}
	switch len(notifiers) {
	case 0:
	case 1:
		pipelineOpts = append(pipelineOpts, application.WithNotifier(notifiers[0]))
	default:
		pipelineOpts = append(pipelineOpts, application.WithNotifier(notifiers))
	}

	return &App{
		Workspace: workspace,
		AIConfig:  aiCfg,
		Rubric:    r,
		Loader:    registry,
		Provider:  provider,
		History:   history,
		Metrics:   m,
		Pipeline:  application.NewAnalysisPipeline(r, registry, provider, pipelineOpts...),
	}, nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a == nil || a.History == nil {
		return nil
	}
	return a.History.Close()
}
