package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/fareview/pkg/domain"
	"github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/document"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
	"github.com/felixgeelhaar/fareview/pkg/metrics"
)

const (
	DefaultScoringTimeout = 300 * time.Second
	DefaultMaxTokens      = 4000
	DefaultNotifyTimeout  = 30 * time.Second
	defaultOutputLayout   = "20060102_150405"
)

// DefaultOutputPath names a report after the time it was produced:
// fa_evaluation_YYYYMMDD_HHMMSS.txt.
func DefaultOutputPath(now time.Time) string {
	return fmt.Sprintf("fa_evaluation_%s.txt", now.Format(defaultOutputLayout))
}

// ReportWriter persists rendered reports and structured results.
type ReportWriter interface {
	WriteReport(path string, text string) error
	WriteResult(path string, result evaluation.AnalysisResult) error
}

// AnalysisEvent is published after every run.
type AnalysisEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path,omitempty"`
	TotalScore float64   `json:"total_score,omitempty"`
	Grade      string    `json:"grade,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier receives AnalysisEvents. Failures are logged, never returned to
// the caller of Analyze.
type Notifier interface {
	Notify(ctx context.Context, event AnalysisEvent) error
}

// Notifiers delivers each event to every notifier in turn and joins their
// errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event AnalysisEvent) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AnalyzeRequest names one report and where its outputs go. Empty output
// paths skip persistence.
type AnalyzeRequest struct {
	InputPath  string
	OutputPath string
	JSONPath   string
}

// AnalysisOutcome is the result of one successful run.
type AnalysisOutcome struct {
	RunID      string
	InputPath  string
	OutputPath string
	JSONPath   string
	Result     evaluation.AnalysisResult
	Warnings   []evaluation.ConsistencyWarning
	Report     string
	Usage      ai.TokenUsage
	Duration   time.Duration
}

// AnalysisPipeline runs load, prompt, score, validate, render and persist for
// one report at a time. It holds no per-run state, so one pipeline can serve
// concurrent runs.
type AnalysisPipeline struct {
	rubric    *rubric.Rubric
	loader    document.Loader
	provider  ai.Provider
	prompts   *PromptBuilder
	validator *ResultValidator
	renderer  *ReportRenderer

	writer   ReportWriter
	history  evaluation.HistoryRepository
	audit    domain.AuditLogger
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	timeout       time.Duration
	notifyTimeout time.Duration
	maxTokens     int
	clock         Clock
	newRunID      func() string
}

// PipelineOption configures optional collaborators.
type PipelineOption func(*AnalysisPipeline)

func WithReportWriter(w ReportWriter) PipelineOption {
	return func(p *AnalysisPipeline) { p.writer = w }
}

func WithHistory(h evaluation.HistoryRepository) PipelineOption {
	return func(p *AnalysisPipeline) { p.history = h }
}

func WithAudit(a domain.AuditLogger) PipelineOption {
	return func(p *AnalysisPipeline) { p.audit = a }
}

func WithNotifier(n Notifier) PipelineOption {
	return func(p *AnalysisPipeline) { p.notifier = n }
}

func WithMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *AnalysisPipeline) { p.metrics = m }
}

func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *AnalysisPipeline) { p.logger = l }
}

// WithScoringTimeout bounds the scoring call. Non-positive values keep the default.
func WithScoringTimeout(d time.Duration) PipelineOption {
	return func(p *AnalysisPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithNotifyTimeout bounds event delivery per run, retries included.
// Non-positive values keep the default.
func WithNotifyTimeout(d time.Duration) PipelineOption {
	return func(p *AnalysisPipeline) {
		if d > 0 {
			p.notifyTimeout = d
		}
	}
}

func WithMaxTokens(n int) PipelineOption {
	return func(p *AnalysisPipeline) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(c Clock) PipelineOption {
	return func(p *AnalysisPipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(gen func() string) PipelineOption {
	return func(p *AnalysisPipeline) {
		if gen != nil {
			p.newRunID = gen
		}
	}
}

func NewAnalysisPipeline(r *rubric.Rubric, loader document.Loader, provider ai.Provider, opts ...PipelineOption) *AnalysisPipeline {
	p := &AnalysisPipeline{
		rubric:        r,
		loader:        loader,
		provider:      provider,
		prompts:       NewPromptBuilder(r),
		validator:     NewResultValidator(r),
		timeout:       DefaultScoringTimeout,
		notifyTimeout: DefaultNotifyTimeout,
		maxTokens:     DefaultMaxTokens,
		clock:         time.Now,
		newRunID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.renderer = NewReportRenderer(r, p.clock)
	return p
}

// Rubric returns the rubric the pipeline scores against.
func (p *AnalysisPipeline) Rubric() *rubric.Rubric { return p.rubric }

// ProviderID identifies the scoring service.
func (p *AnalysisPipeline) ProviderID() string { return p.provider.ID() }

// Analyze evaluates one report. Failures are returned as *evaluation.StageError
// carrying the run id, the input path and the stage that failed.
func (p *AnalysisPipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisOutcome, error) {
	runID := p.newRunID()
	start := time.Now()
	done := p.metrics.Started()
	defer done()

	log := p.logger.With("run_id", runID, "path", req.InputPath)

	sm, err := evaluation.NewRunStateMachine(runID, req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	outcome, err := p.run(ctx, sm, req, log)
	if err != nil {
		stage := sm.Stage()
		if failErr := sm.Fail(); failErr != nil {
			log.Debug("state machine refused fail", "error", failErr)
		}
		stageErr := &evaluation.StageError{RunID: runID, Path: req.InputPath, Stage: stage, Err: err}
		p.metrics.IncFailure(string(stage), failureReason(err))
		log.Error("analysis failed", "stage", stage, "error", err)
		p.publishFailure(ctx, stageErr)
		return nil, stageErr
	}

	if err := sm.Advance(); err != nil {
		log.Debug("state machine refused completion", "error", err)
	}
	outcome.RunID = runID
	outcome.Duration = time.Since(start)
	p.metrics.ObserveResult(string(outcome.Result.Grade), outcome.Result.TotalScore)
	log.Info("analysis completed",
		"total_score", outcome.Result.TotalScore,
		"grade", outcome.Result.Grade,
		"warnings", len(outcome.Warnings),
		"duration", outcome.Duration)
	p.publishSuccess(ctx, outcome)
	return outcome, nil
}

func (p *AnalysisPipeline) run(ctx context.Context, sm *evaluation.RunStateMachine, req AnalyzeRequest, log *slog.Logger) (*AnalysisOutcome, error) {
	out := &AnalysisOutcome{InputPath: req.InputPath}

	var reportText string
	if err := p.stage(sm, func() error {
		t, err := p.loader.Load(ctx, req.InputPath)
		reportText = t
		return err
	}); err != nil {
		return nil, err
	}

	var prompt string
	if err := p.stage(sm, func() error {
		prompt = p.prompts.Build(reportText)
		return nil
	}); err != nil {
		return nil, err
	}

	var resp *ai.CompletionResponse
	if err := p.stage(sm, func() error {
		r, err := p.score(ctx, prompt)
		resp = r
		return err
	}); err != nil {
		return nil, err
	}
	out.Usage = resp.Usage
	p.metrics.AddTokens(p.provider.ID(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	log.Debug("evaluator response", "provider", p.provider.ID(), "text", resp.Text)

	if err := p.stage(sm, func() error {
		result, warnings, err := p.validator.Validate(resp.Text)
		out.Result, out.Warnings = result, warnings
		return err
	}); err != nil {
		return nil, err
	}
	for _, w := range out.Warnings {
		p.metrics.IncWarning(string(w.Kind))
		log.Warn("consistency warning", "kind", w.Kind, "message", w.Message())
	}

	if err := p.stage(sm, func() error {
		out.Report = p.renderer.Render(out.Result, out.Warnings)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := p.stage(sm, func() error {
		return p.persist(req, out)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// stage advances the machine into the next stage and runs fn there,
// recording its duration.
func (p *AnalysisPipeline) stage(sm *evaluation.RunStateMachine, fn func() error) error {
	if err := sm.Advance(); err != nil {
		return err
	}
	stage := sm.Stage()
	start := time.Now()
	err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.ObserveStage(string(stage), status, time.Since(start))
	return err
}

// score calls the provider under the pipeline timeout. The pipeline itself
// never retries.
func (p *AnalysisPipeline) score(ctx context.Context, prompt string) (*ai.CompletionResponse, error) {
	scoreCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.provider.Complete(scoreCtx, ai.CompletionRequest{
		Prompt:      prompt,
		System:      p.prompts.SystemPrompt(),
		MaxTokens:   p.maxTokens,
		Temperature: 0,
	})
	if err == nil {
		if resp == nil {
			return nil, evaluation.NewScoringError(evaluation.ScoringTransport, p.provider.ID(), errors.New("provider returned no response"))
		}
		return resp, nil
	}

	if errors.Is(scoreCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		if !errors.Is(err, evaluation.ErrScoringTimeout) {
			err = &evaluation.ScoringError{
				Kind:     evaluation.ScoringTimeout,
				Provider: p.provider.ID(),
				Err:      fmt.Errorf("no response within %s: %w", p.timeout, err),
			}
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return nil, evaluation.NewScoringError(evaluation.ScoringTransport, p.provider.ID(), err)
}

func (p *AnalysisPipeline) persist(req AnalyzeRequest, out *AnalysisOutcome) error {
	if req.OutputPath == "" && req.JSONPath == "" {
		return nil
	}
	if p.writer == nil {
		return errors.New("no report writer configured")
	}
	if req.OutputPath != "" {
		if err := p.writer.WriteReport(req.OutputPath, out.Report); err != nil {
			return err
		}
		out.OutputPath = req.OutputPath
	}
	if req.JSONPath != "" {
		if err := p.writer.WriteResult(req.JSONPath, out.Result); err != nil {
			return err
		}
		out.JSONPath = req.JSONPath
	}
	return nil
}

func (p *AnalysisPipeline) publishSuccess(ctx context.Context, out *AnalysisOutcome) {
	warnings := make([]string, len(out.Warnings))
	for i, w := range out.Warnings {
		warnings[i] = w.Message()
	}

	if p.history != nil {
		rec := evaluation.RunRecord{
			RunID:      out.RunID,
			InputPath:  absOrSelf(out.InputPath),
			OutputPath: absOrSelf(out.OutputPath),
			Provider:   p.provider.ID(),
			TotalScore: out.Result.TotalScore,
			Grade:      string(out.Result.Grade),
			Warnings:   len(out.Warnings),
			CreatedAt:  p.clock(),
			Result:     out.Result,
		}
		if err := p.history.Record(ctx, rec); err != nil {
			p.logger.Warn("failed to record history", "run_id", out.RunID, "error", err)
		}
	}

	if p.audit != nil {
		meta := map[string]interface{}{
			"run_id":      out.RunID,
			"path":        out.InputPath,
			"output":      out.OutputPath,
			"total_score": out.Result.TotalScore,
			"grade":       string(out.Result.Grade),
		}
		if err := p.audit.Log(domain.ActionAnalysisCompleted, p.provider.ID(), meta); err != nil {
			p.logger.Warn("failed to write audit event", "run_id", out.RunID, "error", err)
		}
		for _, w := range out.Warnings {
			wmeta := map[string]interface{}{"run_id": out.RunID, "path": out.InputPath, "kind": string(w.Kind), "message": w.Message()}
			if err := p.audit.Log(domain.ActionAnalysisWarning, p.provider.ID(), wmeta); err != nil {
				p.logger.Warn("failed to write audit event", "run_id", out.RunID, "error", err)
			}
		}
	}

	p.notify(ctx, AnalysisEvent{
		Type:       domain.ActionAnalysisCompleted,
		RunID:      out.RunID,
		InputPath:  out.InputPath,
		OutputPath: out.OutputPath,
		TotalScore: out.Result.TotalScore,
		Grade:      string(out.Result.Grade),
		Warnings:   warnings,
		Timestamp:  p.clock(),
	})
}

func (p *AnalysisPipeline) publishFailure(ctx context.Context, se *evaluation.StageError) {
	if p.audit != nil {
		meta := map[string]interface{}{
			"run_id": se.RunID,
			"path":   se.Path,
			"stage":  string(se.Stage),
			"reason": failureReason(se.Err),
			"error":  se.Err.Error(),
		}
		if err := p.audit.Log(domain.ActionAnalysisFailed, p.provider.ID(), meta); err != nil {
			p.logger.Warn("failed to write audit event", "run_id", se.RunID, "error", err)
		}
	}
	p.notify(ctx, AnalysisEvent{
		Type:      domain.ActionAnalysisFailed,
		RunID:     se.RunID,
		InputPath: se.Path,
		Stage:     string(se.Stage),
		Error:     se.Err.Error(),
		Timestamp: p.clock(),
	})
}

func (p *AnalysisPipeline) notify(ctx context.Context, ev AnalysisEvent) {
	if p.notifier == nil {
		return
	}
	// A run that failed because it was cancelled still reports its failure,
	// so only that case detaches from the caller's context. Either way the
	// delivery is bounded.
	base := ctx
	if ctx.Err() != nil {
		base = context.WithoutCancel(ctx)
	}
	nctx, cancel := context.WithTimeout(base, p.notifyTimeout)
	defer cancel()
	if err := p.notifier.Notify(nctx, ev); err != nil {
		p.logger.Warn("webhook notification failed", "run_id", ev.RunID, "error", err)
	}
}

// failureReason labels an error for metrics and audit metadata.
func failureReason(err error) string {
	var (
		inputErr   *evaluation.InputError
		scoringErr *evaluation.ScoringError
	)
	switch {
	case errors.As(err, &inputErr):
		return string(inputErr.Kind)
	case errors.As(err, &scoringErr):
		return string(scoringErr.Kind)
	case errors.Is(err, evaluation.ErrResponseFormat):
		return "response_format"
	case errors.Is(err, evaluation.ErrSchema):
		return "schema"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}

func absOrSelf(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
