// Package mcp exposes report analysis, the active rubric and the analysis
// history as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

type Server struct {
	mcpServer *mcp.Server
	app       *wiring.App
	root      string
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return errors.New(friendly)
}

// NewServer serves the tools over an already wired application rooted at root.
func NewServer(root string, app *wiring.App) *Server {
	info := mcp.ServerInfo{
		Name:    "fareview",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Fareview MCP Server"),
			mcp.WithDescription("Fareview scores failure-analysis reports against a weighted rubric."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use fareview_analyze to evaluate a report file, fareview_rubric to read the scoring rubric and fareview_history to list past evaluations."),
		),
		app:  app,
		root: root,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s
}

type AnalyzeArgs struct {
	Path   string   `json:"path" jsonschema:"description=Path to the FA report (.txt .md .pdf .docx .html), relative to the workspace"`
	Output string   `json:"output,omitempty" jsonschema:"description=Where to write the text report (default: no file is written)"`
	JSON   FlexBool `json:"json,omitempty" jsonschema:"description=Also write the structured result next to the text report"`
}

type AnalyzeResponse struct {
	RunID      string                    `json:"run_id"`
	TotalScore float64                   `json:"total_score"`
	Grade      string                    `json:"grade"`
	Warnings   []string                  `json:"warnings,omitempty"`
	OutputPath string                    `json:"output_path,omitempty"`
	JSONPath   string                    `json:"json_path,omitempty"`
	Result     evaluation.AnalysisResult `json:"result"`
	Report     string                    `json:"report"`
}

type HistoryArgs struct {
	Limit FlexInt `json:"limit,omitempty" jsonschema:"description=Maximum number of evaluations to return (default 20)"`
}

type HistoryEntry struct {
	RunID      string  `json:"run_id"`
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path,omitempty"`
	Provider   string  `json:"provider"`
	TotalScore float64 `json:"total_score"`
	Grade      string  `json:"grade"`
	Warnings   int     `json:"warnings"`
	CreatedAt  string  `json:"created_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntry          `json:"entries"`
	Stats   evaluation.HistoryStats `json:"stats"`
}

type RubricResponse struct {
	Locale     string             `json:"locale"`
	Dimensions []rubric.Dimension `json:"dimensions"`
	Bands      []rubric.GradeBand `json:"bands"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("fareview_analyze").
		Description("Evaluate a failure-analysis report and return its scores, grade and rendered report").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("fareview_rubric").
		Description("Return the scoring dimensions, weights, criteria and grade bands in use").
		Handler(s.handleRubric)

	s.mcpServer.Tool("fareview_history").
		Description("List recent evaluations with aggregate score statistics").
		Handler(s.handleHistory)
}

func (s *Server) handleAnalyze(ctx context.Context, args AnalyzeArgs) (any, error) {
	if args.Path == "" {
		return nil, mcpErr("path is required.")
	}
	req := application.AnalyzeRequest{InputPath: s.resolve(args.Path)}
	if args.Output != "" {
		req.OutputPath = s.resolve(args.Output)
		if args.JSON {
			req.JSONPath = jsonSibling(req.OutputPath)
		}
	}

	out, err := s.app.Pipeline.Analyze(ctx, req)
	if err != nil {
		return nil, mcpErr(friendlyAnalyzeError(err))
	}

	warnings := make([]string, len(out.Warnings))
	for i, w := range out.Warnings {
		warnings[i] = w.Message()
	}
	return AnalyzeResponse{
		RunID:      out.RunID,
		TotalScore: out.Result.TotalScore,
		Grade:      string(out.Result.Grade),
		Warnings:   warnings,
		OutputPath: out.OutputPath,
		JSONPath:   out.JSONPath,
		Result:     out.Result,
		Report:     out.Report,
	}, nil
}

func (s *Server) handleRubric(ctx context.Context, args struct{}) (any, error) {
	r := s.app.Rubric
	return RubricResponse{Locale: r.Locale(), Dimensions: r.Dimensions(), Bands: r.Bands()}, nil
}

func (s *Server) handleHistory(ctx context.Context, args HistoryArgs) (any, error) {
	limit := int(args.Limit)
	if limit <= 0 {
		limit = 20
	}
	records, err := s.app.History.Recent(ctx, limit)
	if err != nil {
		return nil, mcpErr("Failed to read analysis history.")
	}
	stats, err := s.app.History.Stats(ctx)
	if err != nil {
		return nil, mcpErr("Failed to compute history statistics.")
	}

	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			RunID:      rec.RunID,
			InputPath:  rec.InputPath,
			OutputPath: rec.OutputPath,
			Provider:   rec.Provider,
			TotalScore: rec.TotalScore,
			Grade:      rec.Grade,
			Warnings:   rec.Warnings,
			CreatedAt:  rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return HistoryResponse{Entries: entries, Stats: stats}, nil
}

func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// jsonSibling names the structured result next to the text evaluation. A text
// output that already ends in .json gets a _result suffix so neither file
// overwrites the other.
func jsonSibling(path string) string {
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	if strings.EqualFold(ext, ".json") {
		return stem + "_result.json"
	}
	return stem + ".json"
}

// friendlyAnalyzeError keeps the stage and error class but drops provider
// response bodies.
func friendlyAnalyzeError(err error) string {
	var se *evaluation.StageError
	stage := "analysis"
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}
	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		return "Report file not found."
	case errors.Is(err, evaluation.ErrUnsupportedFormat):
		return "Unsupported report format."
	case errors.Is(err, evaluation.ErrUnreadable):
		return "The report file is corrupt or could not be read."
	case errors.Is(err, evaluation.ErrDependencyUnavailable):
		return "This report format cannot be read on this installation."
	case errors.Is(err, evaluation.ErrScoringAuth):
		return "The scoring service rejected the credentials."
	case errors.Is(err, evaluation.ErrScoringQuota):
		return "The scoring service quota is exhausted. Retry later."
	case errors.Is(err, evaluation.ErrScoringTimeout):
		return "The scoring service did not answer in time. Retry later."
	case errors.Is(err, evaluation.ErrScoringTransport):
		return "The scoring service could not be reached. Retry later."
	case errors.Is(err, evaluation.ErrResponseFormat), errors.Is(err, evaluation.ErrSchema):
		return "The scoring service returned an unusable evaluation. Retry the analysis."
	}
	return fmt.Sprintf("Analysis failed in the %s stage.", stage)
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) StartHTTP(addr string) error {
	return s.ServeHTTP(context.Background(), addr)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
