package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/fareview/pkg/application"
)

// Analyzer runs one report through the analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req application.AnalyzeRequest) (*application.AnalysisOutcome, error)
}

// InboxResult is reported for every analyzed file.
type InboxResult struct {
	Path    string
	Outcome *application.AnalysisOutcome
	Err     error
}

// InboxConfig configures an Inbox. Extensions lists the report formats to
// pick up, for example ".pdf" and ".docx".
type InboxConfig struct {
	Dir        string
	OutDir     string
	Extensions []string
	Debounce   time.Duration
	Logger     *slog.Logger
	OnResult   func(InboxResult)
}

// Inbox analyzes every new or rewritten report that settles in a directory.
// Reports are analyzed one at a time in arrival order.
type Inbox struct {
	analyzer Analyzer
	cfg      InboxConfig
	filter   *PatternFilter
	logger   *slog.Logger

	mu        sync.Mutex
	processed map[string]time.Time
}

func NewInbox(analyzer Analyzer, cfg InboxConfig) *Inbox {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OutDir == "" {
		cfg.OutDir = cfg.Dir
	}
	filter := NewReportFilter(cfg.Extensions)
	filter.Logger = logger
	return &Inbox{
		analyzer:  analyzer,
		cfg:       cfg,
		filter:    filter,
		logger:    logger,
		processed: make(map[string]time.Time),
	}
}

// Run watches until ctx is cancelled.
func (i *Inbox) Run(ctx context.Context) error {
	info, err := os.Stat(i.cfg.Dir)
	if err != nil {
		return fmt.Errorf("inbox %s: %w", i.cfg.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox %s is not a directory", i.cfg.Dir)
	}

	queue := make(chan string, 128)
	w, err := NewFSWatcher(i.cfg.Debounce, func(e ChangeEvent) {
		if e.ChangeType != "create" && e.ChangeType != "write" {
			return
		}
		select {
		case queue <- e.Path:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	w.SetFilter(i.filter)
	if err := w.WatchRecursive(i.cfg.Dir); err != nil {
		return err
	}
	i.logger.Info("watching inbox", "dir", i.cfg.Dir, "out_dir", i.cfg.OutDir, "extensions", strings.Join(i.cfg.Extensions, ","))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case path := <-queue:
				i.Process(gctx, path)
			}
		}
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Process analyzes one file unless it was already analyzed at its current
// modification time. It reports false when the file was skipped.
func (i *Inbox) Process(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	i.mu.Lock()
	if seen, ok := i.processed[path]; ok && seen.Equal(info.ModTime()) {
		i.mu.Unlock()
		return false
	}
	i.processed[path] = info.ModTime()
	i.mu.Unlock()

	txt, js := OutputPaths(i.cfg.OutDir, path)
	outcome, err := i.analyzer.Analyze(ctx, application.AnalyzeRequest{
		InputPath:  path,
		OutputPath: txt,
		JSONPath:   js,
	})
	if err != nil {
		i.logger.Error("inbox analysis failed", "path", path, "error", err)
	} else {
		i.logger.Info("inbox analysis written", "path", path, "output", outcome.OutputPath,
			"total_score", outcome.Result.TotalScore, "grade", outcome.Result.Grade)
	}
	if i.cfg.OnResult != nil {
		i.cfg.OnResult(InboxResult{Path: path, Outcome: outcome, Err: err})
	}
	return true
}

// OutputPaths names the text and JSON outputs for an inbox report.
func OutputPaths(outDir, input string) (text, json string) {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input)), ".")
	if ext != "" {
		stem += "_" + ext
	}
	return filepath.Join(outDir, stem+"_evaluation.txt"), filepath.Join(outDir, stem+"_evaluation.json")
}
