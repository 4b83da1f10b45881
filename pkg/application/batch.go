package application

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one input of a batch, in input order.
// Exactly one of Outcome and Err is set.
type BatchItem struct {
	InputPath string
	Outcome   *AnalysisOutcome
	Err       error
}

// Stats summarizes the successful items of a batch.
type Stats struct {
	Count   int     `json:"count"`
	Failed  int     `json:"failed"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// BatchResult holds per-item outcomes and their statistics.
type BatchResult struct {
	Items []BatchItem
	Stats Stats
}

// BatchOptions controls where batch outputs go. With an empty OutDir no
// files are written.
type BatchOptions struct {
	OutDir    string
	WriteJSON bool
	// Concurrency above 1 runs that many reports at once.
	Concurrency int
}

// AnalyzeBatch evaluates paths one after another. A failing report is
// recorded on its item and the remaining reports still run.
func (p *AnalysisPipeline) AnalyzeBatch(ctx context.Context, paths []string, opts BatchOptions) *BatchResult {
	if opts.Concurrency > 1 {
		return p.AnalyzeBatchConcurrent(ctx, paths, opts)
	}
	reqs := batchRequests(paths, opts)
	items := make([]BatchItem, len(paths))
	for i, req := range reqs {
		items[i] = p.analyzeItem(ctx, req)
	}
	return &BatchResult{Items: items, Stats: ComputeStats(items)}
}

// AnalyzeBatchConcurrent evaluates up to opts.Concurrency reports at once.
// Item i always describes paths[i].
func (p *AnalysisPipeline) AnalyzeBatchConcurrent(ctx context.Context, paths []string, opts BatchOptions) *BatchResult {
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	reqs := batchRequests(paths, opts)
	items := make([]BatchItem, len(paths))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			items[i] = p.analyzeItem(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return &BatchResult{Items: items, Stats: ComputeStats(items)}
}

func (p *AnalysisPipeline) analyzeItem(ctx context.Context, req AnalyzeRequest) BatchItem {
	item := BatchItem{InputPath: req.InputPath}
	if err := ctx.Err(); err != nil {
		item.Err = fmt.Errorf("batch cancelled before %s: %w", req.InputPath, err)
		return item
	}
	item.Outcome, item.Err = p.Analyze(ctx, req)
	return item
}

// batchRequests derives output names from the input names, numbering
// repeats so two inputs never share an output file.
func batchRequests(paths []string, opts BatchOptions) []AnalyzeRequest {
	reqs := make([]AnalyzeRequest, len(paths))
	taken := make(map[string]bool)
	for i, path := range paths {
		reqs[i] = AnalyzeRequest{InputPath: path}
		if opts.OutDir == "" {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		stem := base
		for n := 2; taken[strings.ToLower(stem)]; n++ {
			stem = fmt.Sprintf("%s_%d", base, n)
		}
		taken[strings.ToLower(stem)] = true
		reqs[i].OutputPath = filepath.Join(opts.OutDir, stem+"_evaluation.txt")
		if opts.WriteJSON {
			reqs[i].JSONPath = filepath.Join(opts.OutDir, stem+"_evaluation.json")
		}
	}
	return reqs
}

// ComputeStats aggregates total scores over the successful items.
func ComputeStats(items []BatchItem) Stats {
	var s Stats
	sum := 0.0
	for _, item := range items {
		if item.Err != nil || item.Outcome == nil {
			s.Failed++
			continue
		}
		score := item.Outcome.Result.TotalScore
		if s.Count == 0 {
			s.Max, s.Min = score, score
		}
		s.Max = math.Max(s.Max, score)
		s.Min = math.Min(s.Min, score)
		sum += score
		s.Count++
	}
	if s.Count > 0 {
		s.Average = sum / float64(s.Count)
	}
	return s
}
