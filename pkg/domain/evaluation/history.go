package evaluation

import (
	"context"
	"time"
)

// RunRecord is the persisted summary of one completed analysis.
type RunRecord struct {
	RunID      string         `json:"runId"`
	InputPath  string         `json:"inputPath"`
	OutputPath string         `json:"outputPath,omitempty"`
	Provider   string         `json:"provider"`
	TotalScore float64        `json:"totalScore"`
	Grade      string         `json:"grade"`
	Warnings   int            `json:"warnings"`
	CreatedAt  time.Time      `json:"createdAt"`
	Result     AnalysisResult `json:"result"`
}

// HistoryStats aggregates recorded runs.
type HistoryStats struct {
	Count   int            `json:"count"`
	Average float64        `json:"average"`
	Max     float64        `json:"max"`
	Min     float64        `json:"min"`
	ByGrade map[string]int `json:"byGrade"`
}

// HistoryRepository stores completed runs.
type HistoryRepository interface {
	Record(ctx context.Context, rec RunRecord) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	Stats(ctx context.Context) (HistoryStats, error)
}
