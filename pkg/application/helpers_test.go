package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain"
	"github.com/felixgeelhaar/fareview/pkg/domain/ai"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

var fixedTime = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// scores91 sums to 91 under the default rubric.
var scores91 = map[string]float64{
	"Basic Information Completeness":     14,
	"Problem Description and Definition": 14,
	"Analysis Method and Process":        18,
	"Data and Evidence Support":          18,
	"Root Cause Analysis":                18,
	"Corrective Actions":                 9,
}

// responseDoc returns an evaluator response for the default rubric as a
// generic document so tests can mutate it.
func responseDoc(total float64, grade string) map[string]any {
	dims := map[string]any{}
	for _, d := range rubric.Default().Dimensions() {
		score := scores91[d.Name]
		dims[d.Name] = map[string]any{
			"score":      score,
			"percentage": score / d.Weight * 100,
			"comment":    "ok for " + d.Name,
		}
	}
	return map[string]any{
		"totalScore":      total,
		"grade":           grade,
		"dimensionScores": dims,
		"strengths":       []any{"Clear SEM images", "Complete lot traceability"},
		"improvements": []any{
			map[string]any{"priority": "low", "item": "Formatting", "suggestion": "Number the figures"},
			map[string]any{"priority": "high", "item": "Verification", "suggestion": "Add a verification plan"},
		},
		"summary": "A strong report.",
	}
}

func encode(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// fakeProvider returns a fixed response after an optional delay.
type fakeProvider struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32

	mu      sync.Mutex
	prompts []ai.CompletionRequest
}

func (f *fakeProvider) ID() string { return "fake:test" }

func (f *fakeProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, req)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ai.CompletionResponse{Text: f.text, Usage: ai.TokenUsage{InputTokens: 100, OutputTokens: 50}}, nil
}

// mapLoader serves report text from memory; unknown paths are not found.
type mapLoader map[string]string

func (m mapLoader) Load(ctx context.Context, path string) (string, error) {
	text, ok := m[path]
	if !ok {
		return "", &evaluation.InputError{Kind: evaluation.InputNotFound, Path: path}
	}
	return text, nil
}

type memoryWriter struct {
	mu      sync.Mutex
	reports map[string]string
	results map[string]evaluation.AnalysisResult
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{reports: map[string]string{}, results: map[string]evaluation.AnalysisResult{}}
}

func (w *memoryWriter) WriteReport(path, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports[path] = text
	return nil
}

func (w *memoryWriter) WriteResult(path string, r evaluation.AnalysisResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[path] = r
	return nil
}

type memoryEvents struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *memoryEvents) RecordEvent(e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memoryEvents) LoadEvents() ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events...), nil
}

type memoryHistory struct {
	mu      sync.Mutex
	records []evaluation.RunRecord
}

func (h *memoryHistory) Record(ctx context.Context, rec evaluation.RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func (h *memoryHistory) Recent(ctx context.Context, limit int) ([]evaluation.RunRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]evaluation.RunRecord(nil), h.records...), nil
}

func (h *memoryHistory) Stats(ctx context.Context) (evaluation.HistoryStats, error) {
	return evaluation.HistoryStats{}, errors.New("not implemented")
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []application.AnalysisEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, ev application.AnalysisEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}
