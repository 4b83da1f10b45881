package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/fareview/pkg/application"
)

type recordingAnalyzer struct {
	mu   sync.Mutex
	reqs []application.AnalyzeRequest
	err  error
}

func (a *recordingAnalyzer) Analyze(ctx context.Context, req application.AnalyzeRequest) (*application.AnalysisOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reqs = append(a.reqs, req)
	if a.err != nil {
		return nil, a.err
	}
	return &application.AnalysisOutcome{InputPath: req.InputPath, OutputPath: req.OutputPath}, nil
}

func (a *recordingAnalyzer) requests() []application.AnalyzeRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]application.AnalyzeRequest(nil), a.reqs...)
}

func TestOutputPaths(t *testing.T) {
	txt, js := OutputPaths("out", "/inbox/FA-0042.PDF")
	if txt != filepath.Join("out", "FA-0042_pdf_evaluation.txt") || js != filepath.Join("out", "FA-0042_pdf_evaluation.json") {
		t.Fatalf("OutputPaths = %s, %s", txt, js)
	}
}

func TestInbox_ProcessSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "r.txt")
	if err := os.WriteFile(report, []byte("report"), 0600); err != nil {
		t.Fatal(err)
	}

	analyzer := &recordingAnalyzer{}
	inbox := NewInbox(analyzer, InboxConfig{Dir: dir, OutDir: filepath.Join(dir, "out"), Extensions: []string{".txt"}})

	if !inbox.Process(context.Background(), report) {
		t.Fatal("first Process should analyze")
	}
	if inbox.Process(context.Background(), report) {
		t.Fatal("unchanged file should be skipped")
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(report, later, later); err != nil {
		t.Fatal(err)
	}
	if !inbox.Process(context.Background(), report) {
		t.Fatal("rewritten file should be analyzed again")
	}
	if inbox.Process(context.Background(), filepath.Join(dir, "gone.txt")) {
		t.Fatal("missing file should be skipped")
	}

	reqs := analyzer.requests()
	if len(reqs) != 2 || reqs[0].OutputPath != filepath.Join(dir, "out", "r_txt_evaluation.txt") {
		t.Fatalf("unexpected requests %+v", reqs)
	}
}

func TestInbox_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "r.txt")
	if err := os.WriteFile(report, []byte("report"), 0600); err != nil {
		t.Fatal(err)
	}

	var got InboxResult
	inbox := NewInbox(&recordingAnalyzer{err: errors.New("scoring down")}, InboxConfig{
		Dir:        dir,
		Extensions: []string{".txt"},
		OnResult:   func(r InboxResult) { got = r },
	})
	inbox.Process(context.Background(), report)
	if got.Path != report || got.Err == nil || got.Outcome != nil {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestInbox_RunAnalyzesNewReports(t *testing.T) {
	dir := t.TempDir()
	analyzer := &recordingAnalyzer{}
	results := make(chan InboxResult, 4)
	inbox := NewInbox(analyzer, InboxConfig{
		Dir:        dir,
		Extensions: []string{".txt"},
		Debounce:   30 * time.Millisecond,
		OnResult:   func(r InboxResult) { results <- r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inbox.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	report := filepath.Join(dir, "fa-1.txt")
	if err := os.WriteFile(report, []byte("report"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-results:
		if r.Path != report || r.Err != nil {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("report was not analyzed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inbox did not stop")
	}
}

func TestInbox_RunRejectsMissingDir(t *testing.T) {
	inbox := NewInbox(&recordingAnalyzer{}, InboxConfig{Dir: filepath.Join(t.TempDir(), "missing")})
	if err := inbox.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing inbox")
	}
}
