package wiring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/fareview/pkg/application"
	"github.com/felixgeelhaar/fareview/pkg/domain"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

func TestBuildApp_AnalyzesWithMockProvider(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()

	app, err := BuildApp(root, AppOptions{
		Provider: ProviderOptions{Provider: "mock"},
		Timeout:  10 * time.Second,
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("BuildApp: %v", err)
	}
	defer app.Close()

	input := filepath.Join(root, "fa-0042.txt")
	if err := os.WriteFile(input, []byte("FA report: lot 7731, SEM shows void."), 0600); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(root, "out", "fa-0042_evaluation.txt")

	out, err := app.Pipeline.Analyze(context.Background(), application.AnalyzeRequest{InputPath: input, OutputPath: output})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "[Dimension Scores]") {
		t.Fatalf("unexpected report:\n%s", data)
	}

	records, err := app.History.Recent(context.Background(), 10)
	if err != nil || len(records) != 1 || records[0].RunID != out.RunID {
		t.Fatalf("history = %+v, %v", records, err)
	}
	events, err := app.Workspace.Audit.GetTimeline()
	if err != nil || len(events) != 1 || events[0].Action != domain.ActionAnalysisCompleted {
		t.Fatalf("audit = %+v, %v", events, err)
	}
	if app.AIConfig.ScoringTimeout() != 10*time.Second {
		t.Fatalf("timeout override not applied: %v", app.AIConfig.ScoringTimeout())
	}
}

func TestBuildApp_InvalidRubricIsFatal(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".fareview"), 0700); err != nil {
		t.Fatal(err)
	}
	bad := "dimensions:\n  - name: A\n    weight: 10\n"
	if err := os.WriteFile(filepath.Join(root, ".fareview", "rubric.yaml"), []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := BuildApp(root, AppOptions{Provider: ProviderOptions{Provider: "mock"}, Registry: prometheus.NewRegistry()})
	if !errors.Is(err, rubric.ErrConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestNewWorkspace_WiresNotifierFromConfig(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.Notifier != nil {
		t.Fatal("expected no notifier without webhooks.yaml")
	}
	if err := ws.Audit.Log("test.workspace", "tester", nil); err != nil {
		t.Fatalf("audit log failed: %v", err)
	}

	hooks := "webhooks:\n  - name: qa\n    url: http://127.0.0.1:9/hook\n    enabled: true\n"
	if err := os.WriteFile(filepath.Join(root, ".fareview", "webhooks.yaml"), []byte(hooks), 0600); err != nil {
		t.Fatal(err)
	}
	ws, err = NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ws.Notifier == nil {
		t.Fatal("expected notifier from webhooks.yaml")
	}
}

type captureNotifier struct {
	events []application.AnalysisEvent
}

func (c *captureNotifier) Notify(_ context.Context, ev application.AnalysisEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func TestBuildApp_ExtraNotifiersReceiveEvents(t *testing.T) {
	clearProviderEnv(t)
	root := t.TempDir()
	capture := &captureNotifier{}

	app, err := BuildApp(root, AppOptions{
		Provider:  ProviderOptions{Provider: "mock"},
		Registry:  prometheus.NewRegistry(),
		Notifiers: []application.Notifier{capture},
	})
	if err != nil {
		t.Fatalf("BuildApp: %v", err)
	}
	defer app.Close()

	_, err = app.Pipeline.Analyze(context.Background(), application.AnalyzeRequest{InputPath: filepath.Join(root, "missing.txt")})
	if err == nil {
		t.Fatal("expected a load failure")
	}
	if len(capture.events) != 1 || capture.events[0].Type != "analysis.failed" || capture.events[0].Stage != "load" {
		t.Fatalf("events = %+v", capture.events)
	}
}
