package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/fareview/pkg/domain"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)

	got, err := repo.ResolvePath(storage.EventsFile)
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got != filepath.Join(root, storage.FareviewDir, storage.EventsFile) {
		t.Fatalf("unexpected path %s", got)
	}

	for _, bad := range []string{"", "../escape.txt", "sub/dir.txt", "../../etc/passwd"} {
		if _, err := repo.ResolvePath(bad); err == nil {
			t.Errorf("ResolvePath(%q) should fail", bad)
		}
	}
}

func TestEvents_RoundTrip(t *testing.T) {
	repo := storage.NewFilesystemRepository(t.TempDir())

	events, err := repo.LoadEvents()
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty log, got %v %v", events, err)
	}

	ts := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"e1", "e2"} {
		if err := repo.RecordEvent(domain.Event{ID: id, Timestamp: ts, Action: domain.ActionAnalysisCompleted}); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}

	path, _ := repo.ResolvePath(storage.EventsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("{not json\n")
	_ = f.Close()

	events, err = repo.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 2 || events[0].ID != "e1" || events[1].ID != "e2" {
		t.Fatalf("unexpected events %+v", events)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("events file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestWriteReport_Overwrites(t *testing.T) {
	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)
	out := filepath.Join(dir, "out", "report.txt")

	if err := repo.WriteReport(out, "first version that is longer"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := repo.WriteReport(out, "第二版"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "第二版" {
		t.Fatalf("report content = %q", data)
	}
}

func TestWriteResult_UsesWireFieldNames(t *testing.T) {
	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)
	out := filepath.Join(dir, "result.json")

	err := repo.WriteResult(out, evaluation.AnalysisResult{TotalScore: 75, Grade: "C"})
	if err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), `"totalScore": 75`) {
		t.Fatalf("unexpected JSON %s", data)
	}
}
