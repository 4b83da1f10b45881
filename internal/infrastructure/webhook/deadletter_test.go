package webhook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/fareview/pkg/domain/events"
)

func failedDelivery(runID string) events.DeadLetter {
	return events.DeadLetter{
		Timestamp:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		WebhookName: "qa-channel",
		URL:         "https://hooks.example.com/fa",
		EventType:   "analysis.failed",
		RunID:       runID,
		Payload:     `{"type":"analysis.failed"}`,
		Error:       "connection refused",
		Attempts:    3,
	}
}

func TestDeadLetterStore_CreatesWorkspaceDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project", ".fareview", "deadletters.jsonl")
	store := NewDeadLetterStore(path)

	if err := store.Append(failedDelivery("run-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("dead letter file not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestDeadLetterStore_KeepsRunID(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "deadletters.jsonl"))
	want := failedDelivery("0b6d4c1e-run")

	if err := store.Append(want); err != nil {
		t.Fatalf("Append: %v", err)
	}
	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.RunID != want.RunID || got.EventType != want.EventType || got.Attempts != 3 {
		t.Errorf("entry = %+v, want %+v", got, want)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestDeadLetterStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletters.jsonl")
	store := NewDeadLetterStore(path)

	if err := store.Append(failedDelivery("first")); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"webhook_name\": \"truncat\n\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(failedDelivery("second")); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "first" || entries[1].RunID != "second" {
		t.Fatalf("expected first and second around the corrupt line, got %+v", entries)
	}
}

func TestDeadLetterStore_WrapsOpenError(t *testing.T) {
	dir := t.TempDir()
	store := NewDeadLetterStore(dir)

	err := store.Append(failedDelivery("run"))
	if err == nil {
		t.Fatal("expected error appending to a directory")
	}
	if !strings.Contains(err.Error(), "open dead letter file") {
		t.Errorf("error not wrapped with context: %v", err)
	}
}

func TestDeadLetterStore_ConcurrentAppends(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "deadletters.jsonl"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Append(failedDelivery(fmt.Sprintf("run-%d", i))); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 20 {
		t.Fatalf("expected 20 intact entries, got %d", len(entries))
	}
}

func TestDeadLetterStore_ReadAll_MissingFile(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "nonexistent.jsonl"))

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil entries for missing file, got %v", entries)
	}
}
