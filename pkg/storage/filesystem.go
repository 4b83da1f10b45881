// Package storage persists workspace state under the .fareview directory:
// the audit event chain, the analysis history and written reports.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

const FareviewDir = ".fareview"
const AIConfigFile = "ai.yaml"
const RubricFile = "rubric.yaml"
const WebhookFile = "webhooks.yaml"
const EventsFile = "events.jsonl"
const DeadLetterFile = "deadletters.jsonl"
const HistoryFile = "history.db"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is within the .fareview directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Clean(filepath.Join(r.root, FareviewDir))
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	// Only direct children of .fareview are allowed.
	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, FareviewDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", FareviewDir, err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, FareviewDir))
	return err == nil
}

// WriteReport writes the rendered report, replacing any existing file.
func (r *FilesystemRepository) WriteReport(path string, text string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	// #nosec G306 -- evaluation reports are deliverables meant to be shared
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// WriteResult writes the structured result as indented JSON.
func (r *FilesystemRepository) WriteResult(path string, result evaluation.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	// #nosec G306 -- evaluation results are deliverables meant to be shared
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write result %s: %w", path, err)
	}
	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
