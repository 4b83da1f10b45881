package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})
}

func TestMapError(t *testing.T) {
	stage := func(s evaluation.Stage, err error) error {
		return &evaluation.StageError{Path: "r.pdf", Stage: s, Err: err}
	}
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantHint    string
	}{
		{"not found", stage(evaluation.StageLoad, &evaluation.InputError{Kind: evaluation.InputNotFound, Path: "r.pdf"}), "report not found: r.pdf (load stage)", "-i"},
		{"unsupported", stage(evaluation.StageLoad, &evaluation.InputError{Kind: evaluation.InputUnsupportedFormat, Path: "r.xyz"}), "unsupported report format", ".pdf"},
		{"unreadable", stage(evaluation.StageLoad, &evaluation.InputError{Kind: evaluation.InputUnreadable, Path: "r.pdf", Err: errors.New("not a PDF file")}), "report could not be read", "password"},
		{"doc unavailable", stage(evaluation.StageLoad, &evaluation.InputError{Kind: evaluation.InputDependencyUnavailable, Path: "r.doc"}), "format support unavailable", ".docx"},
		{"auth", stage(evaluation.StageScore, &evaluation.ScoringError{Kind: evaluation.ScoringAuth}), "rejected the credentials", "ANTHROPIC_API_KEY"},
		{"quota", stage(evaluation.StageScore, &evaluation.ScoringError{Kind: evaluation.ScoringQuota}), "quota", "--provider"},
		{"timeout", stage(evaluation.StageScore, &evaluation.ScoringError{Kind: evaluation.ScoringTimeout}), "did not answer in time", "--timeout"},
		{"transport", stage(evaluation.StageScore, &evaluation.ScoringError{Kind: evaluation.ScoringTransport}), "could not be reached", "network"},
		{"format", stage(evaluation.StageValidate, evaluation.NewResponseFormatError("prose", errors.New("bad"))), "unusable answer", "--verbose"},
		{"schema", stage(evaluation.StageValidate, &evaluation.SchemaError{Violations: []string{"grade missing"}}), "unusable answer", "Retry"},
		{"rubric", fmt.Errorf("rubric.yaml: %w", &rubric.ConfigurationError{Reason: "weights sum to 90"}), "weights sum to 90", "rubric.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cliErr *CLIError
			if !errors.As(MapError(tt.err), &cliErr) {
				t.Fatalf("expected *CLIError, got %T", MapError(tt.err))
			}
			if !strings.Contains(cliErr.Message, tt.wantMessage) {
				t.Errorf("message = %q, want it to contain %q", cliErr.Message, tt.wantMessage)
			}
			if !strings.Contains(cliErr.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want it to contain %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(cliErr, tt.err) {
				t.Error("mapped error should wrap the original")
			}
		})
	}

	if MapError(nil) != nil {
		t.Fatal("nil should map to nil")
	}
	plain := errors.New("plain")
	if MapError(plain) != plain {
		t.Fatal("unmapped errors are returned as-is")
	}
	existing := NewCLIError("x", "y", nil)
	if MapError(existing) != existing {
		t.Fatal("CLIError passes through")
	}
}

func TestPrintError(t *testing.T) {
	var b strings.Builder
	printError(&b, NewCLIError("report not found", "Check the path", nil))
	if b.String() != "Error: report not found\nHint: Check the path\n" {
		t.Fatalf("unexpected output %q", b.String())
	}
	b.Reset()
	printError(&b, errors.New("boom"))
	if b.String() != "Error: boom\n" {
		t.Fatalf("unexpected output %q", b.String())
	}
}
