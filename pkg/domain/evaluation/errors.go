package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrNotFound              = errors.New("input not found")
	ErrUnsupportedFormat     = errors.New("unsupported input format")
	ErrDependencyUnavailable = errors.New("format support unavailable")
	ErrUnreadable            = errors.New("input unreadable")

	ErrScoringTimeout   = errors.New("scoring timed out")
	ErrScoringTransport = errors.New("scoring transport failure")
	ErrScoringAuth      = errors.New("scoring authentication failure")
	ErrScoringQuota     = errors.New("scoring quota exceeded")

	ErrResponseFormat = errors.New("unparseable evaluator response")
	ErrSchema         = errors.New("evaluator response violates schema")
)

// InputKind classifies an InputError.
type InputKind string

const (
	InputNotFound              InputKind = "not_found"
	InputUnsupportedFormat     InputKind = "unsupported_format"
	InputDependencyUnavailable InputKind = "dependency_unavailable"
	// InputUnreadable covers files that exist but cannot be read or whose
	// content the format loader rejects (corrupt or encrypted documents).
	InputUnreadable InputKind = "unreadable"
)

// InputError reports a report that could not be loaded.
type InputError struct {
	Kind InputKind
	Path string
	Err  error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Path, strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Is allows errors.Is to match the sentinel for the error kind.
func (e *InputError) Is(target error) bool {
	switch e.Kind {
	case InputNotFound:
		return target == ErrNotFound
	case InputUnsupportedFormat:
		return target == ErrUnsupportedFormat
	case InputDependencyUnavailable:
		return target == ErrDependencyUnavailable
	case InputUnreadable:
		return target == ErrUnreadable
	}
	return false
}

// ScoringKind classifies a ScoringError.
type ScoringKind string

const (
	ScoringTimeout   ScoringKind = "timeout"
	ScoringTransport ScoringKind = "transport"
	ScoringAuth      ScoringKind = "auth"
	ScoringQuota     ScoringKind = "quota"
)

// ScoringError reports a failed call to the scoring service. Every kind is
// retryable by the caller; the pipeline itself does not retry.
type ScoringError struct {
	Kind     ScoringKind
	Provider string
	Err      error
}

func (e *ScoringError) Error() string {
	msg := fmt.Sprintf("scoring %s failure", e.Kind)
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScoringError) Unwrap() error { return e.Err }

// Is allows errors.Is to match the sentinel for the error kind.
func (e *ScoringError) Is(target error) bool {
	switch e.Kind {
	case ScoringTimeout:
		return target == ErrScoringTimeout
	case ScoringTransport:
		return target == ErrScoringTransport
	case ScoringAuth:
		return target == ErrScoringAuth
	case ScoringQuota:
		return target == ErrScoringQuota
	}
	return false
}

// Retryable reports that a caller may resubmit the same request.
func (e *ScoringError) Retryable() bool { return true }

// NewScoringError wraps err with a kind unless err already is a ScoringError.
func NewScoringError(kind ScoringKind, provider string, err error) error {
	var se *ScoringError
	if errors.As(err, &se) {
		return err
	}
	return &ScoringError{Kind: kind, Provider: provider, Err: err}
}

// snippetLimit bounds the response text kept for diagnostics.
const snippetLimit = 500

// ResponseFormatError reports evaluator output that is not a parseable
// structured value.
type ResponseFormatError struct {
	Snippet string
	Err     error
}

// NewResponseFormatError keeps at most 500 runes of the offending text.
func NewResponseFormatError(text string, err error) *ResponseFormatError {
	return &ResponseFormatError{Snippet: Truncate(text, snippetLimit), Err: err}
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("evaluator response is not valid JSON: %v (response: %q)", e.Err, e.Snippet)
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

func (e *ResponseFormatError) Is(target error) bool { return target == ErrResponseFormat }

// SchemaError reports a parseable response that is structurally invalid.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "evaluator response violates schema: " + strings.Join(e.Violations, "; ")
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// Stage names a step of the analysis pipeline.
type Stage string

const (
	StageLoad     Stage = "load"
	StagePrompt   Stage = "prompt"
	StageScore    Stage = "score"
	StageValidate Stage = "validate"
	StageRender   Stage = "render"
	StagePersist  Stage = "persist"
)

// StageError attributes a per-report failure to the stage it occurred in.
type StageError struct {
	RunID string
	Path  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage failed: %v", e.Path, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
