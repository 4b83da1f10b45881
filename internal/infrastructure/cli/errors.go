package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
	"github.com/felixgeelhaar/fareview/pkg/loader"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var cfgErr *rubric.ConfigurationError
	if errors.As(err, &cfgErr) {
		return NewCLIError(cfgErr.Error(), "Fix .fareview/rubric.yaml: weights must sum to 100 and bands must cover 0 to 100 without gaps", err)
	}

	msg := err.Error()
	var stageErr *evaluation.StageError
	if errors.As(err, &stageErr) {
		msg = fmt.Sprintf("%s (%s stage)", stageErr.Path, stageErr.Stage)
	}

	switch {
	case errors.Is(err, evaluation.ErrNotFound):
		return NewCLIError("report not found: "+msg, "Check the path passed to -i", err)
	case errors.Is(err, evaluation.ErrUnsupportedFormat):
		return NewCLIError("unsupported report format: "+msg, "Supported extensions: "+supportedExtensions(), err)
	case errors.Is(err, evaluation.ErrUnreadable):
		return NewCLIError("report could not be read: "+msg, "Check that the file opens in its own application and is not password protected", err)
	case errors.Is(err, evaluation.ErrDependencyUnavailable):
		return NewCLIError("format support unavailable: "+msg, "Save the document as .docx or .pdf and retry; 'fareview doctor' lists readable formats", err)
	case errors.Is(err, evaluation.ErrScoringAuth):
		return NewCLIError("the scoring service rejected the credentials: "+msg, "Set ANTHROPIC_API_KEY (or the key for your --provider) or pass -k", err)
	case errors.Is(err, evaluation.ErrScoringQuota):
		return NewCLIError("the scoring service quota is exhausted: "+msg, "Wait and retry, or switch with --provider", err)
	case errors.Is(err, evaluation.ErrScoringTimeout):
		return NewCLIError("the scoring service did not answer in time: "+msg, "Retry, or raise --timeout (timeout_sec in .fareview/ai.yaml)", err)
	case errors.Is(err, evaluation.ErrScoringTransport):
		return NewCLIError("the scoring service could not be reached: "+msg, "Check network access and retry", err)
	case errors.Is(err, evaluation.ErrResponseFormat), errors.Is(err, evaluation.ErrSchema):
		return NewCLIError("the evaluator returned an unusable answer: "+msg, "Retry the analysis; --verbose logs the raw response", err)
	}

	return err
}

func supportedExtensions() string {
	var exts []string
	for _, c := range loader.NewDefaultRegistry().Capabilities() {
		if c.Available {
			exts = append(exts, c.Extensions...)
		}
	}
	return strings.Join(exts, ", ")
}
