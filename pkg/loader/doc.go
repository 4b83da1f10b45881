package loader

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/fareview/pkg/domain/document"
)

// DOCLoader claims the legacy binary Word format so it reports a missing
// dependency instead of an unknown extension. No pure Go reader is wired in.
type DOCLoader struct{}

func NewDOCLoader() *DOCLoader { return &DOCLoader{} }

func (l *DOCLoader) Format() document.Format { return document.FormatDOC }
func (l *DOCLoader) Extensions() []string    { return []string{".doc"} }
func (l *DOCLoader) Available() bool         { return false }

func (l *DOCLoader) Extract(ctx context.Context, content []byte) (string, error) {
	return "", errors.New("legacy .doc files are not supported; save the report as .docx or .pdf")
}
