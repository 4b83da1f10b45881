// Package document defines how report files are turned into text.
package document

import "context"

// Format identifies a report container format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatDOC      Format = "doc"
	FormatHTML     Format = "html"
)

// Loader extracts the text of one report. Implementations return
// *evaluation.InputError for missing files, unknown formats and formats whose
// support is not available.
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// FormatLoader extracts text from the raw bytes of one format.
type FormatLoader interface {
	Format() Format
	// Extensions lists the lower-case file extensions, with leading dot.
	Extensions() []string
	// Available reports whether support for the format is present.
	Available() bool
	Extract(ctx context.Context, content []byte) (string, error)
}
