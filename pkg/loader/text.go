package loader

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/fareview/pkg/domain/document"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextLoader reads UTF-8 plain text.
type TextLoader struct {
	format     document.Format
	extensions []string
}

// NewTextLoader handles .txt, .text and .log files.
func NewTextLoader() *TextLoader {
	return &TextLoader{format: document.FormatText, extensions: []string{".txt", ".text", ".log"}}
}

// NewMarkdownLoader handles markdown files as plain text.
func NewMarkdownLoader() *TextLoader {
	return &TextLoader{format: document.FormatMarkdown, extensions: []string{".md", ".markdown"}}
}

func (l *TextLoader) Format() document.Format { return l.format }
func (l *TextLoader) Extensions() []string    { return l.extensions }
func (l *TextLoader) Available() bool         { return true }

// Extract strips a UTF-8 byte order mark and replaces invalid sequences.
func (l *TextLoader) Extract(ctx context.Context, content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}
