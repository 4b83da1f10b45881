package loader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/felixgeelhaar/fareview/pkg/domain/document"
)

// DOCXLoader reads the paragraphs and tables of an Office Open XML document.
type DOCXLoader struct{}

func NewDOCXLoader() *DOCXLoader { return &DOCXLoader{} }

func (l *DOCXLoader) Format() document.Format { return document.FormatDOCX }
func (l *DOCXLoader) Extensions() []string    { return []string{".docx"} }
func (l *DOCXLoader) Available() bool         { return true }

func (l *DOCXLoader) Extract(ctx context.Context, content []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open DOCX archive: %w", err)
	}

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		switch it := item.(type) {
		case *docx.Paragraph:
			writeLine(&b, it.String())
		case *docx.Table:
			writeTable(&b, it)
		}
	}
	return b.String(), nil
}

// writeTable emits one line per row with cells separated by tabs.
func writeTable(b *strings.Builder, t *docx.Table) {
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				if s := strings.TrimSpace(p.String()); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		writeLine(b, strings.Join(cells, "\t"))
	}
}

func writeLine(b *strings.Builder, s string) {
	s = strings.TrimRight(s, "\t ")
	if s == "" {
		return
	}
	b.WriteString(s)
	b.WriteString("\n")
}
