package loader

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/felixgeelhaar/fareview/pkg/domain/document"
)

// HTMLLoader converts exported HTML reports to markdown so tables and
// headings survive as text.
type HTMLLoader struct {
	converter *md.Converter
}

func NewHTMLLoader() *HTMLLoader {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLLoader{converter: converter}
}

func (l *HTMLLoader) Format() document.Format { return document.FormatHTML }
func (l *HTMLLoader) Extensions() []string    { return []string{".html", ".htm"} }
func (l *HTMLLoader) Available() bool         { return true }

func (l *HTMLLoader) Extract(ctx context.Context, content []byte) (string, error) {
	markdown, err := l.converter.ConvertString(string(content))
	if err != nil {
		return "", fmt.Errorf("convert HTML: %w", err)
	}
	return markdown, nil
}
