// Package loader turns report files into text. Formats are registered by
// extension and each one reports whether its support is available.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/fareview/pkg/domain/document"
	"github.com/felixgeelhaar/fareview/pkg/domain/evaluation"
)

// Registry maps file extensions to format loaders.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]document.FormatLoader
	formats map[document.Format]document.FormatLoader
}

var _ document.Loader = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:   make(map[string]document.FormatLoader),
		formats: make(map[document.Format]document.FormatLoader),
	}
}

// NewDefaultRegistry returns a registry with every built-in format.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewTextLoader())
	r.Register(NewMarkdownLoader())
	r.Register(NewPDFLoader())
	r.Register(NewDOCXLoader())
	r.Register(NewDOCLoader())
	r.Register(NewHTMLLoader())
	return r
}

// Register adds a format loader, replacing any loader for the same format or
// extension.
func (r *Registry) Register(l document.FormatLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[l.Format()] = l
	for _, ext := range l.Extensions() {
		r.byExt[strings.ToLower(ext)] = l
	}
}

// Lookup returns the loader registered for a file's extension.
func (r *Registry) Lookup(path string) (document.FormatLoader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Supports reports whether path has a registered and available format.
func (r *Registry) Supports(path string) bool {
	l, ok := r.Lookup(path)
	return ok && l.Available()
}

// Capability describes one registered format.
type Capability struct {
	Format     document.Format
	Extensions []string
	Available  bool
}

// Capabilities lists registered formats sorted by name.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Capability, 0, len(r.formats))
	for _, l := range r.formats {
		out = append(out, Capability{
			Format:     l.Format(),
			Extensions: append([]string(nil), l.Extensions()...),
			Available:  l.Available(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}

// Load reads path and extracts its text with the loader for its extension.
func (r *Registry) Load(ctx context.Context, path string) (string, error) {
	l, ok := r.Lookup(path)
	if !ok {
		ext := filepath.Ext(path)
		if ext == "" {
			ext = "(none)"
		}
		return "", &evaluation.InputError{
			Kind: evaluation.InputUnsupportedFormat,
			Path: path,
			Err:  fmt.Errorf("no loader for extension %s", ext),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &evaluation.InputError{Kind: evaluation.InputNotFound, Path: path}
		}
		return "", &evaluation.InputError{Kind: evaluation.InputUnreadable, Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &evaluation.InputError{Kind: evaluation.InputNotFound, Path: path, Err: errors.New("path is a directory")}
	}

	if !l.Available() {
		return "", &evaluation.InputError{
			Kind: evaluation.InputDependencyUnavailable,
			Path: path,
			Err:  fmt.Errorf("%s support is not available", l.Format()),
		}
	}

	// #nosec G304 -- the path is the report the user asked to analyze
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &evaluation.InputError{Kind: evaluation.InputUnreadable, Path: path, Err: err}
	}

	text, err := l.Extract(ctx, content)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", &evaluation.InputError{
			Kind: evaluation.InputUnreadable,
			Path: path,
			Err:  fmt.Errorf("extract %s text: %w", l.Format(), err),
		}
	}
	return text, nil
}
