package watch

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// PatternFilter filters file paths based on include/exclude glob patterns.
type PatternFilter struct {
	Include []string
	Exclude []string
	// FoldCase matches patterns against lower-cased paths.
	FoldCase bool
	// Logger, when set, records excluded paths at debug level.
	Logger *slog.Logger
}

// Temporary and partial files that office suites, browsers and editors
// leave next to the real document.
var defaultInboxExcludes = []string{".*", "~$*", "*~", "*.tmp", "*.part", "*.crdownload", "*_evaluation.*"}

// NewReportFilter accepts files with one of the given extensions (".pdf")
// and rejects temporary files and fareview's own outputs.
func NewReportFilter(extensions []string) *PatternFilter {
	include := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		include = append(include, "*"+strings.ToLower(ext))
	}
	return &PatternFilter{Include: include, Exclude: defaultInboxExcludes, FoldCase: true}
}

// NewPatternFilter creates a new pattern filter.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{
		Include: include,
		Exclude: exclude,
	}
}

// Matches returns true if the path passes the filter.
// If include patterns are set, at least one must match.
// If exclude patterns are set, none must match.
func (f *PatternFilter) Matches(path string) bool {
	if f.FoldCase {
		path = strings.ToLower(path)
	}
	base := filepath.Base(path)

	// Check excludes first
	for _, pattern := range f.Exclude {
		if f.match(pattern, base) || f.match(pattern, path) {
			if f.Logger != nil {
				f.Logger.Debug("skipping excluded file", "path", path, "pattern", pattern)
			}
			return false
		}
	}

	// If no include patterns, everything passes
	if len(f.Include) == 0 {
		return true
	}

	// At least one include must match
	for _, pattern := range f.Include {
		if f.match(pattern, base) || f.match(pattern, path) {
			return true
		}
	}

	return false
}

func (f *PatternFilter) match(pattern, name string) bool {
	if f.FoldCase {
		pattern = strings.ToLower(pattern)
	}
	matched, _ := filepath.Match(pattern, name)
	return matched
}
