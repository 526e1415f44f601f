// Package reporter provides output formatting for WAF test runs
package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Reporter interface for generating reports
type Reporter interface {
	// Generate generates a report from a finished run
	Generate(report *types.Report) ([]byte, error)

	// Write writes the report to a writer
	Write(report *types.Report, w io.Writer) error

	// Format returns the report format name
	Format() string

	// Extension returns the file extension for this format
	Extension() string
}

// NewReporter creates a reporter based on format
func NewReporter(format string, options ReportOptions) (Reporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONReporter(options), nil
	case "text", "txt":
		return NewTextReporter(options, nil), nil
	case "markdown", "md":
		return NewMarkdownReporter(options), nil
	case "xlsx", "excel":
		return NewXLSXReporter(options), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// ForFile picks a reporter from the file extension, falling back to JSON.
// File output never carries ANSI colors.
func ForFile(filename string, options ReportOptions) Reporter {
	options.NoColor = true
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return NewJSONReporter(options)
	}
	r, err := NewReporter(ext, options)
	if err != nil {
		return NewJSONReporter(options)
	}
	return r
}

// ReportOptions contains options for report generation
type ReportOptions struct {
	NoColor       bool          // Disable ANSI colors in text output
	SlowThreshold time.Duration // Highlight results slower than this
	Title         string        // Custom report title
}

// DefaultOptions returns default report options
func DefaultOptions() ReportOptions {
	return ReportOptions{
		SlowThreshold: 300 * time.Millisecond,
		Title:         "WAF Test Suite",
	}
}

// WriteToFile writes a report to a file
func WriteToFile(reporter Reporter, report *types.Report, filename string) error {
	// Ensure directory exists
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return reporter.Write(report, file)
}

// TruncateString truncates a string to maxLen runes
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
