package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// MarkdownReporter generates Markdown reports
type MarkdownReporter struct {
	options ReportOptions
}

// NewMarkdownReporter creates a new Markdown reporter
func NewMarkdownReporter(options ReportOptions) *MarkdownReporter {
	return &MarkdownReporter{options: options}
}

// Format returns the format name
func (r *MarkdownReporter) Format() string {
	return "markdown"
}

// Extension returns the file extension
func (r *MarkdownReporter) Extension() string {
	return "md"
}

// Generate generates a Markdown report
func (r *MarkdownReporter) Generate(report *types.Report) ([]byte, error) {
	var buf strings.Builder
	if err := r.Write(report, &buf); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// Write writes the Markdown report to a writer
func (r *MarkdownReporter) Write(report *types.Report, w io.Writer) error {
	title := r.options.Title
	if title == "" {
		title = DefaultOptions().Title
	}
	s := Summarize(report.Results)

	fmt.Fprintf(w, "# %s\n\n", title)

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Target | `%s` |\n", report.URL)
	fmt.Fprintf(w, "| Run ID | `%s` |\n", report.RunID)
	fmt.Fprintf(w, "| Completed | %s |\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "| Duration | %s |\n", report.Duration)
	fmt.Fprintf(w, "| Total Tests | %d |\n", s.Total)
	fmt.Fprintf(w, "| Passed | %d (%.1f%%) |\n", s.Passed, s.PassedPct())
	fmt.Fprintf(w, "| Failed | %d (%.1f%%) |\n", s.Failed, s.FailedPct())
	fmt.Fprintf(w, "\n")

	if len(s.Categories) > 0 {
		fmt.Fprintf(w, "### By Category\n\n")
		fmt.Fprintf(w, "| Category | Tests | Passed | Pass Rate |\n")
		fmt.Fprintf(w, "|----------|-------|--------|-----------|\n")
		for _, cat := range s.Categories {
			fmt.Fprintf(w, "| %s | %d | %d | %.0f%% |\n", cat.Category, cat.Total, cat.Passed, cat.PassRate)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "## Results\n\n")
	if len(report.Results) == 0 {
		fmt.Fprintf(w, "_No tests were run._\n\n")
	} else {
		fmt.Fprintf(w, "| Result | Test | Category | Expected | Actual | Status | Time | Rule |\n")
		fmt.Fprintf(w, "|--------|------|----------|----------|--------|--------|------|------|\n")
		for _, res := range report.Results {
			outcome := "PASS"
			if !res.Passed() {
				outcome = "**FAIL**"
			}
			rule := "-"
			if res.RuleID != nil {
				rule = fmt.Sprintf("%d", *res.RuleID)
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %d | %.1fms | %s |\n",
				outcome, escapeMarkdownCell(res.Name), res.Category,
				types.Verdict(res.ExpectedBlocked), types.Verdict(res.ActualBlocked),
				res.StatusCode, res.ResponseTimeMS, rule)
		}
		fmt.Fprintf(w, "\n")
	}

	if len(s.FailedTests) > 0 {
		fmt.Fprintf(w, "## Failed Tests\n\n")
		for _, res := range s.FailedTests {
			fmt.Fprintf(w, "### %s\n\n", res.Name)
			fmt.Fprintf(w, "- **Category:** %s\n", res.Category)
			fmt.Fprintf(w, "- **Payload:** `%s`\n", strings.ReplaceAll(res.Payload, "`", "'"))
			fmt.Fprintf(w, "- **Expected:** %s, **Got:** %s (Status: %d)\n",
				types.Verdict(res.ExpectedBlocked), types.Verdict(res.ActualBlocked), res.StatusCode)
			if res.Message != nil && *res.Message != "" {
				fmt.Fprintf(w, "- **Message:** %s\n", *res.Message)
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if len(s.Rules) > 0 {
		fmt.Fprintf(w, "## Triggered Rules\n\n")
		fmt.Fprintf(w, "| Rule | Hits |\n")
		fmt.Fprintf(w, "|------|------|\n")
		for _, rc := range s.Rules {
			fmt.Fprintf(w, "| %d | %d |\n", rc.RuleID, rc.Count)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "---\n\n_Generated by wafprobe_\n")

	return nil
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
