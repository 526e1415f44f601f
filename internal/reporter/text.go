package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/su1ph3r/wafprobe/internal/catalog"
	"github.com/su1ph3r/wafprobe/pkg/types"
)

const ruleWidth = 80

// TextReporter renders the console report. It also implements the runner's
// section observer so results print as each section completes. Without a
// progress writer, Write renders the whole report in one pass.
type TextReporter struct {
	options ReportOptions
	out     io.Writer

	pass    *color.Color
	fail    *color.Color
	warn    *color.Color
	heading *color.Color
	banner  *color.Color
}

// NewTextReporter creates a text reporter writing progress to out. A nil out
// makes it a standalone file reporter.
func NewTextReporter(options ReportOptions, out io.Writer) *TextReporter {
	r := &TextReporter{
		options: options,
		out:     out,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		heading: color.New(color.FgCyan),
		banner:  color.New(color.BgBlue, color.FgWhite),
	}

	if options.NoColor {
		for _, c := range []*color.Color{r.pass, r.fail, r.warn, r.heading, r.banner} {
			c.DisableColor()
		}
	}

	return r
}

// Format returns the format name
func (r *TextReporter) Format() string {
	return "text"
}

// Extension returns the file extension
func (r *TextReporter) Extension() string {
	return "txt"
}

// WriteHeader prints the run banner
func (r *TextReporter) WriteHeader(target string, started time.Time) {
	r.writeTitle(r.out, target)
	fmt.Fprintf(r.out, "Started: %s\n\n", started.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(r.out, strings.Repeat("=", ruleWidth))
}

func (r *TextReporter) writeTitle(w io.Writer, target string) {
	title := r.options.Title
	if title == "" {
		title = DefaultOptions().Title
	}

	fmt.Fprintf(w, "\n%s\n\n", r.banner.Sprintf(" %s ", title))
	fmt.Fprintf(w, "Target: %s\n", target)
}

// SectionStarted prints the section heading
func (r *TextReporter) SectionStarted(index int, section catalog.Section) {
	r.writeSection(r.out, index, section.Title)
}

func (r *TextReporter) writeSection(w io.Writer, index int, title string) {
	fmt.Fprintf(w, "\n%s\n", r.heading.Sprintf("[%d] %s", index+1, title))
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// SectionFinished prints one line per result of the section
func (r *TextReporter) SectionFinished(index int, section catalog.Section, results []types.TestResult) {
	for _, res := range results {
		r.WriteResult(r.out, res)
	}
}

// WriteResult prints a single result line
func (r *TextReporter) WriteResult(w io.Writer, res types.TestResult) {
	status := r.pass.Sprint("✓ PASS")
	if !res.Passed() {
		status = r.fail.Sprint("✗ FAIL")
	}

	verdict := r.pass.Sprintf("%-7s", types.Verdict(false))
	if res.ActualBlocked {
		verdict = r.fail.Sprintf("%-7s", types.Verdict(true))
	}

	ruleInfo := ""
	if res.RuleID != nil {
		ruleInfo = fmt.Sprintf(" (Rule: %d)", *res.RuleID)
	}

	fmt.Fprintf(w, "  %s %-50s %s [%d] %.1fms%s\n",
		status, res.Name, verdict, res.StatusCode, res.ResponseTimeMS, ruleInfo)
}

// Generate generates the text report
func (r *TextReporter) Generate(report *types.Report) ([]byte, error) {
	var buf strings.Builder
	if err := r.Write(report, &buf); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// Write writes the summary section of the report, preceded by the header
// and every result line when there is no progress writer
func (r *TextReporter) Write(report *types.Report, w io.Writer) error {
	if r.out == nil {
		r.writeTitle(w, report.URL)
		fmt.Fprintf(w, "Duration: %s\n\n", report.Duration)
		fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
		r.writeResults(w, report.Results)
	}

	s := Summarize(report.Results)

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "%s\n\n", r.banner.Sprint(" Test Summary "))

	r.writeOverall(w, s)
	r.writeCategories(w, s)
	r.writeFailures(w, s)
	r.writeSlowest(w, s)
	r.writeRules(w, s)

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "Completed: %s\n\n", report.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}

// writeResults prints result lines under a heading per run of one category
func (r *TextReporter) writeResults(w io.Writer, results []types.TestResult) {
	section := -1
	category := ""
	for _, res := range results {
		if section < 0 || res.Category != category {
			section++
			category = res.Category
			r.writeSection(w, section, category)
		}
		r.WriteResult(w, res)
	}
}

func (r *TextReporter) writeOverall(w io.Writer, s Summary) {
	fmt.Fprintln(w, r.heading.Sprint("Overall Statistics:"))
	fmt.Fprintf(w, "  Total Tests: %d\n", s.Total)
	fmt.Fprintf(w, "  %s\n", r.pass.Sprintf("Passed: %d (%.1f%%)", s.Passed, s.PassedPct()))
	fmt.Fprintf(w, "  %s\n", r.fail.Sprintf("Failed: %d (%.1f%%)", s.Failed, s.FailedPct()))
}

func (r *TextReporter) writeCategories(w io.Writer, s Summary) {
	if len(s.Categories) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", r.heading.Sprint("By Category:"))
	for _, cat := range s.Categories {
		c := r.tagColor(RateTag(cat.PassRate))
		fmt.Fprintf(w, "  %-20s %3d tests | %s\n",
			cat.Category, cat.Total, c.Sprintf("%2d passed (%.0f%%)", cat.Passed, cat.PassRate))
	}
}

func (r *TextReporter) writeFailures(w io.Writer, s Summary) {
	if len(s.FailedTests) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", r.fail.Sprint("Failed Tests:"))
	for _, res := range s.FailedTests {
		fmt.Fprintf(w, "  %s %s\n", r.fail.Sprint("✗"), res.Name)
		fmt.Fprintf(w, "    Expected: %s, Got: %s (Status: %d)\n",
			types.Verdict(res.ExpectedBlocked), types.Verdict(res.ActualBlocked), res.StatusCode)
		if res.Message != nil && *res.Message != "" {
			fmt.Fprintf(w, "    Message: %s\n", *res.Message)
		}
	}
}

func (r *TextReporter) writeSlowest(w io.Writer, s Summary) {
	if len(s.Slowest) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", r.warn.Sprint("Slowest Tests:"))
	for _, res := range s.Slowest {
		fmt.Fprintf(w, "  %-50s %6.1fms\n", res.Name, res.ResponseTimeMS)
	}
}

func (r *TextReporter) writeRules(w io.Writer, s Summary) {
	if len(s.Rules) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", r.heading.Sprint("Triggered Rules:"))
	for _, rc := range s.Rules {
		fmt.Fprintf(w, "  Rule %6d triggered %d time(s)\n", rc.RuleID, rc.Count)
	}
}

func (r *TextReporter) tagColor(tag string) *color.Color {
	switch tag {
	case TagGood:
		return r.pass
	case TagWarn:
		return r.warn
	default:
		return r.fail
	}
}
