package reporter

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"

	failedFill = "FF5900"
	slowFill   = "FFEB9C"
)

var resultColumns = []string{
	"#", "Name", "Category", "Payload", "Expected", "Actual",
	"Status", "Time (ms)", "Rule ID", "Message", "Result",
}

// XLSXReporter generates spreadsheet reports
type XLSXReporter struct {
	options ReportOptions
}

// NewXLSXReporter creates a new XLSX reporter
func NewXLSXReporter(options ReportOptions) *XLSXReporter {
	return &XLSXReporter{options: options}
}

// Format returns the format name
func (r *XLSXReporter) Format() string {
	return "xlsx"
}

// Extension returns the file extension
func (r *XLSXReporter) Extension() string {
	return "xlsx"
}

// Generate generates an XLSX workbook
func (r *XLSXReporter) Generate(report *types.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Write(report, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the XLSX workbook to a writer
func (r *XLSXReporter) Write(report *types.Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := r.writeResults(f, report); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := r.writeSummary(f, report); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (r *XLSXReporter) writeResults(f *excelize.File, report *types.Report) error {
	failedStyle, err := fillStyle(f, failedFill)
	if err != nil {
		return err
	}
	slowStyle, err := fillStyle(f, slowFill)
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(resultsSheet, "A1", &resultColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(resultColumns), 1)
	if err := f.SetCellStyle(resultsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	slowMS := float64(r.options.SlowThreshold) / float64(time.Millisecond)

	for i, res := range report.Results {
		row := i + 2
		var ruleID any
		if res.RuleID != nil {
			ruleID = *res.RuleID
		}
		message := ""
		if res.Message != nil {
			message = *res.Message
		}
		outcome := "PASS"
		if !res.Passed() {
			outcome = "FAIL"
		}

		cells := []any{
			i + 1,
			res.Name,
			res.Category,
			res.Payload,
			types.Verdict(res.ExpectedBlocked),
			types.Verdict(res.ActualBlocked),
			res.StatusCode,
			res.ResponseTimeMS,
			ruleID,
			message,
			outcome,
		}

		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(resultsSheet, start, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}

		end, _ := excelize.CoordinatesToCellName(len(cells), row)
		switch {
		case !res.Passed():
			err = f.SetCellStyle(resultsSheet, start, end, failedStyle)
		case slowMS > 0 && res.ResponseTimeMS > slowMS:
			err = f.SetCellStyle(resultsSheet, start, end, slowStyle)
		}
		if err != nil {
			return err
		}
	}

	return f.SetColWidth(resultsSheet, "B", "B", 45)
}

func (r *XLSXReporter) writeSummary(f *excelize.File, report *types.Report) error {
	title := r.options.Title
	if title == "" {
		title = DefaultOptions().Title
	}

	rows := [][]any{
		{title},
		{"Run ID", report.RunID},
		{"Target", report.URL},
		{"Completed", report.Timestamp.Format(time.RFC3339)},
		{"Duration", report.Duration},
		{"Total", report.Total},
		{"Passed", report.Passed},
		{"Failed", report.Failed},
		{},
		{"Category", "Total", "Passed", "Failed", "Pass Rate (%)"},
	}
	for _, cat := range report.Categories {
		rows = append(rows, []any{cat.Category, cat.Total, cat.Passed, cat.Failed, cat.PassRate})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	return f.SetColWidth(summarySheet, "A", "A", 20)
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create fill style: %w", err)
	}
	return style, nil
}
