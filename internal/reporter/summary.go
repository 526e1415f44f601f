package reporter

import (
	"sort"
	"time"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// SlowestLimit is how many results the slowest-tests list holds
const SlowestLimit = 5

// Pass-rate tags for the category breakdown
const (
	TagGood = "good" // >= 80%
	TagWarn = "warn" // >= 50%
	TagBad  = "bad"
)

// RuleCount is how many results a WAF rule triggered on
type RuleCount struct {
	RuleID int `json:"rule_id"`
	Count  int `json:"count"`
}

// Summary aggregates a run's results
type Summary struct {
	Total       int
	Passed      int
	Failed      int
	Categories  []types.CategorySummary
	FailedTests []types.TestResult
	Slowest     []types.TestResult
	Rules       []RuleCount
}

// Summarize computes totals, per-category stats, failures, the slowest
// results and rule tallies. It does not modify results.
func Summarize(results []types.TestResult) Summary {
	s := Summary{Total: len(results)}

	byCategory := make(map[string]*types.CategorySummary)
	ruleHits := make(map[int]int)

	for _, r := range results {
		cat, ok := byCategory[r.Category]
		if !ok {
			cat = &types.CategorySummary{Category: r.Category}
			byCategory[r.Category] = cat
		}
		cat.Total++

		if r.Passed() {
			s.Passed++
			cat.Passed++
		} else {
			s.Failed++
			cat.Failed++
			s.FailedTests = append(s.FailedTests, r)
		}

		if r.RuleID != nil {
			ruleHits[*r.RuleID]++
		}
	}

	for _, cat := range byCategory {
		cat.PassRate = percent(cat.Passed, cat.Total)
		s.Categories = append(s.Categories, *cat)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Category < s.Categories[j].Category
	})

	s.Slowest = slowest(results, SlowestLimit)

	for id, count := range ruleHits {
		s.Rules = append(s.Rules, RuleCount{RuleID: id, Count: count})
	}
	sort.Slice(s.Rules, func(i, j int) bool {
		return s.Rules[i].RuleID < s.Rules[j].RuleID
	})

	return s
}

// PassedPct returns the share of passed results in percent
func (s Summary) PassedPct() float64 {
	return percent(s.Passed, s.Total)
}

// FailedPct returns the share of failed results in percent
func (s Summary) FailedPct() float64 {
	return percent(s.Failed, s.Total)
}

// ExitCode is 0 when nothing failed, 1 otherwise
func (s Summary) ExitCode() int {
	if s.Failed == 0 {
		return 0
	}
	return 1
}

// RateTag maps a pass rate to its severity tag
func RateTag(passRate float64) string {
	switch {
	case passRate >= 80:
		return TagGood
	case passRate >= 50:
		return TagWarn
	default:
		return TagBad
	}
}

// NewReport builds the machine-readable report for a finished run
func NewReport(runID, url string, start, end time.Time, results []types.TestResult) *types.Report {
	s := Summarize(results)
	if results == nil {
		results = []types.TestResult{}
	}
	categories := s.Categories
	if categories == nil {
		categories = []types.CategorySummary{}
	}

	return &types.Report{
		RunID:      runID,
		Timestamp:  end,
		URL:        url,
		Duration:   end.Sub(start).String(),
		Total:      s.Total,
		Passed:     s.Passed,
		Failed:     s.Failed,
		Categories: categories,
		Results:    results,
	}
}

// slowest returns up to n results by descending response time. Ties keep
// execution order.
func slowest(results []types.TestResult, n int) []types.TestResult {
	sorted := make([]types.TestResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ResponseTimeMS > sorted[j].ResponseTimeMS
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
