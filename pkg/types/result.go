package types

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

// BlockedStatus is the only status code treated as a block decision
const BlockedStatus = http.StatusForbidden

// Category names used by the built-in catalog
const (
	CategorySQLi             = "SQLi"
	CategoryXSS              = "XSS"
	CategoryPathTraversal    = "Path Traversal"
	CategoryCommandInjection = "Command Injection"
	CategoryNormal           = "Normal"
)

// TestCase is a single request to send and the decision expected from the WAF
type TestCase struct {
	Name          string            `json:"name" yaml:"name"`
	Category      string            `json:"category" yaml:"category"`
	Method        string            `json:"method" yaml:"method"`
	Path          string            `json:"path" yaml:"path"`
	Params        map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Body          map[string]string `json:"body,omitempty" yaml:"body,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ExpectBlocked bool              `json:"expect_blocked" yaml:"-"`
}

// Payload renders the attack input for display: params, else body, else path.
func (tc TestCase) Payload() string {
	return RenderPayload(tc.Path, tc.Params, tc.Body)
}

// RenderPayload formats request inputs as "k=v, k=v" with keys sorted
func RenderPayload(path string, params, body map[string]string) string {
	switch {
	case len(params) > 0:
		return renderPairs(params)
	case len(body) > 0:
		return renderPairs(body)
	default:
		return path
	}
}

func renderPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return strings.Join(pairs, ", ")
}

// TestResult records the outcome of one executed TestCase.
// It copies what it needs from the case so both serialize independently.
type TestResult struct {
	Name            string  `json:"name" yaml:"name"`
	Category        string  `json:"category" yaml:"category"`
	Payload         string  `json:"payload" yaml:"payload"`
	ExpectedBlocked bool    `json:"expected_blocked" yaml:"expected_blocked"`
	ActualBlocked   bool    `json:"actual_blocked" yaml:"actual_blocked"`
	StatusCode      int     `json:"status_code" yaml:"status_code"` // 0 on network failure
	ResponseTimeMS  float64 `json:"response_time_ms" yaml:"response_time_ms"`
	RuleID          *int    `json:"rule_id" yaml:"rule_id"`
	Message         *string `json:"message" yaml:"message"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Passed reports whether the WAF made the expected decision
func (r TestResult) Passed() bool {
	return r.ActualBlocked == r.ExpectedBlocked
}

// Verdict labels a blocked flag for display
func Verdict(blocked bool) string {
	if blocked {
		return "BLOCKED"
	}
	return "ALLOWED"
}

// CategorySummary aggregates results for one category
type CategorySummary struct {
	Category string  `json:"category"`
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
}

// Report is the machine-readable document produced after a full run
type Report struct {
	RunID      string            `json:"run_id"`
	Timestamp  time.Time         `json:"timestamp"`
	URL        string            `json:"url"`
	Duration   string            `json:"duration"`
	Total      int               `json:"total"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Categories []CategorySummary `json:"categories"`
	Results    []TestResult      `json:"results"`
}
