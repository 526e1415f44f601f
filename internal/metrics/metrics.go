// Package metrics records run results as Prometheus metrics and writes them
// in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/su1ph3r/wafprobe/internal/catalog"
	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Outcome label values
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// Collector holds the metrics of a single run on its own registry
type Collector struct {
	registry *prometheus.Registry

	testsTotal   *prometheus.CounterVec
	blockedTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	passRatio    *prometheus.GaugeVec
	responseTime *prometheus.HistogramVec

	mu     sync.Mutex
	totals map[string]int
	passed map[string]int
}

// New creates a collector with all metrics registered
func New() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		totals:   make(map[string]int),
		passed:   make(map[string]int),
	}

	c.testsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wafprobe_tests_total",
			Help: "Total number of WAF test cases executed",
		},
		[]string{"category", "outcome"},
	)

	c.blockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wafprobe_blocked_total",
			Help: "Total number of requests blocked by the WAF",
		},
		[]string{"category"},
	)

	c.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wafprobe_errors_total",
			Help: "Total number of requests that failed at the transport level",
		},
		[]string{"category"},
	)

	c.passRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wafprobe_pass_ratio",
			Help: "Share of passed test cases per category (0-1)",
		},
		[]string{"category"},
	)

	c.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wafprobe_response_time_seconds",
			Help:    "Response time distribution in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"category"},
	)

	collectors := []prometheus.Collector{
		c.testsTotal,
		c.blockedTotal,
		c.errorsTotal,
		c.passRatio,
		c.responseTime,
	}
	for _, col := range collectors {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return c, nil
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one result
func (c *Collector) Observe(res types.TestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := OutcomeFailed
	if res.Passed() {
		outcome = OutcomePassed
		c.passed[res.Category]++
	}
	c.totals[res.Category]++

	c.testsTotal.WithLabelValues(res.Category, outcome).Inc()
	if res.ActualBlocked {
		c.blockedTotal.WithLabelValues(res.Category).Inc()
	}
	if res.Error != "" {
		c.errorsTotal.WithLabelValues(res.Category).Inc()
	}
	if res.ResponseTimeMS > 0 {
		c.responseTime.WithLabelValues(res.Category).Observe(res.ResponseTimeMS / 1000.0)
	}

	c.passRatio.WithLabelValues(res.Category).Set(float64(c.passed[res.Category]) / float64(c.totals[res.Category]))
}

// SectionStarted implements the runner observer
func (c *Collector) SectionStarted(int, catalog.Section) {}

// SectionFinished records the results of a finished section
func (c *Collector) SectionFinished(_ int, _ catalog.Section, results []types.TestResult) {
	for _, res := range results {
		c.Observe(res)
	}
}

// WriteTextfile writes all metrics to path in the textfile collector
// format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
