// Package runner executes catalog cases against the target and records results
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/su1ph3r/wafprobe/internal/catalog"
	"github.com/su1ph3r/wafprobe/internal/client"
	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Sender is the part of the HTTP adapter the runner needs
type Sender interface {
	Send(ctx context.Context, req *client.Request) *client.Result
	BaseURL() string
}

// Observer is notified as sections of a catalog run
type Observer interface {
	SectionStarted(index int, section catalog.Section)
	SectionFinished(index int, section catalog.Section, results []types.TestResult)
}

// HealthError is returned when the target fails its health check
type HealthError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *HealthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("WAF is not responding at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("WAF is not responding at %s (status code: %d)", e.URL, e.StatusCode)
}

func (e *HealthError) Unwrap() error {
	return e.Err
}

// Runner drives test cases through the client. It is not safe for
// concurrent use; cases run one at a time.
type Runner struct {
	sender     Sender
	healthPath string
	observers  []Observer
	logger     *slog.Logger
	results    []types.TestResult
}

// Option configures a Runner
type Option func(*Runner)

// WithObserver registers an observer for section progress. Observers are
// notified in registration order.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithHealthPath overrides the health check path
func WithHealthPath(path string) Option {
	return func(r *Runner) { r.healthPath = path }
}

// New creates a runner
func New(sender Sender, opts ...Option) *Runner {
	r := &Runner{
		sender:     sender,
		healthPath: "/health",
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HealthCheck verifies the target answers 200 on the health path
func (r *Runner) HealthCheck(ctx context.Context) error {
	res := r.sender.Send(ctx, &client.Request{Method: http.MethodGet, Path: r.healthPath})
	url := r.sender.BaseURL() + r.healthPath

	if res.Failed() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("health check failed", "url", url, "error", res.Err)
		return &HealthError{URL: r.sender.BaseURL(), Err: res.Err}
	}
	if res.StatusCode != http.StatusOK {
		r.logger.Warn("health check failed", "url", url, "status", res.StatusCode)
		return &HealthError{URL: r.sender.BaseURL(), StatusCode: res.StatusCode}
	}

	r.logger.Info("health check passed", "url", url, "elapsed", res.Elapsed)
	return nil
}

// Run executes one case, appends its result and returns it
func (r *Runner) Run(ctx context.Context, tc types.TestCase) types.TestResult {
	res := r.sender.Send(ctx, &client.Request{
		Method:  tc.Method,
		Path:    tc.Path,
		Params:  tc.Params,
		Body:    tc.Body,
		Headers: tc.Headers,
	})

	result := types.TestResult{
		Name:            tc.Name,
		Category:        tc.Category,
		Payload:         tc.Payload(),
		ExpectedBlocked: tc.ExpectBlocked,
		StatusCode:      res.StatusCode,
		ResponseTimeMS:  res.ElapsedMS(),
	}

	if res.Failed() {
		msg := res.Err.Error()
		result.StatusCode = 0
		result.Message = &msg
		result.Error = msg
	} else {
		result.RuleID = res.Body.RuleID
		result.Message = res.Body.Reason()
	}
	result.ActualBlocked = result.StatusCode == types.BlockedStatus

	r.results = append(r.results, result)

	r.logger.Debug("test executed",
		"name", result.Name,
		"category", result.Category,
		"status", result.StatusCode,
		"blocked", result.ActualBlocked,
		"passed", result.Passed(),
		"response_time_ms", result.ResponseTimeMS)

	return result
}

// RunAll executes every section of the catalog in order. It stops between
// requests when ctx is cancelled and returns ctx.Err().
func (r *Runner) RunAll(ctx context.Context, cat *catalog.Catalog) error {
	r.logger.Info("run started", "catalog", cat.Name, "cases", cat.Len())

	for i, section := range cat.Sections {
		for _, o := range r.observers {
			o.SectionStarted(i, section)
		}

		start := len(r.results)
		for _, tc := range section.Cases {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.Run(ctx, tc)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, o := range r.observers {
			o.SectionFinished(i, section, r.results[start:])
		}
	}

	r.logger.Info("run finished", "results", len(r.results))
	return nil
}

// Results returns the recorded results in execution order
func (r *Runner) Results() []types.TestResult {
	return r.results
}
