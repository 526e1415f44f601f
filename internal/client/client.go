// Package client sends catalog requests to the target and captures the exchange
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 1 << 20

// Request describes one call to the target
type Request struct {
	Method  string
	Path    string
	Params  map[string]string
	Body    map[string]string
	Headers map[string]string
}

// Result is the outcome of Send. Err is set, and StatusCode is 0, when the
// exchange failed at the network level.
type Result struct {
	StatusCode int
	Body       ResponseBody
	Elapsed    time.Duration
	Err        error
}

// Failed reports whether the request never produced an HTTP response
func (r *Result) Failed() bool {
	return r.Err != nil
}

// ElapsedMS returns the elapsed time in fractional milliseconds
func (r *Result) ElapsedMS() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Client is the HTTP adapter used for every request of a run
type Client struct {
	baseURL     string
	headers     map[string]string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// New creates a client for the target described in cfg
func New(cfg types.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.HTTP.VerifySSL,
		},
	}

	rateLimiter := NewRateLimiter(cfg.Target.RateLimit)
	logger.Debug("client ready",
		"base_url", strings.TrimRight(cfg.Target.URL, "/"),
		"timeout", cfg.Target.Timeout,
		"rate_limited", rateLimiter.Enabled(),
		"verify_ssl", cfg.HTTP.VerifySSL)

	return &Client{
		baseURL:   strings.TrimRight(cfg.Target.URL, "/"),
		headers:   cfg.HTTP.Headers,
		userAgent: cfg.HTTP.UserAgent,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Target.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect is a decision by the target; report it as-is.
				return http.ErrUseLastResponse
			},
		},
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// BaseURL returns the target base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs the request. It never returns a nil Result; network
// failures are reported through Result.Err.
func (c *Client) Send(ctx context.Context, req *Request) *Result {
	start := time.Now()
	result := &Result{}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		result.Err = fmt.Errorf("failed to build request: %w", err)
		result.Elapsed = time.Since(start)
		return result
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		c.logger.Debug("request failed",
			"method", httpReq.Method,
			"url", httpReq.URL.String(),
			"elapsed", result.Elapsed,
			"error", err)
		return result
	}

	body, readErr := readBody(resp)
	result.Elapsed = time.Since(start)
	if readErr != nil {
		// The exchange did not complete; a status line alone is not a response.
		result.Err = fmt.Errorf("failed to read response body: %w", readErr)
		c.logger.Debug("response read failed",
			"method", httpReq.Method,
			"url", httpReq.URL.String(),
			"status", resp.StatusCode,
			"elapsed", result.Elapsed,
			"error", readErr)
		return result
	}
	result.StatusCode = resp.StatusCode
	result.Body = decodeBody(body)

	c.logger.Debug("request completed",
		"method", httpReq.Method,
		"url", httpReq.URL.String(),
		"status", resp.StatusCode,
		"elapsed", result.Elapsed)

	return result
}

// buildRequest builds an HTTP request. GET carries params only, POST the JSON
// body only, any other method both.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	targetURL := c.baseURL + req.Path

	withParams := method != http.MethodPost
	withBody := method != http.MethodGet

	if withParams && len(req.Params) > 0 {
		query := url.Values{}
		for k, v := range req.Params {
			query.Set(k, v)
		}
		sep := "?"
		if strings.Contains(targetURL, "?") {
			sep = "&"
		}
		targetURL += sep + query.Encode()
	}

	var body io.Reader
	if withBody && req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}

	// Defaults first so per-case headers win
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}
	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}
