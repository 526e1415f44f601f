package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

func testConfig(url string) types.Config {
	cfg := *types.DefaultConfig()
	cfg.Target.URL = url
	cfg.Target.Timeout = 2 * time.Second
	return cfg
}

func TestNew_LogsPacing(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "rate_limited=false"},
		{5, "rate_limited=true"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		cfg := testConfig("http://waf.local/")
		cfg.Target.RateLimit = tt.rate
		New(cfg, logger)

		got := buf.String()
		if !strings.Contains(got, "client ready") || !strings.Contains(got, tt.want) {
			t.Errorf("rate %v: expected %q in %q", tt.rate, tt.want, got)
		}
		if !strings.Contains(got, "base_url=http://waf.local ") {
			t.Errorf("expected trimmed base url in %q", got)
		}
	}
}

func TestSend_GETQueryParams(t *testing.T) {
	var gotQuery, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("id")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(testConfig(server.URL+"/"), nil)
	res := c.Send(context.Background(), &Request{
		Method: "GET",
		Path:   "/search",
		Params: map[string]string{"id": "1' OR '1'='1"},
		Body:   map[string]string{"ignored": "yes"},
	})

	if res.Failed() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if gotPath != "/search" {
		t.Errorf("expected path /search (trailing slash stripped from base), got %q", gotPath)
	}
	if gotQuery != "1' OR '1'='1" {
		t.Errorf("expected query value to round-trip, got %q", gotQuery)
	}
	if gotBody != "" {
		t.Errorf("expected GET to carry no body, got %q", gotBody)
	}
	if res.Elapsed <= 0 {
		t.Error("expected elapsed time to be measured")
	}
}

func TestSend_PercentEncodedPayloadIsSentLiterally(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("file")
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	c.Send(context.Background(), &Request{
		Method: "GET",
		Path:   "/",
		Params: map[string]string{"file": "..%2F..%2Fetc%2Fpasswd"},
	})

	if got != "..%2F..%2Fetc%2Fpasswd" {
		t.Errorf("expected pre-encoded payload to arrive unchanged after decoding, got %q", got)
	}
}

func TestSend_POSTJSONBody(t *testing.T) {
	var gotBody map[string]string
	var gotContentType, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	res := c.Send(context.Background(), &Request{
		Method: "POST",
		Path:   "/api/users",
		Params: map[string]string{"ignored": "yes"},
		Body:   map[string]string{"name": "John", "email": "john@example.com"},
	})

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", res.StatusCode)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected application/json content type, got %q", gotContentType)
	}
	if gotQuery != "" {
		t.Errorf("expected POST to carry no query string, got %q", gotQuery)
	}
	if gotBody["name"] != "John" || gotBody["email"] != "john@example.com" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestSend_OtherMethodCarriesBoth(t *testing.T) {
	var gotQuery string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	c.Send(context.Background(), &Request{
		Method: "PUT",
		Path:   "/",
		Params: map[string]string{"q": "x"},
		Body:   map[string]string{"b": "y"},
	})

	if gotQuery != "x" {
		t.Errorf("expected query param on PUT, got %q", gotQuery)
	}
	if gotBody["b"] != "y" {
		t.Errorf("expected body on PUT, got %v", gotBody)
	}
}

func TestSend_HeadersLayering(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.HTTP.Headers = map[string]string{"X-Env": "staging", "X-Trace": "default"}
	cfg.HTTP.UserAgent = "wafprobe-test"

	c := New(cfg, nil)
	c.Send(context.Background(), &Request{
		Method:  "GET",
		Path:    "/",
		Headers: map[string]string{"X-Trace": "case"},
	})

	if got.Get("X-Env") != "staging" {
		t.Errorf("expected default header, got %q", got.Get("X-Env"))
	}
	if got.Get("X-Trace") != "case" {
		t.Errorf("expected per-case header to win, got %q", got.Get("X-Trace"))
	}
	if got.Get("User-Agent") != "wafprobe-test" {
		t.Errorf("expected configured user agent, got %q", got.Get("User-Agent"))
	}
}

func TestSend_BlockBodyDecoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"rule_id": 100, "message": "SQLi blocked"}`)
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	res := c.Send(context.Background(), &Request{Method: "GET", Path: "/"})

	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}
	if res.Body.RuleID == nil || *res.Body.RuleID != 100 {
		t.Errorf("expected rule_id 100, got %v", res.Body.RuleID)
	}
	if r := res.Body.Reason(); r == nil || *r != "SQLi blocked" {
		t.Errorf("expected message 'SQLi blocked', got %v", r)
	}
}

func TestSend_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "<html>Access denied</html>")
	}))
	defer server.Close()

	c := New(testConfig(server.URL), nil)
	res := c.Send(context.Background(), &Request{Method: "GET", Path: "/"})

	if res.Failed() {
		t.Fatalf("non-JSON body must not fail the call: %v", res.Err)
	}
	if res.Body.RuleID != nil || res.Body.Reason() != nil {
		t.Errorf("expected empty response body, got %+v", res.Body)
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := testConfig(server.URL)
	cfg.Target.Timeout = 50 * time.Millisecond

	c := New(cfg, nil)
	res := c.Send(context.Background(), &Request{Method: "GET", Path: "/"})

	if !res.Failed() {
		t.Fatal("expected timeout to be reported as failure")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected status sentinel 0, got %d", res.StatusCode)
	}
	if res.Elapsed < 50*time.Millisecond {
		t.Errorf("expected elapsed to cover the timeout, got %s", res.Elapsed)
	}
}

func TestSend_TimeoutWhileReadingBody(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"rule_id": 1`)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := testConfig(server.URL)
	cfg.Target.Timeout = 100 * time.Millisecond

	c := New(cfg, nil)
	res := c.Send(context.Background(), &Request{Method: "GET", Path: "/"})

	if !res.Failed() {
		t.Fatal("expected a stalled body to be reported as failure")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected status sentinel 0 after headers arrived, got %d", res.StatusCode)
	}
	if res.Body.RuleID != nil {
		t.Errorf("expected no decoded body, got rule %d", *res.Body.RuleID)
	}
	if res.Elapsed < 100*time.Millisecond {
		t.Errorf("expected elapsed to cover the timeout, got %s", res.Elapsed)
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := New(testConfig("http://"+addr), nil)
	res := c.Send(context.Background(), &Request{Method: "GET", Path: "/health"})

	if !res.Failed() {
		t.Fatal("expected connection failure")
	}
	if res.StatusCode != 0 {
		t.Errorf("expected status sentinel 0, got %d", res.StatusCode)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ruleID  *int
		message string
	}{
		{"empty", "", nil, ""},
		{"array", "[1,2]", nil, ""},
		{"error fallback", `{"error": "bad request"}`, nil, "bad request"},
		{"message wins", `{"message": "m", "error": "e"}`, nil, "m"},
		{"string rule id", `{"rule_id": "abc", "message": "kept"}`, nil, "kept"},
		{"null rule id", `{"rule_id": null}`, nil, ""},
		{"rule id", `{"rule_id": 942100}`, intPtr(942100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := decodeBody([]byte(tt.body))
			if (b.RuleID == nil) != (tt.ruleID == nil) {
				t.Fatalf("rule id presence mismatch: got %v, want %v", b.RuleID, tt.ruleID)
			}
			if tt.ruleID != nil && *b.RuleID != *tt.ruleID {
				t.Errorf("expected rule id %d, got %d", *tt.ruleID, *b.RuleID)
			}
			reason := ""
			if r := b.Reason(); r != nil {
				reason = *r
			}
			if reason != tt.message {
				t.Errorf("expected reason %q, got %q", tt.message, reason)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
