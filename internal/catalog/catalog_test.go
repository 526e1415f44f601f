package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

func TestDefault_Order(t *testing.T) {
	want := []string{
		"Basic SQLi - Union Select",
		"SQLi - Union Select",
		"SQLi - Comment",
		"SQLi - Boolean",
		"SQLi - Time-based",
		"SQLi - POST Body",
		"SQLi - URL Encoded",
		"XSS - Script Tag",
		"XSS - JavaScript Protocol",
		"XSS - Event Handler",
		"XSS - Iframe",
		"XSS - Document Cookie",
		"XSS - POST Body",
		"LFI - Basic",
		"LFI - Encoded",
		"LFI - Null Byte",
		"RCE - Basic",
		"RCE - Pipe",
		"RCE - Backtick",
		"Normal GET",
		"Normal POST",
		"Normal Query",
	}

	cases := Default().Cases()
	if len(cases) != len(want) {
		t.Fatalf("expected %d cases, got %d", len(want), len(cases))
	}
	for i, tc := range cases {
		if tc.Name != want[i] {
			t.Errorf("case %d: expected %q, got %q", i, want[i], tc.Name)
		}
	}
}

func TestDefault_Expectations(t *testing.T) {
	for _, tc := range Default().Cases() {
		wantBlocked := tc.Category != types.CategoryNormal
		if tc.ExpectBlocked != wantBlocked {
			t.Errorf("%s: expected ExpectBlocked=%v", tc.Name, wantBlocked)
		}
	}
}

func TestDefault_LiteralPayloads(t *testing.T) {
	byName := make(map[string]types.TestCase)
	for _, tc := range Default().Cases() {
		byName[tc.Name] = tc
	}

	tests := []struct {
		name   string
		method string
		path   string
		params map[string]string
		body   map[string]string
	}{
		{"Basic SQLi - Union Select", "GET", "/", map[string]string{"id": "1' OR '1'='1"}, nil},
		{"SQLi - POST Body", "POST", "/api/login", nil, map[string]string{"password": "pass' OR '1'='1"}},
		{"SQLi - URL Encoded", "GET", "/", map[string]string{"id": "1%27%20OR%20%271%27%3D%271"}, nil},
		{"XSS - POST Body", "POST", "/api/comment", nil, map[string]string{"comment": "<script>alert('xss')</script>"}},
		{"LFI - Null Byte", "GET", "/", map[string]string{"file": "../../../etc/passwd%00"}, nil},
		{"RCE - Pipe", "GET", "/", map[string]string{"input": "test | cat /etc/passwd"}, nil},
		{"RCE - Backtick", "GET", "/", map[string]string{"q": "test `whoami`"}, nil},
		{"Normal POST", "POST", "/api/users", nil, map[string]string{"name": "John", "email": "john@example.com"}},
		{"Normal Query", "GET", "/search", map[string]string{"q": "hello world"}, nil},
	}

	for _, tt := range tests {
		tc, ok := byName[tt.name]
		if !ok {
			t.Errorf("missing case %q", tt.name)
			continue
		}
		if tc.Method != tt.method || tc.Path != tt.path {
			t.Errorf("%s: expected %s %s, got %s %s", tt.name, tt.method, tt.path, tc.Method, tc.Path)
		}
		if !reflect.DeepEqual(tc.Params, tt.params) {
			t.Errorf("%s: expected params %v, got %v", tt.name, tt.params, tc.Params)
		}
		if !reflect.DeepEqual(tc.Body, tt.body) {
			t.Errorf("%s: expected body %v, got %v", tt.name, tt.body, tc.Body)
		}
	}
}

func TestDefault_Categories(t *testing.T) {
	got := Default().Categories()
	want := []string{"Command Injection", "Normal", "Path Traversal", "SQLi", "XSS"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDefault_FreshCopy(t *testing.T) {
	a := Default()
	a.Sections[0].Cases[0].Params["id"] = "changed"

	if Default().Sections[0].Cases[0].Params["id"] != "1' OR '1'='1" {
		t.Fatal("expected Default to return an independent catalog")
	}
}

func TestExportParseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, Default()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	parsed, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, buf.String())
	}

	if !reflect.DeepEqual(parsed, Default()) {
		t.Errorf("round-tripped catalog differs from default:\n%s", buf.String())
	}
}

func TestLoad(t *testing.T) {
	content := `
name: smoke
sections:
  - title: SQL Injection Tests
    category: SQLi
    cases:
      - name: quote
        params:
          id: "1'"
        expect: blocked
      - name: header check
        category: Headers
        method: post
        path: /api
        headers:
          X-Forwarded-For: "127.0.0.1' OR 1=1"
        body:
          a: b
        expect: Allowed
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cases := cat.Cases()
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}

	first := cases[0]
	if first.Method != "GET" || first.Path != "/" || !first.ExpectBlocked || first.Category != "SQLi" {
		t.Errorf("defaults not applied: %+v", first)
	}

	second := cases[1]
	if second.Method != "POST" || second.Category != "Headers" || second.ExpectBlocked {
		t.Errorf("unexpected second case: %+v", second)
	}
	if second.Headers["X-Forwarded-For"] != "127.0.0.1' OR 1=1" {
		t.Errorf("expected header to be loaded, got %v", second.Headers)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no sections", "name: empty\n"},
		{"missing name", "sections:\n  - category: X\n    cases:\n      - expect: blocked\n"},
		{"bad expect", "sections:\n  - category: X\n    cases:\n      - name: a\n        expect: maybe\n"},
		{"missing category", "sections:\n  - title: T\n    cases:\n      - name: a\n        expect: blocked\n"},
		{"relative path", "sections:\n  - category: X\n    cases:\n      - name: a\n        path: api\n        expect: blocked\n"},
		{"not yaml", "sections: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParse_ValidationErrorNamesCase(t *testing.T) {
	_, err := Parse([]byte("sections:\n  - category: X\n    cases:\n      - name: bad one\n        expect: nope\n"))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Case != "bad one" {
		t.Errorf("expected case name in error, got %q", verr.Case)
	}
}
