// Package catalog provides the ordered set of WAF test cases
package catalog

import (
	"sort"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Section groups cases that share a category and are reported together
type Section struct {
	Title    string
	Category string
	Cases    []types.TestCase
}

// Catalog is an ordered list of sections. Flattening it gives the run order.
type Catalog struct {
	Name     string
	Sections []Section
}

// Cases returns every case in run order
func (c *Catalog) Cases() []types.TestCase {
	var cases []types.TestCase
	for _, s := range c.Sections {
		cases = append(cases, s.Cases...)
	}
	return cases
}

// Len returns the total number of cases
func (c *Catalog) Len() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Cases)
	}
	return n
}

// Categories returns the distinct categories, sorted
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tc := range c.Cases() {
		if !seen[tc.Category] {
			seen[tc.Category] = true
			out = append(out, tc.Category)
		}
	}
	sort.Strings(out)
	return out
}

func attack(name, category, method, path string, params, body map[string]string) types.TestCase {
	return types.TestCase{
		Name:          name,
		Category:      category,
		Method:        method,
		Path:          path,
		Params:        params,
		Body:          body,
		ExpectBlocked: true,
	}
}

func benign(name, method, path string, params, body map[string]string) types.TestCase {
	return types.TestCase{
		Name:          name,
		Category:      types.CategoryNormal,
		Method:        method,
		Path:          path,
		Params:        params,
		Body:          body,
		ExpectBlocked: false,
	}
}

type kv = map[string]string

// Default returns the built-in catalog. Every call returns a fresh copy.
func Default() *Catalog {
	sqli := types.CategorySQLi
	xss := types.CategoryXSS
	lfi := types.CategoryPathTraversal
	rce := types.CategoryCommandInjection

	return &Catalog{
		Name: "default",
		Sections: []Section{
			{
				Title:    "SQL Injection Tests",
				Category: sqli,
				Cases: []types.TestCase{
					attack("Basic SQLi - Union Select", sqli, "GET", "/", kv{"id": "1' OR '1'='1"}, nil),
					attack("SQLi - Union Select", sqli, "GET", "/", kv{"q": "test UNION SELECT password FROM users"}, nil),
					attack("SQLi - Comment", sqli, "GET", "/", kv{"id": "1'--"}, nil),
					attack("SQLi - Boolean", sqli, "GET", "/", kv{"user": "admin' AND '1'='1"}, nil),
					attack("SQLi - Time-based", sqli, "GET", "/", kv{"id": "1' AND SLEEP(5)--"}, nil),
					attack("SQLi - POST Body", sqli, "POST", "/api/login", nil, kv{"password": "pass' OR '1'='1"}),
					attack("SQLi - URL Encoded", sqli, "GET", "/", kv{"id": "1%27%20OR%20%271%27%3D%271"}, nil),
				},
			},
			{
				Title:    "XSS (Cross-Site Scripting) Tests",
				Category: xss,
				Cases: []types.TestCase{
					attack("XSS - Script Tag", xss, "GET", "/", kv{"q": "<script>alert('xss')</script>"}, nil),
					attack("XSS - JavaScript Protocol", xss, "GET", "/", kv{"url": "javascript:alert(1)"}, nil),
					attack("XSS - Event Handler", xss, "GET", "/", kv{"input": "<img src=x onerror=alert(1)>"}, nil),
					attack("XSS - Iframe", xss, "GET", "/", kv{"content": "<iframe src=evil.com></iframe>"}, nil),
					attack("XSS - Document Cookie", xss, "GET", "/", kv{"q": "test<script>document.cookie</script>"}, nil),
					attack("XSS - POST Body", xss, "POST", "/api/comment", nil, kv{"comment": "<script>alert('xss')</script>"}),
				},
			},
			{
				Title:    "Path Traversal Tests",
				Category: lfi,
				Cases: []types.TestCase{
					attack("LFI - Basic", lfi, "GET", "/", kv{"file": "../../../etc/passwd"}, nil),
					attack("LFI - Encoded", lfi, "GET", "/", kv{"file": "..%2F..%2F..%2Fetc%2Fpasswd"}, nil),
					attack("LFI - Null Byte", lfi, "GET", "/", kv{"file": "../../../etc/passwd%00"}, nil),
				},
			},
			{
				Title:    "Command Injection Tests",
				Category: rce,
				Cases: []types.TestCase{
					attack("RCE - Basic", rce, "GET", "/", kv{"cmd": "; ls -la"}, nil),
					attack("RCE - Pipe", rce, "GET", "/", kv{"input": "test | cat /etc/passwd"}, nil),
					attack("RCE - Backtick", rce, "GET", "/", kv{"q": "test `whoami`"}, nil),
				},
			},
			{
				Title:    "Normal Requests (Should Pass)",
				Category: types.CategoryNormal,
				Cases: []types.TestCase{
					benign("Normal GET", "GET", "/", kv{"page": "home"}, nil),
					benign("Normal POST", "POST", "/api/users", nil, kv{"name": "John", "email": "john@example.com"}),
					benign("Normal Query", "GET", "/search", kv{"q": "hello world"}, nil),
				},
			},
		},
	}
}
