package catalog

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/su1ph3r/wafprobe/pkg/types"
)

// Expectation values accepted in catalog files
const (
	ExpectBlocked = "blocked"
	ExpectAllowed = "allowed"
)

// ValidationError reports a catalog entry that cannot be used
type ValidationError struct {
	Section string
	Case    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Case == "" {
		return fmt.Sprintf("catalog section %q: %s", e.Section, e.Message)
	}
	return fmt.Sprintf("catalog case %q in section %q: %s", e.Case, e.Section, e.Message)
}

type catalogFile struct {
	Name     string        `yaml:"name,omitempty"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	Title    string     `yaml:"title"`
	Category string     `yaml:"category"`
	Cases    []caseFile `yaml:"cases"`
}

type caseFile struct {
	Name     string            `yaml:"name"`
	Category string            `yaml:"category,omitempty"` // overrides the section category
	Method   string            `yaml:"method,omitempty"`
	Path     string            `yaml:"path,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
	Body     map[string]string `yaml:"body,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Expect   string            `yaml:"expect"`
}

// Load parses a catalog from a YAML file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse parses a catalog from YAML data
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if len(file.Sections) == 0 {
		return nil, fmt.Errorf("catalog has no sections")
	}

	cat := &Catalog{Name: file.Name}
	for _, sf := range file.Sections {
		section, err := buildSection(sf)
		if err != nil {
			return nil, err
		}
		cat.Sections = append(cat.Sections, section)
	}

	return cat, nil
}

func buildSection(sf sectionFile) (Section, error) {
	if sf.Title == "" {
		sf.Title = sf.Category
	}
	if sf.Title == "" {
		return Section{}, &ValidationError{Message: "title or category is required"}
	}

	section := Section{Title: sf.Title, Category: sf.Category}
	for _, cf := range sf.Cases {
		tc, err := buildCase(sf, cf)
		if err != nil {
			return Section{}, err
		}
		section.Cases = append(section.Cases, tc)
	}
	return section, nil
}

func buildCase(sf sectionFile, cf caseFile) (types.TestCase, error) {
	invalid := func(msg string) error {
		return &ValidationError{Section: sf.Title, Case: cf.Name, Message: msg}
	}

	if cf.Name == "" {
		return types.TestCase{}, invalid("name is required")
	}

	category := cf.Category
	if category == "" {
		category = sf.Category
	}
	if category == "" {
		return types.TestCase{}, invalid("category is required")
	}

	method := strings.ToUpper(cf.Method)
	if method == "" {
		method = http.MethodGet
	}

	path := cf.Path
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return types.TestCase{}, invalid("path must start with /")
	}

	var expectBlocked bool
	switch strings.ToLower(cf.Expect) {
	case ExpectBlocked:
		expectBlocked = true
	case ExpectAllowed:
		expectBlocked = false
	default:
		return types.TestCase{}, invalid(fmt.Sprintf("expect must be %q or %q, got %q", ExpectBlocked, ExpectAllowed, cf.Expect))
	}

	return types.TestCase{
		Name:          cf.Name,
		Category:      category,
		Method:        method,
		Path:          path,
		Params:        cf.Params,
		Body:          cf.Body,
		Headers:       cf.Headers,
		ExpectBlocked: expectBlocked,
	}, nil
}

// Export writes a catalog as YAML that Parse accepts
func Export(w io.Writer, cat *Catalog) error {
	file := catalogFile{Name: cat.Name}
	for _, s := range cat.Sections {
		sf := sectionFile{Title: s.Title, Category: s.Category}
		for _, tc := range s.Cases {
			cf := caseFile{
				Name:    tc.Name,
				Method:  tc.Method,
				Path:    tc.Path,
				Params:  tc.Params,
				Body:    tc.Body,
				Headers: tc.Headers,
				Expect:  ExpectAllowed,
			}
			if tc.Category != s.Category {
				cf.Category = tc.Category
			}
			if tc.ExpectBlocked {
				cf.Expect = ExpectBlocked
			}
			sf.Cases = append(sf.Cases, cf)
		}
		file.Sections = append(file.Sections, sf)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}
