package types

import (
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target settings
	Target TargetSettings `yaml:"target" mapstructure:"target"`

	// HTTP settings
	HTTP HTTPSettings `yaml:"http" mapstructure:"http"`

	// Output settings
	Output OutputSettings `yaml:"output" mapstructure:"output"`

	// Catalog settings
	Catalog CatalogSettings `yaml:"catalog" mapstructure:"catalog"`

	// Log settings
	Log LogSettings `yaml:"log" mapstructure:"log"`
}

// TargetSettings describes the WAF endpoint under test
type TargetSettings struct {
	URL        string        `yaml:"url" mapstructure:"url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit  float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 = unpaced
	HealthPath string        `yaml:"health_path" mapstructure:"health_path"`
}

// HTTPSettings holds HTTP client configuration
type HTTPSettings struct {
	Headers   map[string]string `yaml:"headers" mapstructure:"headers"`
	UserAgent string            `yaml:"user_agent" mapstructure:"user_agent"`
	VerifySSL bool              `yaml:"verify_ssl" mapstructure:"verify_ssl"`
}

// OutputSettings holds output configuration
type OutputSettings struct {
	JSON        bool   `yaml:"json" mapstructure:"json"`
	File        string `yaml:"file" mapstructure:"file"` // JSON report copy
	XLSX        string `yaml:"xlsx" mapstructure:"xlsx"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
	Color       bool   `yaml:"color" mapstructure:"color"`
}

// CatalogSettings selects the test catalog
type CatalogSettings struct {
	File string `yaml:"file" mapstructure:"file"` // empty = built-in catalog
}

// LogSettings controls the diagnostic logger
type LogSettings struct {
	File       string `yaml:"file" mapstructure:"file"`
	Verbose    bool   `yaml:"verbose" mapstructure:"verbose"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Target: TargetSettings{
			URL:        "http://localhost:3000",
			Timeout:    5 * time.Second,
			RateLimit:  0,
			HealthPath: "/health",
		},
		HTTP: HTTPSettings{
			UserAgent: "wafprobe/1.0",
			Headers:   make(map[string]string),
			VerifySSL: true,
		},
		Output: OutputSettings{
			Color: true,
		},
		Log: LogSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
