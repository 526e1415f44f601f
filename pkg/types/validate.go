// Package types provides core data structures for wafprobe
package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ConfigValidator validates configuration settings
type ConfigValidator struct {
	errors ValidationErrors
}

// NewConfigValidator creates a new config validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate performs validation of the config
func (v *ConfigValidator) Validate(config *Config) ValidationErrors {
	v.errors = nil

	v.validateTargetSettings(config.Target)
	v.validateHTTPSettings(config.HTTP)
	v.validateLogSettings(config.Log)

	return v.errors
}

func (v *ConfigValidator) addError(field, message string, value interface{}) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

func (v *ConfigValidator) validateTargetSettings(t TargetSettings) {
	if err := ValidateURL(t.URL); err != nil {
		v.addError("target.url", err.Error(), t.URL)
	}

	if t.Timeout < time.Second {
		v.addError("target.timeout", "should be at least 1 second", t.Timeout)
	}
	if t.Timeout > 5*time.Minute {
		v.addError("target.timeout", "timeout exceeds 5 minutes", t.Timeout)
	}

	if t.RateLimit < 0 {
		v.addError("target.rate_limit", "cannot be negative", t.RateLimit)
	}

	if !strings.HasPrefix(t.HealthPath, "/") {
		v.addError("target.health_path", "must start with /", t.HealthPath)
	}
}

func (v *ConfigValidator) validateHTTPSettings(h HTTPSettings) {
	if h.UserAgent == "" {
		v.addError("http.user_agent", "should not be empty", h.UserAgent)
	}
	for k := range h.Headers {
		if strings.TrimSpace(k) == "" {
			v.addError("http.headers", "header name cannot be empty", k)
		}
	}
}

func (v *ConfigValidator) validateLogSettings(l LogSettings) {
	if l.MaxSizeMB < 0 {
		v.addError("log.max_size_mb", "cannot be negative", l.MaxSizeMB)
	}
	if l.MaxBackups < 0 {
		v.addError("log.max_backups", "cannot be negative", l.MaxBackups)
	}
}

// ValidateConfig is a convenience function to validate a config
func ValidateConfig(config *Config) error {
	validator := NewConfigValidator()
	errors := validator.Validate(config)
	if errors.HasErrors() {
		return errors
	}
	return nil
}

// ValidateURL validates a URL string
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL must have a scheme (http or https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
