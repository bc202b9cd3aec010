package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ValidationError is one rejected configuration field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is every rejected field of one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether any field was rejected.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

func (e *ValidationErrors) add(field string, value any, msg string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: msg})
}

func (e ValidationErrors) err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Validator checks the shape of a configuration. Credentials are not
// required here; see RequireTracker and RequireLLM.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks cfg and returns ValidationErrors, or nil.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = v.errors[:0]
	v.checkLog(cfg.Log)
	v.checkLLM(cfg.LLM)
	v.checkTracker(cfg.Tracker)
	v.checkHistory(cfg.History)
	v.checkServer(cfg.Server)
	return v.errors.err()
}

// Errors returns what the last Validate rejected.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) oneOf(field, value string, allowed ...string) {
	if !slices.Contains(allowed, value) {
		v.errors.add(field, value, "must be one of: "+strings.Join(allowed, ", "))
	}
}

func (v *Validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.errors.add(field, value, "required")
	}
}

func (v *Validator) httpURL(field, value string) {
	if value != "" && !isValidURL(value) {
		v.errors.add(field, value, "must be an absolute http(s) URL")
	}
}

func (v *Validator) duration(field, value string) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	switch {
	case err != nil:
		v.errors.add(field, value, "invalid duration format")
	case d <= 0:
		v.errors.add(field, value, "must be positive")
	}
}

func (v *Validator) positive(field string, n int) {
	if n <= 0 {
		v.errors.add(field, n, "must be positive")
	}
}

func (v *Validator) checkLog(c LogConfig) {
	v.oneOf("log.level", c.Level, "debug", "info", "warn", "error")
	v.oneOf("log.format", c.Format, "auto", "text", "json")
}

func (v *Validator) checkLLM(c LLMConfig) {
	v.required("llm.model", c.Model)
	if c.Temperature < 0 || c.Temperature > 1 {
		v.errors.add("llm.temperature", c.Temperature, "must be between 0 and 1")
	}
	v.positive("llm.max_tokens", c.MaxTokens)
	v.positive("llm.extraction_max_tokens", c.ExtractionMaxTokens)
	v.httpURL("llm.base_url", c.BaseURL)
	v.duration("llm.timeout", c.Timeout)
}

func (v *Validator) checkTracker(c TrackerConfig) {
	v.httpURL("tracker.url", c.URL)
	v.required("tracker.default_issue_type", c.DefaultIssueType)
	v.required("tracker.epic_issue_type", c.EpicIssueType)
	v.required("tracker.story_issue_type", c.StoryIssueType)
	if c.MaxResults <= 0 || c.MaxResults > 1000 {
		v.errors.add("tracker.max_results", c.MaxResults, "must be between 1 and 1000")
	}
	v.duration("tracker.timeout", c.Timeout)
}

func (v *Validator) checkHistory(c HistoryConfig) {
	if c.Enabled && c.Path == "" {
		v.errors.add("history.path", c.Path, "required when history is enabled")
	}
}

func (v *Validator) checkServer(c ServerConfig) {
	if c.Addr == "" {
		v.errors.add("server.addr", c.Addr, "required")
		return
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		v.errors.add("server.addr", c.Addr, "must be host:port")
	}
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidateConfig validates cfg with a fresh Validator.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// RequireTracker reports missing Jira credentials.
func RequireTracker(cfg *Config) error {
	var errs ValidationErrors
	for _, f := range []struct{ field, value, env string }{
		{"tracker.url", cfg.Tracker.URL, "JIRA_URL"},
		{"tracker.email", cfg.Tracker.Email, "JIRA_EMAIL"},
		{"tracker.api_token", cfg.Tracker.APIToken, "JIRA_API_TOKEN"},
	} {
		if f.value == "" {
			errs.add(f.field, "", "required (set "+f.env+")")
		}
	}
	return errs.err()
}

// RequireLLM reports a missing model API key.
func RequireLLM(cfg *Config) error {
	var errs ValidationErrors
	if cfg.LLM.APIKey == "" {
		errs.add("llm.api_key", "", "required (set ANTHROPIC_API_KEY)")
	}
	return errs.err()
}

// ParseTimeout parses a duration string, returning def when empty or invalid.
func ParseTimeout(value string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return def
}
