package logging

import (
	"regexp"
	"strings"
	"sync"
)

const redactedPlaceholder = "[REDACTED]"

// minSecretLen keeps short config values (like "true") from being treated
// as secrets.
const minSecretLen = 8

// redactRule replaces every match of re. When keep is set, the first
// submatch is kept so the key of a key=value pair stays readable.
type redactRule struct {
	re   *regexp.Regexp
	keep bool
}

var defaultRules = []redactRule{
	{re: regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`)},
	{re: regexp.MustCompile(`ATATT[A-Za-z0-9_=-]{20,}`)},
	{re: regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{re: regexp.MustCompile(`(?i)(basic\s+)[A-Za-z0-9+/=]{16,}`), keep: true},
	{re: regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9._-]{20,}`), keep: true},
	{re: regexp.MustCompile(`(https?://[^/\s:@]+:)[^@\s]+@`), keep: true},
	{re: regexp.MustCompile(`(?i)(api[_-]?(?:key|token)["'\s:=]+)[a-zA-Z0-9_=-]{20,}`), keep: true},
	{re: regexp.MustCompile(`(?i)(secret["'\s:=]+)[a-zA-Z0-9_-]{20,}`), keep: true},
	{re: regexp.MustCompile(`(?i)(password["'\s:=]+)[^\s"']{8,}`), keep: true},
	{re: regexp.MustCompile(`(?i)(token["'\s:=]+)[a-zA-Z0-9_-]{20,}`), keep: true},
}

// Sanitizer redacts Anthropic keys, Atlassian tokens, auth headers and
// configured secrets from log output. It is safe for concurrent use.
type Sanitizer struct {
	mu      sync.RWMutex
	rules   []redactRule
	secrets []string
}

// NewSanitizer creates a sanitizer with the built-in rules.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{rules: append([]redactRule(nil), defaultRules...)}
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := input
	for _, secret := range s.secrets {
		out = strings.ReplaceAll(out, secret, redactedPlaceholder)
	}
	for _, r := range s.rules {
		if r.keep {
			out = r.re.ReplaceAllString(out, "${1}"+redactedPlaceholder)
		} else {
			out = r.re.ReplaceAllString(out, redactedPlaceholder)
		}
	}
	return out
}

// AddPattern redacts every match of a custom regular expression.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rules = append(s.rules, redactRule{re: re})
	s.mu.Unlock()
	return nil
}

// AddSecret redacts a literal value, such as the configured Jira token.
// Values shorter than eight characters are ignored.
func (s *Sanitizer) AddSecret(secret string) {
	if len(secret) < minSecretLen {
		return
	}
	s.mu.Lock()
	s.secrets = append(s.secrets, secret)
	s.mu.Unlock()
}
