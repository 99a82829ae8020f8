// Package redaction masks secrets out of strings and structured fields
// before they reach a log line or an error message, most notably the
// ?token= query parameter the remote-inventory adapter's source URLs
// carry.
package redaction

import (
	"regexp"
	"strings"
)

var (
	tokenParamPattern = regexp.MustCompile(`(?i)([?&]token=)([A-Za-z0-9_-]+)`)

	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(api[_-]?key|apikey)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
		regexp.MustCompile(`(?i)(secret|token|auth)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
		regexp.MustCompile(`(?i)(Bearer)\s+([a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+)`),
		regexp.MustCompile(`(?i)(password)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
	}
)

const redactedText = "***REDACTED***"

// RedactURL masks the value of a ?token= or &token= query parameter,
// leaving the rest of the URL (including other parameters) intact.
func RedactURL(url string) string {
	return tokenParamPattern.ReplaceAllString(url, "${1}"+redactedText)
}

// SecretConfig configures a Redactor.
type SecretConfig struct {
	Enabled         bool
	RedactionText   string
	BlockedPatterns []string
}

// DefaultConfig enables redaction with krecik's default blocked field names.
func DefaultConfig() SecretConfig {
	return SecretConfig{
		Enabled:       true,
		RedactionText: redactedText,
		BlockedPatterns: []string{
			"password",
			"secret",
			"token",
			"apikey",
			"credential",
		},
	}
}

// Redactor masks secret-shaped substrings and fields.
type Redactor struct {
	config SecretConfig
}

func NewRedactor(cfg SecretConfig) *Redactor {
	if cfg.RedactionText == "" {
		cfg.RedactionText = redactedText
	}
	return &Redactor{config: cfg}
}

// RedactString masks every recognized secret pattern in s, including
// ?token= URL parameters.
func (r *Redactor) RedactString(s string) string {
	if !r.config.Enabled {
		return s
	}

	result := RedactURL(s)
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, "${1}: "+r.config.RedactionText)
	}
	return result
}

// RedactFields masks values of blocked field names and scans remaining
// string values for embedded secrets, used before a map is passed to
// logrus.Fields.
func (r *Redactor) RedactFields(fields map[string]interface{}) map[string]interface{} {
	if !r.config.Enabled {
		return fields
	}

	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if r.isSecretField(k) {
			result[k] = r.config.RedactionText
			continue
		}
		if s, ok := v.(string); ok {
			result[k] = r.RedactString(s)
			continue
		}
		result[k] = v
	}
	return result
}

func (r *Redactor) isSecretField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, blocked := range r.config.BlockedPatterns {
		if strings.Contains(lower, strings.ToLower(blocked)) {
			return true
		}
	}
	return false
}
