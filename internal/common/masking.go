package common

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

const maskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "token")
	Regex       *regexp.Regexp // Regular expression to match sensitive data; nil means key-only
	Replacement string         // Replacement string
	Keys        []string       // Specific keys to mask (case-insensitive)
}

// keyValuePattern matches `"key": "value"`, `key=value` and similar forms; group 1 keeps
// the key and separator so only the value is replaced.
func keyValuePattern(keys ...string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)("?\b(?:%s)"?\s*[:=]\s*"?)([^"',}\]\s]+)`, strings.Join(keys, "|")))
}

// DefaultSensitivePatterns covers credentials that appear in login payloads, envelopes and headers.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       keyValuePattern("password", "passwd", "pwd"),
		Replacement: "${1}" + maskedValue,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "token",
		Regex:       keyValuePattern("token", "access_token", "accessToken", "refresh_token", "refreshToken"),
		Replacement: "${1}" + maskedValue,
		Keys:        []string{"token", "access_token", "accesstoken", "refresh_token", "refreshtoken"},
	},
	{
		Name:        "secret",
		Regex:       keyValuePattern("secret", "client_secret", "clientSecret"),
		Replacement: "${1}" + maskedValue,
		Keys:        []string{"secret", "client_secret", "clientsecret"},
	},
	// Header values are handled by the bearer/basic patterns; the key entry masks whole attributes.
	{
		Name: "authorization",
		Keys: []string{"authorization"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + maskedValue,
	},
	{
		Name:        "basic_auth",
		Regex:       regexp.MustCompile(`(?i)Basic\s+[A-Za-z0-9+/]+=*`),
		Replacement: "Basic " + maskedValue,
	},
}

// Masker handles masking of sensitive information in logs and response previews
type Masker struct {
	patterns []SensitivePattern
	enabled  atomic.Bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	m := &Masker{patterns: append([]SensitivePattern(nil), patterns...)}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled.Load()
}

// AddPattern adds a new sensitive pattern. A pattern without Regex is built from its Keys.
func (m *Masker) AddPattern(pattern SensitivePattern) {
	if pattern.Regex == nil {
		if len(pattern.Keys) == 0 {
			return
		}
		pattern.Regex = keyValuePattern(pattern.Keys...)
		if pattern.Replacement == "" {
			pattern.Replacement = "${1}" + maskedValue
		}
	}
	m.patterns = append(m.patterns, pattern)
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.IsEnabled() {
		return input
	}

	result := input
	for _, pattern := range m.patterns {
		if pattern.Regex == nil {
			continue
		}
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// IsSensitiveKey reports whether key names a credential.
func (m *Masker) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(strings.TrimSpace(key))
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == strings.ToLower(sensitiveKey) {
				return true
			}
		}
	}
	return false
}

// MaskValue masks sensitive information based on key-value context
func (m *Masker) MaskValue(key string, value interface{}) interface{} {
	if !m.IsEnabled() {
		return value
	}
	if m.IsSensitiveKey(key) {
		return maskedValue
	}
	strValue, ok := value.(string)
	if !ok {
		return value
	}
	return m.MaskString(strValue)
}

// MaskKeyValuePairs masks sensitive information in key-value pairs
func (m *Masker) MaskKeyValuePairs(pairs ...any) []any {
	if !m.IsEnabled() {
		return pairs
	}

	result := make([]any, len(pairs))
	for i := 0; i < len(pairs); i += 2 {
		if i+1 >= len(pairs) {
			result[i] = pairs[i]
			continue
		}
		key, value := pairs[i], pairs[i+1]
		result[i] = key
		if keyStr, ok := key.(string); ok {
			result[i+1] = m.MaskValue(keyStr, value)
		} else {
			result[i+1] = value
		}
	}
	return result
}

// Global masker instance
var globalMasker = NewMasker()

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}

// IsMaskingEnabled returns whether global masking is enabled
func IsMaskingEnabled() bool {
	return globalMasker.IsEnabled()
}
