package llm

import (
	"fmt"
	"net/url"
)

// options.go provides extraction and validation helpers for the generic
// option maps passed through the middleware chain to providers.

// Parameter bounds shared across providers.
const (
	// MinTemperature is the minimum allowed temperature.
	MinTemperature = 0.0
	// MaxTemperature is the maximum allowed temperature; 2.0 accommodates
	// Gemini and the OpenAI chat API.
	MaxTemperature = 2.0
	// DefaultMaxTokens is the response budget applied when a request does
	// not specify one.
	DefaultMaxTokens = 4096
)

// ExtractOptionalInt extracts an int from the options map. Returns
// defaultVal when the key is absent, the type is wrong, or the validator
// rejects the value.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, valid func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString extracts a string from the options map with the
// same fallback semantics as ExtractOptionalInt.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, valid func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 extracts a float64 from the options map with the
// same fallback semantics as ExtractOptionalInt.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, valid func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(floatVal) {
		return defaultVal
	}
	return floatVal
}

// IsPositiveInt reports whether the value is greater than zero.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString reports whether the string is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// IsValidTemperature reports whether the value lies in [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP reports whether the value lies in [0.0, 1.0].
func IsValidTopP(val float64) bool { return val >= 0.0 && val <= 1.0 }

// ClampFloat64 restricts val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampInt restricts val to [min, max].
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ValidateBaseURL checks that a base URL override is a well-formed http or
// https URL. An empty string is valid and means the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}

	return parsed.String(), nil
}
