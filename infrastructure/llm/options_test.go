package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestOptions(t *testing.T) {
	opts := map[string]any{
		"max_tokens":             2048,
		"temperature":            0.9,
		"top_p":                  0.5,
		"system":                 "be brief",
		"thinking_budget_tokens": 8000,
	}

	parsed := ParseRequestOptions(opts, "default-model")

	assert.Equal(t, 2048, parsed.MaxTokens)
	assert.Equal(t, "default-model", parsed.Model)
	assert.Equal(t, "be brief", parsed.System)
	require.NotNil(t, parsed.Temperature)
	assert.InDelta(t, 0.9, *parsed.Temperature, 1e-9)
	require.NotNil(t, parsed.TopP)
	assert.InDelta(t, 0.5, *parsed.TopP, 1e-9)
	assert.Equal(t, 8000, parsed.Extra["thinking_budget_tokens"])
}

func TestParseRequestOptions_Defaults(t *testing.T) {
	parsed := ParseRequestOptions(nil, "m")

	assert.Equal(t, DefaultMaxTokens, parsed.MaxTokens)
	assert.Equal(t, "m", parsed.Model)
	assert.Nil(t, parsed.Temperature)
	assert.Nil(t, parsed.TopP)
	assert.Empty(t, parsed.Extra)
}

func TestParseRequestOptions_InvalidValues(t *testing.T) {
	opts := map[string]any{
		"max_tokens":  -5,
		"temperature": 3.5,
		"top_p":       2.0,
		"model":       "",
	}

	parsed := ParseRequestOptions(opts, "fallback")

	assert.Equal(t, DefaultMaxTokens, parsed.MaxTokens)
	assert.Equal(t, "fallback", parsed.Model)
	assert.Nil(t, parsed.Temperature)
	assert.Nil(t, parsed.TopP)
}

func TestExtractOptionalHelpers(t *testing.T) {
	opts := map[string]any{"n": 4, "s": "x", "f": 1.5, "wrong": "type"}

	assert.Equal(t, 4, ExtractOptionalInt(opts, "n", 1, IsPositiveInt))
	assert.Equal(t, 1, ExtractOptionalInt(opts, "missing", 1, IsPositiveInt))
	assert.Equal(t, 1, ExtractOptionalInt(opts, "wrong", 1, IsPositiveInt))
	assert.Equal(t, "x", ExtractOptionalString(opts, "s", "d", IsNonEmptyString))
	assert.InDelta(t, 1.5, ExtractOptionalFloat64(opts, "f", 0, nil), 1e-9)
	assert.Equal(t, 7, ExtractOptionalInt(nil, "n", 7, nil))
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat64(-1, 0, 1))
	assert.Equal(t, 1.0, ClampFloat64(2, 0, 1))
	assert.Equal(t, 0.5, ClampFloat64(0.5, 0, 1))
	assert.Equal(t, 1, ClampInt(0, 1, 40))
	assert.Equal(t, 40, ClampInt(100, 1, 40))
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"empty is allowed", "", "", false},
		{"https", "https://api.example.com/v1", "https://api.example.com/v1", false},
		{"http", "http://localhost:8080", "http://localhost:8080", false},
		{"bad scheme", "ftp://example.com", "", true},
		{"no host", "https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBaseURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()
	assert.Equal(t, 0, tc.EstimateTokens(""))
	assert.Equal(t, 3, tc.EstimateTokens("hello world!"))
	assert.Equal(t, 42, tc.GetTokenCount(42, "ignored"))
	assert.Equal(t, 3, tc.GetTokenCount(0, "hello world!"))
}
