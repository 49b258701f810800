package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RequiresProviders(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "providers configuration cannot be empty")
}

func TestRegistry_ParseSpec(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.NoError(t, err)

	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"anthropic/claude-4.1-opus", "anthropic", "claude-4.1-opus"},
		{"openai/o3", "openai", "o3"},
		{"anthropic", "anthropic", AnthropicDefaultModel},
		{"google", "google", GoogleDefaultModel},
		{"unknown", "unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			provider, model := registry.parseSpec(tt.spec)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

func TestRegistry_GetClient_Errors(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.NoError(t, err)

	_, err = registry.GetClient("")
	require.Error(t, err)

	_, err = registry.GetClient("no-such-provider/model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegistry_GetClient_MissingAPIKey(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai", EnvVar: "BESTOFN_TEST_MISSING_KEY", DefaultModel: "gpt-4.1"},
		},
	})
	require.NoError(t, err)

	_, err = registry.GetClient("openai/gpt-4.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BESTOFN_TEST_MISSING_KEY")
}

func TestRegistry_RegisterClient_OverridesAndCaches(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.NoError(t, err)

	core := &mockCoreLLM{model: "claude-4-sonnet", response: "scripted"}
	client := &Client{core: core, estimator: &SimpleTokenEstimator{}}
	require.NoError(t, registry.RegisterClient("anthropic/claude-4-sonnet", client))

	got, err := registry.GetClient("anthropic/claude-4-sonnet")
	require.NoError(t, err)

	response, err := got.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "scripted", response)

	// Same spec must return the cached instance.
	again, err := registry.GetClient("anthropic/claude-4-sonnet")
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestRegistry_RegisterClient_DefaultModelSpec(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.NoError(t, err)

	core := &mockCoreLLM{model: AnthropicDefaultModel, response: "ok"}
	client := &Client{core: core, estimator: &SimpleTokenEstimator{}}
	require.NoError(t, registry.RegisterClient("anthropic", client))

	got, err := registry.GetClient("anthropic/" + AnthropicDefaultModel)
	require.NoError(t, err)
	assert.Same(t, client, got)
}
