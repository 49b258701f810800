package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/HartreeWorks/bestofn/internal/ports"
)

// Registry manages clients across the configured providers. Clients are
// created lazily per provider/model pair and cached for reuse, so all
// samples against one model share a single rate limiter and HTTP client.
type Registry struct {
	// providers maps provider names to their configuration.
	providers map[string]ProviderConfig
	// clients caches created clients keyed by "provider/model".
	clients map[string]ports.LLMClient
	// defaultMiddleware is applied to every client before provider-specific
	// middleware.
	defaultMiddleware []Middleware
	// defaultTimeout sets the client-level request timeout.
	defaultTimeout time.Duration

	mu sync.RWMutex
}

// ProviderConfig holds provider-specific configuration, overriding registry
// defaults for that provider.
type ProviderConfig struct {
	// Type selects the provider implementation (openai, anthropic, google).
	Type string
	// EnvVar names the environment variable holding the API key.
	EnvVar string
	// DefaultModel is used when a spec omits the model.
	DefaultModel string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// Middleware is applied after the registry's default middleware.
	Middleware []Middleware
}

// RegistryConfig holds registry-wide defaults.
type RegistryConfig struct {
	// Providers defines the available providers.
	Providers map[string]ProviderConfig
	// DefaultTimeout sets the request timeout for all providers.
	DefaultTimeout time.Duration
	// DefaultMiddleware is applied to all providers.
	DefaultMiddleware []Middleware
}

// DefaultProviders lists the standard provider configurations. Applications
// can use this as a starting point and override specific settings.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:         "openai",
		EnvVar:       "OPENAI_API_KEY",
		DefaultModel: OpenAIDefaultModel,
	},
	"anthropic": {
		Type:         "anthropic",
		EnvVar:       "ANTHROPIC_API_KEY",
		DefaultModel: AnthropicDefaultModel,
	},
	"google": {
		Type:         "google",
		EnvVar:       "GOOGLE_API_KEY",
		DefaultModel: GoogleDefaultModel,
	},
}

// NewRegistry creates a registry from the given configuration.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if len(config.Providers) == 0 {
		return nil, fmt.Errorf("providers configuration cannot be empty")
	}

	return &Registry{
		providers:         config.Providers,
		clients:           make(map[string]ports.LLMClient),
		defaultMiddleware: config.DefaultMiddleware,
		defaultTimeout:    config.DefaultTimeout,
	}, nil
}

// GetClient retrieves a client for a "provider" or "provider/model" spec.
// Clients are created on first request and cached; each unique
// provider/model pair gets its own instance.
func (r *Registry) GetClient(spec string) (ports.LLMClient, error) {
	if spec == "" {
		return nil, fmt.Errorf("provider specification cannot be empty")
	}

	provider, model := r.parseSpec(spec)
	key := provider + "/" + model

	r.mu.RLock()
	if client, exists := r.clients[key]; exists {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.clients[key]; exists {
		return client, nil
	}

	client, err := r.createClient(provider, model)
	if err != nil {
		return nil, err
	}

	r.clients[key] = client
	return client, nil
}

// RegisterClient installs a pre-built client under a "provider/model" spec,
// replacing any cached instance. Tests use this to substitute scripted
// clients.
func (r *Registry) RegisterClient(spec string, client ports.LLMClient) error {
	if spec == "" {
		return fmt.Errorf("client spec cannot be empty")
	}

	provider, model := r.parseSpec(spec)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider+"/"+model] = client
	return nil
}

// parseSpec splits "provider/model" into its parts, substituting the
// provider's default model when the model is omitted.
func (r *Registry) parseSpec(spec string) (provider, model string) {
	parts := strings.SplitN(spec, "/", 2)
	provider = parts[0]

	if len(parts) > 1 {
		model = parts[1]
	} else if providerConfig, ok := r.providers[provider]; ok {
		model = providerConfig.DefaultModel
	}

	return
}

// createClient builds a client for the provider and model, reading the API
// key from the provider's environment variable.
func (r *Registry) createClient(provider, model string) (ports.LLMClient, error) {
	providerConfig, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	apiKey := os.Getenv(providerConfig.EnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set for provider %q", providerConfig.EnvVar, provider)
	}

	config := ClientConfig{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: providerConfig.BaseURL,
		Timeout: r.defaultTimeout,
	}

	config.Middleware = append([]Middleware{}, r.defaultMiddleware...)
	config.Middleware = append(config.Middleware, providerConfig.Middleware...)

	return NewClient(providerConfig.Type, config)
}

// AvailableProviders returns the names of providers whose API key
// environment variable is set.
func (r *Registry) AvailableProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := make([]string, 0, len(r.providers))
	for name, cfg := range r.providers {
		if os.Getenv(cfg.EnvVar) != "" {
			available = append(available, name)
		}
	}
	return available
}
