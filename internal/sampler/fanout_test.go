package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartreeWorks/bestofn/internal/catalog"
	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
	"github.com/HartreeWorks/bestofn/internal/testutils"
)

func testModel() catalog.ModelDescriptor {
	return catalog.ModelDescriptor{ID: "claude-4-sonnet", DisplayName: "Claude 4 Sonnet", Provider: catalog.ProviderAnthropic}
}

func testConfig(samples int) domain.RunConfig {
	return domain.RunConfig{
		Prompt:      "What is the airspeed velocity of an unladen swallow?",
		Samples:     samples,
		Temperature: 0.7,
		Timeout:     time.Second,
		OutputDir:   "runs",
	}
}

func resolverFor(client ports.LLMClient) Resolver {
	return FuncResolver(func(catalog.ModelDescriptor) (ports.LLMClient, error) {
		return client, nil
	})
}

func TestSampler_DispatchesExactlyN(t *testing.T) {
	client := testutils.NewScriptedClient("claude-4-sonnet")
	client.Fallback = "answer"
	s := &Sampler{Resolver: resolverFor(client), Stagger: time.Millisecond}

	results := s.Sample(context.Background(), testConfig(5), testModel(), nil)

	require.Len(t, results, 5)
	assert.Equal(t, 5, client.CallCount())
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, domain.SampleSuccess, r.Status)
	}
}

func TestSampler_OrdinalStableUnderScrambledCompletion(t *testing.T) {
	// Later samples finish before earlier ones; results must still be
	// ordered by dispatch ordinal.
	client := testutils.NewScriptedClient("claude-4-sonnet",
		testutils.Outcome{Response: "first", Delay: 80 * time.Millisecond},
		testutils.Outcome{Response: "second", Delay: 40 * time.Millisecond},
		testutils.Outcome{Response: "third"},
	)
	// Outcomes are consumed in call order, so the stagger must be wide
	// enough to make dispatch order deterministic.
	s := &Sampler{Resolver: resolverFor(client), Stagger: 10 * time.Millisecond}

	var mu sync.Mutex
	var completionOrder []int
	onSample := func(_ string, sample domain.SampleResult) {
		mu.Lock()
		completionOrder = append(completionOrder, sample.Index)
		mu.Unlock()
	}

	results := s.Sample(context.Background(), testConfig(3), testModel(), onSample)

	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Text)
	assert.Equal(t, "second", results[1].Text)
	assert.Equal(t, "third", results[2].Text)
	// Completion order was scrambled by the delays.
	assert.NotEqual(t, []int{0, 1, 2}, completionOrder)
}

func TestSampler_TemperatureInterpolation(t *testing.T) {
	cfg := testConfig(3)
	cfg.Range = &domain.TemperatureRange{Low: 0.5, High: 1.1}

	tests := []struct {
		ordinal int
		want    float64
	}{
		{0, 0.5},
		{1, 0.8},
		{2, 1.1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, cfg.TemperatureFor(tt.ordinal, cfg.Samples), 1e-9)
	}

	// Single sample gets the midpoint.
	assert.InDelta(t, 0.8, cfg.TemperatureFor(0, 1), 1e-9)
}

func TestSampler_MixedOutcomes(t *testing.T) {
	client := testutils.NewScriptedClient("claude-4-sonnet",
		testutils.Outcome{Response: "good"},
		testutils.Outcome{Err: errors.New("server exploded")},
		testutils.Outcome{Err: context.DeadlineExceeded},
	)
	s := &Sampler{Resolver: resolverFor(client), Stagger: time.Millisecond}

	results := s.Sample(context.Background(), testConfig(3), testModel(), nil)

	assert.Equal(t, domain.SampleSuccess, results[0].Status)
	assert.Equal(t, domain.SampleError, results[1].Status)
	assert.Contains(t, results[1].Err, "server exploded")
	assert.Equal(t, domain.SampleTimeout, results[2].Status)
}

func TestSampler_TimeoutEnforced(t *testing.T) {
	client := testutils.NewScriptedClient("claude-4-sonnet",
		testutils.Outcome{Response: "too late", Delay: time.Second},
	)
	s := &Sampler{Resolver: resolverFor(client), Stagger: time.Millisecond}

	cfg := testConfig(1)
	cfg.Timeout = 30 * time.Millisecond

	results := s.Sample(context.Background(), cfg, testModel(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.SampleTimeout, results[0].Status)
}

func TestSampler_ResolverFailureFailsAllSamples(t *testing.T) {
	s := &Sampler{
		Resolver: FuncResolver(func(catalog.ModelDescriptor) (ports.LLMClient, error) {
			return nil, errors.New("OPENAI_API_KEY environment variable not set")
		}),
		Stagger: time.Millisecond,
	}

	results := s.Sample(context.Background(), testConfig(3), testModel(), nil)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, domain.SampleError, r.Status)
		assert.Contains(t, r.Err, "OPENAI_API_KEY")
	}
}

func TestSampler_ModelTimeoutOverride(t *testing.T) {
	client := testutils.NewScriptedClient("o3",
		testutils.Outcome{Response: "slow but fine", Delay: 60 * time.Millisecond},
	)
	s := &Sampler{Resolver: resolverFor(client), Stagger: time.Millisecond}

	cfg := testConfig(1)
	cfg.Timeout = 10 * time.Millisecond

	model := testModel()
	model.Timeout = catalog.Duration(time.Second)

	results := s.Sample(context.Background(), cfg, model, nil)
	assert.Equal(t, domain.SampleSuccess, results[0].Status)
}

func TestRegistryResolver_RejectsIneligible(t *testing.T) {
	r := &RegistryResolver{}

	_, err := r.ClientFor(catalog.ModelDescriptor{
		ID:           "o3-deep-research",
		Provider:     catalog.ProviderDeepResearch,
		DeepResearch: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotInvocable)
}
