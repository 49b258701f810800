package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCoreLLM is a scriptable CoreLLM for middleware and client tests.
type mockCoreLLM struct {
	mu        sync.Mutex
	model     string
	response  string
	tokensIn  int
	tokensOut int
	err       error
	delay     time.Duration
	calls     int
}

func (m *mockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}
	if m.err != nil {
		return "", 0, 0, m.err
	}
	return m.response, m.tokensIn, m.tokensOut, nil
}

func (m *mockCoreLLM) GetModel() string  { return m.model }
func (m *mockCoreLLM) SetModel(s string) { m.model = s }

func (m *mockCoreLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name         string
		providerType string
		config       ClientConfig
		wantErr      string
	}{
		{
			name:         "empty api key",
			providerType: "openai",
			config:       ClientConfig{Model: "gpt-4.1"},
			wantErr:      "API key cannot be empty",
		},
		{
			name:         "empty model",
			providerType: "openai",
			config:       ClientConfig{APIKey: "sk-test"},
			wantErr:      "model is required",
		},
		{
			name:         "unknown provider",
			providerType: "does-not-exist",
			config:       ClientConfig{APIKey: "sk-test", Model: "m"},
			wantErr:      "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.providerType, tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_MiddlewareOrder(t *testing.T) {
	core := &mockCoreLLM{model: "test-model", response: "ok"}
	RegisterProviderFactory("test-order", func(ClientConfig) (CoreLLM, error) {
		return core, nil
	})

	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &taggedLLM{next: next, name: name, order: &order}
		}
	}

	client, err := NewClient("test-order", ClientConfig{
		APIKey:     "test",
		Model:      "test-model",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	// First configured middleware must be outermost.
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggedLLM struct {
	next  CoreLLM
	name  string
	order *[]string
}

func (t *taggedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	*t.order = append(*t.order, t.name)
	return t.next.DoRequest(ctx, prompt, opts)
}

func (t *taggedLLM) GetModel() string  { return t.next.GetModel() }
func (t *taggedLLM) SetModel(m string) { t.next.SetModel(m) }

func TestClient_CompleteWithUsage(t *testing.T) {
	core := &mockCoreLLM{model: "test-model", response: "hello", tokensIn: 7, tokensOut: 3}
	RegisterProviderFactory("test-usage", func(ClientConfig) (CoreLLM, error) {
		return core, nil
	})

	client, err := NewClient("test-usage", ClientConfig{APIKey: "test", Model: "test-model"})
	require.NoError(t, err)

	response, in, out, err := client.CompleteWithUsage(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", response)
	assert.Equal(t, 7, in)
	assert.Equal(t, 3, out)
	assert.Equal(t, "test-model", client.GetModel())
}

func TestSimpleTokenEstimator(t *testing.T) {
	e := &SimpleTokenEstimator{}
	assert.Equal(t, 0, e.EstimateTokens(""))
	assert.Equal(t, 1, e.EstimateTokens("hi"))
	assert.Equal(t, 3, e.EstimateTokens("hello world!"))
}

func TestTimeoutMiddleware(t *testing.T) {
	core := &mockCoreLLM{model: "m", response: "ok", delay: 200 * time.Millisecond}
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitMiddleware_Blocks(t *testing.T) {
	core := &mockCoreLLM{model: "m", response: "ok"}
	// 1 request per second with burst 1: second call must wait.
	wrapped := RateLimitMiddleware(1, 1)(core)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, _, err := wrapped.DoRequest(ctx, "first", nil)
	require.NoError(t, err)

	_, _, _, err = wrapped.DoRequest(ctx, "second", nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.callCount())
}

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string]int
	labels     map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]int),
	}
}

func (c *recordingCollector) RecordLatency(name string, d time.Duration, labels map[string]string) {
}

func (c *recordingCollector) RecordCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += value
	c.labels = labels
}

func (c *recordingCollector) RecordHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histograms[name]++
	c.labels = labels
}

func TestMetricsMiddleware_Success(t *testing.T) {
	core := &mockCoreLLM{model: "m", response: "ok", tokensIn: 10, tokensOut: 5}
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware("anthropic", collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), collector.counters["llm_requests_total"])
	assert.Equal(t, float64(15), collector.counters["llm_tokens_total"])
	assert.Equal(t, 1, collector.histograms["llm_latency_seconds"])
}

func TestMetricsMiddleware_TimeoutStatus(t *testing.T) {
	core := &mockCoreLLM{
		model: "m",
		err:   NewProviderError("anthropic", ErrorTypeTimeout, 0, "request timed out", context.DeadlineExceeded),
	}
	collector := newRecordingCollector()
	wrapped := MetricsMiddleware("anthropic", collector)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.Error(t, err)

	assert.Equal(t, "timeout", collector.labels["status"])
	// Token counters must not be recorded on failure.
	assert.Zero(t, collector.counters["llm_tokens_total"])
}

func TestTracingMiddleware_PassThrough(t *testing.T) {
	core := &mockCoreLLM{model: "m", response: "ok", tokensIn: 2, tokensOut: 4}
	wrapped := TracingMiddleware("bestofn")(core)

	response, in, out, err := wrapped.DoRequest(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, 2, in)
	assert.Equal(t, 4, out)

	wantErr := errors.New("boom")
	core.err = wantErr
	_, _, _, err = wrapped.DoRequest(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, wantErr)
}
