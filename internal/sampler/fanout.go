package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HartreeWorks/bestofn/infrastructure/llm"
	"github.com/HartreeWorks/bestofn/internal/catalog"
	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
)

// DefaultStagger is the delay between consecutive sample dispatches for one
// model, spacing out request bursts against a single provider.
const DefaultStagger = 100 * time.Millisecond

// ProgressFunc is invoked as each sample completes, in completion order.
type ProgressFunc func(modelID string, sample domain.SampleResult)

// Sampler runs the N-sample fan-out for individual models.
type Sampler struct {
	// Resolver supplies clients per model.
	Resolver Resolver
	// Metrics receives per-sample outcome counters; may be nil.
	Metrics ports.MetricsCollector
	// Stagger is the inter-dispatch delay; DefaultStagger when zero.
	// Tests shrink it to keep runtimes low.
	Stagger time.Duration
}

// Sample dispatches cfg.Samples generation attempts against one model and
// returns every outcome ordered by dispatch ordinal, regardless of
// completion order. The returned slice always has length cfg.Samples; a
// model that cannot even be resolved yields all-failed samples rather than
// an error.
func (s *Sampler) Sample(ctx context.Context, cfg domain.RunConfig, model catalog.ModelDescriptor, onSample ProgressFunc) []domain.SampleResult {
	n := cfg.Samples
	results := make([]domain.SampleResult, n)

	client, err := s.Resolver.ClientFor(model)
	if err != nil {
		zap.L().Warn("sampler: model unavailable",
			zap.String("model", model.ID),
			zap.Error(err),
		)
		for i := range results {
			results[i] = domain.SampleResult{Index: i, Status: domain.SampleError, Err: err.Error()}
			s.record(model.ID, results[i], onSample)
		}
		return results
	}

	stagger := s.Stagger
	if stagger == 0 {
		stagger = DefaultStagger
	}

	timeout := cfg.Timeout
	if model.Timeout > 0 {
		timeout = time.Duration(model.Timeout)
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		ordinal := i
		g.Go(func() error {
			// Stagger is a scheduled start offset, not a serialization
			// point: sample k starts k*stagger after dispatch even when
			// earlier samples are still in flight.
			select {
			case <-time.After(time.Duration(ordinal) * stagger):
			case <-ctx.Done():
				results[ordinal] = domain.SampleResult{
					Index:  ordinal,
					Status: domain.SampleError,
					Err:    ctx.Err().Error(),
				}
				s.record(model.ID, results[ordinal], onSample)
				return nil
			}

			results[ordinal] = s.sampleOne(ctx, client, cfg, model, ordinal, timeout)
			s.record(model.ID, results[ordinal], onSample)
			return nil
		})
	}
	g.Wait()

	return results
}

// sampleOne performs a single generation attempt. It never panics and never
// returns an error; all failures are folded into the result's status.
func (s *Sampler) sampleOne(ctx context.Context, client ports.LLMClient, cfg domain.RunConfig, model catalog.ModelDescriptor, ordinal int, timeout time.Duration) (result domain.SampleResult) {
	result = domain.SampleResult{Index: ordinal}

	defer func() {
		if r := recover(); r != nil {
			result.Status = domain.SampleError
			result.Err = fmt.Sprintf("provider panic: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	options := map[string]any{
		"temperature": cfg.TemperatureFor(ordinal, cfg.Samples),
	}
	if model.MaxTokens > 0 {
		options["max_tokens"] = model.MaxTokens
	}

	start := time.Now()
	text, _, tokensOut, err := client.CompleteWithUsage(callCtx, cfg.Prompt, options)
	result.Latency = time.Since(start)

	if err != nil {
		result.Status = classify(err)
		result.Err = err.Error()
		return result
	}

	result.Status = domain.SampleSuccess
	result.Text = text
	result.Tokens = tokensOut
	return result
}

// classify maps a call failure to a sample status.
func classify(err error) domain.SampleStatus {
	var provErr *llm.ProviderError
	if errors.As(err, &provErr) && provErr.IsTimeout() {
		return domain.SampleTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.SampleTimeout
	}
	return domain.SampleError
}

// record emits the per-sample metric and progress callback.
func (s *Sampler) record(modelID string, sample domain.SampleResult, onSample ProgressFunc) {
	if s.Metrics != nil {
		s.Metrics.RecordCounter("samples_total", 1, map[string]string{
			"model":  modelID,
			"status": string(sample.Status),
		})
	}
	if onSample != nil {
		onSample(modelID, sample)
	}
}
