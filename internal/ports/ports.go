// Package ports defines the interfaces between the sampling pipeline and
// its infrastructure: LLM providers, metrics collection, and completion
// notification. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"
)

// LLMClient is the contract for a callable text-generation endpoint.
// Implementations handle provider-specific authentication, request
// formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	// The options map carries provider-tolerant settings; common keys are
	// "temperature" (float64), "max_tokens" (int), and "model" (string).
	// Providers are permitted to silently ignore options they do not
	// support, temperature on reasoning models in particular.
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage behaves like Complete but also reports input and
	// output token counts, estimated when the provider omits usage data.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error)

	// EstimateTokens approximates the token count for the given text.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier served by this client.
	GetModel() string
}

// MetricsCollector receives operational metrics from the pipeline and the
// provider middleware chain.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// Notifier delivers fire-and-forget user notifications. Implementations
// must never block the run and must swallow their own failures.
type Notifier interface {
	// Notify sends a notification with a title and body.
	Notify(title, body string)
}
