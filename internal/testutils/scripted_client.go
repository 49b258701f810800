// Package testutils provides scriptable fakes shared by the pipeline tests.
package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HartreeWorks/bestofn/internal/ports"
)

// Outcome scripts a single response from a ScriptedClient.
type Outcome struct {
	// Response is returned when Err is nil.
	Response string
	// TokensIn and TokensOut are reported as usage.
	TokensIn  int
	TokensOut int
	// Err is returned instead of the response when non-nil.
	Err error
	// Delay is waited before returning, honoring context cancellation.
	// Tests use it to scramble completion order.
	Delay time.Duration
}

// ScriptedClient is a ports.LLMClient that replays scripted outcomes in
// FIFO order. When the script is exhausted it returns Fallback, or an error
// if Fallback is empty.
type ScriptedClient struct {
	mu       sync.Mutex
	model    string
	outcomes []Outcome
	calls    int
	prompts  []string

	// Fallback is returned for calls beyond the scripted outcomes.
	Fallback string
}

var _ ports.LLMClient = (*ScriptedClient)(nil)

// NewScriptedClient creates a client that replays the given outcomes.
func NewScriptedClient(model string, outcomes ...Outcome) *ScriptedClient {
	return &ScriptedClient{model: model, outcomes: outcomes}
}

// Complete returns the next scripted outcome.
func (c *ScriptedClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage returns the next scripted outcome with token usage.
func (c *ScriptedClient) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	c.mu.Lock()
	idx := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)
	var outcome Outcome
	scripted := idx < len(c.outcomes)
	if scripted {
		outcome = c.outcomes[idx]
	}
	fallback := c.Fallback
	c.mu.Unlock()

	if !scripted {
		if fallback != "" {
			return fallback, 0, 0, nil
		}
		return "", 0, 0, errors.New("scripted client: no outcome for call")
	}

	if outcome.Delay > 0 {
		select {
		case <-time.After(outcome.Delay):
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		}
	}

	if outcome.Err != nil {
		return "", 0, 0, outcome.Err
	}
	return outcome.Response, outcome.TokensIn, outcome.TokensOut, nil
}

// EstimateTokens approximates tokens as four characters each.
func (c *ScriptedClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the configured model name.
func (c *ScriptedClient) GetModel() string { return c.model }

// CallCount reports how many completions have been requested.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Prompts returns the prompts seen so far, in call order.
func (c *ScriptedClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
