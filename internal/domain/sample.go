// Package domain defines the core value types shared across the sampling
// pipeline: individual sample outcomes, per-model aggregates, and the
// resolved configuration for a single run.
package domain

import (
	"time"
)

// SampleStatus classifies the outcome of one generation attempt.
type SampleStatus string

const (
	// SampleSuccess indicates the provider returned a non-empty response.
	SampleSuccess SampleStatus = "success"
	// SampleError indicates the provider call failed for any reason other
	// than a timeout, including models that cannot be invoked synchronously.
	SampleError SampleStatus = "error"
	// SampleTimeout indicates the per-call deadline expired before the
	// provider responded.
	SampleTimeout SampleStatus = "timeout"
)

// SampleResult captures one model invocation outcome. The Index is the
// ordinal position within the dispatched batch (0..N-1), fixed at dispatch
// time and preserved regardless of completion order. Immutable once
// produced.
type SampleResult struct {
	// Index is the ordinal position within the batch.
	Index int `json:"index"`

	// Text contains the response, present only when Status is SampleSuccess.
	Text string `json:"text,omitempty"`

	// Status tags the outcome.
	Status SampleStatus `json:"status"`

	// Err holds a descriptive failure message when Status is not success.
	Err string `json:"error,omitempty"`

	// Latency measures the wall-clock duration of the call.
	Latency time.Duration `json:"latency"`

	// Tokens is the output token count reported by the provider, or an
	// estimate when the provider omits usage data. Zero for failed samples.
	Tokens int `json:"tokens,omitempty"`
}

// Succeeded reports whether the sample produced a usable response.
func (s SampleResult) Succeeded() bool { return s.Status == SampleSuccess }

// ModelResult aggregates the outcome of one model's pipeline: every sample
// attempt in ordinal order, the judged selection (or merged ideas in
// brainstorm mode), and the judge's report. Models with zero successful
// samples never appear as a ModelResult; the orchestrator drops them and
// records the failure separately.
type ModelResult struct {
	// ModelID is the catalog identifier of the sampled model.
	ModelID string `json:"model_id"`

	// DisplayName is the human-readable name used for document sections.
	DisplayName string `json:"display_name"`

	// Samples holds every attempt, successes and failures, ordered by
	// dispatch ordinal.
	Samples []SampleResult `json:"samples"`

	// BestIndex is the ordinal of the selected sample (selection mode).
	// It always refers to a successful sample.
	BestIndex int `json:"best_index"`

	// MergedIdeas holds the deduplicated idea list (brainstorm mode).
	MergedIdeas string `json:"merged_ideas,omitempty"`

	// Report contains the judge's justification and extracted point lists,
	// or a note describing which fallback produced the result.
	Report string `json:"report"`

	// Brainstorm records which judge mode produced this result.
	Brainstorm bool `json:"brainstorm"`
}

// Successes returns the successful samples in ordinal order.
func (r ModelResult) Successes() []SampleResult {
	out := make([]SampleResult, 0, len(r.Samples))
	for _, s := range r.Samples {
		if s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}

// FailureCount returns the number of failed attempts.
func (r ModelResult) FailureCount() int {
	n := 0
	for _, s := range r.Samples {
		if !s.Succeeded() {
			n++
		}
	}
	return n
}

// Representative returns the output that feeds cross-model synthesis:
// the merged idea list in brainstorm mode, otherwise the selected sample.
func (r ModelResult) Representative() string {
	if r.Brainstorm {
		return r.MergedIdeas
	}
	for _, s := range r.Samples {
		if s.Index == r.BestIndex {
			return s.Text
		}
	}
	return ""
}
