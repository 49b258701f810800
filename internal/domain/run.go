package domain

import (
	"time"
)

// Default configuration values applied when neither the CLI nor the preset
// supplies a setting.
const (
	// DefaultSamples is the default number of samples per model.
	DefaultSamples = 3
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.7
	// DefaultTimeout is the default per-call deadline.
	DefaultTimeout = 120 * time.Second
)

// TemperatureRange describes linearly varying temperatures for creative
// presets. Sample 0 receives Low, the last sample receives High, and
// intermediate samples are evenly spaced.
type TemperatureRange struct {
	Low  float64 `json:"low" yaml:"low" validate:"min=0,max=2"`
	High float64 `json:"high" yaml:"high" validate:"min=0,max=2,gtefield=Low"`
}

// RunConfig holds the resolved inputs for one invocation. Precedence when
// resolving numeric settings is explicit CLI value > preset value >
// hard-coded default; resolution happens in the CLI layer and the struct is
// immutable for the lifetime of the run.
type RunConfig struct {
	// Prompt is the user's question or task.
	Prompt string `validate:"required"`

	// Samples is the number of generation attempts per model.
	Samples int `validate:"min=1,max=20"`

	// Temperature is the sampling temperature used when Range is nil.
	Temperature float64 `validate:"min=0,max=2"`

	// Range, when set, varies temperature linearly across the batch.
	Range *TemperatureRange

	// Timeout bounds each individual sample call.
	Timeout time.Duration `validate:"min=1s"`

	// Brainstorm selects idea-merging instead of best-sample selection.
	Brainstorm bool

	// Synthesize enables the final cross-model synthesis step.
	Synthesize bool

	// OutputDir is the root directory for the persisted artifact tree.
	OutputDir string `validate:"required"`

	// LiveDocPath, when non-empty, enables the incrementally updated
	// document.
	LiveDocPath string
}

// TemperatureFor returns the temperature for the sample at the given
// ordinal. With a configured range the value is interpolated linearly by
// ordinal: sample 0 gets the low bound, sample n-1 the high bound, and a
// single-sample batch gets the midpoint. Without a range the fixed
// temperature is returned.
func (c RunConfig) TemperatureFor(ordinal, n int) float64 {
	if c.Range == nil {
		return c.Temperature
	}
	if n <= 1 {
		return (c.Range.Low + c.Range.High) / 2
	}
	step := (c.Range.High - c.Range.Low) / float64(n-1)
	return c.Range.Low + step*float64(ordinal)
}

// SampleMeta is the per-sample record persisted in the run summary.
type SampleMeta struct {
	Index     int          `json:"index"`
	Status    SampleStatus `json:"status"`
	LatencyMs int64        `json:"latency_ms"`
	Tokens    int          `json:"tokens,omitempty"`
	Chars     int          `json:"chars"`
}

// ModelSummary is the per-model record persisted in the run summary.
type ModelSummary struct {
	ModelID     string       `json:"model_id"`
	DisplayName string       `json:"display_name"`
	ChosenIndex int          `json:"chosen_index"`
	Brainstorm  bool         `json:"brainstorm,omitempty"`
	Samples     []SampleMeta `json:"samples"`
}

// RunSummary is the machine-readable record written once per run.
type RunSummary struct {
	Prompt       string            `json:"prompt"`
	Samples      int               `json:"samples"`
	Temperature  float64           `json:"temperature"`
	Range        *TemperatureRange `json:"temperature_range,omitempty"`
	Brainstorm   bool              `json:"brainstorm"`
	Timestamp    time.Time         `json:"timestamp"`
	Models       []ModelSummary    `json:"models"`
	FailedModels []string          `json:"failed_models,omitempty"`
}

// Summarize builds the persisted summary record from a run's results.
func Summarize(cfg RunConfig, results []ModelResult, failed []string, at time.Time) RunSummary {
	summary := RunSummary{
		Prompt:       cfg.Prompt,
		Samples:      cfg.Samples,
		Temperature:  cfg.Temperature,
		Range:        cfg.Range,
		Brainstorm:   cfg.Brainstorm,
		Timestamp:    at,
		FailedModels: failed,
	}
	for _, r := range results {
		ms := ModelSummary{
			ModelID:     r.ModelID,
			DisplayName: r.DisplayName,
			ChosenIndex: r.BestIndex,
			Brainstorm:  r.Brainstorm,
		}
		for _, s := range r.Samples {
			ms.Samples = append(ms.Samples, SampleMeta{
				Index:     s.Index,
				Status:    s.Status,
				LatencyMs: s.Latency.Milliseconds(),
				Tokens:    s.Tokens,
				Chars:     len(s.Text),
			})
		}
		summary.Models = append(summary.Models, ms)
	}
	return summary
}
