// Package catalog describes the models and presets available to a run.
// The catalog ships with built-in defaults and can be overlaid from a YAML
// file; it is loaded once per run and read-only thereafter.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/HartreeWorks/bestofn/internal/domain"
)

// Duration is a time.Duration that decodes from YAML duration strings
// such as "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// ProviderKind identifies the backend that serves a model.
type ProviderKind string

const (
	// ProviderAnthropic serves Claude models.
	ProviderAnthropic ProviderKind = "anthropic"
	// ProviderOpenAI serves GPT and o-series models.
	ProviderOpenAI ProviderKind = "openai"
	// ProviderGoogle serves Gemini models.
	ProviderGoogle ProviderKind = "google"
	// ProviderDeepResearch marks asynchronous research backends that cannot
	// be invoked in the synchronous fan-out.
	ProviderDeepResearch ProviderKind = "deepresearch"
	// ProviderBrowser marks browser-automation backends.
	ProviderBrowser ProviderKind = "browser"
)

// syncProviders lists the provider kinds that support synchronous,
// temperature-sensitive sampling.
var syncProviders = map[ProviderKind]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
}

// ModelDescriptor is one catalog entry. Descriptors are immutable once
// loaded; eligibility is derived from the capability flags, not stored.
type ModelDescriptor struct {
	// ID is the provider's model identifier, e.g. "claude-4-sonnet".
	ID string `yaml:"id" validate:"required"`

	// DisplayName is the human-readable name used for document section
	// titles. Derived from ID when omitted.
	DisplayName string `yaml:"display_name"`

	// Provider selects the backend implementation.
	Provider ProviderKind `yaml:"provider" validate:"required,oneof=anthropic openai google deepresearch browser"`

	// Reasoning marks models with extended deliberation support. Such
	// backends may silently ignore temperature; that is documented
	// provider behavior, not an error.
	Reasoning bool `yaml:"reasoning"`

	// Slow marks models whose calls routinely approach the timeout.
	Slow bool `yaml:"slow"`

	// BrowserOnly marks models reachable only through browser automation.
	BrowserOnly bool `yaml:"browser_only"`

	// DeepResearch marks asynchronous research backends.
	DeepResearch bool `yaml:"deep_research"`

	// MaxTokens overrides the default response budget when positive.
	MaxTokens int `yaml:"max_tokens" validate:"min=0"`

	// Timeout overrides the run's per-call deadline when positive.
	Timeout Duration `yaml:"timeout" validate:"min=0"`
}

// Eligible reports whether the model can participate in the synchronous
// sampling fan-out. Browser-only and deep-research models do not benefit
// from temperature variation and cannot be invoked synchronously.
func (d ModelDescriptor) Eligible() bool {
	return !d.BrowserOnly && !d.DeepResearch && syncProviders[d.Provider]
}

// Preset bundles a model list with default sampling settings. Explicit CLI
// values take precedence over preset values.
type Preset struct {
	Models      []string                 `yaml:"models" validate:"required,min=1"`
	Samples     int                      `yaml:"samples" validate:"min=0,max=20"`
	Temperature float64                  `yaml:"temperature" validate:"min=0,max=2"`
	Range       *domain.TemperatureRange `yaml:"temperature_range"`
	Timeout     Duration                 `yaml:"timeout" validate:"min=0"`
	Brainstorm  bool                     `yaml:"brainstorm"`
}

// Catalog is the full set of known models and presets.
type Catalog struct {
	Models  []ModelDescriptor `yaml:"models" validate:"required,min=1,dive"`
	Presets map[string]Preset `yaml:"presets" validate:"dive"`
}

var validate = validator.New()

var titleCaser = cases.Title(language.English)

// Default returns the built-in catalog. A YAML overlay replaces it
// entirely; partial merging is deliberately not supported to keep the
// loaded configuration predictable.
func Default() *Catalog {
	return &Catalog{
		Models: []ModelDescriptor{
			{ID: "claude-4-sonnet", DisplayName: "Claude 4 Sonnet", Provider: ProviderAnthropic},
			{ID: "claude-4.1-opus", DisplayName: "Claude 4.1 Opus", Provider: ProviderAnthropic, Reasoning: true, Slow: true},
			{ID: "gpt-4.1", DisplayName: "GPT-4.1", Provider: ProviderOpenAI},
			{ID: "o3", DisplayName: "o3", Provider: ProviderOpenAI, Reasoning: true, Slow: true},
			{ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", Provider: ProviderGoogle, Reasoning: true},
			{ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Provider: ProviderGoogle},
			{ID: "o3-deep-research", DisplayName: "o3 Deep Research", Provider: ProviderDeepResearch, DeepResearch: true},
			{ID: "comet-assistant", DisplayName: "Comet Assistant", Provider: ProviderBrowser, BrowserOnly: true},
		},
		Presets: map[string]Preset{
			"default": {
				Models:  []string{"claude-4-sonnet", "gpt-4.1", "gemini-2.5-pro"},
				Samples: 3,
			},
			"creative": {
				Models:  []string{"claude-4-sonnet", "gpt-4.1", "gemini-2.5-flash"},
				Samples: 5,
				Range:   &domain.TemperatureRange{Low: 0.5, High: 1.1},
			},
			"fast": {
				Models:      []string{"gemini-2.5-flash", "gpt-4.1"},
				Samples:     2,
				Temperature: 0.7,
				Timeout:     Duration(45 * time.Second),
			},
		},
	}
}

// Load returns the built-in catalog, or the catalog parsed from path when
// path is non-empty. The result is validated before being returned.
func Load(path string) (*Catalog, error) {
	if path == "" {
		c := Default()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	for i := range c.Models {
		if c.Models[i].DisplayName == "" {
			c.Models[i].DisplayName = titleCaser.String(strings.ReplaceAll(c.Models[i].ID, "-", " "))
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks structural constraints and display-name uniqueness.
// Live-document section replacement is keyed by section title, so duplicate
// display names are fatal; near-duplicates only earn a warning.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}

	seenID := make(map[string]bool, len(c.Models))
	seenName := make(map[string]string, len(c.Models))
	for _, m := range c.Models {
		if seenID[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seenID[m.ID] = true

		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		if prev, ok := seenName[name]; ok {
			return fmt.Errorf("models %q and %q share display name %q", prev, m.ID, name)
		}
		for other, otherID := range seenName {
			if levenshtein.ComputeDistance(name, other) <= 2 {
				zap.L().Warn("catalog: near-identical display names",
					zap.String("model", m.ID),
					zap.String("other", otherID),
				)
			}
		}
		seenName[name] = m.ID
	}

	for name, p := range c.Presets {
		for _, id := range p.Models {
			if !seenID[id] {
				return fmt.Errorf("preset %q references unknown model %q", name, id)
			}
		}
	}
	return nil
}

// Lookup returns the descriptor for the given model id.
func (c *Catalog) Lookup(id string) (ModelDescriptor, error) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelDescriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownModel, id)
}

// Select resolves a list of model ids into descriptors, preserving order.
// Ineligible models are rejected up front so the failure surfaces before
// any network call.
func (c *Catalog) Select(ids []string) ([]ModelDescriptor, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoEligibleModels
	}
	out := make([]ModelDescriptor, 0, len(ids))
	for _, id := range ids {
		m, err := c.Lookup(id)
		if err != nil {
			return nil, err
		}
		if !m.Eligible() {
			zap.L().Warn("catalog: skipping ineligible model",
				zap.String("model", m.ID),
				zap.String("provider", string(m.Provider)),
			)
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoEligibleModels
	}
	return out, nil
}

// PresetNamed returns the named preset.
func (c *Catalog) PresetNamed(name string) (Preset, error) {
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", domain.ErrUnknownPreset, name)
	}
	return p, nil
}
