package domain

import "errors"

// Sentinel errors shared across pipeline stages. Configuration errors are
// fatal and reported before any network call; everything else degrades.
var (
	// ErrUnknownModel indicates a model identifier absent from the catalog.
	ErrUnknownModel = errors.New("unknown model identifier")
	// ErrUnknownPreset indicates a preset name absent from the catalog.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrNoEligibleModels indicates the selected model set contains no model
	// capable of synchronous sampling.
	ErrNoEligibleModels = errors.New("no eligible models selected")
	// ErrNotInvocable indicates a model that cannot be called synchronously
	// (browser-only or asynchronous deep-research backends).
	ErrNotInvocable = errors.New("model is not synchronously invocable")
	// ErrNothingToSynthesize is the sentinel returned when no model produced
	// a representative output; no synthesis request is issued.
	ErrNothingToSynthesize = errors.New("nothing to synthesize")
)
