// Package orchestrator drives a full run: concurrent per-model pipelines
// (sample fan-out, then judge or merge), live document updates, optional
// cross-model synthesis, and artifact persistence. Model failures degrade
// the run; only configuration problems abort it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HartreeWorks/bestofn/internal/artifact"
	"github.com/HartreeWorks/bestofn/internal/catalog"
	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/judge"
	"github.com/HartreeWorks/bestofn/internal/livedoc"
	"github.com/HartreeWorks/bestofn/internal/ports"
	"github.com/HartreeWorks/bestofn/internal/progress"
	"github.com/HartreeWorks/bestofn/internal/sampler"
	"github.com/HartreeWorks/bestofn/internal/synthesis"
)

// Orchestrator owns the wiring for one run. Optional collaborators
// (tracker, document, notifier) may be nil.
type Orchestrator struct {
	Sampler     *sampler.Sampler
	Selector    *judge.Selector
	Merger      *judge.Merger
	Synthesizer *synthesis.Synthesizer
	Tracker     *progress.Tracker
	Doc         *livedoc.Document
	Notifier    ports.Notifier
}

// Outcome is everything a completed run produced.
type Outcome struct {
	// Results holds the surviving models in original selection order.
	Results []domain.ModelResult
	// Failed lists the ids of models whose samples all failed, in
	// selection order.
	Failed []string
	// Synthesis is the cross-model answer, empty when disabled or failed.
	Synthesis string
	// Summary is the persisted machine-readable record.
	Summary domain.RunSummary
	// RunDir is where the artifacts were written; empty if persistence
	// failed.
	RunDir string
}

// Run executes the full pipeline over the selected models. The returned
// error is reserved for configuration problems; provider failures are
// folded into the outcome.
func (o *Orchestrator) Run(ctx context.Context, cfg domain.RunConfig, models []catalog.ModelDescriptor) (*Outcome, error) {
	if len(models) == 0 {
		return nil, domain.ErrNoEligibleModels
	}

	startedAt := time.Now()

	for _, m := range models {
		if o.Tracker != nil {
			o.Tracker.Register(m.ID, m.DisplayName, cfg.Samples)
		}
		o.setSection(m, "_sampling…_")
	}

	// One slot per model keeps results in selection order no matter which
	// pipeline finishes first.
	slots := make([]*domain.ModelResult, len(models))
	failedSlots := make([]bool, len(models))
	var mu sync.Mutex

	var g errgroup.Group
	for i, m := range models {
		idx, model := i, m
		g.Go(func() error {
			result, ok := o.runModel(ctx, cfg, model)
			mu.Lock()
			if ok {
				slots[idx] = &result
			} else {
				failedSlots[idx] = true
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	outcome := &Outcome{}
	for i, m := range models {
		if slots[i] != nil {
			outcome.Results = append(outcome.Results, *slots[i])
		} else if failedSlots[i] {
			outcome.Failed = append(outcome.Failed, m.ID)
		}
	}

	if cfg.Synthesize {
		outcome.Synthesis = o.synthesize(ctx, cfg, outcome.Results)
	}

	outcome.Summary = domain.Summarize(cfg, outcome.Results, outcome.Failed, startedAt)

	// Persistence always runs; a degraded run still writes whatever it has.
	runDir, err := artifact.Write(cfg.OutputDir, outcome.Summary, outcome.Results, outcome.Synthesis)
	if err != nil {
		zap.L().Error("orchestrator: persistence failed", zap.Error(err))
	} else {
		outcome.RunDir = runDir
	}

	o.notifyDone(outcome)
	return outcome, nil
}

// runModel executes one model's pipeline. Reports ok=false when every
// sample failed, in which case the model is dropped from the results.
func (o *Orchestrator) runModel(ctx context.Context, cfg domain.RunConfig, model catalog.ModelDescriptor) (domain.ModelResult, bool) {
	samples := o.Sampler.Sample(ctx, cfg, model, func(modelID string, s domain.SampleResult) {
		if o.Tracker != nil {
			o.Tracker.SampleDone(modelID, s.Succeeded())
		}
	})

	succeeded := 0
	for _, s := range samples {
		if s.Succeeded() {
			succeeded++
		}
	}
	if succeeded == 0 {
		zap.L().Warn("orchestrator: model dropped, all samples failed",
			zap.String("model", model.ID))
		if o.Tracker != nil {
			o.Tracker.Dropped(model.ID)
		}
		o.setSection(model, "_all samples failed; model excluded from results_")
		return domain.ModelResult{}, false
	}

	o.setSection(model, fmt.Sprintf("_%d/%d samples succeeded; comparing…_", succeeded, len(samples)))
	if o.Tracker != nil {
		o.Tracker.Comparing(model.ID)
	}

	result := domain.ModelResult{
		ModelID:     model.ID,
		DisplayName: model.DisplayName,
		Samples:     samples,
		Brainstorm:  cfg.Brainstorm,
	}

	if cfg.Brainstorm {
		merged, err := o.Merger.Merge(ctx, cfg.Prompt, samples)
		if err != nil {
			// Unreachable with succeeded > 0; belt and braces.
			zap.L().Error("orchestrator: merge failed", zap.String("model", model.ID), zap.Error(err))
			return domain.ModelResult{}, false
		}
		result.MergedIdeas = merged.Ideas
		result.Report = merged.Report
	} else {
		sel, err := o.Selector.Select(ctx, cfg.Prompt, samples)
		if err != nil {
			zap.L().Error("orchestrator: selection failed", zap.String("model", model.ID), zap.Error(err))
			return domain.ModelResult{}, false
		}
		result.BestIndex = sel.BestOrdinal
		result.Report = sel.Report
	}

	if o.Tracker != nil {
		o.Tracker.Finished(model.ID)
	}
	o.setSection(model, renderSection(result))
	return result, true
}

// synthesize runs the cross-model synthesis step. Failure degrades to an
// empty synthesis; an empty input set is expected for fully failed runs
// and logged at a lower level.
func (o *Orchestrator) synthesize(ctx context.Context, cfg domain.RunConfig, results []domain.ModelResult) string {
	if o.Synthesizer == nil {
		return ""
	}

	text, err := o.Synthesizer.Synthesize(ctx, cfg.Prompt, results, cfg.Brainstorm)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToSynthesize) {
			zap.L().Info("orchestrator: nothing to synthesize")
		} else {
			zap.L().Warn("orchestrator: synthesis failed", zap.Error(err))
			if o.Notifier != nil {
				o.Notifier.Notify("Best-of-N synthesis failed", err.Error())
			}
		}
		return ""
	}

	if o.Doc != nil {
		if err := o.Doc.SetSynthesis(text); err != nil {
			zap.L().Warn("orchestrator: live doc update failed", zap.Error(err))
		}
	}
	return text
}

// setSection updates the model's live document section, logging rather
// than propagating write failures.
func (o *Orchestrator) setSection(model catalog.ModelDescriptor, body string) {
	if o.Doc == nil {
		return
	}
	if err := o.Doc.SetSection(model.ID, model.DisplayName, body); err != nil {
		zap.L().Warn("orchestrator: live doc update failed",
			zap.String("model", model.ID), zap.Error(err))
	}
}

// renderSection builds a model's final live document section.
func renderSection(r domain.ModelResult) string {
	var b strings.Builder
	if r.Brainstorm {
		b.WriteString(r.MergedIdeas)
	} else {
		fmt.Fprintf(&b, "**Winner: sample %d**\n\n", r.BestIndex+1)
		b.WriteString(r.Representative())
	}
	if r.Report != "" {
		b.WriteString("\n\n---\n")
		b.WriteString(r.Report)
	}
	return b.String()
}

// notifyDone sends the completion notification.
func (o *Orchestrator) notifyDone(outcome *Outcome) {
	if o.Notifier == nil {
		return
	}
	body := fmt.Sprintf("%d model(s) completed", len(outcome.Results))
	if len(outcome.Failed) > 0 {
		body += fmt.Sprintf(", %d failed", len(outcome.Failed))
	}
	o.Notifier.Notify("Best-of-N run finished", body)
}
