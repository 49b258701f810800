// Package progress tracks and renders live per-model status for a run:
// samples completed, failures, and the current pipeline phase.
package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Phase names the pipeline stage a model is currently in.
type Phase string

const (
	// PhaseSampling means generation attempts are in flight.
	PhaseSampling Phase = "sampling"
	// PhaseComparing means the judge or merger is running.
	PhaseComparing Phase = "comparing"
	// PhaseDone means the model's pipeline finished with a result.
	PhaseDone Phase = "done"
	// PhaseFailed means every sample failed and the model was dropped.
	PhaseFailed Phase = "failed"
)

// ModelState is a point-in-time snapshot of one model's progress.
type ModelState struct {
	DisplayName string
	Total       int
	Done        int
	Failed      int
	Phase       Phase
}

// Tracker accumulates per-model progress and periodically renders it to a
// writer. All methods are safe for concurrent use by the per-model
// pipelines.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*ModelState
	order  []string

	w        io.Writer
	interval time.Duration
	cancel   context.CancelFunc
	rendered sync.WaitGroup
}

// NewTracker creates a tracker rendering to w every interval.
func NewTracker(w io.Writer, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Tracker{
		states:   make(map[string]*ModelState),
		w:        w,
		interval: interval,
	}
}

// Register adds a model with the expected sample count. Registration order
// fixes the render order.
func (t *Tracker) Register(modelID, displayName string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[modelID]; ok {
		return
	}
	t.states[modelID] = &ModelState{DisplayName: displayName, Total: total, Phase: PhaseSampling}
	t.order = append(t.order, modelID)
}

// SampleDone records one completed sample attempt.
func (t *Tracker) SampleDone(modelID string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, exists := t.states[modelID]; exists {
		s.Done++
		if !ok {
			s.Failed++
		}
	}
}

// Comparing marks the model as having entered the judge/merge phase.
func (t *Tracker) Comparing(modelID string) { t.setPhase(modelID, PhaseComparing) }

// Finished marks the model's pipeline as complete.
func (t *Tracker) Finished(modelID string) { t.setPhase(modelID, PhaseDone) }

// Dropped marks the model as fully failed.
func (t *Tracker) Dropped(modelID string) { t.setPhase(modelID, PhaseFailed) }

func (t *Tracker) setPhase(modelID string, p Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, exists := t.states[modelID]; exists {
		s.Phase = p
	}
}

// Snapshot returns a copy of the current states keyed by model id.
func (t *Tracker) Snapshot() map[string]ModelState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]ModelState, len(t.states))
	for id, s := range t.states {
		out[id] = *s
	}
	return out
}

// Start begins periodic rendering until ctx is canceled or Stop is called.
func (t *Tracker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.rendered.Add(1)
	go func() {
		defer t.rendered.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.render()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts rendering and writes one final snapshot.
func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.rendered.Wait()
	}
	t.render()
}

// render writes one status line per model in registration order.
func (t *Tracker) render() {
	if t.w == nil {
		return
	}

	t.mu.Lock()
	ids := append([]string(nil), t.order...)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		s := t.states[id]
		line := fmt.Sprintf("%-20s %d/%d samples", s.DisplayName, s.Done, s.Total)
		if s.Failed > 0 {
			line += fmt.Sprintf(" (%d failed)", s.Failed)
		}
		line += "  " + string(s.Phase)
		lines = append(lines, line)
	}
	t.mu.Unlock()

	fmt.Fprintln(t.w, strings.Join(lines, "\n"))
}
