// Package synthesis produces the final cross-model answer from each
// model's winning output. It runs once per invocation, after every
// per-model pipeline has finished, and its failure never fails the run.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
)

// Synthesizer combines the per-model winners into one answer using a
// strong reasoning model with an extended thinking budget.
type Synthesizer struct {
	// Client is the synthesis model.
	Client ports.LLMClient
	// ThinkingTokens enables extended deliberation on providers that
	// support it; zero disables.
	ThinkingTokens int
}

// Synthesize merges the representative outputs of the surviving models.
// Returns domain.ErrNothingToSynthesize, without issuing a request, when no
// model contributed a usable output.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string, results []domain.ModelResult, brainstorm bool) (string, error) {
	type contribution struct {
		name string
		text string
	}
	contributions := make([]contribution, 0, len(results))
	for _, r := range results {
		if text := r.Representative(); text != "" {
			contributions = append(contributions, contribution{name: r.DisplayName, text: text})
		}
	}
	if len(contributions) == 0 {
		return "", domain.ErrNothingToSynthesize
	}

	var b strings.Builder
	if brainstorm {
		b.WriteString("Several models brainstormed ideas for the following prompt. Their merged idea lists are below.\n\n")
	} else {
		b.WriteString("Several models answered the following prompt. The best answer from each model is below.\n\n")
	}
	b.WriteString("PROMPT:\n")
	b.WriteString(prompt)
	b.WriteString("\n\n")

	for _, c := range contributions {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", c.name, c.text)
	}

	if brainstorm {
		b.WriteString(`Combine the idea lists into one master list, clustered by theme and
deduplicated across models. Tag each idea with the model(s) that proposed
it. Close with summary statistics (total unique ideas, ideas proposed
independently by multiple models, ideas unique to one model) and a ranked
top-5 shortlist of the strongest ideas.`)
	} else {
		b.WriteString(`Synthesize these answers into a single, definitive response with the
following structure: an executive summary; the key findings the models
agree on; flagged disagreements with an assessment of which position is
more credible; valuable insights unique to one model, tagged with the
model that contributed them; and a closing statement of how confident
you are in the synthesis overall.`)
	}

	var options map[string]any
	if s.ThinkingTokens > 0 {
		options = map[string]any{"thinking_budget_tokens": s.ThinkingTokens}
	}

	response, err := s.Client.Complete(ctx, b.String(), options)
	if err != nil {
		return "", fmt.Errorf("synthesis request: %w", err)
	}
	return response, nil
}
