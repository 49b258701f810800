package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
)

var validate = validator.New()

// Selection is the outcome of comparing one model's samples.
type Selection struct {
	// BestOrdinal is the dispatch ordinal of the winning sample. It always
	// refers to a successful sample.
	BestOrdinal int
	// Report is the human-readable comparison: the judge's justification
	// and extracted point lists, or a note naming the fallback used.
	Report string
}

// report is the structured verdict requested from the judge model.
type report struct {
	BestSample       int      `json:"best_sample" validate:"required,min=1"`
	Justification    string   `json:"justification"`
	ConsistentPoints []string `json:"consistent_points"`
	UniquePoints     []string `json:"unique_points"`
	Contradictions   []string `json:"contradictions"`
}

// Selector picks the best of a model's successful samples. A failed primary
// judge falls back to the secondary judge, and a failed secondary falls
// back to picking the longest response, so selection always produces a
// winner when at least one sample succeeded.
type Selector struct {
	// Primary is the judge model tried first.
	Primary ports.LLMClient
	// Secondary is tried when the primary fails; may be nil.
	Secondary ports.LLMClient
}

// Select compares the successful samples and returns the winner. With a
// single successful sample no judge call is made. Select only errors when
// no sample succeeded; the caller is expected to have dropped such models
// already.
func (s *Selector) Select(ctx context.Context, prompt string, samples []domain.SampleResult) (Selection, error) {
	successes := successful(samples)
	if len(successes) == 0 {
		return Selection{}, fmt.Errorf("no successful samples to compare")
	}
	if len(successes) == 1 {
		return Selection{
			BestOrdinal: successes[0].Index,
			Report:      "Only one sample succeeded; returned without comparison.",
		}, nil
	}

	judgePrompt := buildSelectionPrompt(prompt, successes)

	if s.Primary != nil {
		if sel, ok := s.tryJudge(ctx, s.Primary, judgePrompt, successes); ok {
			return sel, nil
		}
	}
	if s.Secondary != nil {
		zap.L().Warn("judge: primary failed, trying secondary",
			zap.String("secondary", s.Secondary.GetModel()))
		if sel, ok := s.tryJudge(ctx, s.Secondary, judgePrompt, successes); ok {
			return sel, nil
		}
	}

	// Deterministic last resort: the longest response tends to be the most
	// complete one. Ties keep the earliest ordinal.
	best := successes[0]
	for _, c := range successes[1:] {
		if len(c.Text) > len(best.Text) {
			best = c
		}
	}
	return Selection{
		BestOrdinal: best.Index,
		Report:      "Judging unavailable; selected the longest response as a heuristic fallback.",
	}, nil
}

// tryJudge runs one judge model and parses its verdict. Any failure, from
// the call itself through JSON extraction to index validation, reports not-ok
// so the caller can move down the fallback chain.
func (s *Selector) tryJudge(ctx context.Context, client ports.LLMClient, judgePrompt string, successes []domain.SampleResult) (Selection, bool) {
	response, err := client.Complete(ctx, judgePrompt, nil)
	if err != nil {
		zap.L().Warn("judge: call failed",
			zap.String("judge", client.GetModel()),
			zap.Error(err))
		return Selection{}, false
	}

	raw := ExtractJSON(response)
	if raw == "" {
		zap.L().Warn("judge: no JSON in verdict", zap.String("judge", client.GetModel()))
		return Selection{}, false
	}

	var verdict report
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		zap.L().Warn("judge: malformed verdict", zap.Error(err))
		return Selection{}, false
	}
	if err := validate.Struct(&verdict); err != nil {
		zap.L().Warn("judge: invalid verdict", zap.Error(err))
		return Selection{}, false
	}
	if verdict.BestSample > len(successes) {
		zap.L().Warn("judge: verdict index out of range",
			zap.Int("best_sample", verdict.BestSample),
			zap.Int("candidates", len(successes)))
		return Selection{}, false
	}

	return Selection{
		// The verdict indexes candidates 1-based in presentation order; map
		// back to the winner's dispatch ordinal.
		BestOrdinal: successes[verdict.BestSample-1].Index,
		Report:      formatReport(verdict),
	}, true
}

// buildSelectionPrompt presents the candidates to the judge, numbered
// 1-based in ordinal order.
func buildSelectionPrompt(prompt string, successes []domain.SampleResult) string {
	var b strings.Builder
	b.WriteString("You are judging candidate answers to the following prompt.\n\n")
	b.WriteString("PROMPT:\n")
	b.WriteString(prompt)
	b.WriteString("\n\n")

	for i, s := range successes {
		fmt.Fprintf(&b, "CANDIDATE %d:\n%s\n\n", i+1, s.Text)
	}

	fmt.Fprintf(&b, `Compare the %d candidates. Respond with only a JSON object:
{
  "best_sample": <1-based number of the best candidate>,
  "justification": "<why it wins>",
  "consistent_points": ["<claims most candidates agree on>"],
  "unique_points": ["<valuable points only one candidate makes>"],
  "contradictions": ["<direct disagreements between candidates>"]
}`, len(successes))

	return b.String()
}

// formatReport renders the structured verdict as the human-readable report
// stored with the model result.
func formatReport(v report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Selected sample %d. %s\n", v.BestSample, v.Justification)

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n" + title + ":\n")
		for _, item := range items {
			b.WriteString("- " + item + "\n")
		}
	}
	writeList("Consistent across samples", v.ConsistentPoints)
	writeList("Unique points", v.UniquePoints)
	writeList("Contradictions", v.Contradictions)

	return strings.TrimRight(b.String(), "\n")
}

// successful filters the samples to the ones with usable text, preserving
// ordinal order.
func successful(samples []domain.SampleResult) []domain.SampleResult {
	out := make([]domain.SampleResult, 0, len(samples))
	for _, s := range samples {
		if s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}
