package judge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
)

// mergeSeparator splits the merged idea list from the merger's notes.
const mergeSeparator = "\n---\n"

// Merged is the outcome of combining one model's brainstorm samples.
type Merged struct {
	// Ideas is the deduplicated idea list.
	Ideas string
	// Report describes the merge, or names the fallback used.
	Report string
}

// Merger combines a model's brainstorm samples into one deduplicated idea
// list. When the merge model fails, the samples are concatenated verbatim
// with source labels so no idea is ever lost.
type Merger struct {
	// Primary is the merge model tried first.
	Primary ports.LLMClient
	// Secondary is tried when the primary fails; may be nil.
	Secondary ports.LLMClient
}

// Merge combines the successful samples. A single successful sample is
// returned as-is without a merge call. Merge only errors when no sample
// succeeded.
func (m *Merger) Merge(ctx context.Context, prompt string, samples []domain.SampleResult) (Merged, error) {
	successes := successful(samples)
	if len(successes) == 0 {
		return Merged{}, fmt.Errorf("no successful samples to merge")
	}
	if len(successes) == 1 {
		return Merged{
			Ideas:  successes[0].Text,
			Report: "Only one sample succeeded; returned without merging.",
		}, nil
	}

	mergePrompt := buildMergePrompt(prompt, successes)

	for _, client := range []ports.LLMClient{m.Primary, m.Secondary} {
		if client == nil {
			continue
		}
		response, err := client.Complete(ctx, mergePrompt, nil)
		if err != nil {
			zap.L().Warn("merge: call failed",
				zap.String("merger", client.GetModel()),
				zap.Error(err))
			continue
		}
		if merged, ok := parseMergeResponse(response); ok {
			return merged, nil
		}
		zap.L().Warn("merge: empty response", zap.String("merger", client.GetModel()))
	}

	return concatFallback(successes), nil
}

// parseMergeResponse splits the response into the idea list and the
// merger's notes. The notes are a trailing block, so the split happens on
// the last separator: an idea list containing its own markdown "---" rule
// must stay intact. A response without the separator is all ideas.
func parseMergeResponse(response string) (Merged, bool) {
	response = strings.TrimSpace(response)
	if response == "" {
		return Merged{}, false
	}

	var merged Merged
	if i := strings.LastIndex(response, mergeSeparator); i >= 0 {
		merged.Ideas = strings.TrimSpace(response[:i])
		merged.Report = strings.TrimSpace(response[i+len(mergeSeparator):])
	} else {
		merged.Ideas = response
		merged.Report = "Samples merged; the merger provided no notes."
	}
	if merged.Ideas == "" {
		return Merged{}, false
	}
	return merged, true
}

// concatFallback preserves every sample verbatim under a 1-based source
// label when merging is unavailable.
func concatFallback(successes []domain.SampleResult) Merged {
	var b strings.Builder
	for i, s := range successes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "From sample %d:\n%s", s.Index+1, s.Text)
	}
	return Merged{
		Ideas:  b.String(),
		Report: "Merging unavailable; samples concatenated with source labels.",
	}
}

// buildMergePrompt asks the merge model for a deduplicated idea list with
// optional notes after a separator line.
func buildMergePrompt(prompt string, successes []domain.SampleResult) string {
	var b strings.Builder
	b.WriteString("Multiple brainstorming passes answered the following prompt.\n\n")
	b.WriteString("PROMPT:\n")
	b.WriteString(prompt)
	b.WriteString("\n\n")

	for i, s := range successes {
		fmt.Fprintf(&b, "PASS %d:\n%s\n\n", i+1, s.Text)
	}

	fmt.Fprintf(&b, `Merge the passes into a single deduplicated list of ideas, organized by
theme. Keep every distinct idea, combine near-duplicates into their
strongest form, and annotate each idea with how many of the %d passes
proposed it. An idea proposed by several passes independently is a
stronger idea; the counts carry that signal. After the list, write a line
containing only "---" followed by brief notes on the merge.`, len(successes))

	return b.String()
}
