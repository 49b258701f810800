package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartreeWorks/bestofn/internal/domain"
)

func testRun(t *testing.T) (domain.RunSummary, []domain.ModelResult) {
	t.Helper()

	results := []domain.ModelResult{
		{
			ModelID:     "claude-4-sonnet",
			DisplayName: "Claude 4 Sonnet",
			Samples: []domain.SampleResult{
				{Index: 0, Text: "first answer", Status: domain.SampleSuccess, Tokens: 12},
				{Index: 1, Status: domain.SampleTimeout, Err: "request timed out"},
				{Index: 2, Text: "third answer, the winner", Status: domain.SampleSuccess, Tokens: 20},
			},
			BestIndex: 2,
			Report:    "Selected sample 2. More complete.",
		},
	}

	cfg := domain.RunConfig{
		Prompt:      "explain raft",
		Samples:     3,
		Temperature: 0.7,
		OutputDir:   "runs",
	}
	at := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	summary := domain.Summarize(cfg, results, []string{"gemini-2.5-pro"}, at)
	return summary, results
}

func TestWrite_FullRun(t *testing.T) {
	root := t.TempDir()
	summary, results := testRun(t)

	runDir, err := Write(root, summary, results, "the synthesis")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "20260825-093000"), runDir)

	// Summary round-trips with failures recorded.
	data, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	require.NoError(t, err)
	var loaded domain.RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "explain raft", loaded.Prompt)
	assert.Equal(t, []string{"gemini-2.5-pro"}, loaded.FailedModels)
	require.Len(t, loaded.Models, 1)
	assert.Equal(t, 2, loaded.Models[0].ChosenIndex)

	modelDir := filepath.Join(runDir, "claude-4-sonnet")

	best, err := os.ReadFile(filepath.Join(modelDir, "best.md"))
	require.NoError(t, err)
	assert.Equal(t, "third answer, the winner", string(best))

	report, err := os.ReadFile(filepath.Join(modelDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "More complete")

	// Failed samples persist as placeholders.
	s2, err := os.ReadFile(filepath.Join(modelDir, "sample_2.md"))
	require.NoError(t, err)
	assert.Contains(t, string(s2), "timeout")

	synth, err := os.ReadFile(filepath.Join(runDir, "synthesis.md"))
	require.NoError(t, err)
	assert.Equal(t, "the synthesis", string(synth))
}

func TestWrite_BrainstormWritesMerged(t *testing.T) {
	root := t.TempDir()
	summary, results := testRun(t)
	results[0].Brainstorm = true
	results[0].MergedIdeas = "- idea A\n- idea B"

	runDir, err := Write(root, summary, results, "")
	require.NoError(t, err)

	merged, err := os.ReadFile(filepath.Join(runDir, "claude-4-sonnet", "merged.md"))
	require.NoError(t, err)
	assert.Equal(t, "- idea A\n- idea B", string(merged))

	assert.NoFileExists(t, filepath.Join(runDir, "claude-4-sonnet", "best.md"))
	assert.NoFileExists(t, filepath.Join(runDir, "synthesis.md"))
}

func TestWrite_NoSynthesisFile(t *testing.T) {
	root := t.TempDir()
	summary, results := testRun(t)

	runDir, err := Write(root, summary, results, "")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(runDir, "synthesis.md"))
}
