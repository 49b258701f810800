package livedoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HartreeWorks/bestofn/internal/domain"
)

func testConfig() domain.RunConfig {
	return domain.RunConfig{
		Prompt:      "design a cache",
		Samples:     3,
		Temperature: 0.7,
		OutputDir:   "runs",
	}
}

func TestDocument_HeaderAndSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.md")
	doc := New(path, testConfig(), time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	require.NoError(t, doc.SetSection("claude-4-sonnet", "Claude 4 Sonnet", "sampling 0/3"))
	require.NoError(t, doc.SetSection("gpt-4.1", "GPT-4.1", "sampling 0/3"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Best-of-N Run")
	assert.Contains(t, content, "- **Prompt:** design a cache")
	assert.Contains(t, content, "- **Samples per model:** 3")
	assert.Contains(t, content, "## Claude 4 Sonnet")
	assert.Contains(t, content, "## GPT-4.1")
}

func TestDocument_SectionReplacedWholesale(t *testing.T) {
	doc := New("", testConfig(), time.Now())

	require.NoError(t, doc.SetSection("claude-4-sonnet", "Claude 4 Sonnet", "sampling 1/3"))
	require.NoError(t, doc.SetSection("claude-4-sonnet", "Claude 4 Sonnet", "**Winner:** sample 2"))

	content := doc.Render()
	assert.NotContains(t, content, "sampling 1/3")
	assert.Contains(t, content, "**Winner:** sample 2")
	assert.Equal(t, 1, strings.Count(content, "## Claude 4 Sonnet"))
}

func TestDocument_KeyedByModelID(t *testing.T) {
	// A title change must update the existing section, not append a new one.
	doc := New("", testConfig(), time.Now())

	require.NoError(t, doc.SetSection("gemini-2.5-pro", "Gemini 2.5 Pro", "in flight"))
	require.NoError(t, doc.SetSection("gemini-2.5-pro", "Gemini 2.5 Pro (slow)", "done"))

	content := doc.Render()
	assert.NotContains(t, content, "## Gemini 2.5 Pro\n")
	assert.Contains(t, content, "## Gemini 2.5 Pro (slow)")
	assert.Equal(t, 1, strings.Count(content, "done"))
}

func TestDocument_SynthesisAfterHeader(t *testing.T) {
	doc := New("", testConfig(), time.Now())

	require.NoError(t, doc.SetSection("claude-4-sonnet", "Claude 4 Sonnet", "winner text"))
	require.NoError(t, doc.SetSynthesis("the combined answer"))

	content := doc.Render()
	synthIdx := strings.Index(content, "## Synthesis")
	modelIdx := strings.Index(content, "## Claude 4 Sonnet")
	require.NotEqual(t, -1, synthIdx)
	require.NotEqual(t, -1, modelIdx)
	assert.Less(t, synthIdx, modelIdx, "synthesis renders before model sections")
}

func TestDocument_ConcurrentUpdatesKeepDiskCurrent(t *testing.T) {
	// Render and write form one critical section, so the file on disk can
	// never end up behind the in-memory document: the last update to run
	// writes a snapshot that includes every earlier one.
	path := filepath.Join(t.TempDir(), "live.md")
	doc := New(path, testConfig(), time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("model-%d", i)
		for j := 0; j < 25; j++ {
			wg.Add(1)
			go func(body string) {
				defer wg.Done()
				assert.NoError(t, doc.SetSection(id, id, body))
			}(fmt.Sprintf("update %d", j))
		}
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Render(), string(data))

	content := string(data)
	for i := 0; i < 8; i++ {
		assert.Contains(t, content, fmt.Sprintf("## model-%d", i))
	}
}

func TestDocument_PreservesSectionOrder(t *testing.T) {
	doc := New("", testConfig(), time.Now())

	require.NoError(t, doc.SetSection("b-model", "B Model", "b"))
	require.NoError(t, doc.SetSection("a-model", "A Model", "a"))
	require.NoError(t, doc.SetSection("b-model", "B Model", "b updated"))

	content := doc.Render()
	assert.Less(t, strings.Index(content, "## B Model"), strings.Index(content, "## A Model"))
}
