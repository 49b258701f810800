// Package artifact persists a completed run to disk: a timestamped
// directory holding the machine-readable summary, every raw sample, each
// model's winner and report, and the synthesis when present.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/domain"
)

// Write persists the run under root in a directory named by the run
// timestamp and returns its path. Persistence runs even for degraded runs;
// whatever succeeded is written.
func Write(root string, summary domain.RunSummary, results []domain.ModelResult, synthesis string) (string, error) {
	runDir := filepath.Join(root, summary.Timestamp.Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "artifact: create run dir %s", runDir)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "artifact: marshal summary")
	}
	if err := os.WriteFile(filepath.Join(runDir, "summary.json"), data, 0o644); err != nil {
		return "", eris.Wrap(err, "artifact: write summary")
	}

	for _, r := range results {
		if err := writeModel(runDir, r); err != nil {
			return "", err
		}
	}

	if synthesis != "" {
		if err := os.WriteFile(filepath.Join(runDir, "synthesis.md"), []byte(synthesis), 0o644); err != nil {
			return "", eris.Wrap(err, "artifact: write synthesis")
		}
	}

	zap.L().Info("artifact: run persisted", zap.String("dir", runDir))
	return runDir, nil
}

// writeModel persists one model's samples, selection, and report under a
// directory named by the model id.
func writeModel(runDir string, r domain.ModelResult) error {
	modelDir := filepath.Join(runDir, sanitize(r.ModelID))
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create model dir %s", modelDir)
	}

	for _, s := range r.Samples {
		name := fmt.Sprintf("sample_%d.md", s.Index+1)
		content := s.Text
		if !s.Succeeded() {
			content = fmt.Sprintf("(sample %s: %s)\n", s.Status, s.Err)
		}
		if err := os.WriteFile(filepath.Join(modelDir, name), []byte(content), 0o644); err != nil {
			return eris.Wrapf(err, "artifact: write %s", name)
		}
	}

	if r.Brainstorm {
		if err := os.WriteFile(filepath.Join(modelDir, "merged.md"), []byte(r.MergedIdeas), 0o644); err != nil {
			return eris.Wrap(err, "artifact: write merged ideas")
		}
	} else {
		if err := os.WriteFile(filepath.Join(modelDir, "best.md"), []byte(r.Representative()), 0o644); err != nil {
			return eris.Wrap(err, "artifact: write best sample")
		}
	}

	if err := os.WriteFile(filepath.Join(modelDir, "report.md"), []byte(r.Report), 0o644); err != nil {
		return eris.Wrap(err, "artifact: write report")
	}
	return nil
}

// sanitize makes a model id safe as a directory name.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, id)
}
