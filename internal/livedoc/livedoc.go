// Package livedoc maintains the incrementally updated markdown document a
// user watches while a run progresses. Sections are keyed by model id, so
// renamed display titles can never orphan a section, and the whole file is
// rewritten on every update to keep it valid markdown at all times.
package livedoc

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/HartreeWorks/bestofn/internal/domain"
)

// Document is the live run document. Safe for concurrent use by the
// per-model pipelines.
type Document struct {
	mu        sync.Mutex
	path      string
	header    string
	order     []string
	titles    map[string]string
	bodies    map[string]string
	synthesis string
}

// New creates a document at path with a metadata header derived from the
// run configuration.
func New(path string, cfg domain.RunConfig, startedAt time.Time) *Document {
	var b strings.Builder
	b.WriteString("# Best-of-N Run\n\n")
	fmt.Fprintf(&b, "- **Prompt:** %s\n", cfg.Prompt)
	fmt.Fprintf(&b, "- **Samples per model:** %d\n", cfg.Samples)
	if cfg.Range != nil {
		fmt.Fprintf(&b, "- **Temperature range:** %.2f–%.2f\n", cfg.Range.Low, cfg.Range.High)
	} else {
		fmt.Fprintf(&b, "- **Temperature:** %.2f\n", cfg.Temperature)
	}
	if cfg.Brainstorm {
		b.WriteString("- **Mode:** brainstorm\n")
	} else {
		b.WriteString("- **Mode:** selection\n")
	}
	fmt.Fprintf(&b, "- **Started:** %s\n", startedAt.Format(time.RFC3339))

	return &Document{
		path:   path,
		header: b.String(),
		titles: make(map[string]string),
		bodies: make(map[string]string),
	}
}

// SetSection replaces the section for modelID wholesale and flushes the
// document. First write of a model id appends the section; later writes
// update it in place, preserving section order.
func (d *Document) SetSection(modelID, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.bodies[modelID]; !exists {
		d.order = append(d.order, modelID)
	}
	d.titles[modelID] = title
	d.bodies[modelID] = body
	return d.flush()
}

// SetSynthesis sets the synthesis section and flushes. The section renders
// immediately after the metadata header, ahead of the per-model sections.
func (d *Document) SetSynthesis(body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.synthesis = body
	return d.flush()
}

// Render returns the current document content.
func (d *Document) Render() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.render()
}

// render serializes the document. Callers hold d.mu.
func (d *Document) render() string {
	var b strings.Builder
	b.WriteString(d.header)

	if d.synthesis != "" {
		b.WriteString("\n## Synthesis\n\n")
		b.WriteString(strings.TrimRight(d.synthesis, "\n"))
		b.WriteString("\n")
	}

	for _, id := range d.order {
		fmt.Fprintf(&b, "\n## %s\n\n", d.titles[id])
		b.WriteString(strings.TrimRight(d.bodies[id], "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// flush writes the serialized document to disk. Callers hold d.mu: the
// render and the write form one critical section, so a stale snapshot can
// never overwrite a newer one.
func (d *Document) flush() error {
	if d.path == "" {
		return nil
	}
	if err := os.WriteFile(d.path, []byte(d.render()), 0o644); err != nil {
		return eris.Wrapf(err, "livedoc: write %s", d.path)
	}
	return nil
}
