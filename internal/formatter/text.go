package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/tordrt/ormsynth/internal/manifest"
)

// TextFormatter formats a manifest as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the manifest in compact text format
func (f *TextFormatter) Format(m *manifest.Manifest) error {
	_, _ = fmt.Fprintf(f.writer, "MANIFEST %s\n", m.RunID)
	_, _ = fmt.Fprintf(f.writer, "started: %s\n", m.StartedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(f.writer, "succeeded: %d, failed: %d\n", len(m.Succeeded()), len(m.Failed()))

	model := ""
	for i, e := range m.Entries {
		if i == 0 || e.Model != model {
			model = e.Model
			_, _ = fmt.Fprintln(f.writer)
			_, _ = fmt.Fprintf(f.writer, "%s\n", model)
		}
		if _, err := fmt.Fprintf(f.writer, "  %s\n", f.formatEntry(e)); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatEntry(e manifest.Entry) string {
	if e.Status == manifest.StatusFailed {
		return fmt.Sprintf("%d FAILED %s: %s", e.Unit, e.Artifact, e.Error)
	}
	return fmt.Sprintf("%d %s -> %s", e.Unit, e.Artifact, e.Location)
}
