package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tordrt/ormsynth/internal/manifest"
)

// MarkdownFormatter formats a manifest as a markdown table
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the manifest in markdown format
func (f *MarkdownFormatter) Format(m *manifest.Manifest) error {
	_, _ = fmt.Fprintln(f.writer, "# Generated Schema Files")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "- **Run:** %s\n", m.RunID)
	_, _ = fmt.Fprintf(f.writer, "- **Started:** %s\n", m.StartedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(f.writer, "- **Succeeded:** %d\n", len(m.Succeeded()))
	_, _ = fmt.Fprintf(f.writer, "- **Failed:** %d\n", len(m.Failed()))
	_, _ = fmt.Fprintln(f.writer)

	_, _ = fmt.Fprintln(f.writer, "| Model | Unit | Artifact | Location | Status |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|---|---|")
	for _, e := range m.Entries {
		status := string(e.Status)
		if e.Status == manifest.StatusFailed {
			status = fmt.Sprintf("failed: %s", escapeCell(e.Error))
		}
		if _, err := fmt.Fprintf(f.writer, "| %s | %d | %s | %s | %s |\n",
			escapeCell(e.Model),
			e.Unit,
			escapeCell(e.Artifact),
			escapeCell(e.Location),
			status); err != nil {
			return err
		}
	}
	return nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
