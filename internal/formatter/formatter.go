package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ormsynth/internal/manifest"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// Formatter renders a manifest
type Formatter interface {
	Format(m *manifest.Manifest) error
}

// New returns the formatter for format ("text" or "markdown")
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case formatText:
		return NewTextFormatter(w), nil
	case formatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

// FileName returns the manifest artifact name for format
func FileName(format string) string {
	if format == formatMarkdown {
		return "manifest.md"
	}
	return "manifest.txt"
}
