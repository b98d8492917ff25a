// Package output renders the aggregate for the terminal.
package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/ghstats/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use table, json, or markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(agg *model.Aggregate, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format, opts Options) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{opts: opts}
	default:
		return &TableFormatter{opts: opts}
	}
}
