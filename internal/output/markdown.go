package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/ghstats/internal/model"
)

// MarkdownFormatter formats the summary as Markdown tables
type MarkdownFormatter struct {
	opts Options
}

// Format outputs the aggregate summary as Markdown
func (f *MarkdownFormatter) Format(agg *model.Aggregate, w io.Writer) error {
	s := Summarize(agg, f.opts)

	fmt.Fprintln(w, "# GitHub Statistics")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Repositories:** %d\n", len(s.Repos))
	fmt.Fprintf(w, "- **Source files:** %d\n", s.TotalFiles)
	fmt.Fprintf(w, "- **Source lines:** %d\n", s.TotalLines)
	fmt.Fprintf(w, "- **Commits:** %d\n", s.TotalCommits)
	fmt.Fprintf(w, "- **Libraries:** %d\n", s.Libraries)
	fmt.Fprintf(w, "- **Merged PRs:** %d\n", s.MergedPRs)

	if len(s.Repos) > 0 {
		fmt.Fprintln(w, "\n## Repositories")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Repository | Files | Lines | Commits | Libraries |")
		fmt.Fprintln(w, "|---|---:|---:|---:|---:|")
		for _, r := range s.Repos {
			fmt.Fprintf(w, "| %s | %d | %d | %d | %d |\n", r.Name, r.Files, r.Lines, r.Commits, r.Libraries)
		}
	}

	if len(s.TopLibraries) > 0 {
		fmt.Fprintln(w, "\n## Top Libraries")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Library | Repos |")
		fmt.Fprintln(w, "|---|---:|")
		for _, l := range s.TopLibraries {
			fmt.Fprintf(w, "| %s | %d |\n", l.Name, l.Repos)
		}
	}

	if len(s.Extensions) > 0 {
		fmt.Fprintln(w, "\n## File Types")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Extension | Files |")
		fmt.Fprintln(w, "|---|---:|")
		for _, e := range s.Extensions {
			fmt.Fprintf(w, "| %s | %d |\n", e.Extension, e.Files)
		}
	}

	fmt.Fprintln(w, "\n## Constructs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Construct | Count |")
	fmt.Fprintln(w, "|---|---:|")
	for _, c := range model.AllConstructs {
		fmt.Fprintf(w, "| %s | %d |\n", c, s.Constructs[c])
	}

	return nil
}
