// Package readme splices a generated statistics section into a README.
package readme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
)

// Separator is the line after which the generated section starts.
const Separator = "---"

// Options selects the parts of the generated section.
type Options struct {
	ShowRecentCommits bool
	ShowMergedPRs     bool
	ShowTotalLines    bool
	ShowTotalLibs     bool
	ImagePath         string
	ExcludedLibraries []string

	// Date is printed as the generation date.
	Date time.Time
	// RunID and Repository, when both set, link the date to the
	// GitHub Actions run that generated the section.
	RunID      string
	Repository string
}

// Render builds the generated section from agg.
func Render(agg *model.Aggregate, opts Options) string {
	var b strings.Builder
	m := ComputeMetrics(agg, opts.ExcludedLibraries, 0)

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "### Data last generated on: %s", opts.Date.Format("2006-01-02"))
	if opts.RunID != "" && opts.Repository != "" {
		fmt.Fprintf(&b, " via [GitHub Action %s](https://github.com/%s/actions/runs/%s)", opts.RunID, opts.Repository, opts.RunID)
	}
	b.WriteString("\n\n")

	if opts.ShowRecentCommits {
		b.WriteString("## 🚀 Recent Commits\n\n")
		for i, c := range LatestCommits(agg.RecentCommits, constants.RecentCommitsShown) {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- **%s - [%s](%s)**\n", c.RepoName, oneLine(c.Message), c.URL)
			fmt.Fprintf(&b, "  - Additions: %d - Deletions: %d - Total Changes: %d\n", c.Additions, c.Deletions, c.TotalChanges)
		}
		b.WriteString("\n\n")
	}

	if opts.ShowMergedPRs {
		b.WriteString("## 🔀 Recently Merged Pull Requests\n\n")
		prs := agg.MergedPRs
		if len(prs) > constants.MergedPRsShown {
			prs = prs[:constants.MergedPRsShown]
		}
		for i, pr := range prs {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- **[%s](%s)**\n", oneLine(pr.Title), pr.URL)
			fmt.Fprintf(&b, "  - Repository: [%s](%s)\n", pr.Repository, pr.RepoURL)
			fmt.Fprintf(&b, "  - Stars: %d\n", pr.Stars)
		}
		b.WriteString("\n")
	}

	b.WriteString("# 📊 Code Stats:\n\n")
	if opts.ShowTotalLines {
		fmt.Fprintf(&b, "### Total Lines of Code: %d\n", m.TotalLines)
	}
	if opts.ShowTotalLibs {
		fmt.Fprintf(&b, "### Total Libraries/Modules Imported: %d\n", m.TotalLibraries)
	}
	fmt.Fprintf(&b, "### Total Source Files: %d\n", m.TotalFiles)
	if opts.ImagePath != "" {
		fmt.Fprintf(&b, "![](%s)\n\n", opts.ImagePath)
	}

	return b.String()
}

// Splice keeps doc up to and including the first line that is exactly the
// separator (ignoring surrounding whitespace), line break included, and
// appends section. When doc has no separator, all of doc is kept and a
// separator line is added first.
func Splice(doc, section string) string {
	lines := strings.SplitAfter(doc, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == Separator {
			return ensureNewline(strings.Join(lines[:i+1], "")) + section
		}
	}
	return ensureNewline(doc) + Separator + "\n" + section
}

func ensureNewline(s string) string {
	if s != "" && !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// Update rewrites the README at path with a freshly rendered section. A
// missing README is created. The file is replaced atomically.
func Update(path string, agg *model.Aggregate, opts Options) error {
	doc, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := Splice(string(doc), Render(agg, opts))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
