package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/format"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/readme"
)

const (
	colRepo    = 32
	colMessage = 48
)

// TableFormatter formats the summary as terminal tables
type TableFormatter struct {
	opts Options
	now  func() time.Time
}

// Format outputs the aggregate summary as tables and a heatmap grid
func (f *TableFormatter) Format(agg *model.Aggregate, w io.Writer) error {
	if len(agg.RepoStats) == 0 && len(agg.MergedPRs) == 0 {
		fmt.Fprintln(w, "No statistics collected yet. Run 'ghstats collect' first.")
		return nil
	}

	s := Summarize(agg, f.opts)
	heading := color.New(color.Bold, color.FgCyan)

	heading.Fprintln(w, "Totals")
	fmt.Fprintf(w, "  Repositories: %d   Source files: %d   Source lines: %d\n", len(s.Repos), s.TotalFiles, s.TotalLines)
	fmt.Fprintf(w, "  Commits: %d   Libraries: %d   Merged PRs: %d\n\n", s.TotalCommits, s.Libraries, s.MergedPRs)

	heading.Fprintln(w, "Repositories")
	rows := make([][]string, 0, len(s.Repos))
	for _, r := range s.Repos {
		name, _ := format.TruncateToWidth(r.Name, colRepo)
		rows = append(rows, []string{name, itoa(r.Files), itoa(r.Lines), itoa(r.Commits), itoa(r.Libraries)})
	}
	if err := renderTable(w, []string{"Repository", "Files", "Lines", "Commits", "Libraries"}, rows); err != nil {
		return err
	}

	if recent := readme.LatestCommits(agg.RecentCommits, constants.RecentCommitsShown*2); len(recent) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Recent Commits")
		now := time.Now
		if f.now != nil {
			now = f.now
		}
		rows = rows[:0]
		for _, c := range recent {
			msg, _ := format.TruncateToWidth(format.FirstLine(c.Message), colMessage)
			age := "?"
			if ts, err := time.Parse(time.RFC3339, c.Timestamp); err == nil {
				age = format.Compact(now().Sub(ts))
			}
			rows = append(rows, []string{c.RepoName, msg, format.DiffStat(c.Additions, c.Deletions), age})
		}
		if err := renderTable(w, []string{"Repository", "Message", "Changes", "Age"}, rows); err != nil {
			return err
		}
	}

	if len(s.TopLibraries) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Top Libraries")
		rows = rows[:0]
		for _, l := range s.TopLibraries {
			rows = append(rows, []string{l.Name, itoa(l.Repos)})
		}
		if err := renderTable(w, []string{"Library", "Repos"}, rows); err != nil {
			return err
		}
	}

	if len(s.Extensions) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "File Types")
		rows = rows[:0]
		for _, e := range s.Extensions {
			rows = append(rows, []string{e.Extension, itoa(e.Files)})
		}
		if err := renderTable(w, []string{"Extension", "Files"}, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	heading.Fprintln(w, "Constructs")
	rows = rows[:0]
	for _, c := range model.AllConstructs {
		rows = append(rows, []string{c, itoa(s.Constructs[c])})
	}
	if err := renderTable(w, []string{"Construct", "Count"}, rows); err != nil {
		return err
	}

	fmt.Fprintln(w)
	heading.Fprintln(w, "Commit Activity")
	WriteHeatmap(w, s.Heatmap)

	return nil
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// heatmapShades are ordered from no activity to the busiest hour.
var heatmapShades = []string{"·", "░", "▒", "▓", "█"}

// WriteHeatmap prints the weekday by hour grid. Cells are shaded relative to
// the busiest hour.
func WriteHeatmap(w io.Writer, h model.CommitHeatmap) {
	peak := 0
	for _, hours := range h {
		for _, n := range hours {
			peak = max(peak, n)
		}
	}

	var b strings.Builder
	b.WriteString("     ")
	for hour := 0; hour < 24; hour++ {
		fmt.Fprintf(&b, "%02d ", hour)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	hot := color.New(color.FgGreen)
	for _, day := range model.Weekdays {
		b.Reset()
		fmt.Fprintf(&b, "%-4s", day[:3])
		for hour := 0; hour < 24; hour++ {
			n := h[day][hour]
			cell := shade(n, peak)
			if n > 0 {
				cell = hot.Sprint(cell)
			}
			b.WriteString("  " + cell)
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintf(w, "     %d commits, peak %d per hour\n", h.Total(), peak)
}

func shade(n, peak int) string {
	if n <= 0 || peak <= 0 {
		return heatmapShades[0]
	}
	idx := (n*(len(heatmapShades)-1) + peak - 1) / peak
	return heatmapShades[min(idx, len(heatmapShades)-1)]
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
