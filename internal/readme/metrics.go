package readme

import (
	"sort"
	"time"

	"github.com/spiffcs/ghstats/internal/model"
)

// LibraryCount is the number of repositories importing a library.
type LibraryCount struct {
	Name  string
	Repos int
}

// Metrics are the totals shown in the generated section.
type Metrics struct {
	TotalLines     int
	TotalFiles     int
	TotalLibraries int
	TopLibraries   []LibraryCount
}

// ComputeMetrics totals the aggregate. Excluded libraries are left out of
// the library total and ranking. Libraries are ranked by the number of
// repositories importing them, then by name.
func ComputeMetrics(agg *model.Aggregate, excluded []string, top int) Metrics {
	skip := make(map[string]struct{}, len(excluded))
	for _, l := range excluded {
		skip[l] = struct{}{}
	}

	var m Metrics
	counts := map[string]int{}
	for _, r := range agg.RepoStats {
		m.TotalLines += r.TotalSourceLines
		m.TotalFiles += r.TotalSourceFiles
		for _, lib := range r.Libraries {
			if _, ok := skip[lib]; ok {
				continue
			}
			counts[lib]++
		}
	}
	m.TotalLibraries = len(counts)

	for name, n := range counts {
		m.TopLibraries = append(m.TopLibraries, LibraryCount{Name: name, Repos: n})
	}
	sort.Slice(m.TopLibraries, func(i, j int) bool {
		a, b := m.TopLibraries[i], m.TopLibraries[j]
		if a.Repos != b.Repos {
			return a.Repos > b.Repos
		}
		return a.Name < b.Name
	})
	if top > 0 && len(m.TopLibraries) > top {
		m.TopLibraries = m.TopLibraries[:top]
	}
	return m
}

// LatestCommits returns up to n recent commits, newest first.
func LatestCommits(commits []model.RecentCommit, n int) []model.RecentCommit {
	sorted := make([]model.RecentCommit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseTime(sorted[i].Timestamp).After(parseTime(sorted[j].Timestamp))
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// parseTime reads an RFC 3339 timestamp. Unparseable values sort last.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
