package output

import (
	"sort"
	"strings"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/readme"
)

// Options controls what the summary includes.
type Options struct {
	// ExcludedFileTypes are extensions left out of the extension table.
	ExcludedFileTypes []string
	// ExcludedLibraries are left out of the library totals and ranking.
	ExcludedLibraries []string
	// TopLibraries bounds the library ranking. Zero uses the default.
	TopLibraries int
}

// ExtensionCount is the number of files with one extension.
type ExtensionCount struct {
	Extension string
	Files     int
}

// RepoRow is one line of the per-repository table.
type RepoRow struct {
	Name      string
	Files     int
	Lines     int
	Commits   int
	Libraries int
}

// Summary is the reporter's view of an aggregate.
type Summary struct {
	Repos        []RepoRow
	TotalFiles   int
	TotalLines   int
	TotalCommits int
	Libraries    int
	TopLibraries []readme.LibraryCount
	Extensions   []ExtensionCount
	Constructs   map[string]int
	MergedPRs    int
	Heatmap      model.CommitHeatmap
}

// Summarize computes the totals shown by every formatter.
func Summarize(agg *model.Aggregate, opts Options) Summary {
	top := opts.TopLibraries
	if top <= 0 {
		top = constants.TopLibraries
	}
	m := readme.ComputeMetrics(agg, opts.ExcludedLibraries, top)

	s := Summary{
		TotalFiles:   m.TotalFiles,
		TotalLines:   m.TotalLines,
		Libraries:    m.TotalLibraries,
		TopLibraries: m.TopLibraries,
		Constructs:   model.NewConstructCounts(),
		MergedPRs:    len(agg.MergedPRs),
		Heatmap:      agg.CommitCounts,
	}
	if s.Heatmap == nil {
		s.Heatmap = model.BuildHeatmap(agg.RepoStats)
	}

	skipExt := make(map[string]struct{}, len(opts.ExcludedFileTypes))
	for _, e := range opts.ExcludedFileTypes {
		skipExt[strings.TrimPrefix(e, ".")] = struct{}{}
	}
	exts := map[string]int{}

	for _, r := range agg.RepoStats {
		s.TotalCommits += r.TotalCommits
		s.Repos = append(s.Repos, RepoRow{
			Name:      r.Name,
			Files:     r.TotalSourceFiles,
			Lines:     r.TotalSourceLines,
			Commits:   r.TotalCommits,
			Libraries: len(r.Libraries),
		})
		model.MergeCounts(s.Constructs, r.ConstructCounts)
		for ext, n := range r.FileExtensions {
			if _, ok := skipExt[ext]; ok {
				continue
			}
			exts[ext] += n
		}
	}

	sort.Slice(s.Repos, func(i, j int) bool {
		if s.Repos[i].Lines != s.Repos[j].Lines {
			return s.Repos[i].Lines > s.Repos[j].Lines
		}
		return s.Repos[i].Name < s.Repos[j].Name
	})

	for ext, n := range exts {
		s.Extensions = append(s.Extensions, ExtensionCount{Extension: ext, Files: n})
	}
	sort.Slice(s.Extensions, func(i, j int) bool {
		if s.Extensions[i].Files != s.Extensions[j].Files {
			return s.Extensions[i].Files > s.Extensions[j].Files
		}
		return s.Extensions[i].Extension < s.Extensions[j].Extension
	})

	return s
}
