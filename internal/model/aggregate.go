package model

import "fmt"

// Weekdays lists heatmap row names in Monday-first order, indexed by CommitTime.Weekday.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// CommitHeatmap maps weekday name to hour of day to commit count.
type CommitHeatmap map[string]map[int]int

// NewCommitHeatmap returns a heatmap with every weekday and hour present at zero.
func NewCommitHeatmap() CommitHeatmap {
	h := make(CommitHeatmap, len(Weekdays))
	for _, day := range Weekdays {
		hours := make(map[int]int, 24)
		for hour := 0; hour < 24; hour++ {
			hours[hour] = 0
		}
		h[day] = hours
	}
	return h
}

// BuildHeatmap recomputes the heatmap from the commit times of every record.
// Out-of-range entries are ignored.
func BuildHeatmap(records []*RepoRecord) CommitHeatmap {
	h := NewCommitHeatmap()
	for _, r := range records {
		for _, ct := range r.CommitTimes {
			if ct.Weekday < 0 || ct.Weekday >= len(Weekdays) || ct.Hour < 0 || ct.Hour > 23 {
				continue
			}
			h[Weekdays[ct.Weekday]][ct.Hour]++
		}
	}
	return h
}

// Total returns the number of commits in the heatmap.
func (h CommitHeatmap) Total() int {
	total := 0
	for _, hours := range h {
		for _, n := range hours {
			total += n
		}
	}
	return total
}

// Aggregate is the persisted document handed to every reporter.
type Aggregate struct {
	RepoStats     []*RepoRecord       `json:"repoStats"`
	CommitCounts  CommitHeatmap       `json:"commitCounts"`
	RecentCommits []RecentCommit      `json:"recentCommits"`
	MergedPRs     []MergedPullRequest `json:"mergedPRs"`
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		RepoStats:     []*RepoRecord{},
		CommitCounts:  NewCommitHeatmap(),
		RecentCommits: []RecentCommit{},
		MergedPRs:     []MergedPullRequest{},
	}
}

// Validate reports structural damage that decoding alone does not catch:
// null repository entries and records without a name.
func (a *Aggregate) Validate() error {
	for i, r := range a.RepoStats {
		if r == nil {
			return fmt.Errorf("repoStats[%d] is null", i)
		}
		if r.Name == "" {
			return fmt.Errorf("repoStats[%d] has no name", i)
		}
	}
	return nil
}

// Normalize fills nil collections left by a sparse or older document.
// Call it only on an aggregate that passed Validate.
func (a *Aggregate) Normalize() {
	if a.RepoStats == nil {
		a.RepoStats = []*RepoRecord{}
	}
	for _, r := range a.RepoStats {
		r.normalize()
	}
	if a.RecentCommits == nil {
		a.RecentCommits = []RecentCommit{}
	}
	if a.MergedPRs == nil {
		a.MergedPRs = []MergedPullRequest{}
	}
	if a.CommitCounts == nil {
		a.CommitCounts = BuildHeatmap(a.RepoStats)
	}
}

// Find returns the record for name, or nil.
func (a *Aggregate) Find(name string) *RepoRecord {
	for _, r := range a.RepoStats {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Has reports whether a record for name exists.
func (a *Aggregate) Has(name string) bool {
	return a.Find(name) != nil
}

// Upsert inserts rec, or replaces the existing record with the same name in place.
// Recent commits for the repository are replaced by recent. The heatmap is
// rebuilt from every stored record.
func (a *Aggregate) Upsert(rec *RepoRecord, recent []RecentCommit) {
	replaced := false
	for i, r := range a.RepoStats {
		if r.Name == rec.Name {
			a.RepoStats[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		a.RepoStats = append(a.RepoStats, rec)
	}

	kept := a.RecentCommits[:0:0]
	for _, c := range a.RecentCommits {
		if c.RepoName != rec.Name {
			kept = append(kept, c)
		}
	}
	a.RecentCommits = append(kept, recent...)

	a.CommitCounts = BuildHeatmap(a.RepoStats)
}
