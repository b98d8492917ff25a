// Package model contains the domain types persisted in the aggregate store.
// These types are independent of any external GitHub library.
package model

import "sort"

// Repo describes a repository as returned by the enumerator.
type Repo struct {
	Name          string
	FullName      string
	Owner         string
	DefaultBranch string
	HTMLURL       string
	Fork          bool
	Archived      bool
}

// CommitTime is the local weekday and hour of a single commit.
// Weekday is Monday-based: 0 = Monday ... 6 = Sunday.
type CommitTime struct {
	Weekday int `json:"weekday"`
	Hour    int `json:"hour"`
}

// RepoRecord holds everything collected for one repository.
type RepoRecord struct {
	Name             string         `json:"name"`
	PythonFiles      []string       `json:"pythonFiles"`
	Libraries        []string       `json:"libraries"`
	TotalSourceFiles int            `json:"totalSourceFiles"`
	TotalSourceLines int            `json:"totalSourceLines"`
	FileExtensions   map[string]int `json:"fileExtensions"`
	TotalCommits     int            `json:"totalCommits"`
	CommitTimes      []CommitTime   `json:"commitTimes"`
	ConstructCounts  map[string]int `json:"constructCounts"`
	CommitMessages   []string       `json:"commitMessages,omitempty"`
}

// NewRepoRecord returns an empty record with all maps and slices allocated
// so that the JSON form never contains nulls.
func NewRepoRecord(name string) *RepoRecord {
	return &RepoRecord{
		Name:            name,
		PythonFiles:     []string{},
		Libraries:       []string{},
		FileExtensions:  map[string]int{},
		CommitTimes:     []CommitTime{},
		ConstructCounts: NewConstructCounts(),
	}
}

// normalize replaces nil maps and slices left by a sparse document.
func (r *RepoRecord) normalize() {
	if r.PythonFiles == nil {
		r.PythonFiles = []string{}
	}
	if r.Libraries == nil {
		r.Libraries = []string{}
	}
	if r.FileExtensions == nil {
		r.FileExtensions = map[string]int{}
	}
	if r.CommitTimes == nil {
		r.CommitTimes = []CommitTime{}
	}
	if r.ConstructCounts == nil {
		r.ConstructCounts = NewConstructCounts()
	}
}

// AddSourceFile records one counted source file. It is the only way the
// file list and the file total change, which keeps them in step.
func (r *RepoRecord) AddSourceFile(path string, lines int) {
	r.PythonFiles = append(r.PythonFiles, path)
	r.TotalSourceFiles++
	r.TotalSourceLines += lines
}

// AddCommitTime records one commit in the histogram and the commit total.
func (r *RepoRecord) AddCommitTime(ct CommitTime) {
	r.CommitTimes = append(r.CommitTimes, ct)
	r.TotalCommits++
}

// MergeLibraries adds libs to the record's library set, keeping it sorted.
func (r *RepoRecord) MergeLibraries(libs map[string]struct{}) {
	if len(libs) == 0 {
		return
	}
	set := make(map[string]struct{}, len(r.Libraries)+len(libs))
	for _, l := range r.Libraries {
		set[l] = struct{}{}
	}
	for l := range libs {
		set[l] = struct{}{}
	}
	merged := make([]string, 0, len(set))
	for l := range set {
		merged = append(merged, l)
	}
	sort.Strings(merged)
	r.Libraries = merged
}

// Consistent reports whether the record's derived totals agree with its lists.
func (r *RepoRecord) Consistent() bool {
	return r.TotalSourceFiles == len(r.PythonFiles) && r.TotalCommits == len(r.CommitTimes)
}

// TreeEntry is one entry of a recursive git tree listing.
type TreeEntry struct {
	Path string
	SHA  string
	Type string // "blob", "tree" or "commit"
	Size int    // bytes; zero for non-blobs
}

// IsBlob reports whether the entry is a file.
func (e TreeEntry) IsBlob() bool {
	return e.Type == "blob"
}
