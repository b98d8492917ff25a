package model

import "time"

// RecentCommit is a commit inside the recency window, with diff stats.
type RecentCommit struct {
	RepoName     string `json:"repoName"`
	URL          string `json:"url"`
	SHA          string `json:"sha"`
	Message      string `json:"message"`
	Author       string `json:"author"`
	Timestamp    string `json:"timestamp"` // RFC 3339 in the configured timezone
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	TotalChanges int    `json:"totalChanges"`
}

// MergedPullRequest is a merged PR authored by the user in someone else's repository.
type MergedPullRequest struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Repository string `json:"repository"`
	Owner      string `json:"owner"`
	RepoURL    string `json:"repoUrl"`
	URL        string `json:"url"`
	CreatedAt  string `json:"createdAt"`
	ClosedAt   string `json:"closedAt"`
	Stars      int    `json:"stars"`
}

// Commit is one entry of a repository's commit history.
type Commit struct {
	SHA     string
	Message string
	Author  string
	Date    time.Time
	HTMLURL string
}

// CommitStats are the diff totals of a single commit.
type CommitStats struct {
	Additions int
	Deletions int
	Total     int
}
