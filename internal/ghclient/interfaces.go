package ghclient

import (
	"context"
	"iter"

	"github.com/spiffcs/ghstats/internal/model"
)

// RepoLister enumerates an account's repositories and resolves fork upstreams.
type RepoLister interface {
	Repos(ctx context.Context, owner string) iter.Seq2[model.Repo, error]
	ForkSource(ctx context.Context, owner, name string) (string, error)
}

// CommitFetcher reads commit history and per-commit diff totals.
type CommitFetcher interface {
	ListCommits(ctx context.Context, owner, repo string) ([]model.Commit, error)
	CommitStats(ctx context.Context, owner, repo, sha string) (model.CommitStats, error)
}

// TreeFetcher reads a recursive tree and blob contents.
type TreeFetcher interface {
	Tree(ctx context.Context, owner, repo, ref string) ([]model.TreeEntry, error)
	Blob(ctx context.Context, owner, repo, sha string) ([]byte, error)
}

// PullRequestSearcher finds merged pull requests and repository star counts.
type PullRequestSearcher interface {
	SearchMergedPRs(ctx context.Context, username string) ([]model.MergedPullRequest, error)
	Stars(ctx context.Context, owner, name string) (int, error)
}

// Ensure Client implements every interface.
var (
	_ RepoLister          = (*Client)(nil)
	_ CommitFetcher       = (*Client)(nil)
	_ TreeFetcher         = (*Client)(nil)
	_ PullRequestSearcher = (*Client)(nil)
)
