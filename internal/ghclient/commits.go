package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
)

// ListCommits returns the complete commit history reachable from the default
// branch, newest first. An empty repository yields ErrEmptyRepository.
func (c *Client) ListCommits(ctx context.Context, owner, repo string) ([]model.Commit, error) {
	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: constants.PerPage},
	}

	var commits []model.Commit
	for {
		type page struct {
			commits []*gh.RepositoryCommit
			resp    *gh.Response
		}
		p, err := Do(ctx, c.gateway, ResourceCore, "list commits", func(ctx context.Context) (page, error) {
			cs, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
			return page{cs, resp}, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, classify(err))
		}

		for _, rc := range p.commits {
			commits = append(commits, toCommit(rc))
		}

		if p.resp == nil || p.resp.NextPage == 0 {
			break
		}
		opts.Page = p.resp.NextPage
	}
	return commits, nil
}

// CommitStats fetches the diff totals of a single commit.
func (c *Client) CommitStats(ctx context.Context, owner, repo, sha string) (model.CommitStats, error) {
	rc, err := Do(ctx, c.gateway, ResourceCore, "get commit", func(ctx context.Context) (*gh.RepositoryCommit, error) {
		rc, _, err := c.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
		return rc, err
	})
	if err != nil {
		return model.CommitStats{}, fmt.Errorf("failed to get commit %s: %w", sha, classify(err))
	}
	st := rc.GetStats()
	return model.CommitStats{
		Additions: st.GetAdditions(),
		Deletions: st.GetDeletions(),
		Total:     st.GetTotal(),
	}, nil
}

func toCommit(rc *gh.RepositoryCommit) model.Commit {
	c := model.Commit{
		SHA:     rc.GetSHA(),
		Message: rc.GetCommit().GetMessage(),
		HTMLURL: rc.GetHTMLURL(),
		Date:    rc.GetCommit().GetAuthor().GetDate().Time,
	}
	c.Author = rc.GetAuthor().GetLogin()
	if c.Author == "" {
		c.Author = rc.GetCommit().GetAuthor().GetName()
	}
	return c
}
