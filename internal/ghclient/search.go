package ghclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
)

// SearchMergedPRs returns merged pull requests authored by username in the
// search API's default best-match order. Star counts are left at zero.
func (c *Client) SearchMergedPRs(ctx context.Context, username string) ([]model.MergedPullRequest, error) {
	query := fmt.Sprintf("is:pr is:merged author:%s", username)

	opts := &gh.SearchOptions{
		ListOptions: gh.ListOptions{
			PerPage: constants.PerPage,
		},
	}

	var prs []model.MergedPullRequest

	for {
		type page struct {
			result *gh.IssuesSearchResult
			resp   *gh.Response
		}
		p, err := Do(ctx, c.gateway, ResourceSearch, "search merged prs", func(ctx context.Context) (page, error) {
			result, resp, err := c.client.Search.Issues(ctx, query, opts)
			return page{result, resp}, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search for merged PRs: %w", err)
		}

		for _, issue := range p.result.Issues {
			prs = append(prs, issueToMergedPR(issue))
		}

		if p.resp == nil || p.resp.NextPage == 0 {
			break
		}
		opts.Page = p.resp.NextPage
	}

	return prs, nil
}

// repoFromURL extracts owner and repo name from a GitHub API repository URL.
// URL format: https://api.github.com/repos/owner/repo
func repoFromURL(url string) (owner, repo string) {
	_, trimmed, ok := strings.Cut(url, "/repos/")
	if !ok || trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

func issueToMergedPR(issue *gh.Issue) model.MergedPullRequest {
	owner, repo := repoFromURL(issue.GetRepositoryURL())
	repoURL := ""
	if owner != "" && repo != "" {
		repoURL = fmt.Sprintf("https://github.com/%s/%s", owner, repo)
	}

	return model.MergedPullRequest{
		Number:     issue.GetNumber(),
		Title:      issue.GetTitle(),
		Repository: repo,
		Owner:      owner,
		RepoURL:    repoURL,
		URL:        issue.GetHTMLURL(),
		CreatedAt:  formatTimestamp(issue.GetCreatedAt()),
		ClosedAt:   formatTimestamp(issue.GetClosedAt()),
	}
}

func formatTimestamp(ts gh.Timestamp) string {
	if ts.Time.IsZero() {
		return ""
	}
	return ts.Time.UTC().Format(time.RFC3339)
}
