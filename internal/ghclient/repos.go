package ghclient

import (
	"context"
	"fmt"
	"iter"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/model"
)

// Repos lists the repositories owned by owner, one page at a time. For the
// authenticated user (or an empty owner) the private listing is used, which
// includes private repositories; any other account is listed through its
// public owner listing. Pages are only requested as the sequence is consumed.
// A failed page yields the error and ends the sequence.
func (c *Client) Repos(ctx context.Context, owner string) iter.Seq2[model.Repo, error] {
	return func(yield func(model.Repo, error) bool) {
		self, err := c.isAuthenticatedUser(ctx, owner)
		if err != nil {
			yield(model.Repo{}, err)
			return
		}

		list := c.listOwnedBy(owner)
		if self {
			list = c.listAuthenticated()
		}

		page := 0
		for {
			type result struct {
				repos []*gh.Repository
				resp  *gh.Response
			}
			p, err := Do(ctx, c.gateway, ResourceCore, "list repos", func(ctx context.Context) (result, error) {
				repos, resp, err := list(ctx, page)
				return result{repos, resp}, err
			})
			if err != nil {
				yield(model.Repo{}, fmt.Errorf("failed to list repositories: %w", err))
				return
			}

			for _, r := range p.repos {
				if !yield(toRepo(r), nil) {
					return
				}
			}

			if p.resp == nil || p.resp.NextPage == 0 {
				return
			}
			page = p.resp.NextPage
		}
	}
}

type listFunc func(ctx context.Context, page int) ([]*gh.Repository, *gh.Response, error)

func (c *Client) listAuthenticated() listFunc {
	return func(ctx context.Context, page int) ([]*gh.Repository, *gh.Response, error) {
		return c.client.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
			Sort:        "full_name",
			ListOptions: gh.ListOptions{Page: page, PerPage: constants.PerPage},
		})
	}
}

func (c *Client) listOwnedBy(owner string) listFunc {
	return func(ctx context.Context, page int) ([]*gh.Repository, *gh.Response, error) {
		return c.client.Repositories.ListByUser(ctx, owner, &gh.RepositoryListByUserOptions{
			Type:        "owner",
			Sort:        "full_name",
			ListOptions: gh.ListOptions{Page: page, PerPage: constants.PerPage},
		})
	}
}

// isAuthenticatedUser reports whether owner names the token's account.
func (c *Client) isAuthenticatedUser(ctx context.Context, owner string) (bool, error) {
	if owner == "" {
		return true, nil
	}
	login := c.login
	if login == "" {
		var err error
		if login, err = c.AuthenticatedUser(ctx); err != nil {
			return false, err
		}
	}
	return strings.EqualFold(owner, login), nil
}

// ForkSource returns the owner login of the repository a fork was created from.
func (c *Client) ForkSource(ctx context.Context, owner, name string) (string, error) {
	repo, err := Do(ctx, c.gateway, ResourceCore, "get repo", func(ctx context.Context) (*gh.Repository, error) {
		r, _, err := c.client.Repositories.Get(ctx, owner, name)
		return r, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s/%s: %w", owner, name, classify(err))
	}
	src := repo.GetSource()
	if src == nil {
		src = repo.GetParent()
	}
	if src == nil {
		return "", fmt.Errorf("%s/%s has no upstream source", owner, name)
	}
	return src.GetOwner().GetLogin(), nil
}

// Stars returns the stargazer count of a repository.
func (c *Client) Stars(ctx context.Context, owner, name string) (int, error) {
	repo, err := Do(ctx, c.gateway, ResourceCore, "get repo", func(ctx context.Context) (*gh.Repository, error) {
		r, _, err := c.client.Repositories.Get(ctx, owner, name)
		return r, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get %s/%s: %w", owner, name, classify(err))
	}
	return repo.GetStargazersCount(), nil
}

func toRepo(r *gh.Repository) model.Repo {
	return model.Repo{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
	}
}
