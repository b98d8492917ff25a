// Package pulls collects merged pull requests the user authored in other
// people's repositories.
package pulls

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// Collector searches merged pull requests and attaches repository stars.
type Collector struct {
	api        ghclient.PullRequestSearcher
	workers    int
	onProgress func(completed, total int)
}

// Option configures a Collector.
type Option func(*Collector)

// WithWorkers bounds the number of concurrent star lookups.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress sets a callback invoked after each star lookup.
func WithProgress(fn func(completed, total int)) Option {
	return func(c *Collector) { c.onProgress = fn }
}

// NewCollector creates a collector over api.
func NewCollector(api ghclient.PullRequestSearcher, opts ...Option) *Collector {
	c := &Collector{api: api, workers: constants.StarFetchWorkers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type repoKey struct{ owner, name string }

// Collect returns the merged pull requests username authored in repositories
// owned by someone else, in search order. A failed star lookup leaves that
// repository's stars at zero; only a failed search is returned.
func (c *Collector) Collect(ctx context.Context, username string) ([]model.MergedPullRequest, error) {
	found, err := c.api.SearchMergedPRs(ctx, username)
	if err != nil {
		return nil, err
	}

	prs := make([]model.MergedPullRequest, 0, len(found))
	var repos []repoKey
	seen := map[repoKey]struct{}{}
	for _, pr := range found {
		if pr.Owner == "" || strings.EqualFold(pr.Owner, username) {
			continue
		}
		prs = append(prs, pr)
		key := repoKey{pr.Owner, pr.Repository}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			repos = append(repos, key)
		}
	}

	stars, err := c.fetchStars(ctx, repos)
	if err != nil {
		return nil, err
	}
	for i := range prs {
		prs[i].Stars = stars[repoKey{prs[i].Owner, prs[i].Repository}]
	}

	log.Info("collected merged pull requests", "count", len(prs), "repositories", len(repos))
	return prs, nil
}

func (c *Collector) fetchStars(ctx context.Context, repos []repoKey) (map[repoKey]int, error) {
	stars := make(map[repoKey]int, len(repos))
	var mu sync.Mutex
	var completed int32
	total := len(repos)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, key := range repos {
		g.Go(func() error {
			n, err := c.api.Stars(gctx, key.owner, key.name)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("could not fetch stars, using 0", "repo", key.owner+"/"+key.name, "error", err)
				n = 0
			}
			mu.Lock()
			stars[key] = n
			mu.Unlock()

			if c.onProgress != nil {
				c.onProgress(int(atomic.AddInt32(&completed, 1)), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching repository stars: %w", err)
	}
	return stars, nil
}
