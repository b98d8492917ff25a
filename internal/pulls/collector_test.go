package pulls

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghstats/internal/model"
)

type fakeSearcher struct {
	mu        sync.Mutex
	prs       []model.MergedPullRequest
	searchErr error
	stars     map[string]int
	starErr   map[string]error
	lookups   map[string]int
}

func (f *fakeSearcher) SearchMergedPRs(ctx context.Context, username string) ([]model.MergedPullRequest, error) {
	return f.prs, f.searchErr
}

func (f *fakeSearcher) Stars(ctx context.Context, owner, name string) (int, error) {
	key := owner + "/" + name
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookups == nil {
		f.lookups = map[string]int{}
	}
	f.lookups[key]++
	if err := f.starErr[key]; err != nil {
		return 0, err
	}
	return f.stars[key], nil
}

func pr(number int, owner, repo string) model.MergedPullRequest {
	return model.MergedPullRequest{Number: number, Owner: owner, Repository: repo}
}

func TestCollect(t *testing.T) {
	api := &fakeSearcher{
		prs: []model.MergedPullRequest{
			pr(1, "kubernetes", "kubectl"),
			pr(2, "octocat", "mine"),
			pr(3, "kubernetes", "kubectl"),
			pr(4, "pallets", "flask"),
			pr(5, "broken", "repo"),
		},
		stars: map[string]int{
			"kubernetes/kubectl": 2500,
			"pallets/flask":      65000,
		},
		starErr: map[string]error{
			"broken/repo": errors.New("not found"),
		},
	}

	var progress []int
	var mu sync.Mutex
	c := NewCollector(api, WithWorkers(2), WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, done)
		assert.Equal(t, 3, total)
	}))

	got, err := c.Collect(context.Background(), "OctoCat")
	require.NoError(t, err)

	var numbers []int
	for _, p := range got {
		numbers = append(numbers, p.Number)
	}
	assert.Equal(t, []int{1, 3, 4, 5}, numbers, "own repositories are dropped and order is kept")
	assert.Equal(t, 2500, got[0].Stars)
	assert.Equal(t, 2500, got[1].Stars)
	assert.Equal(t, 65000, got[2].Stars)
	assert.Equal(t, 0, got[3].Stars, "failed lookups default to zero")

	assert.Equal(t, 1, api.lookups["kubernetes/kubectl"], "stars are fetched once per repository")
	assert.Len(t, progress, 3)
}

func TestCollect_SearchError(t *testing.T) {
	boom := errors.New("search unavailable")
	c := NewCollector(&fakeSearcher{searchErr: boom})

	_, err := c.Collect(context.Background(), "octocat")

	assert.ErrorIs(t, err, boom)
}

func TestCollect_Empty(t *testing.T) {
	c := NewCollector(&fakeSearcher{})

	got, err := c.Collect(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
