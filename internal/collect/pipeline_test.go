package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/store"
)

// remote builds three repositories with commits and source files.
func remote() *fakeAPI {
	a := withFiles(&fakeRepo{
		repo: ownedRepo("alpha"),
		commits: []model.Commit{
			{SHA: "a1", Date: scanNow.Add(-time.Hour)},
			{SHA: "a2", Date: scanNow.AddDate(-1, 0, 0)},
		},
		stats: map[string]model.CommitStats{"a1": {Additions: 1, Total: 1}},
	}, "main.py", "import os\nif os:\n    pass\n", "README.md", "# alpha\n")

	b := withFiles(&fakeRepo{
		repo:    ownedRepo("beta"),
		commits: []model.Commit{{SHA: "b1", Date: scanNow.AddDate(0, -6, 0)}},
	}, "pkg/util.py", "from json import dumps\nclass Util:\n    pass\n")

	c := withFiles(&fakeRepo{
		repo:    ownedRepo("gamma"),
		commits: []model.Commit{{SHA: "c1", Date: scanNow.AddDate(-2, 0, 0)}},
	}, "node_modules/dep/index.py", "import hidden\n", "run.py", "for x in y: pass\n")

	return newFakeAPI(a, b, c)
}

func newTestPipeline(api *fakeAPI, st Checkpointer, overwrite bool) *Pipeline {
	return NewPipeline(
		NewEnumerator(api, EnumeratorOptions{Owner: "octocat"}),
		newTestScanner(api, time.UTC, false),
		NewTreeWalker(api, defaultTreeOptions()),
		st,
		overwrite,
	)
}

func names(agg *model.Aggregate) []string {
	var out []string
	for _, r := range agg.RepoStats {
		out = append(out, r.Name)
	}
	return out
}

func TestPipeline_CollectsRecords(t *testing.T) {
	api := remote()
	st := store.New(filepath.Join(t.TempDir(), "repo_data.json"))
	agg := model.NewAggregate()

	sum, err := newTestPipeline(api, st, false).Run(context.Background(), agg)

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 3}, sum)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names(agg))

	total := 0
	for _, r := range agg.RepoStats {
		assert.True(t, r.Consistent(), r.Name)
		total += r.TotalCommits
	}
	assert.Equal(t, total, agg.CommitCounts.Total())

	alpha := agg.Find("alpha")
	assert.Equal(t, []string{"main.py"}, alpha.PythonFiles)
	assert.Equal(t, 3, alpha.TotalSourceLines)
	assert.Equal(t, []string{"os"}, alpha.Libraries)
	assert.Equal(t, map[string]int{"py": 1, "md": 1}, alpha.FileExtensions)
	assert.Equal(t, 1, alpha.ConstructCounts[model.ConstructIf])

	gamma := agg.Find("gamma")
	assert.Equal(t, []string{"run.py"}, gamma.PythonFiles)
	assert.Empty(t, gamma.Libraries)

	require.Len(t, agg.RecentCommits, 1)
	assert.Equal(t, "a1", agg.RecentCommits[0].SHA)

	saved, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, agg, saved)
}

func TestPipeline_ResumeSkipsKnownRepositories(t *testing.T) {
	api := remote()
	agg := model.NewAggregate()
	agg.Upsert(model.NewRepoRecord("alpha"), nil)
	agg.Upsert(model.NewRepoRecord("gamma"), nil)

	sum, err := newTestPipeline(api, store.New(filepath.Join(t.TempDir(), "d.json")), false).Run(context.Background(), agg)

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Skipped: 2}, sum)
	for _, name := range []string{"alpha", "gamma"} {
		assert.Equal(t, 0, api.Calls("commits", name), name)
		assert.Equal(t, 0, api.Calls("tree", name), name)
		assert.Equal(t, 0, api.Calls("blob", name), name)
		assert.Equal(t, 0, api.Calls("stats", name), name)
	}
	assert.Equal(t, 1, api.Calls("commits", "beta"))
}

func TestPipeline_OverwriteReplacesInPlace(t *testing.T) {
	api := remote()
	agg := model.NewAggregate()
	stale := model.NewRepoRecord("beta")
	stale.AddSourceFile("stale.py", 99)
	agg.Upsert(stale, nil)

	_, err := newTestPipeline(api, store.New(filepath.Join(t.TempDir(), "d.json")), true).Run(context.Background(), agg)

	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, names(agg))
	assert.Equal(t, []string{"pkg/util.py"}, agg.Find("beta").PythonFiles)
}

func TestPipeline_IdempotentRerun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo_data.json")
	st := store.New(path)

	_, err := newTestPipeline(remote(), st, false).Run(context.Background(), model.NewAggregate())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	agg, err := st.Load()
	require.NoError(t, err)
	api := remote()
	sum, err := newTestPipeline(api, st, false).Run(context.Background(), agg)
	require.NoError(t, err)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, sum)
	assert.False(t, sum.Changed())
	assert.Equal(t, first, second)
	assert.Equal(t, 0, api.Calls("commits", ""))
}

func TestPipeline_CheckpointSurvivesInterruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo_data.json")
	st := store.New(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := remote()
	api.beforeCommits = func(repo string) error {
		if repo == "beta" {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	_, err := newTestPipeline(api, st, false).Run(ctx, model.NewAggregate())
	require.ErrorIs(t, err, context.Canceled)

	agg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names(agg))
	alphaBefore := *agg.Find("alpha")

	resumed := remote()
	sum, err := newTestPipeline(resumed, st, false).Run(context.Background(), agg)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Skipped: 1}, sum)
	assert.Equal(t, 0, resumed.Calls("commits", "alpha"))

	final, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names(final))
	assert.Equal(t, alphaBefore, *final.Find("alpha"))
}

func TestPipeline_RepositoryErrorsDoNotStopRun(t *testing.T) {
	api := remote()
	api.repos[0].commitsErr = ghclient.ErrEmptyRepository
	api.repos[1].treeErr = errors.New("tree unavailable")

	agg := model.NewAggregate()
	var events []Event
	p := newTestPipeline(api, store.New(filepath.Join(t.TempDir(), "d.json")), false)
	p.OnEvent = func(ev Event) { events = append(events, ev) }

	sum, err := p.Run(context.Background(), agg)

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Failed: 1}, sum)
	assert.Equal(t, []string{"beta", "gamma"}, names(agg))

	beta := agg.Find("beta")
	assert.Equal(t, 1, beta.TotalCommits, "commit data is kept when the tree is unavailable")
	assert.Empty(t, beta.PythonFiles)

	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{
		EventStarted, EventFailed,
		EventStarted, EventDone,
		EventStarted, EventDone,
	}, kinds)
}

type failingStore struct{}

func (failingStore) Save(*model.Aggregate) error { return errors.New("disk full") }

func TestPipeline_CheckpointFailureIsFatal(t *testing.T) {
	_, err := newTestPipeline(remote(), failingStore{}, false).Run(context.Background(), model.NewAggregate())

	assert.ErrorContains(t, err, "disk full")
}
