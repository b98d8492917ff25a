package collect

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/model"
)

var scanNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestScanner(api ghclient.CommitFetcher, loc *time.Location, messages bool) *CommitScanner {
	s := NewCommitScanner(api, loc, 90*24*time.Hour, messages)
	s.now = func() time.Time { return scanNow }
	return s
}

func TestCommitTimeOf(t *testing.T) {
	tests := []struct {
		when time.Time
		want model.CommitTime
	}{
		{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), model.CommitTime{Weekday: 0, Hour: 0}},   // Monday
		{time.Date(2024, 7, 5, 13, 0, 0, 0, time.UTC), model.CommitTime{Weekday: 4, Hour: 13}}, // Friday
		{time.Date(2024, 7, 7, 23, 59, 0, 0, time.UTC), model.CommitTime{Weekday: 6, Hour: 23}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CommitTimeOf(tt.when), tt.when.String())
	}
}

func TestCommitScanner_ConvertsToTargetTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	api := newFakeAPI(&fakeRepo{
		repo: ownedRepo("tools"),
		commits: []model.Commit{
			// Monday 03:00 UTC is Sunday 22:00 in New York (EST).
			{SHA: "a", Date: time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)},
		},
	})

	scan, err := newTestScanner(api, ny, false).Scan(context.Background(), ownedRepo("tools"))

	require.NoError(t, err)
	assert.Equal(t, []model.CommitTime{{Weekday: 6, Hour: 22}}, scan.Times)
}

func TestCommitScanner_RecentWindow(t *testing.T) {
	api := newFakeAPI(&fakeRepo{
		repo: ownedRepo("tools"),
		commits: []model.Commit{
			{SHA: "new", Message: "Recent work", Author: "octocat", Date: scanNow.Add(-24 * time.Hour), HTMLURL: "https://github.com/octocat/tools/commit/new"},
			{SHA: "flaky", Date: scanNow.Add(-48 * time.Hour)},
			{SHA: "old", Date: scanNow.Add(-100 * 24 * time.Hour)},
		},
		stats: map[string]model.CommitStats{
			"new": {Additions: 5, Deletions: 2, Total: 7},
		},
		statsErr: map[string]error{
			"flaky": errors.New("server error"),
		},
	})

	scan, err := newTestScanner(api, time.UTC, false).Scan(context.Background(), ownedRepo("tools"))

	require.NoError(t, err)
	assert.Len(t, scan.Times, 3, "every commit is in the histogram")
	require.Len(t, scan.Recent, 1, "old commits and failed stats are left out")
	assert.Equal(t, model.RecentCommit{
		RepoName:     "tools",
		URL:          "https://github.com/octocat/tools/commit/new",
		SHA:          "new",
		Message:      "Recent work",
		Author:       "octocat",
		Timestamp:    "2024-06-29T12:00:00Z",
		Additions:    5,
		Deletions:    2,
		TotalChanges: 7,
	}, scan.Recent[0])
	assert.Equal(t, 2, api.Calls("stats", "tools"), "stats are only fetched inside the window")
	assert.Nil(t, scan.Messages)
}

func TestCommitScanner_CollectsMessages(t *testing.T) {
	api := newFakeAPI(&fakeRepo{
		repo: ownedRepo("tools"),
		commits: []model.Commit{
			{SHA: "a", Message: "first", Date: scanNow.AddDate(-1, 0, 0)},
			{SHA: "b", Message: "second", Date: scanNow.AddDate(-1, 0, 0)},
		},
	})

	scan, err := newTestScanner(api, time.UTC, true).Scan(context.Background(), ownedRepo("tools"))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, scan.Messages)
}

func TestCommitScanner_ListFailureAbortsRepository(t *testing.T) {
	api := newFakeAPI(&fakeRepo{
		repo:       ownedRepo("empty"),
		commitsErr: ghclient.ErrEmptyRepository,
	})

	_, err := newTestScanner(api, time.UTC, false).Scan(context.Background(), ownedRepo("empty"))

	assert.ErrorIs(t, err, ghclient.ErrEmptyRepository)
}

func TestCommitScanner_FallbackURL(t *testing.T) {
	api := newFakeAPI(&fakeRepo{
		repo:    ownedRepo("tools"),
		commits: []model.Commit{{SHA: "abc", Date: scanNow}},
	})

	scan, err := newTestScanner(api, time.UTC, false).Scan(context.Background(), ownedRepo("tools"))

	require.NoError(t, err)
	require.Len(t, scan.Recent, 1)
	assert.Equal(t, "https://github.com/octocat/tools/commit/abc", scan.Recent[0].URL)
}
