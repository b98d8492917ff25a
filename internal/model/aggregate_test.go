package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommitHeatmap_ZeroFilled(t *testing.T) {
	h := NewCommitHeatmap()
	require.Len(t, h, 7)
	for _, day := range Weekdays {
		require.Len(t, h[day], 24, day)
		for hour := 0; hour < 24; hour++ {
			assert.Equal(t, 0, h[day][hour])
		}
	}
}

func TestBuildHeatmap(t *testing.T) {
	a := NewRepoRecord("a")
	a.AddCommitTime(CommitTime{Weekday: 0, Hour: 9})
	a.AddCommitTime(CommitTime{Weekday: 0, Hour: 9})
	b := NewRepoRecord("b")
	b.AddCommitTime(CommitTime{Weekday: 6, Hour: 23})
	b.CommitTimes = append(b.CommitTimes, CommitTime{Weekday: 9, Hour: 1})

	h := BuildHeatmap([]*RepoRecord{a, b})

	assert.Equal(t, 2, h["Monday"][9])
	assert.Equal(t, 1, h["Sunday"][23])
	assert.Equal(t, 3, h.Total())
}

func TestAggregate_UpsertReplacesInPlace(t *testing.T) {
	agg := NewAggregate()

	first := NewRepoRecord("alpha")
	first.AddCommitTime(CommitTime{Weekday: 1, Hour: 10})
	agg.Upsert(first, []RecentCommit{{RepoName: "alpha", SHA: "old"}})

	second := NewRepoRecord("beta")
	agg.Upsert(second, nil)

	again := NewRepoRecord("alpha")
	again.AddCommitTime(CommitTime{Weekday: 2, Hour: 11})
	again.AddCommitTime(CommitTime{Weekday: 2, Hour: 11})
	agg.Upsert(again, []RecentCommit{{RepoName: "alpha", SHA: "new"}})

	require.Len(t, agg.RepoStats, 2)
	assert.Equal(t, "alpha", agg.RepoStats[0].Name)
	assert.Equal(t, 2, agg.RepoStats[0].TotalCommits)

	require.Len(t, agg.RecentCommits, 1)
	assert.Equal(t, "new", agg.RecentCommits[0].SHA)

	assert.Equal(t, 0, agg.CommitCounts["Tuesday"][10])
	assert.Equal(t, 2, agg.CommitCounts["Wednesday"][11])
	assert.Equal(t, 2, agg.CommitCounts.Total())
}

func TestAggregate_HeatmapMatchesCommitTotals(t *testing.T) {
	agg := NewAggregate()
	for i, name := range []string{"a", "b", "c"} {
		rec := NewRepoRecord(name)
		for j := 0; j <= i; j++ {
			rec.AddCommitTime(CommitTime{Weekday: j, Hour: j})
		}
		agg.Upsert(rec, nil)
	}

	total := 0
	for _, r := range agg.RepoStats {
		assert.True(t, r.Consistent(), r.Name)
		total += r.TotalCommits
	}
	assert.Equal(t, total, agg.CommitCounts.Total())
}

func TestAggregate_NormalizeSparseDocument(t *testing.T) {
	var agg Aggregate
	require.NoError(t, json.Unmarshal([]byte(`{"repoStats":[{"name":"x","commitTimes":[{"weekday":3,"hour":4}]}]}`), &agg))

	agg.Normalize()

	assert.NotNil(t, agg.RecentCommits)
	assert.NotNil(t, agg.MergedPRs)
	assert.Equal(t, 1, agg.CommitCounts["Thursday"][4])
	assert.True(t, agg.Has("x"))
	assert.False(t, agg.Has("y"))
}

func TestRepoRecord_JSONHasNoNulls(t *testing.T) {
	data, err := json.Marshal(NewRepoRecord("empty"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.NotContains(t, string(data), "commitMessages")
}

func TestRepoRecord_MergeLibrariesSortedUnique(t *testing.T) {
	rec := NewRepoRecord("r")
	rec.MergeLibraries(map[string]struct{}{"requests": {}, "os": {}})
	rec.MergeLibraries(map[string]struct{}{"os": {}, "attr": {}})

	assert.Equal(t, []string{"attr", "os", "requests"}, rec.Libraries)
}

func TestRepoRecord_AddSourceFile(t *testing.T) {
	rec := NewRepoRecord("r")
	rec.AddSourceFile("src/main.py", 12)
	rec.AddSourceFile("src/util.py", 3)

	assert.Equal(t, 2, rec.TotalSourceFiles)
	assert.Equal(t, 15, rec.TotalSourceLines)
	assert.True(t, rec.Consistent())
}

func TestMergeCounts(t *testing.T) {
	dst := NewConstructCounts()
	MergeCounts(dst, map[string]int{ConstructIf: 2, ConstructClass: 1})
	MergeCounts(dst, map[string]int{ConstructIf: 1})

	assert.Equal(t, 3, dst[ConstructIf])
	assert.Equal(t, 1, dst[ConstructClass])
	assert.Equal(t, 0, dst[ConstructWhile])
	assert.Len(t, dst, len(AllConstructs))
}
