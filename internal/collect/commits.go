package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// CommitScan is the result of scanning one repository's history.
type CommitScan struct {
	Times    []model.CommitTime
	Messages []string
	Recent   []model.RecentCommit
}

// CommitScanner builds the commit-time histogram and the recent commit list.
type CommitScanner struct {
	api      ghclient.CommitFetcher
	loc      *time.Location
	window   time.Duration
	messages bool

	// now anchors the recency window; replaced in tests.
	now func() time.Time
}

// NewCommitScanner creates a scanner that reports commit times in loc and
// fetches diff stats for commits newer than window.
func NewCommitScanner(api ghclient.CommitFetcher, loc *time.Location, window time.Duration, messages bool) *CommitScanner {
	if loc == nil {
		loc = time.UTC
	}
	return &CommitScanner{api: api, loc: loc, window: window, messages: messages, now: time.Now}
}

// Scan reads the full history of repo. A failure to list commits is returned
// and ends the scan; a failure to read one commit's stats only drops that
// commit from the recent list.
func (s *CommitScanner) Scan(ctx context.Context, repo model.Repo) (*CommitScan, error) {
	logger := log.ForRepo(repo.Name)

	commits, err := s.api.ListCommits(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UTC().Add(-s.window)
	scan := &CommitScan{
		Times:  make([]model.CommitTime, 0, len(commits)),
		Recent: []model.RecentCommit{},
	}

	for _, c := range commits {
		local := c.Date.In(s.loc)
		scan.Times = append(scan.Times, CommitTimeOf(local))
		if s.messages {
			scan.Messages = append(scan.Messages, c.Message)
		}

		if c.Date.Before(cutoff) {
			continue
		}
		stats, err := s.api.CommitStats(ctx, repo.Owner, repo.Name, c.SHA)
		if err != nil {
			logger.Warn("skipping recent commit stats", "sha", c.SHA, "error", err)
			continue
		}
		scan.Recent = append(scan.Recent, model.RecentCommit{
			RepoName:     repo.Name,
			URL:          commitURL(repo, c),
			SHA:          c.SHA,
			Message:      c.Message,
			Author:       c.Author,
			Timestamp:    local.Format(time.RFC3339),
			Additions:    stats.Additions,
			Deletions:    stats.Deletions,
			TotalChanges: stats.Total,
		})
	}

	logger.Debug("scanned commits", "total", len(scan.Times), "recent", len(scan.Recent))
	return scan, nil
}

// CommitTimeOf returns the Monday-based weekday and the hour of t in t's location.
func CommitTimeOf(t time.Time) model.CommitTime {
	return model.CommitTime{
		Weekday: (int(t.Weekday()) + 6) % 7,
		Hour:    t.Hour(),
	}
}

func commitURL(repo model.Repo, c model.Commit) string {
	if c.HTMLURL != "" {
		return c.HTMLURL
	}
	return fmt.Sprintf("https://github.com/%s/%s/commit/%s", repo.Owner, repo.Name, c.SHA)
}
