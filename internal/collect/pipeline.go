package collect

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// Checkpointer persists the aggregate after each repository.
type Checkpointer interface {
	Save(agg *model.Aggregate) error
}

// EventKind identifies a pipeline progress event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventSkipped
	EventDone
	EventFailed
)

// Event reports progress on one repository.
type Event struct {
	Kind   EventKind
	Repo   string
	Err    error
	Record *model.RepoRecord
}

// Summary counts what a run did.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Changed reports whether the aggregate was modified.
func (s Summary) Changed() bool {
	return s.Processed > 0
}

// Pipeline runs the enumerator, scanners and checkpoints one repository at a
// time, in enumeration order.
type Pipeline struct {
	repos     *Enumerator
	commits   *CommitScanner
	tree      *TreeWalker
	store     Checkpointer
	overwrite bool

	// OnEvent, when set, receives progress for every repository.
	OnEvent func(Event)
}

// NewPipeline wires the collection stages together. With overwrite unset,
// repositories already present in the aggregate are skipped before any of
// their data is fetched.
func NewPipeline(repos *Enumerator, commits *CommitScanner, tree *TreeWalker, store Checkpointer, overwrite bool) *Pipeline {
	return &Pipeline{
		repos:     repos,
		commits:   commits,
		tree:      tree,
		store:     store,
		overwrite: overwrite,
	}
}

// Run collects every enumerated repository into agg and saves agg after each
// one. Per-repository failures are logged and counted. Run returns an error
// only when enumeration fails, the context ends, or a checkpoint cannot be
// written; repositories checkpointed before that point stay on disk.
func (p *Pipeline) Run(ctx context.Context, agg *model.Aggregate) (Summary, error) {
	var sum Summary

	for repo, err := range p.repos.Repos(ctx) {
		if err != nil {
			return sum, err
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if agg.Has(repo.Name) && !p.overwrite {
			log.Debug("skipping repository", "repo", repo.Name, "reason", string(SkipAlreadyKnown))
			sum.Skipped++
			p.emit(Event{Kind: EventSkipped, Repo: repo.Name})
			continue
		}

		p.emit(Event{Kind: EventStarted, Repo: repo.Name})
		rec, recent, err := p.collect(ctx, repo)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			log.Warn("skipping repository", "repo", repo.Name, "error", err)
			sum.Failed++
			p.emit(Event{Kind: EventFailed, Repo: repo.Name, Err: err})
			continue
		}

		agg.Upsert(rec, recent)
		if err := p.store.Save(agg); err != nil {
			return sum, fmt.Errorf("failed to checkpoint after %s: %w", repo.Name, err)
		}
		sum.Processed++
		log.Info("collected repository",
			"repo", repo.Name,
			"commits", rec.TotalCommits,
			"source_files", rec.TotalSourceFiles,
			"lines", rec.TotalSourceLines)
		p.emit(Event{Kind: EventDone, Repo: repo.Name, Record: rec})
	}

	return sum, nil
}

// collect builds a fresh record for repo. The commit scan must succeed. A
// failed tree walk keeps the commit data and leaves the file counts empty.
func (p *Pipeline) collect(ctx context.Context, repo model.Repo) (*model.RepoRecord, []model.RecentCommit, error) {
	commits, err := p.commits.Scan(ctx, repo)
	if err != nil {
		return nil, nil, err
	}

	rec := model.NewRepoRecord(repo.Name)
	for _, ct := range commits.Times {
		rec.AddCommitTime(ct)
	}
	if commits.Messages != nil {
		rec.CommitMessages = commits.Messages
	}

	files, err := p.tree.Walk(ctx, repo)
	switch {
	case err == nil:
		for _, f := range files.Files {
			rec.AddSourceFile(f.Path, f.Lines)
		}
		for ext, n := range files.Extensions {
			rec.FileExtensions[ext] += n
		}
		rec.MergeLibraries(files.Libraries)
		model.MergeCounts(rec.ConstructCounts, files.Counts)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, nil, err
	default:
		log.Warn("file tree unavailable, recording commits only", "repo", repo.Name, "error", err)
	}

	return rec, commits.Recent, nil
}

func (p *Pipeline) emit(ev Event) {
	if p.OnEvent != nil {
		p.OnEvent(ev)
	}
}
