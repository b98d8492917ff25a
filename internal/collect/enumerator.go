// Package collect walks an account's repositories and builds one
// RepoRecord per repository, checkpointing the aggregate after each one.
package collect

import (
	"context"
	"iter"
	"strings"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// EnumeratorOptions controls which repositories are yielded.
type EnumeratorOptions struct {
	// Owner is the target account login.
	Owner string
	// IncludeProfileRepo keeps the <owner>/<owner> profile repository.
	IncludeProfileRepo bool
	// Ignored lists repository names to skip.
	Ignored []string
	// StepLimit stops enumeration after that many repositories have been
	// seen, accepted or not. Zero means no limit.
	StepLimit int
}

// Enumerator yields the repositories that count as the owner's own work.
type Enumerator struct {
	api  ghclient.RepoLister
	opts EnumeratorOptions
}

// NewEnumerator creates an enumerator over api.
func NewEnumerator(api ghclient.RepoLister, opts EnumeratorOptions) *Enumerator {
	return &Enumerator{api: api, opts: opts}
}

// SkipReason says why a repository was filtered out. Empty means accepted.
type SkipReason string

const (
	SkipArchived     SkipReason = "archived"
	SkipProfile      SkipReason = "profile repository"
	SkipIgnored      SkipReason = "ignored"
	SkipNotOwned     SkipReason = "not owned"
	SkipForeignFork  SkipReason = "fork of another owner's repository"
	SkipUnknownFork  SkipReason = "fork source could not be resolved"
	SkipAlreadyKnown SkipReason = "already collected"
)

// Repos returns the filtered repositories in listing order. Listing pages
// are requested as the sequence is consumed.
func (e *Enumerator) Repos(ctx context.Context) iter.Seq2[model.Repo, error] {
	ignored := make(map[string]struct{}, len(e.opts.Ignored))
	for _, name := range e.opts.Ignored {
		ignored[name] = struct{}{}
	}

	return func(yield func(model.Repo, error) bool) {
		seen := 0
		for repo, err := range e.api.Repos(ctx, e.opts.Owner) {
			if err != nil {
				yield(model.Repo{}, err)
				return
			}
			if e.opts.StepLimit > 0 && seen >= e.opts.StepLimit {
				log.Info("debug step limit reached", "limit", e.opts.StepLimit)
				return
			}
			seen++

			if reason := e.filter(ctx, repo, ignored); reason != "" {
				log.Debug("skipping repository", "repo", repo.Name, "reason", string(reason))
				continue
			}
			if !yield(repo, nil) {
				return
			}
		}
	}
}

func (e *Enumerator) filter(ctx context.Context, repo model.Repo, ignored map[string]struct{}) SkipReason {
	if repo.Archived {
		return SkipArchived
	}
	if !e.opts.IncludeProfileRepo && strings.EqualFold(repo.Name, e.opts.Owner) {
		return SkipProfile
	}
	if _, ok := ignored[repo.Name]; ok {
		return SkipIgnored
	}
	if !strings.EqualFold(repo.Owner, e.opts.Owner) {
		return SkipNotOwned
	}
	if repo.Fork {
		src, err := e.api.ForkSource(ctx, repo.Owner, repo.Name)
		if err != nil {
			log.Warn("could not resolve fork source, skipping", "repo", repo.Name, "error", err)
			return SkipUnknownFork
		}
		if !strings.EqualFold(src, e.opts.Owner) {
			return SkipForeignFork
		}
	}
	return ""
}
