package collect

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/model"
)

// fakeRepo is the remote state of one repository.
type fakeRepo struct {
	repo       model.Repo
	forkSource string
	forkErr    error
	commits    []model.Commit
	commitsErr error
	stats      map[string]model.CommitStats
	statsErr   map[string]error
	tree       []model.TreeEntry
	treeErr    error
	blobs      map[string][]byte
}

// fakeAPI serves fakeRepos and counts every call per operation and repository.
type fakeAPI struct {
	mu    sync.Mutex
	repos []*fakeRepo
	calls map[string]int

	// listedOwner is the owner passed to the last Repos call.
	listedOwner string

	// beforeCommits runs before ListCommits answers.
	beforeCommits func(repo string) error
}

var (
	_ ghclient.RepoLister    = (*fakeAPI)(nil)
	_ ghclient.CommitFetcher = (*fakeAPI)(nil)
	_ ghclient.TreeFetcher   = (*fakeAPI)(nil)
)

func newFakeAPI(repos ...*fakeRepo) *fakeAPI {
	return &fakeAPI{repos: repos, calls: map[string]int{}}
}

func (f *fakeAPI) count(op, repo string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op+":"+repo]++
	f.calls[op]++
}

func (f *fakeAPI) Calls(op, repo string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if repo == "" {
		return f.calls[op]
	}
	return f.calls[op+":"+repo]
}

func (f *fakeAPI) find(name string) (*fakeRepo, error) {
	for _, r := range f.repos {
		if r.repo.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ghclient.ErrNotFound)
}

func (f *fakeAPI) Repos(ctx context.Context, owner string) iter.Seq2[model.Repo, error] {
	return func(yield func(model.Repo, error) bool) {
		f.mu.Lock()
		f.listedOwner = owner
		f.mu.Unlock()
		for _, r := range f.repos {
			f.count("repos", r.repo.Name)
			if !yield(r.repo, nil) {
				return
			}
		}
	}
}

func (f *fakeAPI) ForkSource(ctx context.Context, owner, name string) (string, error) {
	f.count("fork", name)
	r, err := f.find(name)
	if err != nil {
		return "", err
	}
	return r.forkSource, r.forkErr
}

func (f *fakeAPI) ListCommits(ctx context.Context, owner, repo string) ([]model.Commit, error) {
	f.count("commits", repo)
	if f.beforeCommits != nil {
		if err := f.beforeCommits(repo); err != nil {
			return nil, err
		}
	}
	r, err := f.find(repo)
	if err != nil {
		return nil, err
	}
	return r.commits, r.commitsErr
}

func (f *fakeAPI) CommitStats(ctx context.Context, owner, repo, sha string) (model.CommitStats, error) {
	f.count("stats", repo)
	r, err := f.find(repo)
	if err != nil {
		return model.CommitStats{}, err
	}
	if err := r.statsErr[sha]; err != nil {
		return model.CommitStats{}, err
	}
	return r.stats[sha], nil
}

func (f *fakeAPI) Tree(ctx context.Context, owner, repo, ref string) ([]model.TreeEntry, error) {
	f.count("tree", repo)
	r, err := f.find(repo)
	if err != nil {
		return nil, err
	}
	return r.tree, r.treeErr
}

func (f *fakeAPI) Blob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	f.count("blob", repo)
	r, err := f.find(repo)
	if err != nil {
		return nil, err
	}
	data, ok := r.blobs[sha]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", sha, ghclient.ErrNotFound)
	}
	return data, nil
}

// ownedRepo returns a plain repository owned by octocat.
func ownedRepo(name string) model.Repo {
	return model.Repo{Name: name, FullName: "octocat/" + name, Owner: "octocat", DefaultBranch: "main"}
}

// blob returns a tree entry and its content keyed by path.
func blob(p, content string) (model.TreeEntry, []byte) {
	return model.TreeEntry{Path: p, SHA: "sha-" + p, Type: "blob", Size: len(content)}, []byte(content)
}

// withFiles fills the tree and blobs of r from alternating path and content
// arguments, in listing order.
func withFiles(r *fakeRepo, pathContent ...string) *fakeRepo {
	if r.blobs == nil {
		r.blobs = map[string][]byte{}
	}
	for i := 0; i+1 < len(pathContent); i += 2 {
		e, data := blob(pathContent[i], pathContent[i+1])
		r.tree = append(r.tree, e)
		r.blobs[e.SHA] = data
	}
	return r
}
