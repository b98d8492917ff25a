package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// Tree returns the full recursive tree of ref in one call.
func (c *Client) Tree(ctx context.Context, owner, repo, ref string) ([]model.TreeEntry, error) {
	tree, err := Do(ctx, c.gateway, ResourceCore, "get tree", func(ctx context.Context) (*gh.Tree, error) {
		t, _, err := c.client.Git.GetTree(ctx, owner, repo, ref, true)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tree %s for %s/%s: %w", ref, owner, repo, classify(err))
	}
	if tree.GetTruncated() {
		log.Warn("tree listing truncated by GitHub, some files are not counted", "repo", owner+"/"+repo, "entries", len(tree.Entries))
	}

	entries := make([]model.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, model.TreeEntry{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Type: e.GetType(),
			Size: e.GetSize(),
		})
	}
	return entries, nil
}

// Blob returns the raw content of a blob.
func (c *Client) Blob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	data, err := Do(ctx, c.gateway, ResourceCore, "get blob", func(ctx context.Context) ([]byte, error) {
		b, _, err := c.client.Git.GetBlobRaw(ctx, owner, repo, sha)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", sha, classify(err))
	}
	return data, nil
}
