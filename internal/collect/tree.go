package collect

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spiffcs/ghstats/internal/constants"
	"github.com/spiffcs/ghstats/internal/constructs"
	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

var (
	// ErrBinaryContent is returned for blobs that look binary.
	ErrBinaryContent = errors.New("content looks binary")
	// ErrTooLarge is returned for blobs above the size ceiling.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// TreeOptions controls the file tree walk.
type TreeOptions struct {
	// ExcludedDirs are matched against whole path segments.
	ExcludedDirs []string
	// SourceExtensions, without the dot, select the files whose content is
	// fetched and counted.
	SourceExtensions []string
	// MaxFileBytes is the largest blob that is fetched.
	MaxFileBytes int
}

// SourceFile is one counted source file.
type SourceFile struct {
	Path  string
	Lines int
}

// TreeScan is the result of walking one repository's tree.
type TreeScan struct {
	Extensions map[string]int
	Files      []SourceFile
	Libraries  map[string]struct{}
	Counts     map[string]int
}

// TreeWalker classifies a repository's files and counts source constructs.
type TreeWalker struct {
	api      ghclient.TreeFetcher
	excluded map[string]struct{}
	sources  map[string]struct{}
	maxBytes int
}

// NewTreeWalker creates a walker over api.
func NewTreeWalker(api ghclient.TreeFetcher, opts TreeOptions) *TreeWalker {
	w := &TreeWalker{
		api:      api,
		excluded: toSet(opts.ExcludedDirs),
		sources:  make(map[string]struct{}, len(opts.SourceExtensions)),
		maxBytes: opts.MaxFileBytes,
	}
	for _, ext := range opts.SourceExtensions {
		w.sources[strings.TrimPrefix(ext, ".")] = struct{}{}
	}
	if w.maxBytes <= 0 {
		w.maxBytes = constants.DefaultMaxFileBytes
	}
	return w
}

// Walk lists the default branch tree in one call and processes every blob in
// listing order. Failures on individual files are logged and the file is
// left out; only a failure to list the tree is returned.
func (w *TreeWalker) Walk(ctx context.Context, repo model.Repo) (*TreeScan, error) {
	logger := log.ForRepo(repo.Name)
	scan := &TreeScan{
		Extensions: map[string]int{},
		Files:      []SourceFile{},
		Libraries:  map[string]struct{}{},
		Counts:     model.NewConstructCounts(),
	}

	if repo.DefaultBranch == "" {
		logger.Debug("no default branch, skipping tree")
		return scan, nil
	}

	entries, err := w.api.Tree(ctx, repo.Owner, repo.Name, repo.DefaultBranch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsBlob() || w.Excluded(e.Path) {
			continue
		}
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}

		ext := Extension(e.Path)
		scan.Extensions[ext]++

		if _, ok := w.sources[ext]; !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := w.fetchSource(ctx, repo, e)
		if err != nil {
			logger.Warn("skipping file", "path", e.Path, "error", err)
			continue
		}

		res := constructs.Count(text)
		scan.Files = append(scan.Files, SourceFile{Path: e.Path, Lines: res.Lines})
		for lib := range res.Libraries {
			scan.Libraries[lib] = struct{}{}
		}
		model.MergeCounts(scan.Counts, res.Counts)
		logger.Log(ctx, log.SlogLevelTrace, "counted file", "path", e.Path, "lines", res.Lines)
	}

	return scan, nil
}

func (w *TreeWalker) fetchSource(ctx context.Context, repo model.Repo, e model.TreeEntry) (string, error) {
	if e.Size > w.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, e.Size)
	}
	data, err := w.api.Blob(ctx, repo.Owner, repo.Name, e.SHA)
	if err != nil {
		return "", err
	}
	return Decode(data, w.maxBytes)
}

// Excluded reports whether any directory segment of p is an excluded name.
func (w *TreeWalker) Excluded(p string) bool {
	dir := path.Dir(p)
	if dir == "." {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if _, ok := w.excluded[seg]; ok {
			return true
		}
	}
	return false
}

// Extension returns the text after the final dot of the file name, or the
// whole file name when it has none.
func Extension(p string) string {
	name := path.Base(p)
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return name
	}
	return name[i+1:]
}

// Decode returns data as text. Oversized and binary-looking content is
// rejected, and invalid UTF-8 sequences are replaced with U+FFFD.
func Decode(data []byte, maxBytes int) (string, error) {
	if maxBytes > 0 && len(data) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if LooksBinary(data) {
		return "", ErrBinaryContent
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// LooksBinary samples the start of data and reports whether the share of
// control bytes exceeds constants.BinaryControlRatio. Tab, newline, carriage
// return, form feed and backspace are not control bytes here.
func LooksBinary(data []byte) bool {
	sample := data
	if len(sample) > constants.BinarySniffBytes {
		sample = sample[:constants.BinarySniffBytes]
	}
	if len(sample) == 0 {
		return false
	}

	control := 0
	for _, b := range sample {
		switch {
		case b == '\t', b == '\n', b == '\r', b == '\f', b == '\b':
		case b < 0x20, b == 0x7f:
			control++
		}
	}
	return float64(control)/float64(len(sample)) > constants.BinaryControlRatio
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
