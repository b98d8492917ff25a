// Package store persists the aggregate document that every reporter reads.
//
// The document is rewritten in full after each repository. Writes go to a
// sibling temporary file which is then renamed over the target, so readers
// never observe a partially written document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
)

// Store reads and atomically writes the aggregate document at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex

	// now names quarantined files; replaced in tests.
	now func() time.Time
}

// New creates a store backed by path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// ErrCorrupt is returned by Read when the document cannot be used.
var ErrCorrupt = errors.New("aggregate document is corrupt")

// Load reads the aggregate for a collection run. A missing file yields an
// empty aggregate. A malformed file is renamed aside to
// "<path>.corrupt-<unix>" and an empty aggregate is returned, so corrupt
// data is never merged into a new run.
func (s *Store) Load() (*model.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewAggregate(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	agg, err := decode(data)
	if err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if rerr := os.Rename(s.path, aside); rerr != nil {
			return nil, fmt.Errorf("aggregate %s is corrupt and could not be moved aside: %w", s.path, rerr)
		}
		log.Warn("aggregate store is corrupt, starting empty", "path", s.path, "moved_to", aside, "error", err)
		return model.NewAggregate(), nil
	}
	return agg, nil
}

// Read loads the aggregate for reporters and never touches the file. A
// missing file returns an error wrapping os.ErrNotExist and a malformed one
// an error wrapping ErrCorrupt.
func (s *Store) Read() (*model.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	agg, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	return agg, nil
}

func decode(data []byte) (*model.Aggregate, error) {
	var agg model.Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, err
	}
	if err := agg.Validate(); err != nil {
		return nil, err
	}
	agg.Normalize()
	return &agg, nil
}

// Save writes agg to disk atomically.
func (s *Store) Save(agg *model.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(agg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	log.Debug("checkpoint written", "path", s.path, "repos", len(agg.RepoStats))
	return nil
}

// Encode renders agg in its on-disk form. Map keys are emitted in sorted
// order, so equal aggregates always encode to equal bytes.
func Encode(agg *model.Aggregate) ([]byte, error) {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate: %w", err)
	}
	return append(data, '\n'), nil
}
