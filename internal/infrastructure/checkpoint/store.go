// Package checkpoint implements the durable checkpoint store as atomically
// replaced JSON files, one per (pipeline, collection) pair.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// FileStore persists checkpoints under a single directory. Save writes to a
// temporary file in the same directory and renames it over the target, so a
// reader never observes a torn checkpoint.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted at
// it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the stored checkpoint, or nil when none exists. A file that
// cannot be parsed reports pipeline.ErrCheckpointCorrupt: the caller halts that
// collection rather than restarting from zero and double-writing.
func (s *FileStore) Load(pipelineID, collection string) (*pipeline.Checkpoint, error) {
	data, err := os.ReadFile(s.path(pipelineID, collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: read %s/%s: %w", pipelineID, collection, err)
	}

	var cp pipeline.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", pipeline.ErrCheckpointCorrupt, pipelineID, collection, err)
	}
	if cp.PipelineID != pipelineID || cp.Collection != collection {
		return nil, fmt.Errorf("%w: %s/%s: identity mismatch", pipeline.ErrCheckpointCorrupt, pipelineID, collection)
	}
	return &cp, nil
}

// Save atomically replaces the stored checkpoint. Moving a checkpoint
// backwards is rejected: advancement is strictly monotonic and batch-ordered.
func (s *FileStore) Save(cp *pipeline.Checkpoint) error {
	existing, err := s.Load(cp.PipelineID, cp.Collection)
	if err != nil {
		return err
	}
	if existing != nil && cp.ItemsProcessed < existing.ItemsProcessed {
		return fmt.Errorf("%w: %d < %d", pipeline.ErrCheckpointRegression, cp.ItemsProcessed, existing.ItemsProcessed)
	}

	cp.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	target := s.path(cp.PipelineID, cp.Collection)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Clear removes the checkpoint. Missing files are not an error: a cleared
// checkpoint and a never-written one are the same state.
func (s *FileStore) Clear(pipelineID, collection string) error {
	err := os.Remove(s.path(pipelineID, collection))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checkpoint: clear %s/%s: %w", pipelineID, collection, err)
	}
	return nil
}

// path builds the checkpoint filename. Identifiers are flattened so they
// cannot escape the store directory.
func (s *FileStore) path(pipelineID, collection string) string {
	sanitize := func(v string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			default:
				return '_'
			}
		}, v)
	}
	return filepath.Join(s.dir, sanitize(pipelineID)+"__"+sanitize(collection)+".json")
}

// Ensure FileStore implements the domain port.
var _ pipeline.CheckpointStore = (*FileStore)(nil)
