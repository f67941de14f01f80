// Package file provides a checkpoint store that persists sessions as JSON
// files on disk, one file per checkpoint.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/smallnest/deepresearch/store"
)

// FileCheckpointStore implements store.CheckpointStore on the local
// filesystem. Layout: <root>/<sessionID>/<checkpointID>.json
type FileCheckpointStore struct {
	mu   sync.Mutex
	root string
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates a file checkpoint store rooted at path,
// creating the directory if needed.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{root: path}, nil
}

func (s *FileCheckpointStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *FileCheckpointStore) checkpointPath(sessionID, checkpointID string) string {
	return filepath.Join(s.sessionDir(sessionID), checkpointID+".json")
}

// Save stores a checkpoint
func (s *FileCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint must have an ID")
	}
	if checkpoint.SessionID == "" {
		return fmt.Errorf("checkpoint must have a session ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(checkpoint.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	// Write to a temp file first so readers never observe a torn write.
	path := s.checkpointPath(checkpoint.SessionID, checkpoint.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	return nil
}

// Load retrieves a checkpoint by ID, scanning all sessions
func (s *FileCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint root: %w", err)
	}

	for _, entry := range sessions {
		if !entry.IsDir() {
			continue
		}
		path := s.checkpointPath(entry.Name(), checkpointID)
		cp, err := readCheckpoint(path)
		if err == nil {
			return cp, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
}

// List returns all checkpoints for a session, ordered by version
func (s *FileCheckpointStore) List(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*store.Checkpoint{}, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	checkpoints := make([]*store.Checkpoint, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		cp, err := readCheckpoint(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Version < checkpoints[j].Version
	})

	return checkpoints, nil
}

// Delete removes a checkpoint
func (s *FileCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint root: %w", err)
	}

	for _, entry := range sessions {
		if !entry.IsDir() {
			continue
		}
		path := s.checkpointPath(entry.Name(), checkpointID)
		if err := os.Remove(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
	}

	return nil
}

// Clear removes all checkpoints for a session
func (s *FileCheckpointStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func readCheckpoint(path string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", path, err)
	}
	return &cp, nil
}
