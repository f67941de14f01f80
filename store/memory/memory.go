// Package memory provides an in-memory checkpoint store, suitable for
// tests and single-process runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/deepresearch/store"
)

// MemoryCheckpointStore implements store.CheckpointStore with a
// mutex-guarded map. Checkpoints do not survive process restarts.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	sessions    map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)
var _ store.LatestGetter = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates a new in-memory checkpoint store
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		sessions:    make(map[string][]string),
	}
}

// Save stores a checkpoint
func (s *MemoryCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint must have an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.checkpoints[checkpoint.ID]; !exists && checkpoint.SessionID != "" {
		s.sessions[checkpoint.SessionID] = append(s.sessions[checkpoint.SessionID], checkpoint.ID)
	}
	cp := *checkpoint
	s.checkpoints[checkpoint.ID] = &cp

	return nil
}

// Load retrieves a checkpoint by ID
func (s *MemoryCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("checkpoint not found: %s", checkpointID)
	}
	copied := *cp
	return &copied, nil
}

// List returns all checkpoints for a session, ordered by version
func (s *MemoryCheckpointStore) List(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sessions[sessionID]
	checkpoints := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		if cp, ok := s.checkpoints[id]; ok {
			copied := *cp
			checkpoints = append(checkpoints, &copied)
		}
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Version < checkpoints[j].Version
	})

	return checkpoints, nil
}

// GetLatestBySession returns the newest checkpoint of a session, or nil
// when the session has none.
func (s *MemoryCheckpointStore) GetLatestBySession(ctx context.Context, sessionID string) (*store.Checkpoint, error) {
	checkpoints, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, nil
	}
	return checkpoints[len(checkpoints)-1], nil
}

// Delete removes a checkpoint
func (s *MemoryCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil
	}
	delete(s.checkpoints, checkpointID)

	ids := s.sessions[cp.SessionID]
	for i, id := range ids {
		if id == checkpointID {
			s.sessions[cp.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

// Clear removes all checkpoints for a session
func (s *MemoryCheckpointStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.sessions[sessionID] {
		delete(s.checkpoints, id)
	}
	delete(s.sessions, sessionID)

	return nil
}
