// Package store defines checkpoint persistence for research sessions.
//
// A checkpoint is a snapshot of the research state taken after a workflow
// step, keyed by the session identifier. Backends live in the subpackages
// (memory, file, redis, sqlite, postgres).
package store

import (
	"context"
	"time"
)

// Checkpoint represents a saved state at a specific point in a session
type Checkpoint struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	NodeName  string         `json:"node_name"`
	State     any            `json:"state"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
	Version   int            `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence
type CheckpointStore interface {
	// Save stores a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a session, oldest first
	List(ctx context.Context, sessionID string) ([]*Checkpoint, error)

	// Delete removes a checkpoint
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a session
	Clear(ctx context.Context, sessionID string) error
}

// LatestGetter is an optional optimization a store may implement to fetch
// the newest checkpoint of a session without listing all of them.
type LatestGetter interface {
	GetLatestBySession(ctx context.Context, sessionID string) (*Checkpoint, error)
}

// Latest returns the highest-version checkpoint of a session, using the
// store's LatestGetter when available and falling back to List otherwise.
// A session with no checkpoints yields (nil, nil).
func Latest(ctx context.Context, s CheckpointStore, sessionID string) (*Checkpoint, error) {
	if lg, ok := s.(LatestGetter); ok {
		return lg.GetLatestBySession(ctx, sessionID)
	}

	checkpoints, err := s.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, nil
	}

	latest := checkpoints[0]
	for _, cp := range checkpoints {
		if cp.Version > latest.Version {
			latest = cp
		}
	}
	return latest, nil
}
