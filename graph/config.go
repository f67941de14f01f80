package graph

import (
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/store"
)

// Config carries per-invocation options for a compiled graph.
type Config struct {
	// SessionID identifies this workflow run. Required when a Store is
	// set; checkpoints are keyed by it.
	SessionID string

	// Store receives a checkpoint after every node execution. When set
	// together with SessionID, Invoke resumes from the latest checkpoint
	// of the session if one exists.
	Store store.CheckpointStore

	// ResumeFrom forces execution to start at the named node, overriding
	// both the entry point and any checkpoint-derived position.
	ResumeFrom string

	// Logger receives execution progress. Nil uses the package default.
	Logger log.Logger

	// Metadata is attached to every checkpoint saved during this run.
	Metadata map[string]any
}

func (c *Config) logger() log.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return log.GetDefaultLogger()
}
