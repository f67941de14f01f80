package graph

import "errors"

var (
	// ErrEntryPointNotSet is returned by Compile when no entry point was set.
	ErrEntryPointNotSet = errors.New("graph: entry point not set")

	// ErrNodeNotFound is returned when execution reaches a node name that
	// was never added to the graph.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrNoOutgoingEdge is returned when a node finishes and no static or
	// conditional edge leads out of it.
	ErrNoOutgoingEdge = errors.New("graph: no outgoing edge")
)
