// Package graph implements a typed state-machine workflow engine. A graph
// is a set of named nodes connected by static and conditional edges; each
// node receives the current state and returns an updated one. Compiled
// graphs run sequentially and can checkpoint after every node.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/deepresearch/store"
)

// END is the reserved node name that terminates execution.
const END = "END"

// Node is a named unit of work operating on the state type S.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// StateGraph is a workflow definition over the state type S.
//
// Example:
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("increment", "Increment counter", func(ctx context.Context, s MyState) (MyState, error) {
//	    s.Count++
//	    return s, nil
//	})
//	g.SetEntryPoint("increment")
//	g.AddEdge("increment", graph.END)
type StateGraph[S any] struct {
	nodes            map[string]Node[S]
	edges            map[string]string
	conditionalEdges map[string]func(ctx context.Context, state S) string
	entryPoint       string
	retryPolicy      *RetryPolicy
}

// NewStateGraph creates an empty graph over the state type S.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		edges:            make(map[string]string),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode registers a node under the given name. Adding a name twice
// replaces the earlier node.
func (g *StateGraph[S]) AddNode(name, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge connects "from" to "to" unconditionally. Use END as the target
// to terminate after "from".
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdge routes out of "from" by evaluating the condition
// against the state after the node runs. The condition returns the next
// node name, or END. A conditional edge takes precedence over a static
// edge from the same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the node execution starts from.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy applied to every node.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// Compile validates the graph and returns a Runnable. Every registered
// node must have an outgoing static or conditional edge.
func (g *StateGraph[S]) Compile() (*Runnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %q", ErrNodeNotFound, g.entryPoint)
	}
	for name := range g.nodes {
		if _, ok := g.edges[name]; ok {
			continue
		}
		if _, ok := g.conditionalEdges[name]; ok {
			continue
		}
		return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
	}
	return &Runnable[S]{graph: g}, nil
}

// Runnable is a compiled graph ready for execution.
type Runnable[S any] struct {
	graph *StateGraph[S]
}

// Invoke executes the graph from its entry point with the given state and
// returns the final state.
func (r *Runnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the graph with per-run options. When the
// config carries a checkpoint store and session ID, a checkpoint is saved
// after every node, and execution resumes from the latest checkpoint of
// the session if one exists.
func (r *Runnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	var zero S
	logger := config.logger()

	state := initialState
	current := r.graph.entryPoint
	version := 0

	if config != nil && config.Store != nil && config.SessionID != "" {
		cp, err := store.Latest(ctx, config.Store, config.SessionID)
		if err != nil {
			return zero, fmt.Errorf("graph: failed to load checkpoint: %w", err)
		}
		if cp != nil {
			restored, next, err := restoreCheckpoint[S](cp)
			if err != nil {
				return zero, err
			}
			state = restored
			version = cp.Version
			if next != "" {
				current = next
				logger.Info("resuming session %s at node %s (version %d)", config.SessionID, current, version)
			}
		}
	}

	if config != nil && config.ResumeFrom != "" {
		current = config.ResumeFrom
	}

	for current != END {
		node, ok := r.graph.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		logger.Debug("executing node %s", current)
		result, err := r.executeWithRetry(ctx, node, state)
		if err != nil {
			return zero, fmt.Errorf("graph: node %s failed: %w", current, err)
		}
		state = result

		next, err := r.nextNode(ctx, current, state)
		if err != nil {
			return zero, err
		}

		if config != nil && config.Store != nil && config.SessionID != "" {
			version++
			if err := r.saveCheckpoint(ctx, config, current, next, state, version); err != nil {
				return zero, err
			}
		}

		current = next
	}

	return state, nil
}

func (r *Runnable[S]) nextNode(ctx context.Context, current string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[current]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("graph: conditional edge from %s returned empty node", current)
		}
		return next, nil
	}
	if next, ok := r.graph.edges[current]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
}

func (r *Runnable[S]) executeWithRetry(ctx context.Context, node Node[S], state S) (S, error) {
	var zero S
	policy := r.graph.retryPolicy

	attempts := 1
	if policy != nil {
		attempts = policy.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := node.Function(ctx, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy == nil || attempt == attempts-1 || !policy.shouldRetry(err) {
			break
		}

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

func (r *Runnable[S]) saveCheckpoint(ctx context.Context, config *Config, nodeName, next string, state S, version int) error {
	metadata := make(map[string]any, len(config.Metadata)+1)
	for k, v := range config.Metadata {
		metadata[k] = v
	}
	metadata["next_node"] = next

	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		SessionID: config.SessionID,
		NodeName:  nodeName,
		State:     state,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Version:   version,
	}
	if err := config.Store.Save(ctx, cp); err != nil {
		return fmt.Errorf("graph: failed to save checkpoint after %s: %w", nodeName, err)
	}
	config.logger().Debug("saved checkpoint %s for session %s after node %s", cp.ID, cp.SessionID, nodeName)
	return nil
}

// restoreCheckpoint rebuilds a typed state from a stored checkpoint. State
// goes through a JSON round trip because stores hold it as decoded JSON.
func restoreCheckpoint[S any](cp *store.Checkpoint) (S, string, error) {
	var state S

	raw, err := json.Marshal(cp.State)
	if err != nil {
		return state, "", fmt.Errorf("graph: failed to encode checkpoint state: %w", err)
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, "", fmt.Errorf("graph: failed to decode checkpoint state: %w", err)
	}

	next := ""
	if cp.Metadata != nil {
		if v, ok := cp.Metadata["next_node"].(string); ok {
			next = v
		}
	}
	return state, next, nil
}
