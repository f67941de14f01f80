// Package search defines the web-search collaborator used by the research
// workflow, with clients for the Tavily and Brave search APIs.
package search

import (
	"context"
)

// Depth selects how thorough a search pass should be. Providers without a
// comparable knob may ignore it.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Result is a single search hit.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Searcher runs a web search. Implementations return at most maxResults
// results; an empty result set is valid and not an error.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, depth Depth) ([]Result, error)
}
