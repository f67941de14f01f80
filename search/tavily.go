package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilySearch calls the Tavily search API.
type TavilySearch struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

var _ Searcher = (*TavilySearch)(nil)

// TavilyOption customizes a TavilySearch client.
type TavilyOption func(*TavilySearch)

// WithTavilyEndpoint overrides the API endpoint, mainly for tests.
func WithTavilyEndpoint(endpoint string) TavilyOption {
	return func(t *TavilySearch) {
		t.endpoint = endpoint
	}
}

// WithTavilyHTTPClient overrides the HTTP client, e.g. to change the
// default 30s timeout.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.client = client
	}
}

// NewTavilySearch creates a Tavily client with the given API key.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search: tavily API key is required")
	}

	t := &TavilySearch{
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query to Tavily and returns at most maxResults results.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int, depth Depth) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if depth == "" {
		depth = DepthBasic
	}

	payload, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: string(depth),
	})
	if err != nil {
		return nil, fmt.Errorf("search: failed to marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: tavily returned status %d", resp.StatusCode)
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: failed to decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Content: r.Content})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
