package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch calls the Brave web search API. Brave has no depth
// parameter, so Depth is ignored.
type BraveSearch struct {
	apiKey   string
	endpoint string
	country  string
	lang     string
	client   *http.Client
}

var _ Searcher = (*BraveSearch)(nil)

// BraveOption customizes a BraveSearch client.
type BraveOption func(*BraveSearch)

// WithBraveEndpoint overrides the API endpoint, mainly for tests.
func WithBraveEndpoint(endpoint string) BraveOption {
	return func(b *BraveSearch) {
		b.endpoint = endpoint
	}
}

// WithBraveCountry sets the country code for search results (e.g. "US").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.country = country
	}
}

// WithBraveLang sets the language code for search results (e.g. "en").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.lang = lang
	}
}

// WithBraveHTTPClient overrides the HTTP client.
func WithBraveHTTPClient(client *http.Client) BraveOption {
	return func(b *BraveSearch) {
		b.client = client
	}
}

// NewBraveSearch creates a Brave client with the given API key.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search: brave API key is required")
	}

	b := &BraveSearch{
		apiKey:   apiKey,
		endpoint: braveEndpoint,
		country:  "US",
		lang:     "en",
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs a Brave web search and returns at most maxResults results.
func (b *BraveSearch) Search(ctx context.Context, query string, maxResults int, depth Depth) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 20 {
		maxResults = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprintf("%d", maxResults))
	if b.country != "" {
		params.Set("country", b.country)
	}
	if b.lang != "" {
		params.Set("search_lang", b.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", b.endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: brave request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: brave returned status %d", resp.StatusCode)
	}

	var decoded braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: failed to decode brave response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Web.Results))
	for _, r := range decoded.Web.Results {
		results = append(results, Result{URL: r.URL, Title: r.Title, Content: r.Description})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
