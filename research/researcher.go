package research

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/smallnest/deepresearch/llm"
)

const (
	sourceContentLimit    = 500
	condensedContentLimit = 300
	condensedResultCount  = 3
)

const summarySystemPrompt = "You are a research assistant that summarizes search results."

const summaryPromptTemplate = `Summarize the following search results for the query: %q

Search Results:
%s

Provide a concise summary (2-3 sentences) of the key findings.`

// queryOutcome is one query's contribution, gathered during the fan-out
// and merged after every worker finishes.
type queryOutcome struct {
	section string
	result  SectionResult
	sources []Source
}

// researchSections runs every planned query: search, collect sources,
// summarize the top hits, and file the result under the owning section.
// Queries fan out across at most MaxConcurrency workers; each outcome is
// self-contained, so the merge does not depend on completion order. The
// iteration count grows by one per invocation, not per query. Any search
// or summarization failure aborts the step without a partial merge.
func (a *Agent) researchSections(ctx context.Context, state State) (State, error) {
	if len(state.SearchQueries) == 0 {
		return state, nil
	}

	outcomes := make([]*queryOutcome, len(state.SearchQueries))
	errs := make([]error, len(state.SearchQueries))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.cfg.MaxConcurrency)

	for i, query := range state.SearchQueries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome, err := a.researchQuery(ctx, state, i, query)
			if err != nil {
				errs[i] = err
				return
			}
			outcomes[i] = outcome
		}(i, query)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return State{}, err
		}
	}

	update := Update{
		SectionResults: make(map[string][]SectionResult, len(outcomes)),
		IterationDelta: 1,
	}
	for _, outcome := range outcomes {
		update.SectionResults[outcome.section] = append(update.SectionResults[outcome.section], outcome.result)
		update.Sources = append(update.Sources, outcome.sources...)
	}

	a.cfg.Logger.Info("researched %d queries, collected %d sources", len(outcomes), len(update.Sources))
	return state.Apply(update), nil
}

func (a *Agent) researchQuery(ctx context.Context, state State, index int, query string) (*queryOutcome, error) {
	section := sectionForQuery(state.Sections, index)

	a.cfg.Logger.Debug("searching %q for section %q", query, section)
	results, err := a.cfg.Searcher.Search(ctx, query, a.cfg.MaxResults, a.cfg.Depth)
	if err != nil {
		return nil, fmt.Errorf("research: search for %q failed: %w", query, err)
	}

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			URL:     r.URL,
			Title:   r.Title,
			Content: truncate(r.Content, sourceContentLimit),
		})
	}

	top := results
	if len(top) > condensedResultCount {
		top = top[:condensedResultCount]
	}

	condensed := make([]string, 0, len(top))
	for _, r := range top {
		condensed = append(condensed, fmt.Sprintf("Title: %s\nContent: %s", r.Title, truncate(r.Content, condensedContentLimit)))
	}

	summary, err := a.cfg.Model.Generate(ctx, []llm.Message{
		llm.System(summarySystemPrompt),
		llm.User(fmt.Sprintf(summaryPromptTemplate, query, strings.Join(condensed, "\n\n"))),
	})
	if err != nil {
		return nil, fmt.Errorf("research: summarization for %q failed: %w", query, err)
	}

	return &queryOutcome{
		section: section,
		result: SectionResult{
			Query:      query,
			Summary:    summary,
			RawResults: top,
		},
		sources: sources,
	}, nil
}

// sectionForQuery maps query index i to Sections[i], or a synthesized
// label when the plan has fewer sections than queries.
func sectionForQuery(sections []string, index int) string {
	if index < len(sections) {
		return sections[index]
	}
	return fmt.Sprintf("Section %d", index+1)
}
