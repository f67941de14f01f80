package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/search"
)

func plannedState(queries, sections []string) State {
	return NewState("topic").Apply(Update{
		SearchQueries: queries,
		Sections:      sections,
	})
}

func TestResearchSections_CollectsResultsPerSection(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "A concise summary.", nil
	}}
	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://example.com/1", Title: "One", Content: "first"},
		{URL: "https://example.com/2", Title: "Two", Content: "second"},
	}}
	agent := testAgent(model, searcher)

	state, err := agent.researchSections(context.Background(),
		plannedState([]string{"q1", "q2"}, []string{"Alpha", "Beta"}))
	require.NoError(t, err)

	require.Len(t, state.ResultsBySection["Alpha"], 1)
	require.Len(t, state.ResultsBySection["Beta"], 1)
	assert.Equal(t, "q1", state.ResultsBySection["Alpha"][0].Query)
	assert.Equal(t, "A concise summary.", state.ResultsBySection["Alpha"][0].Summary)
	assert.Len(t, state.ResultsBySection["Alpha"][0].RawResults, 2)

	// Both queries contributed their hits to the source pool.
	assert.Len(t, state.Sources, 4)
	assert.Equal(t, 1, state.IterationCount)
}

func TestResearchSections_IterationIncrementsOncePerInvocation(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) { return "summary", nil }}
	searcher := &fakeSearcher{results: []search.Result{{URL: "https://example.com"}}}
	agent := testAgent(model, searcher)

	state := plannedState([]string{"q1", "q2", "q3"}, []string{"A", "B", "C"})
	state, err := agent.researchSections(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 1, state.IterationCount)

	state, err = agent.researchSections(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 2, state.IterationCount)
}

func TestResearchSections_NoQueriesIsNoOp(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "", errors.New("must not be called")
	}}
	agent := testAgent(model, &fakeSearcher{})

	initial := NewState("topic")
	state, err := agent.researchSections(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, initial, state)
	assert.Zero(t, initial.IterationCount)
}

func TestResearchSections_TruncatesSourceContent(t *testing.T) {
	long := strings.Repeat("x", 900)
	model := &fakeModel{respond: func(prompt string) (string, error) {
		// The condensed view caps each result's content at 300 chars.
		assert.NotContains(t, prompt, strings.Repeat("x", 301))
		return "summary", nil
	}}
	searcher := &fakeSearcher{results: []search.Result{{URL: "https://example.com", Title: "Long", Content: long}}}
	agent := testAgent(model, searcher)

	state, err := agent.researchSections(context.Background(),
		plannedState([]string{"q1"}, []string{"A"}))
	require.NoError(t, err)

	require.Len(t, state.Sources, 1)
	assert.Equal(t, 500, utf8.RuneCountInString(state.Sources[0].Content))
}

func TestResearchSections_MultiByteContentStaysValidUTF8(t *testing.T) {
	long := strings.Repeat("世界", 300)
	model := &fakeModel{respond: func(prompt string) (string, error) {
		assert.True(t, utf8.ValidString(prompt))
		return "summary", nil
	}}
	searcher := &fakeSearcher{results: []search.Result{{URL: "https://example.com", Title: "CJK", Content: long}}}
	agent := testAgent(model, searcher)

	state, err := agent.researchSections(context.Background(),
		plannedState([]string{"q1"}, []string{"A"}))
	require.NoError(t, err)

	require.Len(t, state.Sources, 1)
	assert.True(t, utf8.ValidString(state.Sources[0].Content))
	assert.Equal(t, 500, utf8.RuneCountInString(state.Sources[0].Content))
}

func TestResearchSections_CapsRawResultsAtThree(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) { return "summary", nil }}
	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://example.com/1"},
		{URL: "https://example.com/2"},
		{URL: "https://example.com/3"},
		{URL: "https://example.com/4"},
		{URL: "https://example.com/5"},
	}}
	agent := testAgent(model, searcher)

	state, err := agent.researchSections(context.Background(),
		plannedState([]string{"q1"}, []string{"A"}))
	require.NoError(t, err)

	assert.Len(t, state.ResultsBySection["A"][0].RawResults, 3)
	// Every hit still lands in sources, only the sample is capped.
	assert.Len(t, state.Sources, 5)
}

func TestResearchSections_SynthesizedSectionLabel(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) { return "summary", nil }}
	searcher := &fakeSearcher{results: []search.Result{{URL: "https://example.com"}}}
	agent := testAgent(model, searcher)

	state, err := agent.researchSections(context.Background(),
		plannedState([]string{"q1", "q2"}, []string{"Only"}))
	require.NoError(t, err)

	assert.Contains(t, state.ResultsBySection, "Only")
	assert.Contains(t, state.ResultsBySection, "Section 2")
}

func TestResearchSections_SearchFailureAbortsWithoutPartialMerge(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) { return "summary", nil }}
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	agent := testAgent(model, searcher)

	initial := plannedState([]string{"q1", "q2"}, []string{"A", "B"})
	_, err := agent.researchSections(context.Background(), initial)
	assert.ErrorContains(t, err, "connection refused")

	// The input snapshot is untouched.
	assert.Empty(t, initial.Sources)
	assert.Zero(t, initial.IterationCount)
}

func TestResearchSections_BoundedConcurrency(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) { return "summary", nil }}
	searcher := &fakeSearcher{results: []search.Result{{URL: "https://example.com"}}}
	agent := testAgent(model, searcher, func(c *Config) { c.MaxConcurrency = 1 })

	queries := []string{"q1", "q2", "q3", "q4"}
	state, err := agent.researchSections(context.Background(),
		plannedState(queries, []string{"A", "B", "C", "D"}))
	require.NoError(t, err)

	assert.Len(t, searcher.queries, 4)
	assert.Len(t, state.Sources, 4)
}
