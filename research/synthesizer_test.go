package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport_RendersSectionsInOrder(t *testing.T) {
	var seenPrompt string
	model := &fakeModel{respond: func(prompt string) (string, error) {
		seenPrompt = prompt
		return "# Final Report\n\nNarrative.", nil
	}}
	agent := testAgent(model, &fakeSearcher{})

	state := plannedState([]string{"q1"}, []string{"Alpha", "Beta"})
	state = state.Apply(Update{
		SectionResults: map[string][]SectionResult{
			"Alpha": {
				{Query: "q1", Summary: "First finding."},
				{Query: "q1", Summary: "Second finding."},
			},
		},
	})

	final, err := agent.writeReport(context.Background(), state)
	require.NoError(t, err)

	assert.Contains(t, seenPrompt, "# Research Report: topic")
	assert.Contains(t, seenPrompt, "## Alpha")
	assert.Contains(t, seenPrompt, "First finding.")
	assert.Contains(t, seenPrompt, "Second finding.")
	assert.Contains(t, seenPrompt, "## Beta")
	assert.Contains(t, seenPrompt, "No research data available for this section.")
	assert.Less(t, strings.Index(seenPrompt, "First finding."), strings.Index(seenPrompt, "Second finding."))

	assert.True(t, final.ResearchComplete)
	assert.Contains(t, final.ReportDraft, "# Final Report")
}

func TestWriteReport_AppendsSourceList(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "report body", nil
	}}
	agent := testAgent(model, &fakeSearcher{})

	state := plannedState([]string{"q1"}, []string{"A"})
	sources := make([]Source, 12)
	for i := range sources {
		sources[i] = Source{
			URL:   fmt.Sprintf("https://example.com/%d", i+1),
			Title: fmt.Sprintf("Source %d", i+1),
		}
	}
	state = state.Apply(Update{Sources: sources})

	final, err := agent.writeReport(context.Background(), state)
	require.NoError(t, err)

	assert.Contains(t, final.ReportDraft, "## Sources")
	assert.Contains(t, final.ReportDraft, "1. [Source 1](https://example.com/1)")
	assert.Contains(t, final.ReportDraft, "10. [Source 10](https://example.com/10)")
	assert.NotContains(t, final.ReportDraft, "Source 11")
}

func TestWriteReport_NoSourcesNoSourceHeading(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "report body", nil
	}}
	agent := testAgent(model, &fakeSearcher{})

	final, err := agent.writeReport(context.Background(), plannedState([]string{"q1"}, []string{"A"}))
	require.NoError(t, err)
	assert.NotContains(t, final.ReportDraft, "## Sources")
}

func TestWriteReport_FallbacksForUntitledSources(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "report body", nil
	}}
	agent := testAgent(model, &fakeSearcher{})

	state := plannedState([]string{"q1"}, []string{"A"})
	state = state.Apply(Update{Sources: []Source{{}}})

	final, err := agent.writeReport(context.Background(), state)
	require.NoError(t, err)
	assert.Contains(t, final.ReportDraft, "1. [Untitled](#)")
}

func TestWriteReport_ModelErrorPropagates(t *testing.T) {
	model := &fakeModel{respond: func(string) (string, error) {
		return "", errors.New("context length exceeded")
	}}
	agent := testAgent(model, &fakeSearcher{})

	_, err := agent.writeReport(context.Background(), plannedState([]string{"q1"}, []string{"A"}))
	assert.ErrorContains(t, err, "context length exceeded")
}
