package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/deepresearch/llm"
)

const reportSourceLimit = 10

const synthesizerSystemPrompt = "You are a professional research report writer."

const reportPromptTemplate = `Based on the following research findings, write a comprehensive, well-structured research report.

Research Query: %s

Research Findings:
%s

Write a professional research report with:
1. Executive Summary
2. Detailed findings for each section
3. Key insights and conclusions
4. References to sources

Format the report in markdown.`

// writeReport is the terminal step: it renders the accumulated findings
// into a deterministic content block, asks the model for the narrative
// report, and appends a numbered source list capped at ten entries. The
// source list is deterministic and only present when sources were
// collected.
func (a *Agent) writeReport(ctx context.Context, state State) (State, error) {
	content := buildResearchContent(state)

	reply, err := a.cfg.Model.Generate(ctx, []llm.Message{
		llm.System(synthesizerSystemPrompt),
		llm.User(fmt.Sprintf(reportPromptTemplate, state.Query, content)),
	})
	if err != nil {
		return State{}, fmt.Errorf("research: report synthesis failed: %w", err)
	}

	draft := reply
	if len(state.Sources) > 0 {
		draft += renderSourceList(state.Sources)
	}

	complete := true
	a.cfg.Logger.Info("report synthesized: %d characters, %d sources cited",
		len(draft), min(len(state.Sources), reportSourceLimit))

	return state.Apply(Update{
		ReportDraft:      &draft,
		ResearchComplete: &complete,
		Messages:         []llm.Message{llm.Assistant(reply)},
	}), nil
}

// buildResearchContent renders every section's collected summaries in
// section order, with a placeholder line for sections that gathered
// nothing.
func buildResearchContent(state State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", state.Query)

	for _, section := range state.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section)

		results, ok := state.ResultsBySection[section]
		if !ok || len(results) == 0 {
			b.WriteString("No research data available for this section.\n\n")
			continue
		}
		for _, result := range results {
			summary := result.Summary
			if summary == "" {
				summary = "No summary"
			}
			b.WriteString(summary)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// renderSourceList renders the first ten sources as numbered markdown
// links.
func renderSourceList(sources []Source) string {
	var b strings.Builder
	b.WriteString("\n\n## Sources\n\n")

	for i, source := range sources {
		if i >= reportSourceLimit {
			break
		}
		title := source.Title
		if title == "" {
			title = "Untitled"
		}
		url := source.URL
		if url == "" {
			url = "#"
		}
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, url)
	}
	return b.String()
}
