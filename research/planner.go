package research

import (
	"context"
	"fmt"

	"github.com/smallnest/deepresearch/llm"
)

const plannerSystemPrompt = "You are a research assistant that breaks down complex topics into searchable queries."

const plannerPromptTemplate = `You are a research assistant. Break down the following research query into 3-5 specific search queries and identify key sections to research.

Research Query: %s

Generate:
1. A list of 3-5 specific search queries (each should be focused and searchable)
2. A list of 3-5 research sections/topics to cover

Respond in JSON format:
{
    "queries": ["query1", "query2", ...],
    "sections": ["section1", "section2", ...]
}`

type plannerReply struct {
	Queries  []string `json:"queries"`
	Sections []string `json:"sections"`
}

// planQueries decomposes the topic into search queries and sections. When
// sections are already set the step returns the state unchanged, so
// resumed or looped runs never re-plan. A malformed model reply falls
// back to researching the original query under three generic sections.
func (a *Agent) planQueries(ctx context.Context, state State) (State, error) {
	if len(state.Sections) > 0 {
		return state, nil
	}

	reply, err := a.cfg.Model.Generate(ctx, []llm.Message{
		llm.System(plannerSystemPrompt),
		llm.User(fmt.Sprintf(plannerPromptTemplate, state.Query)),
	})
	if err != nil {
		return State{}, fmt.Errorf("research: query planning failed: %w", err)
	}

	var queries, sections []string
	var parsed plannerReply
	if err := decodeReply(reply, &parsed); err == nil && len(parsed.Queries) > 0 && len(parsed.Sections) > 0 {
		queries = parsed.Queries
		sections = parsed.Sections
	} else {
		a.cfg.Logger.Warn("planner reply was not parseable, using fallback plan")
		queries = []string{state.Query}
		sections = []string{"Overview", "Details", "Conclusion"}
	}

	a.cfg.Logger.Info("planned %d queries across %d sections", len(queries), len(sections))

	return state.Apply(Update{
		SearchQueries: queries,
		Sections:      sections,
		Messages:      []llm.Message{llm.Assistant(reply)},
	}), nil
}
