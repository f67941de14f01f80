package research

import (
	"context"
	"strings"
	"sync"

	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/search"
)

// fakeModel scripts replies by inspecting the last user message, so
// concurrent summarization calls cannot get crossed wires.
type fakeModel struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	calls   []string
}

func (m *fakeModel) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	prompt := ""
	for _, msg := range messages {
		if msg.Role == llm.RoleUser {
			prompt = msg.Content
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()

	return m.respond(prompt)
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// scriptedModel answers each workflow step by recognizing its prompt.
func scriptedModel(planReply, reflectionReply, reportReply string) *fakeModel {
	return &fakeModel{
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "Break down the following research query"):
				return planReply, nil
			case strings.Contains(prompt, "Summarize the following search results"):
				return "A concise summary of the findings.", nil
			case strings.Contains(prompt, "Evaluate the completeness"):
				return reflectionReply, nil
			default:
				return reportReply, nil
			}
		},
	}
}

// fakeSearcher returns the same canned results for every query.
type fakeSearcher struct {
	mu      sync.Mutex
	results []search.Result
	err     error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, maxResults int, depth search.Depth) ([]search.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > maxResults {
		return s.results[:maxResults], nil
	}
	return s.results, nil
}

func testAgent(model llm.Model, searcher search.Searcher, mutate ...func(*Config)) *Agent {
	cfg := Config{
		Model:    model,
		Searcher: searcher,
		Logger:   &log.NoOpLogger{},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	agent, err := NewAgent(cfg)
	if err != nil {
		panic(err)
	}
	return agent
}
