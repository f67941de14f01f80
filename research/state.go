// Package research implements a multi-step research workflow: a planner
// decomposes a topic into search queries and sections, a researcher
// gathers and summarizes evidence per query, a reflector scores
// completeness, and a synthesizer compiles the final report. The steps
// run on the graph engine and communicate only through the shared State.
package research

import (
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/search"
)

// Source is one collected search hit, kept for the report's reference
// list. Content is truncated to 500 characters at collection time.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SectionResult is one search query's outcome: the query, its generated
// summary, and a capped sample of raw hits.
type SectionResult struct {
	Query      string          `json:"query"`
	Summary    string          `json:"summary"`
	RawResults []search.Result `json:"raw_results"`
}

// State is the single aggregate threaded through every workflow step.
// Steps never mutate it in place; they return an Update which the engine
// merges via Apply.
type State struct {
	// Query is the original research topic, immutable after creation.
	Query string `json:"query"`

	// Sections is the topic breakdown. Once non-empty the planner step
	// becomes a no-op.
	Sections []string `json:"sections"`

	// SearchQueries holds the planned queries. Query i is associated
	// with Sections[i] when in range.
	SearchQueries []string `json:"search_queries"`

	// ResultsBySection accumulates research results per section.
	// Append-only; sections are created lazily on first result.
	ResultsBySection map[string][]SectionResult `json:"results_by_section"`

	// Sources accumulates every collected hit. Append-only.
	Sources []Source `json:"sources"`

	// IterationCount is incremented by exactly one per researcher
	// invocation. Never decremented.
	IterationCount int `json:"iteration_count"`

	// ConfidenceScore is the reflector's normalized [0,1] completeness
	// estimate. Nil until the reflector has run.
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`

	// ResearchComplete transitions false to true at most once and never
	// back.
	ResearchComplete bool `json:"research_complete"`

	// ReflectionFeedback is the reflector's textual assessment.
	ReflectionFeedback string `json:"reflection_feedback,omitempty"`

	// ReportDraft is set exactly once by the synthesizer.
	ReportDraft string `json:"report_draft"`

	// MessageLog records every model invocation's output in order.
	// Append-only, never truncated or reordered.
	MessageLog []llm.Message `json:"message_log"`
}

// NewState creates the initial state for a research run, with every
// field at its zero value and the query recorded in the message log.
func NewState(query string) State {
	return State{
		Query:            query,
		ResultsBySection: make(map[string][]SectionResult),
		MessageLog:       []llm.Message{llm.User(query)},
	}
}

// Update is a typed partial state change produced by a single step. Only
// the fields a step changed are set; Apply merges them under the
// append/replace rules each field documents.
type Update struct {
	// Sections and SearchQueries replace their state fields when
	// non-nil.
	Sections      []string
	SearchQueries []string

	// SectionResults entries are appended to the matching sections.
	SectionResults map[string][]SectionResult

	// Sources entries are appended.
	Sources []Source

	// IterationDelta is added to IterationCount.
	IterationDelta int

	// ConfidenceScore replaces the state field when non-nil.
	ConfidenceScore *float64

	// ResearchComplete is merged monotonically: a true value sticks, a
	// false value never undoes a prior true.
	ResearchComplete *bool

	// ReflectionFeedback and ReportDraft replace their state fields
	// when non-nil.
	ReflectionFeedback *string
	ReportDraft        *string

	// Messages are appended to the message log.
	Messages []llm.Message
}

// Apply merges an update into the state and returns the result. The
// receiver is not modified; slices and the section map are copied before
// appending so earlier snapshots stay valid.
func (s State) Apply(u Update) State {
	next := s

	if u.Sections != nil {
		next.Sections = u.Sections
	}
	if u.SearchQueries != nil {
		next.SearchQueries = u.SearchQueries
	}

	if len(u.SectionResults) > 0 {
		merged := make(map[string][]SectionResult, len(s.ResultsBySection)+len(u.SectionResults))
		for section, results := range s.ResultsBySection {
			merged[section] = results
		}
		for section, results := range u.SectionResults {
			combined := make([]SectionResult, 0, len(merged[section])+len(results))
			combined = append(combined, merged[section]...)
			combined = append(combined, results...)
			merged[section] = combined
		}
		next.ResultsBySection = merged
	}

	if len(u.Sources) > 0 {
		combined := make([]Source, 0, len(s.Sources)+len(u.Sources))
		combined = append(combined, s.Sources...)
		combined = append(combined, u.Sources...)
		next.Sources = combined
	}

	next.IterationCount += u.IterationDelta

	if u.ConfidenceScore != nil {
		next.ConfidenceScore = u.ConfidenceScore
	}
	if u.ResearchComplete != nil && *u.ResearchComplete {
		next.ResearchComplete = true
	}
	if u.ReflectionFeedback != nil {
		next.ReflectionFeedback = *u.ReflectionFeedback
	}
	if u.ReportDraft != nil {
		next.ReportDraft = *u.ReportDraft
	}

	if len(u.Messages) > 0 {
		combined := make([]llm.Message, 0, len(s.MessageLog)+len(u.Messages))
		combined = append(combined, s.MessageLog...)
		combined = append(combined, u.Messages...)
		next.MessageLog = combined
	}

	return next
}
