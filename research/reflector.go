package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/deepresearch/llm"
)

const reflectorSystemPrompt = "You are a research quality evaluator."

const reflectorPromptTemplate = `Evaluate the completeness of this research:

%s

Rate the research completeness on a scale of 0-10 and provide:
1. Completeness score (0-10)
2. What's missing or needs improvement
3. Suggested next actions (if score < 8)

Respond in JSON format:
{
    "score": 7,
    "feedback": "What's missing...",
    "next_actions": ["action1", "action2"],
    "is_complete": false
}`

type reflectionReply struct {
	Score       *float64 `json:"score"`
	Feedback    string   `json:"feedback"`
	NextActions []string `json:"next_actions"`
	IsComplete  *bool    `json:"is_complete"`
}

// Decision is the reflector's routing outcome.
type Decision int

const (
	// Continue routes back to the researcher for another pass.
	Continue Decision = iota
	// Finalize routes to the report synthesizer.
	Finalize
)

// reflect scores the research so far. The model's verdict sets the
// confidence score and feedback; completeness is the model's flag OR'd
// with the hard iteration cap, which guarantees termination no matter
// what the model says. A malformed reply falls back to a neutral score
// and relies on the cap alone.
func (a *Agent) reflect(ctx context.Context, state State) (State, error) {
	status := buildResearchStatus(state)

	reply, err := a.cfg.Model.Generate(ctx, []llm.Message{
		llm.System(reflectorSystemPrompt),
		llm.User(fmt.Sprintf(reflectorPromptTemplate, status)),
	})
	if err != nil {
		return State{}, fmt.Errorf("research: reflection failed: %w", err)
	}

	capReached := state.IterationCount >= a.cfg.MaxIterations

	var score float64
	var feedback string
	var complete bool

	var parsed reflectionReply
	if err := decodeReply(reply, &parsed); err == nil {
		score = 5
		if parsed.Score != nil {
			score = *parsed.Score
		}
		feedback = parsed.Feedback
		if feedback == "" {
			feedback = "No feedback provided"
		}
		if parsed.IsComplete != nil {
			complete = *parsed.IsComplete
		} else {
			complete = score >= 8
		}
	} else {
		a.cfg.Logger.Warn("reflection reply was not parseable, using fallback score")
		score = 5
		feedback = "Unable to parse reflection"
		complete = capReached
	}

	confidence := score / 10
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	researchComplete := complete || capReached
	a.cfg.Logger.Info("reflection: confidence %.2f, complete %v (iteration %d/%d)",
		confidence, researchComplete, state.IterationCount, a.cfg.MaxIterations)

	return state.Apply(Update{
		ConfidenceScore:    &confidence,
		ReflectionFeedback: &feedback,
		ResearchComplete:   &researchComplete,
		Messages:           []llm.Message{llm.Assistant(reply)},
	}), nil
}

// decideAfterReflection routes out of the reflect node. Complete research
// always finalizes; incomplete research loops back to the researcher only
// when the LoopOnIncomplete policy is enabled.
func (a *Agent) decideAfterReflection(state State) Decision {
	if state.ResearchComplete {
		return Finalize
	}
	if a.cfg.LoopOnIncomplete {
		return Continue
	}
	return Finalize
}

// buildResearchStatus renders the per-section collection status the
// reflector is asked to evaluate.
func buildResearchStatus(state State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research Query: %s\n\n", state.Query)
	fmt.Fprintf(&b, "Sections to cover: %s\n\n", strings.Join(state.Sections, ", "))
	b.WriteString("Current Research Status:\n")

	for _, section := range state.Sections {
		if results, ok := state.ResultsBySection[section]; ok {
			fmt.Fprintf(&b, "- %s: %d summaries collected\n", section, len(results))
		} else {
			fmt.Fprintf(&b, "- %s: Not yet researched\n", section)
		}
	}
	return b.String()
}
