package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/search"
	"github.com/smallnest/deepresearch/store"
)

// Workflow node names.
const (
	NodeGenerateQueries = "generate_queries"
	NodeSearchSections  = "search_sections"
	NodeReflect         = "reflect"
	NodeWriteReport     = "write_report"
)

const (
	// DefaultMaxIterations is the hard cap on researcher invocations.
	// It is the only termination guarantee independent of model output.
	DefaultMaxIterations = 10

	// DefaultMaxResults is the per-query search result count.
	DefaultMaxResults = 5

	// DefaultMaxConcurrency bounds the researcher's query fan-out.
	DefaultMaxConcurrency = 3
)

// Config supplies the collaborators and tuning knobs for an Agent. Model
// and Searcher are required; everything else has a sensible default.
type Config struct {
	// Model generates plans, summaries, reflections, and the report.
	Model llm.Model

	// Searcher performs web searches for the researcher step.
	Searcher search.Searcher

	// MaxIterations caps researcher invocations. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// MaxResults is the per-query search result count. Zero means
	// DefaultMaxResults.
	MaxResults int

	// Depth is the search thoroughness. Empty means advanced.
	Depth search.Depth

	// MaxConcurrency bounds parallel query research. Zero means
	// DefaultMaxConcurrency.
	MaxConcurrency int

	// Store, when set, checkpoints the state after every node and lets
	// a session resume where it left off.
	Store store.CheckpointStore

	// Logger receives workflow progress. Nil uses the package default.
	Logger log.Logger

	// LoopOnIncomplete routes reflection back to the researcher when
	// research is not complete, instead of finalizing immediately.
	LoopOnIncomplete bool
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Depth == "" {
		cfg.Depth = search.DepthAdvanced
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetDefaultLogger()
	}
	return cfg
}

// Agent runs the research workflow end to end.
type Agent struct {
	cfg Config
	app *graph.Runnable[State]
}

// NewAgent builds the workflow graph from the config. Both conditional
// targets out of the reflect node are wired; which one is taken depends
// on the routing decision at run time.
func NewAgent(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, errors.New("research: config requires a model")
	}
	if cfg.Searcher == nil {
		return nil, errors.New("research: config requires a searcher")
	}

	a := &Agent{cfg: cfg.withDefaults()}

	g := graph.NewStateGraph[State]()
	g.AddNode(NodeGenerateQueries, "Decompose the topic into search queries and sections", a.planQueries)
	g.AddNode(NodeSearchSections, "Search and summarize evidence per query", a.researchSections)
	g.AddNode(NodeReflect, "Score research completeness", a.reflect)
	g.AddNode(NodeWriteReport, "Compile the final report", a.writeReport)

	g.SetEntryPoint(NodeGenerateQueries)
	g.AddEdge(NodeGenerateQueries, NodeSearchSections)
	g.AddEdge(NodeSearchSections, NodeReflect)
	g.AddConditionalEdge(NodeReflect, func(ctx context.Context, s State) string {
		if a.decideAfterReflection(s) == Continue {
			return NodeSearchSections
		}
		return NodeWriteReport
	})
	g.AddEdge(NodeWriteReport, graph.END)

	app, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("research: failed to compile workflow: %w", err)
	}
	a.app = app
	return a, nil
}

// RunResearch executes the full workflow for a topic and returns the
// terminal state. The sessionID keys checkpoints when a store is
// configured; an empty sessionID disables checkpointing for the run.
func (a *Agent) RunResearch(ctx context.Context, query, sessionID string) (State, error) {
	if query == "" {
		return State{}, errors.New("research: query must not be empty")
	}

	a.cfg.Logger.Info("starting research run for %q (session %s)", query, sessionID)

	cfg := &graph.Config{
		SessionID: sessionID,
		Store:     a.cfg.Store,
		Logger:    a.cfg.Logger,
	}
	final, err := a.app.InvokeWithConfig(ctx, NewState(query), cfg)
	if err != nil {
		return State{}, err
	}

	a.cfg.Logger.Info("research run finished: %d iterations, %d sources", final.IterationCount, len(final.Sources))
	return final, nil
}
