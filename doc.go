// Deep Research - An Iterative Research Agent in Go
//
// Deep Research automates multi-step research: it decomposes a topic into
// search queries and sections, gathers and summarizes web evidence per
// query, self-assesses the completeness of what it found, and synthesizes
// a final report with a source list. The workflow runs on a typed
// state-machine graph engine with pluggable checkpoint stores, so a
// session can be persisted after every step and resumed later.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/deepresearch
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/deepresearch/llm"
//		"github.com/smallnest/deepresearch/research"
//		"github.com/smallnest/deepresearch/search"
//	)
//
//	func main() {
//		model, _ := llm.NewOpenAIModel(llm.OpenAIOptions{
//			APIKey:  "...",
//			BaseURL: "https://api.deepseek.com",
//			Model:   "deepseek-chat",
//		})
//		searcher, _ := search.NewTavilySearch("...")
//
//		agent, _ := research.NewAgent(research.Config{
//			Model:    model,
//			Searcher: searcher,
//		})
//
//		final, _ := agent.RunResearch(context.Background(),
//			"The current state of quantum error correction", "session-1")
//		fmt.Println(final.ReportDraft)
//	}
//
// # Packages
//
//   - research: the workflow itself, from planner through researcher and
//     reflector to the report synthesizer, plus the agent that wires them
//     into a graph
//   - graph: the typed state-machine engine with conditional edges,
//     retries, and checkpointing
//   - llm: the text-generation interface with OpenAI-compatible and
//     langchaingo-backed implementations
//   - search: the web-search interface with Tavily and Brave clients
//   - store: checkpoint stores backed by memory, files, Redis, SQLite,
//     and Postgres
//   - report: markdown report rendering to sanitized HTML
//   - log: leveled logging used across the module
package deepresearch
