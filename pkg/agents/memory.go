// Package agents holds the agents a turn can be routed to.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

// DefaultSnippetLimit caps how many snippets the memory agent keeps.
const DefaultSnippetLimit = 5

// Retriever finds rule and context snippets relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, gs *state.GameState, query string, limit int) ([]string, error)
}

// StateRetriever scores snippets by keyword overlap with the query. The
// corpus is its static Rules plus the current scene, discovered clues and
// recent action results.
type StateRetriever struct {
	Rules []string
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"you": true, "your": true, "are": true, "was": true, "his": true, "her": true,
	"into": true, "from": true, "what": true, "can": true, "have": true, "not": true,
}

func keywords(s string) []string {
	var out []string
	for _, w := range strings.FieldsFunc(textfilter.Fold(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len(w) < 3 || stopwords[w] || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Retrieve returns up to limit snippets sharing at least one keyword with
// query, best first. Ties keep corpus order.
func (r StateRetriever) Retrieve(ctx context.Context, gs *state.GameState, query string, limit int) ([]string, error) {
	terms := keywords(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		text  string
		score int
	}
	var hits []scored
	for _, text := range r.corpus(gs) {
		words := keywords(text)
		score := 0
		for _, t := range terms {
			if slices.Contains(words, t) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: text, score: score})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int { return b.score - a.score })

	out := make([]string, 0, min(limit, len(hits)))
	for _, h := range hits[:min(limit, len(hits))] {
		out = append(out, h.text)
	}
	return out, nil
}

func (r StateRetriever) corpus(gs *state.GameState) []string {
	texts := slices.Clone(r.Rules)
	if gs == nil {
		return texts
	}
	if s := gs.CurrentScenario; s != nil {
		if s.Description != "" {
			texts = append(texts, s.Description)
		}
		for _, c := range s.Conditions {
			texts = append(texts, fmt.Sprintf("%s: %s", c.Type, c.Description))
		}
		texts = append(texts, s.Events...)
		texts = append(texts, s.PermanentChanges...)
		for _, e := range s.Exits {
			if e.Description != "" {
				texts = append(texts, e.Description)
			}
		}
	}
	texts = append(texts, gs.DiscoveredClues...)
	for _, ar := range gs.TemporaryInfo.ActionResults {
		texts = append(texts, fmt.Sprintf("%s: %s", ar.Character, ar.Result))
	}
	return texts
}

// Memory writes relevant rules and context into the turn's active rules.
type Memory struct {
	retriever Retriever
	limit     int
	logger    *slog.Logger
}

// NewMemory returns a memory agent backed by retriever.
func NewMemory(retriever Retriever, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if retriever == nil {
		retriever = StateRetriever{}
	}
	return &Memory{retriever: retriever, limit: DefaultSnippetLimit, logger: logger}
}

// WithLimit sets the maximum number of snippets kept.
// Returns the Memory for method chaining
func (m *Memory) WithLimit(n int) *Memory {
	if n > 0 {
		m.limit = n
	}
	return m
}

func (m *Memory) Name() string { return routing.AgentMemory }

func (m *Memory) Execute(ctx context.Context, in turn.Input) (turn.AgentResult, error) {
	gs := in.GameState
	snippets, err := m.retriever.Retrieve(ctx, gs, in.Utterance, m.limit)
	if err != nil {
		return turn.AgentResult{}, fmt.Errorf("failed to retrieve context: %w", err)
	}
	state.NewManager(gs, m.logger).SetActiveRules(snippets)
	m.logger.Debug("Active rules set",
		"game_state_id", gs.ID.String(),
		"count", len(snippets))
	return turn.AgentResult{
		Agent:   m.Name(),
		Summary: fmt.Sprintf("%d relevant notes", len(snippets)),
	}, nil
}
