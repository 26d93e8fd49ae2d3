package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/prompts"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/resolution"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

// NPCResolver resolves NPC reactions in order. *resolution.Pipeline
// implements it.
type NPCResolver interface {
	ResolveNPCResponses(ctx context.Context, gs *state.GameState, responses []resolution.NPCResponse) []state.ActionResult
}

// Character decides which NPCs in the scene react to the latest action and
// resolves their reactions.
type Character struct {
	collaborator chat.Collaborator
	resolver     NPCResolver
	policy       retry.Policy
	logger       *slog.Logger
}

// NewCharacter returns a character agent.
func NewCharacter(collaborator chat.Collaborator, resolver NPCResolver, logger *slog.Logger) *Character {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	policy := retry.DefaultPolicy()
	policy.Logger = logger
	return &Character{collaborator: collaborator, resolver: resolver, policy: policy, logger: logger}
}

// WithRetryPolicy sets the policy for collaborator calls.
// Returns the Character for method chaining
func (c *Character) WithRetryPolicy(p retry.Policy) *Character {
	if p.Logger == nil {
		p.Logger = c.logger
	}
	c.policy = p
	return c
}

func (c *Character) Name() string { return routing.AgentCharacter }

func (c *Character) Execute(ctx context.Context, in turn.Input) (turn.AgentResult, error) {
	gs := in.GameState
	present := gs.NPCsPresent()
	if len(present) == 0 {
		return turn.AgentResult{Agent: c.Name(), Summary: "no NPCs present"}, nil
	}

	sheets := make([]string, 0, len(present))
	for _, npc := range present {
		s := npc.Summary()
		if npc.Personality != "" {
			s += " Personality: " + npc.Personality + "."
		}
		sheets = append(sheets, s)
	}
	latest := in.Utterance
	if last, ok := state.NewManager(gs, c.logger).LastActionResult(); ok {
		latest = fmt.Sprintf("%s: %s", last.Character, last.Result)
	}

	msgs, err := prompts.Characters(gs, latest, sheets)
	if err != nil {
		return turn.AgentResult{}, fmt.Errorf("failed to build character prompt: %w", err)
	}
	responses, err := retry.Do(ctx, c.policy, "npc responses", func(ctx context.Context) ([]resolution.NPCResponse, error) {
		raw, err := c.collaborator.Complete(ctx, msgs)
		if err != nil {
			return nil, failure.Transport("npc responses", err)
		}
		return ParseResponses(raw)
	})
	if err != nil {
		return turn.AgentResult{}, err
	}

	results := c.resolver.ResolveNPCResponses(ctx, gs, responses)
	c.logger.Debug("NPC responses resolved",
		"game_state_id", gs.ID.String(),
		"proposed", len(responses),
		"resolved", len(results))
	return turn.AgentResult{
		Agent:         c.Name(),
		Summary:       fmt.Sprintf("%d NPC reactions", len(results)),
		ActionResults: results,
	}, nil
}

// ParseResponses reads NPC reactions from collaborator text. Both a
// {"responses": [...]} object and a bare array are accepted.
func ParseResponses(raw string) ([]resolution.NPCResponse, error) {
	if obj, ok := textfilter.ExtractObject(raw); ok {
		var wrapped struct {
			Responses []resolution.NPCResponse `json:"responses"`
		}
		if err := json.Unmarshal([]byte(obj), &wrapped); err == nil && wrapped.Responses != nil {
			return wrapped.Responses, nil
		}
	}
	if arr, ok := textfilter.ExtractArray(raw); ok {
		var list []resolution.NPCResponse
		if err := json.Unmarshal([]byte(arr), &list); err == nil {
			return list, nil
		}
	}
	return nil, failure.Malformedf("npc responses", "no responses payload")
}
