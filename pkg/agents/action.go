package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/resolution"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

// ActionResolver resolves one attempted action. *resolution.Pipeline
// implements it.
type ActionResolver interface {
	ResolveAction(ctx context.Context, gs *state.GameState, req resolution.Request) (*state.ActionResult, error)
}

// Action resolves the player's declared action.
type Action struct {
	resolver ActionResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewAction returns an action agent.
func NewAction(resolver ActionResolver, logger *slog.Logger) *Action {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Action{resolver: resolver, logger: logger, now: time.Now}
}

func (a *Action) Name() string { return routing.AgentAction }

func (a *Action) Execute(ctx context.Context, in turn.Input) (turn.AgentResult, error) {
	gs := in.GameState
	analysis := Analyze(gs, in.Utterance)
	analysis.Timestamp = a.now()
	gs.TemporaryInfo.CurrentActionAnalysis = &analysis

	a.logger.Debug("Action analysed",
		"game_state_id", gs.ID.String(),
		"character", analysis.Character,
		"target", analysis.Target)

	res, err := a.resolver.ResolveAction(ctx, gs, resolution.Request{
		Action: analysis.Action,
		Target: analysis.Target,
	})
	if err != nil {
		return turn.AgentResult{}, fmt.Errorf("failed to resolve action: %w", err)
	}
	return turn.AgentResult{
		Agent:         a.Name(),
		Summary:       res.Result,
		ActionResults: []state.ActionResult{*res},
		Failure:       res.Failure,
	}, nil
}

// Analyze reads utterance as the player's action. The target is the first
// NPC it names, checking NPCs in the current scene before the rest.
func Analyze(gs *state.GameState, utterance string) state.ActionAnalysis {
	a := state.ActionAnalysis{
		Character: gs.Player.Name,
		Action:    strings.TrimSpace(utterance),
	}
	if npc := firstNamed(gs, utterance); npc != nil {
		a.Target = npc.Name
	}
	return a
}

func firstNamed(gs *state.GameState, text string) *actor.NPCProfile {
	present := gs.NPCsPresent()
	for _, npc := range present {
		if names(text, npc) {
			return npc
		}
	}
	for i := range gs.NPCs {
		if names(text, &gs.NPCs[i]) {
			return &gs.NPCs[i]
		}
	}
	return nil
}

// names reports whether text refers to npc by full name, id, or a
// distinctive part of the name.
func names(text string, npc *actor.NPCProfile) bool {
	if textfilter.Mentions(text, npc.Name) || (npc.ID != "" && textfilter.Mentions(text, npc.ID)) {
		return true
	}
	for _, part := range strings.Fields(npc.Name) {
		if len(part) >= 4 && textfilter.Mentions(text, part) {
			return true
		}
	}
	return false
}
