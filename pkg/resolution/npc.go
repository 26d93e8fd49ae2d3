package resolution

import (
	"context"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

// ResponseNone marks an NPC that does not react.
const ResponseNone = "none"

// NPCResponse is one NPC's declared reaction to the latest action.
type NPCResponse struct {
	Name           string `json:"name"`
	ShouldRespond  bool   `json:"shouldRespond"`
	ResponseType   string `json:"responseType"`
	Description    string `json:"description"`
	ExecutionOrder int    `json:"executionOrder"`
	Target         string `json:"target,omitempty"`
}

// Responds reports whether the NPC acts at all.
func (r NPCResponse) Responds() bool {
	t := strings.ToLower(strings.TrimSpace(r.ResponseType))
	return r.ShouldRespond && t != "" && t != ResponseNone
}

// OrderResponses drops non-responding NPCs and sorts the rest by ascending
// ExecutionOrder. NPCs sharing an order keep their original relative order.
func OrderResponses(responses []NPCResponse) []NPCResponse {
	out := make([]NPCResponse, 0, len(responses))
	for _, r := range responses {
		if r.Responds() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b NPCResponse) int {
		return a.ExecutionOrder - b.ExecutionOrder
	})
	return out
}

// ResolveNPCResponses resolves each responding NPC in order against the
// progressively mutated game state, so later NPCs see earlier consequences.
func (p *Pipeline) ResolveNPCResponses(ctx context.Context, gs *state.GameState, responses []NPCResponse) []state.ActionResult {
	if gs == nil {
		return nil
	}
	ordered := OrderResponses(responses)
	results := make([]state.ActionResult, 0, len(ordered))
	for i := range ordered {
		resp := ordered[i]
		res, err := p.ResolveAction(ctx, gs, Request{
			Character: resp.Name,
			Action:    resp.Description,
			IsNPC:     true,
			Target:    resp.Target,
			Response:  &resp,
		})
		if err != nil {
			p.logger.Error("NPC resolution failed",
				"game_state_id", gs.ID.String(),
				"npc", resp.Name,
				"error", err)
			continue
		}
		results = append(results, *res)
	}
	return results
}
