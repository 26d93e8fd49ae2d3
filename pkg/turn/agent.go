package turn

import (
	"context"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

// AgentResult is what one agent contributed to a turn.
type AgentResult struct {
	Agent         string               `json:"agent"`
	Summary       string               `json:"summary,omitempty"`
	ActionResults []state.ActionResult `json:"action_results,omitempty"`
	Failure       *failure.Outcome     `json:"failure,omitempty"`
}

// Failed reports whether the agent's step degraded to a failure.
func (r AgentResult) Failed() bool { return r.Failure != nil }

// Input is what an agent sees: the utterance, the current (possibly
// already mutated) GameState and the results produced earlier this turn.
type Input struct {
	Utterance string
	GameState *state.GameState
	Prior     []AgentResult
	Queue     routing.Queue
}

// Agent is one step of a turn.
type Agent interface {
	Name() string
	Execute(ctx context.Context, in Input) (AgentResult, error)
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc struct {
	ID string
	Fn func(ctx context.Context, in Input) (AgentResult, error)
}

func (a AgentFunc) Name() string { return a.ID }

func (a AgentFunc) Execute(ctx context.Context, in Input) (AgentResult, error) {
	return a.Fn(ctx, in)
}
