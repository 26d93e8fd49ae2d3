// Package turn runs one player turn: route the utterance to agents, run
// them in order, then narrate the outcome.
package turn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/prompts"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// Stage is a state of the turn state machine.
type Stage string

const (
	StageRoute         Stage = "ROUTE"
	StageExecuteAgent  Stage = "EXECUTE_AGENT"
	StageCheckComplete Stage = "CHECK_COMPLETE"
	StageSynthesize    Stage = "SYNTHESIZE"
	StageDone          Stage = "DONE"
)

// transitions lists the legal next stages of each stage.
var transitions = map[Stage][]Stage{
	StageRoute:         {StageExecuteAgent, StageCheckComplete},
	StageExecuteAgent:  {StageExecuteAgent, StageCheckComplete},
	StageCheckComplete: {StageSynthesize},
	StageSynthesize:    {StageDone},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to Stage) bool {
	return slices.Contains(transitions[from], to)
}

// NeutralNarrative is used when nothing happened and the synthesizer failed.
const NeutralNarrative = "A moment passes. Nothing stirs."

// Result is the outcome of ProcessTurn.
type Result struct {
	Queue        routing.Queue    `json:"queue"`
	AgentResults []AgentResult    `json:"agent_results"`
	Narrative    string           `json:"narrative"`
	GameState    *state.GameState `json:"-"`
	Failure      *failure.Outcome `json:"failure,omitempty"` // set when narration fell back
}

// Coordinator drives turns. It is safe to share between sessions; all turn
// data lives on the GameState and in the per-call run.
type Coordinator struct {
	classifier  chat.Collaborator
	synthesizer chat.Collaborator
	agents      map[string]Agent
	order       []string
	policy      retry.Policy
	logger      *slog.Logger
}

// NewCoordinator creates a coordinator with the given collaborators and
// agents. Agents are addressable by Name().
func NewCoordinator(classifier, synthesizer chat.Collaborator, logger *slog.Logger, agents ...Agent) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Coordinator{
		classifier:  classifier,
		synthesizer: synthesizer,
		agents:      make(map[string]Agent, len(agents)),
		policy:      retry.DefaultPolicy(),
		logger:      logger,
	}
	for _, a := range agents {
		name := strings.ToLower(a.Name())
		if _, dup := c.agents[name]; !dup {
			c.order = append(c.order, name)
		}
		c.agents[name] = a
	}
	c.policy.Logger = logger
	return c
}

// WithRetryPolicy sets the policy for classifier and synthesizer calls.
// Returns the Coordinator for method chaining
func (c *Coordinator) WithRetryPolicy(p retry.Policy) *Coordinator {
	if p.Logger == nil {
		p.Logger = c.logger
	}
	c.policy = p
	return c
}

// Agents returns the registered agent ids in registration order.
func (c *Coordinator) Agents() []string {
	return append([]string(nil), c.order...)
}

// run is the state of one turn.
type run struct {
	c         *Coordinator
	gs        *state.GameState
	utterance string
	stage     Stage
	queue     []string
	results   []AgentResult
}

// advance moves to next. An illegal transition is logged as an invariant
// violation and the run jumps straight to synthesis.
func (r *run) advance(next Stage) {
	if !CanTransition(r.stage, next) {
		err := failure.Invariant("turn", "illegal transition %s -> %s", r.stage, next)
		r.c.logger.Error("Turn state machine violation",
			"game_state_id", r.gs.ID.String(),
			"from", string(r.stage),
			"to", string(next),
			"error", err)
		r.queue = nil
		r.stage = StageSynthesize
		return
	}
	r.stage = next
}

// ProcessTurn runs one turn for utterance against gs, mutating gs. It only
// errors on a nil GameState; every collaborator or agent failure is
// substituted with a fallback and the turn completes.
func (c *Coordinator) ProcessTurn(ctx context.Context, utterance string, gs *state.GameState) (*Result, error) {
	if gs == nil {
		return nil, fmt.Errorf("gamestate cannot be nil")
	}
	r := &run{c: c, gs: gs, utterance: utterance, stage: StageRoute}
	res := &Result{GameState: gs}

	gs.TemporaryInfo.CurrentActionAnalysis = nil
	res.Queue = c.route(ctx, gs, utterance)
	r.queue = append(r.queue, res.Queue.Agents...)

	if len(r.queue) == 0 {
		c.logger.Info("No agents selected, synthesizing directly",
			"game_state_id", gs.ID.String(),
			"rationale", res.Queue.Rationale)
		r.advance(StageCheckComplete)
	} else {
		r.advance(StageExecuteAgent)
	}

	for r.stage == StageExecuteAgent {
		id := r.queue[0]
		r.queue = r.queue[1:]
		r.results = append(r.results, c.execute(ctx, id, Input{
			Utterance: utterance,
			GameState: gs,
			Prior:     r.results,
			Queue:     res.Queue,
		}))
		if len(r.queue) > 0 {
			r.advance(StageExecuteAgent)
		} else {
			r.advance(StageCheckComplete)
		}
	}

	if r.stage == StageCheckComplete {
		r.advance(StageSynthesize)
	}

	res.AgentResults = r.results
	res.Narrative, res.Failure = c.synthesize(ctx, gs, utterance, r.results)
	gs.LastNarrative = res.Narrative
	r.results = nil
	r.advance(StageDone)

	c.logger.Info("Turn complete",
		"game_state_id", gs.ID.String(),
		"agents", res.Queue.Agents,
		"results", len(res.AgentResults))
	return res, nil
}

// route asks the classifier which agents to run.
func (c *Coordinator) route(ctx context.Context, gs *state.GameState, utterance string) routing.Queue {
	if c.classifier == nil {
		return routing.NormalizeRaw("", c.order)
	}
	msgs, err := prompts.Classifier(gs, utterance, c.order)
	if err != nil {
		c.logger.Error("Failed to build classifier prompt", "error", err)
		return routing.NormalizeRaw("", c.order)
	}

	var lastRaw string
	d, err := retry.Do(ctx, c.policy, "classify", func(ctx context.Context) (routing.Decision, error) {
		raw, err := c.classifier.Complete(ctx, msgs)
		if err != nil {
			return routing.Decision{}, asTransport("classify", err)
		}
		lastRaw = raw
		return routing.ParseDecision(raw)
	})
	if err != nil {
		c.logger.Warn("Classifier failed, normalizing last response",
			"game_state_id", gs.ID.String(),
			"kind", string(failure.KindOf(err)),
			"error", err)
		return routing.NormalizeRaw(lastRaw, c.order)
	}

	q := routing.Normalize(d, c.order)
	if len(q.Dropped) > 0 {
		c.logger.Warn("Dropped unknown agents",
			"game_state_id", gs.ID.String(),
			"agents", q.Dropped)
	}
	return q
}

// execute runs one agent, converting an error into a failed AgentResult.
func (c *Coordinator) execute(ctx context.Context, id string, in Input) AgentResult {
	gs := in.GameState
	agent, ok := c.agents[id]
	if !ok {
		err := failure.UnknownReference("execute agent", "agent %q is not registered", id)
		c.logger.Warn("Unknown agent in queue", "game_state_id", gs.ID.String(), "agent", id)
		return AgentResult{Agent: id, Failure: failure.OutcomeOf(err)}
	}

	c.logger.Debug("Executing agent", "game_state_id", gs.ID.String(), "agent", id)
	ar, err := agent.Execute(ctx, in)
	if ar.Agent == "" {
		ar.Agent = id
	}
	if err != nil {
		c.logger.Warn("Agent failed",
			"game_state_id", gs.ID.String(),
			"agent", id,
			"kind", string(failure.KindOf(err)),
			"error", err)
		ar.Failure = failure.OutcomeOf(err)
	}
	return ar
}

// synthesize narrates the turn, falling back to the raw result texts.
func (c *Coordinator) synthesize(ctx context.Context, gs *state.GameState, utterance string, results []AgentResult) (string, *failure.Outcome) {
	lines := resultLines(results)

	var err error
	if c.synthesizer == nil {
		err = failure.Transport("synthesize", fmt.Errorf("no synthesizer configured"))
	} else {
		var msgs []chat.ChatMessage
		msgs, err = prompts.Synthesizer(gs, utterance, lines)
		if err == nil {
			var text string
			text, err = retry.Do(ctx, c.policy, "synthesize", func(ctx context.Context) (string, error) {
				raw, err := c.synthesizer.Complete(ctx, msgs)
				if err != nil {
					return "", asTransport("synthesize", err)
				}
				text := strings.TrimSpace(textfilter.StripCodeFence(raw))
				if text == "" {
					return "", failure.Malformedf("synthesize", "empty narration")
				}
				return text, nil
			})
			if err == nil {
				return text, nil
			}
		}
	}

	c.logger.Warn("Synthesizer failed, using fallback narrative",
		"game_state_id", gs.ID.String(),
		"error", err)
	return fallbackNarrative(results), failure.OutcomeOf(err)
}

// resultLines flattens the turn's results into prompt lines.
func resultLines(results []AgentResult) []string {
	var lines []string
	for _, ar := range results {
		for _, a := range ar.ActionResults {
			lines = append(lines, fmt.Sprintf("%s: %s", a.Character, a.Result))
		}
		if ar.Summary != "" {
			lines = append(lines, fmt.Sprintf("[%s] %s", ar.Agent, ar.Summary))
		}
		if ar.Failure != nil {
			lines = append(lines, fmt.Sprintf("[%s] failed: %s", ar.Agent, ar.Failure.Kind))
		}
	}
	return lines
}

func fallbackNarrative(results []AgentResult) string {
	var texts []string
	for _, ar := range results {
		for _, a := range ar.ActionResults {
			if t := strings.TrimSpace(a.Result); t != "" {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) == 0 {
		return NeutralNarrative
	}
	return strings.Join(texts, " ")
}

func asTransport(op string, err error) error {
	if failure.KindOf(err) == failure.KindUnknown {
		return failure.Transport(op, err)
	}
	return err
}
