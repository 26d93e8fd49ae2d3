package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/prompts"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/routing"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

// Director moves the story to another scene when progression is pending or
// a scene change was requested.
type Director struct {
	collaborator chat.Collaborator
	catalog      scenario.Catalog
	policy       retry.Policy
	logger       *slog.Logger
	now          func() time.Time
}

// NewDirector returns a director agent.
func NewDirector(collaborator chat.Collaborator, catalog scenario.Catalog, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	policy := retry.DefaultPolicy()
	policy.Logger = logger
	return &Director{
		collaborator: collaborator,
		catalog:      catalog,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// WithRetryPolicy sets the policy for collaborator calls.
// Returns the Director for method chaining
func (d *Director) WithRetryPolicy(p retry.Policy) *Director {
	if p.Logger == nil {
		p.Logger = d.logger
	}
	d.policy = p
	return d
}

func (d *Director) Name() string { return routing.AgentDirector }

// decisionPayload is the director collaborator's answer.
type decisionPayload struct {
	ShouldProgress   bool           `json:"shouldProgress"`
	TargetSnapshotID string         `json:"targetSnapshotId"`
	Reasoning        string         `json:"reasoning"`
	ShortActionCaps  map[string]int `json:"shortActionCaps"`
}

// ParseDecision reads a director decision from collaborator text.
func ParseDecision(raw string) (state.DirectorDecision, error) {
	obj, ok := textfilter.ExtractObject(raw)
	if !ok {
		return state.DirectorDecision{}, failure.Malformedf("director", "no decision payload")
	}
	var p decisionPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return state.DirectorDecision{}, failure.Malformed("director", err)
	}
	return state.DirectorDecision{
		ShouldProgress:   p.ShouldProgress,
		TargetSnapshotID: strings.TrimSpace(p.TargetSnapshotID),
		Reasoning:        p.Reasoning,
		ShortActionCaps:  p.ShortActionCaps,
	}, nil
}

func (d *Director) Execute(ctx context.Context, in turn.Input) (turn.AgentResult, error) {
	gs := in.GameState
	ti := &gs.TemporaryInfo
	pending := ti.PendingSceneChange
	if !ti.ProgressionPending && pending == nil {
		return turn.AgentResult{Agent: d.Name(), Summary: "no progression needed"}, nil
	}
	mgr := state.NewManager(gs, d.logger)

	decision, err := d.decide(ctx, gs)
	if err != nil {
		d.logger.Warn("Director decision unavailable",
			"game_state_id", gs.ID.String(),
			"kind", string(failure.KindOf(err)),
			"error", err)
	}

	var next *scenario.Snapshot
	if err == nil {
		next = d.target(gs, decision)
	}
	if next == nil && pending != nil && (err != nil || decision.ShouldProgress) {
		// No usable decision: honour an exact catalog name.
		if snap, ok := d.lookup(pending.Target); ok {
			next = snap
		} else {
			d.logger.Warn("Scene change to unknown scene",
				"game_state_id", gs.ID.String(),
				"target", pending.Target,
				"requested_by", pending.RequestedBy)
		}
	}

	// Without a decision and without a move, both requests stay for the
	// next turn's director run.
	if next != nil || err == nil {
		ti.ProgressionPending = false
		ti.PendingSceneChange = nil
	}

	var summary string
	if next != nil {
		from := gs.ScenarioID()
		mgr.UpdateScenario(next)
		summary = fmt.Sprintf("scene changed from %s to %s", from, next.ID)
	} else {
		summary = "scene unchanged"
	}
	if err == nil {
		decision.Timestamp = d.now()
		mgr.ApplyDirectorDecision(decision)
	}

	ar := turn.AgentResult{Agent: d.Name(), Summary: summary}
	if err != nil && next == nil {
		ar.Failure = failure.OutcomeOf(err)
	}
	return ar, nil
}

func (d *Director) decide(ctx context.Context, gs *state.GameState) (state.DirectorDecision, error) {
	if d.collaborator == nil {
		return state.DirectorDecision{}, failure.Transport("director", fmt.Errorf("no collaborator configured"))
	}
	var candidates []scenario.Snapshot
	if d.catalog != nil {
		candidates = d.catalog.List()
	}
	msgs, err := prompts.Director(gs, candidates, reasonFor(gs))
	if err != nil {
		return state.DirectorDecision{}, fmt.Errorf("failed to build director prompt: %w", err)
	}
	return retry.Do(ctx, d.policy, "director", func(ctx context.Context) (state.DirectorDecision, error) {
		raw, err := d.collaborator.Complete(ctx, msgs)
		if err != nil {
			return state.DirectorDecision{}, failure.Transport("director", err)
		}
		return ParseDecision(raw)
	})
}

func reasonFor(gs *state.GameState) string {
	var parts []string
	if sc := gs.TemporaryInfo.PendingSceneChange; sc != nil {
		parts = append(parts, fmt.Sprintf("%s asked to move to %q (%s).", sc.RequestedBy, sc.Target, sc.Reason))
	}
	if gs.TemporaryInfo.ProgressionPending {
		parts = append(parts, "The investigation has stalled in the current scene.")
	}
	return strings.Join(parts, " ")
}

// target validates the decision's target against the catalog. The id is
// tried first, then the name.
func (d *Director) target(gs *state.GameState, dec state.DirectorDecision) *scenario.Snapshot {
	if !dec.ShouldProgress || dec.TargetSnapshotID == "" || d.catalog == nil {
		return nil
	}
	snap, ok := d.catalog.Get(dec.TargetSnapshotID)
	if !ok {
		snap, ok = d.catalog.Lookup(dec.TargetSnapshotID)
	}
	if !ok {
		d.logger.Warn("Director chose unknown scene",
			"game_state_id", gs.ID.String(),
			"target", dec.TargetSnapshotID)
		return nil
	}
	return snap
}

func (d *Director) lookup(name string) (*scenario.Snapshot, bool) {
	if d.catalog == nil {
		return nil, false
	}
	return d.catalog.Lookup(name)
}
