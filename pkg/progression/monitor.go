// Package progression decides when the story should be pushed forward.
package progression

import (
	"log/slog"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

// StallThreshold is the number of consecutive actions without clue growth,
// or without any NPC change, after which progression is triggered.
const StallThreshold = 3

// Reason names the condition that fired a trigger.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTimeCap     Reason = "short_action_cap_reached"
	ReasonNoClues     Reason = "no_new_clues"
	ReasonNPCsUnmoved Reason = "npc_state_unchanged"
)

// Monitor evaluates progression triggers. Its counters live in
// GameState.Progression, so a Monitor itself is stateless and can be
// shared between sessions.
type Monitor struct {
	logger *slog.Logger
}

// NewMonitor returns a Monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{logger: logger}
}

// ShouldTriggerProgression records one resolved action and reports whether
// the story should progress. Baseline must have run before the action.
func (m *Monitor) ShouldTriggerProgression(gs *state.GameState) bool {
	return m.Evaluate(gs) != ReasonNone
}

// Baseline records the current clue count and NPC fingerprint when the
// monitor has no baseline for the current scenario. Call it before an
// action's effects are applied so those effects count as change.
func (m *Monitor) Baseline(gs *state.GameState) {
	if gs == nil || baselined(gs) {
		return
	}
	gs.Progression = state.ProgressionState{
		Baselined:     true,
		ScenarioID:    gs.ScenarioID(),
		LastClueCount: len(gs.DiscoveredClues),
		Fingerprint:   Fingerprint(gs.NPCs),
	}
}

func baselined(gs *state.GameState) bool {
	return gs.Progression.Baselined && gs.Progression.ScenarioID == gs.ScenarioID()
}

// Evaluate is ShouldTriggerProgression returning which condition fired.
// When several fire, the first in cap, clue, NPC order is reported. An
// action that moved the story into a new scenario only sets the new
// baseline; counting starts with the next action.
func (m *Monitor) Evaluate(gs *state.GameState) Reason {
	if gs == nil {
		return ReasonNone
	}
	if !baselined(gs) {
		m.Baseline(gs)
		if capReached(gs) {
			return m.fired(gs, ReasonTimeCap)
		}
		return ReasonNone
	}

	p := &gs.Progression
	clues := len(gs.DiscoveredClues)
	fp := Fingerprint(gs.NPCs)

	if clues > p.LastClueCount {
		p.ActionsSinceClue = 0
	} else {
		p.ActionsSinceClue++
	}
	p.LastClueCount = clues

	if fp != p.Fingerprint {
		p.UnchangedActions = 0
	} else {
		p.UnchangedActions++
	}
	p.Fingerprint = fp

	reason := ReasonNone
	switch {
	case capReached(gs):
		reason = ReasonTimeCap
	case p.ActionsSinceClue >= StallThreshold:
		reason = ReasonNoClues
	case p.UnchangedActions >= StallThreshold:
		reason = ReasonNPCsUnmoved
	}

	if reason != ReasonNone {
		return m.fired(gs, reason)
	}
	return reason
}

func (m *Monitor) fired(gs *state.GameState, reason Reason) Reason {
	p := gs.Progression
	m.logger.Info("Progression triggered",
		"game_state_id", gs.ID.String(),
		"reason", string(reason),
		"actions_since_clue", p.ActionsSinceClue,
		"unchanged_actions", p.UnchangedActions)
	return reason
}

// capReached reports whether every character with a time entry in the
// current scene has used up its short actions.
func capReached(gs *state.GameState) bool {
	chars := gs.ScenarioTimeState.Characters
	if len(chars) == 0 {
		return false
	}
	mgr := state.NewManager(gs, nil)
	for name, ct := range chars {
		if ct.ShortActions < mgr.CapFor(name) {
			return false
		}
	}
	return true
}
