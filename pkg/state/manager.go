package state

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

// Manager exposes the merge operations on a GameState. It holds no state
// of its own; every method mutates the GameState in place.
type Manager struct {
	gs     *GameState
	logger *slog.Logger
	now    func() time.Time
}

// NewManager returns a Manager for gs.
func NewManager(gs *GameState, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{gs: gs, logger: logger, now: time.Now}
}

// State returns the managed GameState.
func (m *Manager) State() *GameState { return m.gs }

func (m *Manager) touch() { m.gs.UpdatedAt = m.now() }

// UpdateScenario makes next the current scenario. The outgoing snapshot is
// recorded at the front of the visit history, short-action counters are
// reset and the scene start is re-based on next's declared time. The same
// happens when next is the current location at a later time.
func (m *Manager) UpdateScenario(next *scenario.Snapshot) {
	if next == nil {
		return
	}
	gs := m.gs

	if prev := gs.CurrentScenario; prev != nil {
		ref := prev.Ref()
		gs.VisitedScenarios = slices.DeleteFunc(gs.VisitedScenarios, func(r scenario.Ref) bool {
			return r.ID == ref.ID
		})
		gs.VisitedScenarios = slices.Insert(gs.VisitedScenarios, 0, ref)
		if len(gs.VisitedScenarios) > VisitedScenarioLimit {
			gs.VisitedScenarios = gs.VisitedScenarios[:VisitedScenarioLimit]
		}
	}

	gs.CurrentScenario = next
	if !next.TimePoint.IsZero() && gs.Clock.Before(next.TimePoint) {
		gs.Clock = next.TimePoint
	}

	start := next.TimePoint
	if start.IsZero() {
		start = gs.Clock
	}
	gs.ScenarioTimeState = ScenarioTimeState{
		SceneStart: start,
		Characters: make(map[string]CharacterTime),
	}
	gs.Progression = ProgressionState{}
	gs.TemporaryInfo.PendingSceneChange = nil
	gs.TemporaryInfo.ProgressionPending = false
	m.touch()

	m.logger.Info("Scenario updated",
		"game_state_id", gs.ID.String(),
		"scenario_id", next.ID,
		"name", next.Name,
		"scene_start", start.String(),
		"visited", len(gs.VisitedScenarios))
}

// AddActionResult appends r, evicting the oldest results beyond
// ActionResultLimit.
func (m *Manager) AddActionResult(r ActionResult) {
	ti := &m.gs.TemporaryInfo
	ti.ActionResults = append(ti.ActionResults, r)
	if over := len(ti.ActionResults) - ActionResultLimit; over > 0 {
		ti.ActionResults = slices.Delete(ti.ActionResults, 0, over)
	}
	m.touch()
}

// LastActionResult returns the most recent result, if any.
func (m *Manager) LastActionResult() (ActionResult, bool) {
	rs := m.gs.TemporaryInfo.ActionResults
	if len(rs) == 0 {
		return ActionResult{}, false
	}
	return rs[len(rs)-1], true
}

// AdvanceClock moves the global game clock forward by minutes.
func (m *Manager) AdvanceClock(minutes int) {
	if minutes <= 0 {
		return
	}
	m.gs.Clock = m.gs.Clock.Add(minutes)
	m.touch()
}

// CapFor returns the short-action cap that applies to character.
func (m *Manager) CapFor(character string) int {
	if c, ok := m.gs.ScenarioTimeState.CapOverrides[character]; ok && c > 0 {
		return c
	}
	return m.gs.CurrentScenario.Cap()
}

// RecordTimeConsumption notes time spent by character in the current scene.
// A short action counts toward the cap; a scene-length action exhausts it.
// Instant actions leave no entry.
func (m *Manager) RecordTimeConsumption(character string, tc TimeConsumption, minutes int) {
	if character == "" || tc == TimeInstant {
		return
	}
	ts := &m.gs.ScenarioTimeState
	if ts.Characters == nil {
		ts.Characters = make(map[string]CharacterTime)
	}
	entry := ts.Characters[character]
	switch tc {
	case TimeShort:
		entry.ShortActions++
	case TimeScene:
		entry.ShortActions = max(entry.ShortActions, m.CapFor(character))
	}
	entry.Minutes += minutes
	ts.Characters[character] = entry
}

// AddDiscoveredClue adds clue to the discovered set. It reports whether the
// clue was new.
func (m *Manager) AddDiscoveredClue(clue string) bool {
	clue = strings.TrimSpace(clue)
	if clue == "" || slices.Contains(m.gs.DiscoveredClues, clue) {
		return false
	}
	m.gs.DiscoveredClues = append(m.gs.DiscoveredClues, clue)
	m.touch()
	return true
}

// AdjustTension shifts tension by delta, clamped to MinTension..MaxTension.
func (m *Manager) AdjustTension(delta int) int {
	next := m.gs.Tension + delta
	m.gs.Tension = min(max(next, MinTension), MaxTension)
	if m.gs.Tension != next {
		m.logger.Debug("Tension clamped",
			"game_state_id", m.gs.ID.String(),
			"requested", next,
			"tension", m.gs.Tension)
	}
	return m.gs.Tension
}

// SetPhase moves the session to phase p. Unknown phases are ignored.
func (m *Manager) SetPhase(p Phase) bool {
	if !p.Valid() {
		m.logger.Warn("Ignoring unknown phase", "phase", string(p))
		return false
	}
	m.gs.Phase = p
	m.touch()
	return true
}

// SetPendingSceneChange records a scene change for the director to act on.
// A later request replaces an earlier one.
func (m *Manager) SetPendingSceneChange(sc SceneChange) {
	if sc.Timestamp.IsZero() {
		sc.Timestamp = m.now()
	}
	m.gs.TemporaryInfo.PendingSceneChange = &sc
}

// ApplyDirectorDecision stores d and applies its short-action cap
// adjustments to the current scene.
func (m *Manager) ApplyDirectorDecision(d DirectorDecision) {
	if d.Timestamp.IsZero() {
		d.Timestamp = m.now()
	}
	m.gs.TemporaryInfo.CurrentDirectorDecision = &d

	ts := &m.gs.ScenarioTimeState
	for name, c := range d.ShortActionCaps {
		if c <= 0 {
			continue
		}
		if ts.CapOverrides == nil {
			ts.CapOverrides = make(map[string]int)
		}
		ts.CapOverrides[name] = c
	}
	m.touch()
}

// SetActiveRules replaces the rules retrieved for the current turn.
func (m *Manager) SetActiveRules(rules []string) {
	m.gs.TemporaryInfo.ActiveRules = rules
}
