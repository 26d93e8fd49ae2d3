package state

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

const (
	VisitedScenarioLimit = 3  // newest first
	ActionResultLimit    = 10 // FIFO
	MinTension           = 1
	MaxTension           = 10
	DefaultTension       = 3
)

// Phase is the coarse stage of an investigation.
type Phase string

const (
	PhaseIntro         Phase = "intro"
	PhaseInvestigation Phase = "investigation"
	PhaseConfrontation Phase = "confrontation"
	PhaseDowntime      Phase = "downtime"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIntro, PhaseInvestigation, PhaseConfrontation, PhaseDowntime:
		return true
	}
	return false
}

// TimeConsumption classifies how much in-world time an action takes.
type TimeConsumption string

const (
	TimeInstant TimeConsumption = "instant"
	TimeShort   TimeConsumption = "short"
	TimeScene   TimeConsumption = "scene"
)

// Minutes maps the category to elapsed game minutes.
func (tc TimeConsumption) Minutes() int {
	switch tc {
	case TimeShort:
		return 10
	case TimeScene:
		return 60
	default:
		return 0
	}
}

// ParseTimeConsumption normalises a collaborator-supplied category,
// ignoring case and surrounding space. Anything unrecognised is treated as
// a short action.
func ParseTimeConsumption(s string) TimeConsumption {
	tc := TimeConsumption(strings.ToLower(strings.TrimSpace(s)))
	switch tc {
	case TimeInstant, TimeShort, TimeScene:
		return tc
	}
	return TimeShort
}

// ActionResult is the logged outcome of one resolved action.
type ActionResult struct {
	Timestamp       time.Time        `json:"timestamp"`
	GameTime        clock.Time       `json:"game_time"`
	Location        string           `json:"location,omitempty"`
	Character       string           `json:"character"`
	IsNPC           bool             `json:"is_npc,omitempty"`
	Result          string           `json:"result"`
	DiceRolls       []string         `json:"dice_rolls,omitempty"`
	TimeConsumption TimeConsumption  `json:"time_consumption"`
	ElapsedMinutes  int              `json:"elapsed_minutes"`
	ScenarioChanges []string         `json:"scenario_changes,omitempty"`
	Rejected        []string         `json:"rejected,omitempty"` // updates dropped at the boundary
	Failure         *failure.Outcome `json:"failure,omitempty"`
}

// DirectorDecision is the story director's verdict on whether to move on.
type DirectorDecision struct {
	ShouldProgress   bool           `json:"should_progress"`
	TargetSnapshotID string         `json:"target_snapshot_id,omitempty"`
	Reasoning        string         `json:"reasoning,omitempty"`
	ShortActionCaps  map[string]int `json:"short_action_caps,omitempty"` // character name -> cap
	Timestamp        time.Time      `json:"timestamp"`
}

// ActionAnalysis is the action agent's reading of the player's utterance.
type ActionAnalysis struct {
	Character string    `json:"character"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	IsNPC     bool      `json:"is_npc,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ReasonPlayerRequest = "player_request"
	ReasonMovedByNPC    = "moved_by_npc"
)

// SceneChange is a requested but not yet performed scenario swap.
type SceneChange struct {
	Target      string    `json:"target"`
	Reason      string    `json:"reason"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TemporaryInfo holds per-scene working data.
type TemporaryInfo struct {
	ActiveRules             []string          `json:"active_rules,omitempty"`
	ActionResults           []ActionResult    `json:"action_results,omitempty"`
	CurrentActionAnalysis   *ActionAnalysis   `json:"current_action_analysis,omitempty"`
	CurrentDirectorDecision *DirectorDecision `json:"current_director_decision,omitempty"`
	PendingSceneChange      *SceneChange      `json:"pending_scene_change,omitempty"`
	ProgressionPending      bool              `json:"progression_pending,omitempty"`
}

// CharacterTime tracks time spent by one character in the current scene.
type CharacterTime struct {
	ShortActions int `json:"short_actions"`
	Minutes      int `json:"minutes"`
}

// ScenarioTimeState tracks time within the current scene.
type ScenarioTimeState struct {
	SceneStart   clock.Time               `json:"scene_start"`
	Characters   map[string]CharacterTime `json:"characters,omitempty"`
	CapOverrides map[string]int           `json:"cap_overrides,omitempty"`
}

// ProgressionState is the progression monitor's memory between actions.
type ProgressionState struct {
	Baselined        bool   `json:"baselined"`
	ScenarioID       string `json:"scenario_id,omitempty"`
	LastClueCount    int    `json:"last_clue_count"`
	ActionsSinceClue int    `json:"actions_since_clue"`
	Fingerprint      string `json:"fingerprint,omitempty"`
	UnchangedActions int    `json:"unchanged_actions"`
}

// GameState is the mutable world model of one session.
type GameState struct {
	ID                uuid.UUID              `json:"id"`
	Phase             Phase                  `json:"phase"`
	CurrentScenario   *scenario.Snapshot     `json:"current_scenario,omitempty"`
	VisitedScenarios  []scenario.Ref         `json:"visited_scenarios,omitempty"`
	Clock             clock.Time             `json:"clock"`
	Tension           int                    `json:"tension"`
	DiscoveredClues   []string               `json:"discovered_clues,omitempty"`
	Player            actor.CharacterProfile `json:"player"`
	NPCs              []actor.NPCProfile     `json:"npcs,omitempty"`
	ScenarioTimeState ScenarioTimeState      `json:"scenario_time_state"`
	TemporaryInfo     TemporaryInfo          `json:"temporary_info"`
	Progression       ProgressionState       `json:"progression"`
	LastNarrative     string                 `json:"last_narrative,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// NewGameState returns a session with defaults: intro phase, day one at
// 08:00, default tension.
func NewGameState() *GameState {
	now := time.Now()
	start := clock.New(1, 8, 0)
	return &GameState{
		ID:      uuid.New(),
		Phase:   PhaseIntro,
		Clock:   start,
		Tension: DefaultTension,
		ScenarioTimeState: ScenarioTimeState{
			SceneStart: start,
			Characters: make(map[string]CharacterTime),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Location returns the current scenario's location, or "".
func (gs *GameState) Location() string {
	if gs.CurrentScenario == nil {
		return ""
	}
	return gs.CurrentScenario.Location
}

// ScenarioID returns the current scenario snapshot's id, or "".
func (gs *GameState) ScenarioID() string {
	if gs.CurrentScenario == nil {
		return ""
	}
	return gs.CurrentScenario.ID
}
