package state

import (
	"encoding/json"
	"slices"
)

// PromptState is a reduced game state for collaborator prompts.
type PromptState struct {
	Phase         Phase          `json:"phase"`
	Time          string         `json:"time"`
	Scenario      string         `json:"scenario,omitempty"`
	Location      string         `json:"location,omitempty"`
	Tension       int            `json:"tension"`
	Player        string         `json:"player"`
	NPCsPresent   []string       `json:"npcs_present,omitempty"`
	Clues         int            `json:"discovered_clues"`
	RecentActions []string       `json:"recent_actions,omitempty"`
	PendingScene  string         `json:"pending_scene_change,omitempty"`
	ShortActions  map[string]int `json:"short_actions,omitempty"`
	ActiveRules   []string       `json:"active_rules,omitempty"`
	LastNarrative string         `json:"last_narrative,omitempty"`
}

// recentActionCount is how many action results a summary carries.
const recentActionCount = 3

// ToPromptState builds the compact summary sent alongside player input.
func ToPromptState(gs *GameState) *PromptState {
	ps := &PromptState{
		Phase:         gs.Phase,
		Time:          gs.Clock.String(),
		Location:      gs.Location(),
		Tension:       gs.Tension,
		Player:        gs.Player.Name,
		Clues:         len(gs.DiscoveredClues),
		ActiveRules:   gs.TemporaryInfo.ActiveRules,
		LastNarrative: gs.LastNarrative,
	}
	if gs.CurrentScenario != nil {
		ps.Scenario = gs.CurrentScenario.Name
		ps.NPCsPresent = append(ps.NPCsPresent, gs.CurrentScenario.Characters...)
	}
	for _, npc := range gs.NPCsPresent() {
		if !slices.Contains(ps.NPCsPresent, npc.Name) {
			ps.NPCsPresent = append(ps.NPCsPresent, npc.Name)
		}
	}

	rs := gs.TemporaryInfo.ActionResults
	for _, r := range rs[max(0, len(rs)-recentActionCount):] {
		ps.RecentActions = append(ps.RecentActions, r.Character+": "+r.Result)
	}
	if sc := gs.TemporaryInfo.PendingSceneChange; sc != nil {
		ps.PendingScene = sc.Target
	}
	if len(gs.ScenarioTimeState.Characters) > 0 {
		ps.ShortActions = make(map[string]int, len(gs.ScenarioTimeState.Characters))
		for name, ct := range gs.ScenarioTimeState.Characters {
			ps.ShortActions[name] = ct.ShortActions
		}
	}
	return ps
}

// JSON renders the summary, or "{}" if it cannot be encoded.
func (ps *PromptState) JSON() string {
	data, err := json.Marshal(ps)
	if err != nil {
		return "{}"
	}
	return string(data)
}
