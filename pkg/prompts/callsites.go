package prompts

import (
	"fmt"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

// Classifier builds the routing request for utterance.
func Classifier(gs *state.GameState, utterance string, agents []string) ([]chat.ChatMessage, error) {
	var sb strings.Builder
	for _, a := range agents {
		fmt.Fprintf(&sb, "- %s: %s\n", a, AgentDescriptions[a])
	}
	return New(fmt.Sprintf(ClassifierPrompt, strings.TrimRight(sb.String(), "\n"))).
		WithGameState(gs).
		WithUserMessage(utterance).
		Build()
}

// ResolverContext is everything the resolver sees about one action.
type ResolverContext struct {
	Actor           string
	ActorSheet      string
	IsNPC           bool
	Action          string
	TargetSheet     string
	Scenario        *scenario.Snapshot
	ReachableScenes []string
	Narrative       string // previous narration; player actions only
	ActiveRules     []string
	Dice            []string
	Checks          []string // percentile checks already rolled
	ResponseType    string // NPC responses only
	ResponseNote    string
	GameTime        string
}

// Resolver builds the resolution request for one action.
func Resolver(rc ResolverContext) ([]chat.ChatMessage, error) {
	b := New(ResolverPrompt).
		WithList("Pre-rolled Dice", rc.Dice).
		WithList("Pre-rolled Checks", rc.Checks).
		WithSection("Acting Character", rc.ActorSheet).
		WithSection("Target", rc.TargetSheet).
		WithSection("Game Time", rc.GameTime)

	if s := rc.Scenario; s != nil {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s (%s). %s", s.Name, s.Location, s.Description)
		for _, c := range s.Conditions {
			fmt.Fprintf(&sb, "\n%s: %s", c.Type, c.Description)
		}
		for _, e := range s.Exits {
			blocked := ""
			if e.Blocked {
				blocked = " (blocked)"
			}
			fmt.Fprintf(&sb, "\nExit %s to %s%s", e.Direction, e.Destination, blocked)
		}
		b.WithSection("Current Scene", sb.String())
	}
	b.WithList("Known Scenes", rc.ReachableScenes).
		WithList("Active Rules", rc.ActiveRules).
		WithSection("Previous Narration", rc.Narrative)

	if rc.IsNPC {
		b.WithSection("NPC Response", fmt.Sprintf("Type: %s\n%s", rc.ResponseType, rc.ResponseNote))
	}
	return b.WithUserMessage(fmt.Sprintf("%s attempts: %s", rc.Actor, rc.Action)).Build()
}

// Characters builds the NPC reaction request.
func Characters(gs *state.GameState, latest string, npcSheets []string) ([]chat.ChatMessage, error) {
	return New(CharacterPrompt).
		WithGameState(gs).
		WithList("NPCs Present", npcSheets).
		WithUserMessage("What just happened: " + latest).
		Build()
}

// Director builds the progression request. reason explains why the
// director was consulted.
func Director(gs *state.GameState, candidates []scenario.Snapshot, reason string) ([]chat.ChatMessage, error) {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("%s: %s (%s, %s)", c.ID, c.Name, c.Location, c.TimePoint))
	}
	return New(DirectorPrompt).
		WithGameState(gs).
		WithList("Candidate Scenes", lines).
		WithUserMessage(reason).
		Build()
}

// Synthesizer builds the narration request from the turn's results.
func Synthesizer(gs *state.GameState, utterance string, results []string) ([]chat.ChatMessage, error) {
	return New(SynthesizerPrompt).
		WithGameState(gs).
		WithList("Results This Turn", results).
		WithUserMessage(utterance).
		Build()
}
