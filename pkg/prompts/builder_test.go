package prompts

import (
	"strings"
	"testing"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

func TestBuilder_Build(t *testing.T) {
	gs := state.NewGameState()
	gs.Player.Name = "Harvey Walters"

	msgs, err := New("SYSTEM").
		WithGameState(gs).
		WithSection("Empty", "   ").
		WithList("Items", []string{"a", "b"}).
		WithList("None", nil).
		WithUserMessage("hello").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Role != chat.ChatRoleSystem || msgs[1].Role != chat.ChatRoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
	sys := msgs[0].Content
	for _, want := range []string{"SYSTEM", "### Game State", `"player":"Harvey Walters"`, "### Items\n- a\n- b"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q:\n%s", want, sys)
		}
	}
	for _, unwanted := range []string{"### Empty", "### None"} {
		if strings.Contains(sys, unwanted) {
			t.Errorf("system prompt should not contain %q", unwanted)
		}
	}
}

func TestBuilder_RequiresSystem(t *testing.T) {
	if _, err := New(" ").Build(); err == nil {
		t.Error("expected error without system prompt")
	}
}

func TestResolver(t *testing.T) {
	msgs, err := Resolver(ResolverContext{
		Actor:           "Wilbur Whateley",
		IsNPC:           true,
		Action:          "slams the door",
		ActorSheet:      "Wilbur sheet",
		Scenario:        &scenario.Snapshot{Name: "Whateley Farm", Exits: []scenario.Exit{{Direction: "east", Destination: "Sentinel Hill", Blocked: true}}},
		ReachableScenes: []string{"Sentinel Hill"},
		Dice:            []string{"d20: 12"},
		Checks:          []string{"str (70): rolled 12, hard success"},
		ResponseType:    "action",
		ResponseNote:    "angry",
	})
	if err != nil {
		t.Fatal(err)
	}
	sys := msgs[0].Content
	for _, want := range []string{"d20: 12", "rolled 12, hard success", "Wilbur sheet", "Exit east to Sentinel Hill (blocked)", "Type: action"} {
		if !strings.Contains(sys, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(sys, "Previous Narration") {
		t.Error("empty narration section should be omitted")
	}
	if msgs[1].Content != "Wilbur Whateley attempts: slams the door" {
		t.Errorf("user message = %q", msgs[1].Content)
	}
}

func TestClassifier_ListsAgents(t *testing.T) {
	msgs, err := Classifier(state.NewGameState(), "I search the desk", []string{"memory", "action"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msgs[0].Content, "- action: resolves an attempted action") {
		t.Error("agent descriptions missing")
	}
	if strings.Contains(msgs[0].Content, "- director") {
		t.Error("unlisted agent leaked into prompt")
	}
}
