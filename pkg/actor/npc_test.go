package actor

import (
	"slices"
	"testing"
)

func TestNPCApplyDelta(t *testing.T) {
	n := &NPCProfile{
		CharacterProfile: CharacterProfile{ID: "npc-armitage", Name: "Henry Armitage", Status: Status{HP: 9, MaxHP: 9}},
		Clues: []Clue{
			{ID: "c1", Text: "The Necronomicon is missing a page"},
			{ID: "c2", Text: "Wilbur visited the library twice"},
		},
		Relationships: []Relationship{{Target: "Harvey Walters", Type: "ally", Attitude: 90}},
	}

	clamped, missing := n.ApplyDelta(Delta{
		HP:          -3,
		RevealClues: []string{"c2", "c9"},
		Relationships: []RelationshipChange{
			{Target: "harvey walters", Attitude: 25},
			{Target: "Wilbur Whateley", Type: "enemy", Attitude: -40},
		},
	})

	if n.Status.HP != 6 {
		t.Errorf("hp = %d, want 6", n.Status.HP)
	}
	if !slices.Equal(missing, []string{"c9"}) {
		t.Errorf("missing = %v", missing)
	}
	if !slices.Equal(clamped, []string{"attitude:harvey walters"}) {
		t.Errorf("clamped = %v", clamped)
	}
	if n.Relationships[0].Attitude != MaxAttitude {
		t.Errorf("attitude = %d, want %d", n.Relationships[0].Attitude, MaxAttitude)
	}
	if len(n.Relationships) != 2 || n.Relationships[1].Type != "enemy" || n.Relationships[1].Attitude != -40 {
		t.Errorf("relationships = %+v", n.Relationships)
	}
	if got := n.RevealedClues(); !slices.Equal(got, []string{"Wilbur visited the library twice"}) {
		t.Errorf("revealed = %v", got)
	}
}

func TestAdjustRelationship_ClampLow(t *testing.T) {
	n := &NPCProfile{}
	if !n.AdjustRelationship("cultist", "", -250) {
		t.Error("expected clamp")
	}
	if n.Relationships[0].Attitude != MinAttitude {
		t.Errorf("attitude = %d", n.Relationships[0].Attitude)
	}
	if n.AdjustRelationship("  ", "", 10) {
		t.Error("blank target should be ignored")
	}
}
