package scenario

import (
	"slices"
	"testing"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
)

func library() Snapshot {
	return Snapshot{
		ID:          "lib-night",
		ScenarioID:  "dunwich",
		Name:        "Orne Library",
		Location:    "Miskatonic University",
		TimePoint:   clock.New(1, 21, 0),
		Description: "Dim stacks and a locked rare-books room.",
		Conditions:  []Condition{{Type: "lighting", Description: "gas lamps"}},
		Exits: []Exit{
			{Direction: "north", Destination: "Rare Books Room", Blocked: true},
			{Direction: "south", Destination: "Campus Green"},
		},
	}
}

func TestSnapshot_Merges(t *testing.T) {
	s := library()

	s.MergeCondition(Condition{Type: "Lighting", Description: "darkness"})
	s.MergeCondition(Condition{Type: "noise", Description: "scratching"})
	s.MergeCondition(Condition{Type: " ", Description: "ignored"})
	if len(s.Conditions) != 2 || s.Conditions[0].Description != "darkness" {
		t.Errorf("conditions = %+v", s.Conditions)
	}

	s.MergeExit(Exit{Direction: "North", Destination: "Rare Books Room"})
	s.MergeExit(Exit{Direction: "up", Destination: "Bell Tower"})
	if len(s.Exits) != 3 || s.Exits[0].Blocked {
		t.Errorf("exits = %+v", s.Exits)
	}

	s.AddPermanentChange("window smashed")
	s.AddPermanentChange("window smashed")
	if len(s.PermanentChanges) != 1 {
		t.Errorf("permanent changes = %v", s.PermanentChanges)
	}

	s.AddEvent("  ")
	s.AddEvent("a bell tolls")
	if !slices.Equal(s.Events, []string{"a bell tolls"}) {
		t.Errorf("events = %v", s.Events)
	}
}

func TestSnapshot_CapAndRef(t *testing.T) {
	s := library()
	if s.Cap() != DefaultShortActionCap {
		t.Errorf("Cap() = %d", s.Cap())
	}
	s.ShortActionCap = 5
	if s.Cap() != 5 {
		t.Errorf("Cap() = %d", s.Cap())
	}
	var nilSnap *Snapshot
	if nilSnap.Cap() != DefaultShortActionCap {
		t.Error("nil snapshot should use default cap")
	}

	ref := s.Ref()
	if ref.ID != "lib-night" || ref.ScenarioID != "dunwich" || ref.TimePoint != s.TimePoint {
		t.Errorf("Ref() = %+v", ref)
	}
}

func TestSnapshot_Destinations(t *testing.T) {
	s := library()
	if got := s.Destinations(); !slices.Equal(got, []string{"Campus Green"}) {
		t.Errorf("Destinations() = %v", got)
	}
}

func TestMemoryCatalog(t *testing.T) {
	green := Snapshot{ID: "green", Name: "Campus Green"}
	c := NewMemoryCatalog(library(), green, Snapshot{ID: "green", Name: "Duplicate"})

	if len(c.List()) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(c.List()))
	}
	if s, ok := c.Lookup("  campus green "); !ok || s.ID != "green" {
		t.Errorf("Lookup() = %+v, %v", s, ok)
	}
	if _, ok := c.Lookup("Campus"); ok {
		t.Error("Lookup must not match partial names")
	}
	if _, ok := c.Get("lib-night"); !ok {
		t.Error("Get() by id failed")
	}

	got, _ := c.Lookup("Orne Library")
	got.Exits[0].Blocked = false
	again, _ := c.Lookup("Orne Library")
	if !again.Exits[0].Blocked {
		t.Error("catalog entry mutated through a returned copy")
	}

	if names := Names(c); !slices.Equal(names, []string{"Orne Library", "Campus Green"}) {
		t.Errorf("Names() = %v", names)
	}
}

func TestValidate(t *testing.T) {
	ok := []Snapshot{library(), {ID: "rare", Name: "Rare Books Room"}, {ID: "green", Name: "Campus Green"}}
	if errs := Validate(ok); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}

	bad := []Snapshot{
		library(),
		{ID: "lib-night", Name: "Orne Library"},
		{Name: "No ID"},
		{ID: "x", Name: "X", ShortActionCap: -1, Exits: []Exit{{Direction: "east", Destination: "Nowhere"}, {Direction: "EAST"}}},
	}
	errs := Validate(bad)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	// Per-snapshot problems come first, then exits: two unknown destinations
	// from the library, then an unknown destination and a repeated direction on x.
	want := []string{"id", "name", "id", "short_action_cap", "exits", "exits", "exits", "exits"}
	if !slices.Equal(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}
