package state

import (
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

func testCatalog() *scenario.MemoryCatalog {
	return scenario.NewMemoryCatalog(
		scenario.Snapshot{ID: "farm-day", Name: "Whateley Farm", Location: "Dunwich", TimePoint: clock.New(1, 10, 0)},
		scenario.Snapshot{ID: "village", Name: "Dunwich Village", Location: "Dunwich", TimePoint: clock.New(1, 12, 0)},
		scenario.Snapshot{ID: "hill", Name: "Sentinel Hill", Location: "Dunwich", TimePoint: clock.New(1, 22, 0), ShortActionCap: 2},
		scenario.Snapshot{ID: "library", Name: "Orne Library", Location: "Arkham", TimePoint: clock.New(2, 9, 0)},
	)
}

func testGameState() *GameState {
	gs := NewGameState()
	gs.Player = actor.CharacterProfile{
		ID:     "player",
		Name:   "Harvey Walters",
		Status: actor.Status{HP: 10, MaxHP: 11, Sanity: 60, MaxSanity: 99, Luck: 50},
	}
	gs.NPCs = []actor.NPCProfile{
		{
			CharacterProfile: actor.CharacterProfile{ID: "armitage", Name: "Henry Armitage", Status: actor.Status{HP: 9, MaxHP: 9}},
			CurrentLocation:  "Orne Library",
			Clues:            []actor.Clue{{ID: "page", Text: "A page is missing from the Necronomicon"}},
		},
		{
			CharacterProfile: actor.CharacterProfile{ID: "wilbur", Name: "Wilbur Whateley", Status: actor.Status{HP: 14, MaxHP: 14}},
			CurrentLocation:  "Whateley Farm",
		},
	}
	return gs
}
