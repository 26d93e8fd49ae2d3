package state

import (
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// CharacterRef points at a character inside a GameState. NPC is nil when
// the reference is to the player.
type CharacterRef struct {
	Profile *actor.CharacterProfile
	NPC     *actor.NPCProfile
}

// IsPlayer reports whether the reference is the player character.
func (r CharacterRef) IsPlayer() bool { return r.Profile != nil && r.NPC == nil }

// Name returns the referenced character's name.
func (r CharacterRef) Name() string {
	if r.Profile == nil {
		return ""
	}
	return r.Profile.Name
}

// FindCharacter resolves query against the player and every NPC by id or
// name. The best match wins; ties go to the player, then to the earlier NPC.
func (gs *GameState) FindCharacter(query string) (CharacterRef, bool) {
	best := textfilter.MatchNone
	var ref CharacterRef

	if score := gs.Player.Matches(query); score > best {
		best = score
		ref = CharacterRef{Profile: &gs.Player}
	}
	for i := range gs.NPCs {
		if score := gs.NPCs[i].Matches(query); score > best {
			best = score
			ref = CharacterRef{Profile: &gs.NPCs[i].CharacterProfile, NPC: &gs.NPCs[i]}
		}
	}
	return ref, best > textfilter.MatchNone
}

// FindNPC resolves query against NPCs only.
func (gs *GameState) FindNPC(query string) (*actor.NPCProfile, bool) {
	best := textfilter.MatchNone
	var found *actor.NPCProfile
	for i := range gs.NPCs {
		if score := gs.NPCs[i].Matches(query); score > best {
			best = score
			found = &gs.NPCs[i]
		}
	}
	return found, found != nil
}

// IsPlayer reports whether name resolves to the player character.
func (gs *GameState) IsPlayer(name string) bool {
	ref, ok := gs.FindCharacter(name)
	return ok && ref.IsPlayer()
}

// NPCsAt returns the NPCs whose current location matches location.
func (gs *GameState) NPCsAt(location string) []*actor.NPCProfile {
	var out []*actor.NPCProfile
	folded := textfilter.Fold(location)
	for i := range gs.NPCs {
		if folded != "" && textfilter.Fold(gs.NPCs[i].CurrentLocation) == folded {
			out = append(out, &gs.NPCs[i])
		}
	}
	return out
}

// NPCsPresent returns the NPCs in the current scene, matched by either the
// scenario name or its location.
func (gs *GameState) NPCsPresent() []*actor.NPCProfile {
	s := gs.CurrentScenario
	if s == nil {
		return nil
	}
	out := gs.NPCsAt(s.Name)
	if !strings.EqualFold(strings.TrimSpace(s.Location), strings.TrimSpace(s.Name)) {
		for _, npc := range gs.NPCsAt(s.Location) {
			if !slices.Contains(out, npc) {
				out = append(out, npc)
			}
		}
	}
	return out
}
