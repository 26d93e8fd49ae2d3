package actor

import (
	"slices"
	"strings"
)

const (
	MinAttitude = -100
	MaxAttitude = 100
)

// Clue is a piece of information an NPC can give up.
type Clue struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Revealed bool   `json:"revealed,omitempty"`
}

// Relationship is an NPC's stance toward another character.
type Relationship struct {
	Target   string `json:"target"`
	Type     string `json:"type,omitempty"` // e.g. "ally", "rival", "family"
	Attitude int    `json:"attitude"`       // -100..100
}

// NPCProfile is a non-player character.
type NPCProfile struct {
	CharacterProfile
	Occupation      string         `json:"occupation,omitempty"`
	Age             int            `json:"age,omitempty"`
	Appearance      string         `json:"appearance,omitempty"`
	Personality     string         `json:"personality,omitempty"`
	Background      string         `json:"background,omitempty"`
	Goals           []string       `json:"goals,omitempty"`
	Secrets         []string       `json:"secrets,omitempty"`
	Clues           []Clue         `json:"clues,omitempty"`
	Relationships   []Relationship `json:"relationships,omitempty"`
	CurrentLocation string         `json:"current_location,omitempty"`
}

// ApplyDelta applies the shared character delta, then reveals clues and
// shifts relationships. Unknown clue ids are returned in missing.
func (n *NPCProfile) ApplyDelta(d Delta) (clamped []string, missing []string) {
	clamped = n.CharacterProfile.ApplyDelta(d)

	for _, id := range d.RevealClues {
		if !n.RevealClue(id) {
			missing = append(missing, id)
		}
	}
	for _, rc := range d.Relationships {
		if n.AdjustRelationship(rc.Target, rc.Type, rc.Attitude) {
			clamped = append(clamped, "attitude:"+rc.Target)
		}
	}
	return clamped, missing
}

// RevealClue marks the clue with the given id (or exact text) as revealed.
func (n *NPCProfile) RevealClue(id string) bool {
	for i := range n.Clues {
		if strings.EqualFold(n.Clues[i].ID, id) || strings.EqualFold(n.Clues[i].Text, id) {
			n.Clues[i].Revealed = true
			return true
		}
	}
	return false
}

// RevealedClues returns the texts of all revealed clues.
func (n *NPCProfile) RevealedClues() []string {
	var out []string
	for _, c := range n.Clues {
		if c.Revealed {
			out = append(out, c.Text)
		}
	}
	return out
}

// AdjustRelationship shifts the attitude toward target by delta, creating
// the relationship if needed. It reports whether the result was clamped.
func (n *NPCProfile) AdjustRelationship(target, kind string, delta int) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	i := slices.IndexFunc(n.Relationships, func(r Relationship) bool {
		return strings.EqualFold(r.Target, target)
	})
	if i < 0 {
		n.Relationships = append(n.Relationships, Relationship{Target: target, Type: kind})
		i = len(n.Relationships) - 1
	}
	r := &n.Relationships[i]
	if kind != "" {
		r.Type = kind
	}
	next := r.Attitude + delta
	r.Attitude = min(max(next, MinAttitude), MaxAttitude)
	return r.Attitude != next
}
