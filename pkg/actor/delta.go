package actor

import (
	"slices"
	"strings"
)

// Delta is a differential change to a character. Every numeric field is
// added to the current value; zero means no change.
type Delta struct {
	HP               int            `json:"hp,omitempty"`
	MaxHP            int            `json:"max_hp,omitempty"`
	Sanity           int            `json:"sanity,omitempty"`
	MaxSanity        int            `json:"max_sanity,omitempty"`
	Luck             int            `json:"luck,omitempty"`
	MP               int            `json:"mp,omitempty"`
	AddConditions    []string       `json:"add_conditions,omitempty"`
	RemoveConditions []string       `json:"remove_conditions,omitempty"`
	Characteristics  map[string]int `json:"characteristics,omitempty"`
	Skills           map[string]int `json:"skills,omitempty"`

	// NPC only; ignored for the player.
	RevealClues   []string             `json:"reveal_clues,omitempty"`
	Relationships []RelationshipChange `json:"relationships,omitempty"`
}

// RelationshipChange shifts an NPC's attitude toward Target by Attitude.
type RelationshipChange struct {
	Target   string `json:"target"`
	Type     string `json:"type,omitempty"`
	Attitude int    `json:"attitude"`
}

// IsEmpty reports whether d changes nothing.
func (d Delta) IsEmpty() bool {
	return d.HP == 0 && d.MaxHP == 0 && d.Sanity == 0 && d.MaxSanity == 0 &&
		d.Luck == 0 && d.MP == 0 &&
		len(d.AddConditions) == 0 && len(d.RemoveConditions) == 0 &&
		len(d.Characteristics) == 0 && len(d.Skills) == 0 &&
		len(d.RevealClues) == 0 && len(d.Relationships) == 0
}

// ApplyDelta adds d to the character. Values that would go negative or
// exceed their maximum are clamped; the names of clamped fields are
// returned so callers can log them.
func (c *CharacterProfile) ApplyDelta(d Delta) []string {
	var clamped []string
	add := func(name string, v *int, delta int) {
		if delta == 0 {
			return
		}
		if next := *v + delta; next < 0 {
			*v = 0
			clamped = append(clamped, name)
		} else {
			*v = next
		}
	}

	s := &c.Status
	add("max_hp", &s.MaxHP, d.MaxHP)
	add("hp", &s.HP, d.HP)
	add("max_sanity", &s.MaxSanity, d.MaxSanity)
	add("sanity", &s.Sanity, d.Sanity)
	add("luck", &s.Luck, d.Luck)
	add("mp", &s.MP, d.MP)

	if s.MaxHP > 0 && s.HP > s.MaxHP {
		s.HP = s.MaxHP
		clamped = append(clamped, "hp")
	}
	if s.MaxSanity > 0 && s.Sanity > s.MaxSanity {
		s.Sanity = s.MaxSanity
		clamped = append(clamped, "sanity")
	}

	for _, key := range sortedKeys(d.Characteristics) {
		if f := c.Characteristics.field(key); f != nil {
			add(strings.ToLower(key), f, d.Characteristics[key])
		}
	}

	for _, key := range sortedKeys(d.Skills) {
		if c.Skills == nil {
			c.Skills = make(map[string]int)
		}
		name := c.skillKey(key)
		v := c.Skills[name]
		add("skill:"+name, &v, d.Skills[key])
		c.Skills[name] = v
	}

	for _, cond := range d.AddConditions {
		cond = strings.TrimSpace(cond)
		if cond != "" && !c.HasCondition(cond) {
			s.Conditions = append(s.Conditions, cond)
		}
	}
	for _, cond := range d.RemoveConditions {
		s.Conditions = slices.DeleteFunc(s.Conditions, func(x string) bool {
			return strings.EqualFold(x, strings.TrimSpace(cond))
		})
	}

	return clamped
}

// skillKey returns the existing skill name matching key case-insensitively,
// or key itself for a new skill.
func (c *CharacterProfile) skillKey(key string) string {
	for name := range c.Skills {
		if strings.EqualFold(name, key) {
			return name
		}
	}
	return key
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
