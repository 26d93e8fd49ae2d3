package actor

import (
	"slices"
	"strings"
	"time"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// ActionLogLimit bounds the per-character action log.
const ActionLogLimit = 20

// Characteristics are the eight core investigator characteristics.
type Characteristics struct {
	STR int `json:"str"`
	CON int `json:"con"`
	SIZ int `json:"siz"`
	DEX int `json:"dex"`
	APP int `json:"app"`
	INT int `json:"int"`
	POW int `json:"pow"`
	EDU int `json:"edu"`
}

// CharacteristicKeys lists the accepted characteristic names in sheet order.
var CharacteristicKeys = []string{"str", "con", "siz", "dex", "app", "int", "pow", "edu"}

// IsCharacteristic reports whether key names one of the eight characteristics.
func IsCharacteristic(key string) bool {
	return slices.Contains(CharacteristicKeys, strings.ToLower(key))
}

// field returns a pointer to the named characteristic, or nil.
func (c *Characteristics) field(key string) *int {
	switch strings.ToLower(key) {
	case "str":
		return &c.STR
	case "con":
		return &c.CON
	case "siz":
		return &c.SIZ
	case "dex":
		return &c.DEX
	case "app":
		return &c.APP
	case "int":
		return &c.INT
	case "pow":
		return &c.POW
	case "edu":
		return &c.EDU
	}
	return nil
}

// ToAttributes converts the characteristics to a lowercase keyed map.
func (c Characteristics) ToAttributes() map[string]int {
	return map[string]int{
		"str": c.STR, "con": c.CON, "siz": c.SIZ, "dex": c.DEX,
		"app": c.APP, "int": c.INT, "pow": c.POW, "edu": c.EDU,
	}
}

// Status holds the derived, frequently changing values of a character.
type Status struct {
	HP         int      `json:"hp"`
	MaxHP      int      `json:"max_hp"`
	Sanity     int      `json:"sanity"`
	MaxSanity  int      `json:"max_sanity"`
	Luck       int      `json:"luck"`
	MP         int      `json:"mp"`
	Conditions []string `json:"conditions,omitempty"` // e.g. "bleeding", "temporary insanity"
}

// ActionLogEntry is one line of a character's personal history.
type ActionLogEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	GameTime  clock.Time `json:"game_time"`
	Location  string     `json:"location,omitempty"`
	Summary   string     `json:"summary"`
}

// CharacterProfile is a player investigator or the shared part of an NPC.
type CharacterProfile struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Characteristics Characteristics  `json:"characteristics"`
	Status          Status           `json:"status"`
	Inventory       []Item           `json:"inventory,omitempty"`
	Skills          map[string]int   `json:"skills,omitempty"`
	ActionLog       []ActionLogEntry `json:"action_log,omitempty"`
}

// Matches reports how well query matches this character's id or name.
func (c *CharacterProfile) Matches(query string) int {
	return max(textfilter.MatchName(c.ID, query), textfilter.MatchName(c.Name, query))
}

// RecordAction appends an entry to the action log, dropping the oldest
// entries beyond ActionLogLimit.
func (c *CharacterProfile) RecordAction(entry ActionLogEntry) {
	c.ActionLog = append(c.ActionLog, entry)
	if over := len(c.ActionLog) - ActionLogLimit; over > 0 {
		c.ActionLog = slices.Delete(c.ActionLog, 0, over)
	}
}

// HasCondition reports whether the character currently suffers cond.
func (c *CharacterProfile) HasCondition(cond string) bool {
	return slices.ContainsFunc(c.Status.Conditions, func(s string) bool {
		return strings.EqualFold(s, cond)
	})
}
