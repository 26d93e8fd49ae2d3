package scenario

import (
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/clock"
)

// DefaultShortActionCap is the number of short actions each character may
// take in a scene before the scene is considered exhausted.
const DefaultShortActionCap = 3

// Condition is an environmental condition, unique by Type within a snapshot.
type Condition struct {
	Type        string `json:"type"` // e.g. "weather", "lighting", "noise"
	Description string `json:"description"`
}

// Exit leads from a snapshot toward another, unique by Direction.
type Exit struct {
	Direction   string `json:"direction"`
	Destination string `json:"destination"` // snapshot name
	Description string `json:"description,omitempty"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// Snapshot is a point-in-time description of one location in a scenario.
type Snapshot struct {
	ID               string      `json:"id"`
	ScenarioID       string      `json:"scenario_id,omitempty"` // parent scenario
	Name             string      `json:"name"`
	Location         string      `json:"location"`
	TimePoint        clock.Time  `json:"time_point"`
	Description      string      `json:"description"`
	Characters       []string    `json:"characters,omitempty"` // names of NPCs present
	Clues            []string    `json:"clues,omitempty"`
	Conditions       []Condition `json:"conditions,omitempty"`
	Events           []string    `json:"events,omitempty"`
	Exits            []Exit      `json:"exits,omitempty"`
	PermanentChanges []string    `json:"permanent_changes,omitempty"`
	ShortActionCap   int         `json:"short_action_cap,omitempty"` // 0 means DefaultShortActionCap
}

// Ref is the reduced projection of a snapshot kept in visit history.
type Ref struct {
	ID         string     `json:"id"`
	ScenarioID string     `json:"scenario_id,omitempty"`
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	TimePoint  clock.Time `json:"time_point"`
}

// Ref returns the reduced projection of s.
func (s *Snapshot) Ref() Ref {
	return Ref{
		ID:         s.ID,
		ScenarioID: s.ScenarioID,
		Name:       s.Name,
		Location:   s.Location,
		TimePoint:  s.TimePoint,
	}
}

// Cap returns the short-action cap declared by the snapshot, or the default.
func (s *Snapshot) Cap() int {
	if s == nil || s.ShortActionCap <= 0 {
		return DefaultShortActionCap
	}
	return s.ShortActionCap
}

// Clone returns a deep copy so a catalog entry is never mutated through
// the game state.
func (s Snapshot) Clone() *Snapshot {
	c := s
	c.Characters = slices.Clone(s.Characters)
	c.Clues = slices.Clone(s.Clues)
	c.Conditions = slices.Clone(s.Conditions)
	c.Events = slices.Clone(s.Events)
	c.Exits = slices.Clone(s.Exits)
	c.PermanentChanges = slices.Clone(s.PermanentChanges)
	return &c
}

// MergeCondition replaces the condition with the same type or appends it.
func (s *Snapshot) MergeCondition(c Condition) {
	if strings.TrimSpace(c.Type) == "" {
		return
	}
	if i := slices.IndexFunc(s.Conditions, func(x Condition) bool {
		return strings.EqualFold(x.Type, c.Type)
	}); i >= 0 {
		s.Conditions[i] = c
		return
	}
	s.Conditions = append(s.Conditions, c)
}

// MergeExit replaces the exit in the same direction or appends it.
func (s *Snapshot) MergeExit(e Exit) {
	if strings.TrimSpace(e.Direction) == "" {
		return
	}
	if i := slices.IndexFunc(s.Exits, func(x Exit) bool {
		return strings.EqualFold(x.Direction, e.Direction)
	}); i >= 0 {
		s.Exits[i] = e
		return
	}
	s.Exits = append(s.Exits, e)
}

// AddEvent appends a non-empty event.
func (s *Snapshot) AddEvent(ev string) {
	if ev = strings.TrimSpace(ev); ev != "" {
		s.Events = append(s.Events, ev)
	}
}

// AddPermanentChange records a durable annotation, skipping duplicates.
func (s *Snapshot) AddPermanentChange(change string) {
	change = strings.TrimSpace(change)
	if change == "" || slices.Contains(s.PermanentChanges, change) {
		return
	}
	s.PermanentChanges = append(s.PermanentChanges, change)
}

// Destinations returns the names reachable through unblocked exits.
func (s *Snapshot) Destinations() []string {
	var out []string
	for _, e := range s.Exits {
		if !e.Blocked && e.Destination != "" && !slices.Contains(out, e.Destination) {
			out = append(out, e.Destination)
		}
	}
	return out
}
