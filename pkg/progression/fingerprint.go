package progression

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
)

type npcProjection struct {
	ID            string               `json:"id"`
	HP            int                  `json:"hp"`
	Sanity        int                  `json:"sanity"`
	Conditions    []string             `json:"conditions"`
	RevealedClues []string             `json:"revealed_clues"`
	Relationships []actor.Relationship `json:"relationships"`
}

// Fingerprint digests the mutable state of npcs. The result does not
// depend on the order of npcs or of their conditions, clues and
// relationships.
func Fingerprint(npcs []actor.NPCProfile) string {
	digests := make([]string, 0, len(npcs))
	for _, n := range npcs {
		p := npcProjection{
			ID:            n.ID,
			HP:            n.Status.HP,
			Sanity:        n.Status.Sanity,
			Conditions:    sortedCopy(n.Status.Conditions),
			RevealedClues: sortedCopy(revealedIDs(n.Clues)),
			Relationships: slices.Clone(n.Relationships),
		}
		slices.SortFunc(p.Relationships, func(a, b actor.Relationship) int {
			if c := strings.Compare(a.Target, b.Target); c != 0 {
				return c
			}
			return strings.Compare(a.Type, b.Type)
		})

		data, _ := json.Marshal(p)
		sum := sha256.Sum256(data)
		digests = append(digests, hex.EncodeToString(sum[:]))
	}
	slices.Sort(digests)
	return strings.Join(digests, ":")
}

func revealedIDs(clues []actor.Clue) []string {
	var out []string
	for _, c := range clues {
		if c.Revealed {
			out = append(out, c.ID)
		}
	}
	return out
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
