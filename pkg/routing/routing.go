// Package routing turns an untrusted agent-selection decision into a safe,
// ordered execution queue.
package routing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// Agent identifiers.
const (
	AgentMemory    = "memory"
	AgentAction    = "action"
	AgentCharacter = "character"
	AgentDirector  = "director"
)

// KnownAgents is the default allowlist.
var KnownAgents = []string{AgentMemory, AgentAction, AgentCharacter, AgentDirector}

// Decision is a routing decision as proposed by the classifier.
type Decision struct {
	Agents    []string `json:"agents"`
	Rationale string   `json:"rationale,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	IsAction  bool     `json:"isAction,omitempty"`
}

// Queue is a validated execution order.
type Queue struct {
	Agents    []string `json:"agents"`
	Rationale string   `json:"rationale,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	IsAction  bool     `json:"is_action,omitempty"`
	Dropped   []string `json:"dropped,omitempty"` // unknown ids removed during normalisation
}

var (
	listPattern     = regexp.MustCompile(`\[\s*(?:"[^"]*"\s*,?\s*)*\]`)
	itemPattern     = regexp.MustCompile(`"([^"]*)"`)
	isActionPattern = regexp.MustCompile(`(?i)"?is_?action"?\s*:\s*true`)
)

// ParseDecision reads a decision out of raw classifier text. A strict JSON
// decode of the first object is tried first; failing that, the first
// bracketed list of strings is taken as the agent list. It returns a
// MalformedResponse error when neither yields a list.
func ParseDecision(raw string) (Decision, error) {
	if obj, ok := textfilter.ExtractObject(raw); ok {
		var d Decision
		if err := json.Unmarshal([]byte(obj), &d); err == nil && d.Agents != nil {
			return d, nil
		}
	}

	body := textfilter.StripCodeFence(raw)
	list := listPattern.FindString(body)
	if list == "" {
		return Decision{}, failure.Malformedf("parse routing decision", "no agent list in %q", truncate(raw, 80))
	}
	var d Decision
	for _, m := range itemPattern.FindAllStringSubmatch(list, -1) {
		d.Agents = append(d.Agents, m[1])
	}
	if d.Agents == nil {
		d.Agents = []string{}
	}
	d.IsAction = isActionPattern.MatchString(body)
	return d, nil
}

// Normalize validates d against allowed. Ids are trimmed and lowercased,
// unknown ids dropped, and when IsAction is set memory and action are
// placed first. Duplicates keep their first position.
func Normalize(d Decision, allowed []string) Queue {
	q := Queue{
		Rationale: d.Rationale,
		Intent:    d.Intent,
		IsAction:  d.IsAction,
		Agents:    []string{},
	}

	candidates := make([]string, 0, len(d.Agents)+2)
	if d.IsAction {
		candidates = append(candidates, AgentMemory, AgentAction)
	}
	candidates = append(candidates, d.Agents...)

	for _, id := range candidates {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if !slices.Contains(allowed, id) {
			if !slices.Contains(q.Dropped, id) {
				q.Dropped = append(q.Dropped, id)
			}
			continue
		}
		if !slices.Contains(q.Agents, id) {
			q.Agents = append(q.Agents, id)
		}
	}
	return q
}

// NormalizeRaw parses and normalises raw classifier text. It never fails:
// when nothing can be recovered the queue is empty and Rationale explains
// why.
func NormalizeRaw(raw string, allowed []string) Queue {
	d, err := ParseDecision(raw)
	if err != nil {
		return Queue{
			Agents:    []string{},
			Rationale: fmt.Sprintf("routing fallback: %v", err),
		}
	}
	return Normalize(d, allowed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
