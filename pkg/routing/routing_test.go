package routing

import (
	"slices"
	"strings"
	"testing"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAgents []string
		wantAction bool
		wantErr    bool
	}{
		{
			name:       "strict json",
			raw:        `{"agents":["character","director"],"rationale":"talking","isAction":false}`,
			wantAgents: []string{"character", "director"},
		},
		{
			name:       "fenced with prose",
			raw:        "Sure!\n```json\n{\"agents\":[\"action\"],\"isAction\":true}\n```\nHope that helps.",
			wantAgents: []string{"action"},
			wantAction: true,
		},
		{
			name:       "broken object falls back to list",
			raw:        `{"agents": ["memory", "character"], "isAction": true, "rationale": "unterminated`,
			wantAgents: []string{"memory", "character"},
			wantAction: true,
		},
		{
			name:       "bare list",
			raw:        `I would call ["character"] here.`,
			wantAgents: []string{"character"},
		},
		{
			name:       "empty list",
			raw:        `agents: []`,
			wantAgents: []string{},
		},
		{
			name:    "nothing recoverable",
			raw:     "I am not sure what to do.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(tt.raw)
			if tt.wantErr {
				if failure.KindOf(err) != failure.KindMalformed {
					t.Fatalf("expected malformed error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(d.Agents, tt.wantAgents) {
				t.Errorf("agents = %v, want %v", d.Agents, tt.wantAgents)
			}
			if d.IsAction != tt.wantAction {
				t.Errorf("isAction = %v, want %v", d.IsAction, tt.wantAction)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		decision    Decision
		want        []string
		wantDropped []string
	}{
		{
			name:     "dedupes preserving first occurrence",
			decision: Decision{Agents: []string{"character", "director", "character", "director"}},
			want:     []string{"character", "director"},
		},
		{
			name:     "action forces memory before action",
			decision: Decision{Agents: []string{"action", "character", "memory"}, IsAction: true},
			want:     []string{"memory", "action", "character"},
		},
		{
			name:        "unknown ids dropped",
			decision:    Decision{Agents: []string{"bard", " Character ", "", "BARD"}},
			want:        []string{"character"},
			wantDropped: []string{"bard"},
		},
		{
			name:     "action with empty list",
			decision: Decision{IsAction: true},
			want:     []string{"memory", "action"},
		},
		{
			name:     "no agents",
			decision: Decision{},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Normalize(tt.decision, KnownAgents)
			if !slices.Equal(q.Agents, tt.want) {
				t.Errorf("agents = %v, want %v", q.Agents, tt.want)
			}
			if !slices.Equal(q.Dropped, tt.wantDropped) {
				t.Errorf("dropped = %v, want %v", q.Dropped, tt.wantDropped)
			}
		})
	}
}

// Every ordering of agents with isAction set must put memory before action
// and never repeat an id.
func TestNormalize_Properties(t *testing.T) {
	inputs := [][]string{
		{"action", "memory"},
		{"director", "action", "action", "memory", "character"},
		{"memory", "memory", "memory"},
		{"character", "bard", "action"},
		{},
	}
	for _, in := range inputs {
		for _, isAction := range []bool{true, false} {
			q := Normalize(Decision{Agents: in, IsAction: isAction}, KnownAgents)
			seen := map[string]bool{}
			for _, a := range q.Agents {
				if seen[a] {
					t.Errorf("duplicate %q in %v", a, q.Agents)
				}
				seen[a] = true
			}
			if isAction {
				m, a := slices.Index(q.Agents, "memory"), slices.Index(q.Agents, "action")
				if m != 0 || a != 1 {
					t.Errorf("input %v: memory at %d, action at %d", in, m, a)
				}
			}
		}
	}
}

func TestNormalizeRaw(t *testing.T) {
	q := NormalizeRaw("the oracle is silent", KnownAgents)
	if len(q.Agents) != 0 {
		t.Errorf("agents = %v, want empty", q.Agents)
	}
	if !strings.HasPrefix(q.Rationale, "routing fallback:") {
		t.Errorf("rationale = %q", q.Rationale)
	}

	q = NormalizeRaw(`{"agents":["director"],"isAction":true}`, KnownAgents)
	if !slices.Equal(q.Agents, []string{"memory", "action", "director"}) {
		t.Errorf("agents = %v", q.Agents)
	}
}
