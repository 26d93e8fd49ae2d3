package textfilter

import (
	"testing"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "bare object",
			input:    `{"result":"ok"}`,
			expected: `{"result":"ok"}`,
			ok:       true,
		},
		{
			name:     "json code fence",
			input:    "```json\n{\"result\":\"ok\"}\n```",
			expected: `{"result":"ok"}`,
			ok:       true,
		},
		{
			name:     "unlabelled fence with prose around it",
			input:    "Here you go:\n```\n{\"a\":1}\n```\nLet me know.",
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "trailing commentary",
			input:    `{"result":"The door opens.","timeConsumption":"short"} I hope this helps!`,
			expected: `{"result":"The door opens.","timeConsumption":"short"}`,
			ok:       true,
		},
		{
			name:     "leading and trailing prose",
			input:    `Sure. {"x":{"y":[1,2]}} Done.`,
			expected: `{"x":{"y":[1,2]}}`,
			ok:       true,
		},
		{
			name:     "braces inside strings do not confuse depth",
			input:    `note {"text":"a } tricky { value"} end`,
			expected: `{"text":"a } tricky { value"}`,
			ok:       true,
		},
		{
			name:     "skips invalid first span",
			input:    `{not json} then {"ok":true}`,
			expected: `{"ok":true}`,
			ok:       true,
		},
		{
			name:  "no object",
			input: "The keeper shrugs.",
			ok:    false,
		},
		{
			name:  "truncated object",
			input: `{"result":"cut off`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.input)
			if ok != tt.ok {
				t.Fatalf("ExtractObject() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	got, ok := ExtractArray(`Agents: ["memory", "action"] because the player acts.`)
	if !ok {
		t.Fatal("expected array to be found")
	}
	if got != `["memory", "action"]` {
		t.Errorf("ExtractArray() = %q", got)
	}

	if _, ok := ExtractArray("no list here"); ok {
		t.Error("expected no array")
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := StripCodeFence("  plain  "); got != "plain" {
		t.Errorf("StripCodeFence() = %q, want %q", got, "plain")
	}
	if got := StripCodeFence("```json\n[1]\n```"); got != "[1]" {
		t.Errorf("StripCodeFence() = %q, want %q", got, "[1]")
	}
}
