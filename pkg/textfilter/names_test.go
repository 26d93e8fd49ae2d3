package textfilter

import "testing"

func TestMatchName(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		query    string
		expected int
	}{
		{"exact", "Henry Armitage", "Henry Armitage", MatchExact},
		{"case folded", "Henry Armitage", "HENRY armitage", MatchExact},
		{"extra whitespace", "Henry Armitage", "  henry   armitage ", MatchExact},
		{"token", "Dr. Henry Armitage", "armitage", MatchToken},
		{"partial", "Professor Armitage", "armit", MatchPartial},
		{"query contains name", "Wilbur", "Wilbur Whateley", MatchPartial},
		{"short partial ignored", "Armitage", "ar", MatchNone},
		{"no match", "Armitage", "Whateley", MatchNone},
		{"empty query", "Armitage", "", MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchName(tt.target, tt.query); got != tt.expected {
				t.Errorf("MatchName(%q, %q) = %d, want %d", tt.target, tt.query, got, tt.expected)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	if !Mentions("I ask Armitage about the book.", "armitage") {
		t.Error("expected mention")
	}
	if !Mentions("Show the letter to Henry Armitage!", "Henry Armitage") {
		t.Error("expected phrase mention")
	}
	if Mentions("I read the armitageana", "Armitage") {
		t.Error("did not expect substring mention")
	}
}
