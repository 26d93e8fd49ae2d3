package textfilter

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold normalises a name for comparison: case-folded, trimmed, inner
// whitespace collapsed. A Caser is stateful, so one is made per call.
func Fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Match strength returned by MatchName.
const (
	MatchNone = iota
	MatchPartial
	MatchToken
	MatchExact
)

// MatchName scores how well query refers to name. Exact folded equality wins,
// then a whole-word match ("Armitage" for "Dr. Henry Armitage"), then a
// substring match for queries of three or more characters.
func MatchName(name, query string) int {
	n, q := Fold(name), Fold(query)
	if n == "" || q == "" {
		return MatchNone
	}
	if n == q {
		return MatchExact
	}
	for _, tok := range strings.Fields(n) {
		if strings.Trim(tok, ".,'\"") == q {
			return MatchToken
		}
	}
	if len(q) >= 3 && (strings.Contains(n, q) || strings.Contains(q, n)) {
		return MatchPartial
	}
	return MatchNone
}

// Mentions reports whether text mentions name as a whole phrase, ignoring case.
func Mentions(text, name string) bool {
	t, n := " "+Fold(stripPunct(text))+" ", Fold(stripPunct(name))
	if n == "" {
		return false
	}
	return strings.Contains(t, " "+n+" ")
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')':
			return ' '
		}
		return r
	}, s)
}
