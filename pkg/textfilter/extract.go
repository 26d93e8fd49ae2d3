package textfilter

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\\n?(.*?)```")

// StripCodeFence returns the body of the first markdown code fence in text.
// Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ExtractObject finds the structured object payload in collaborator output.
// It first strips markdown fences, then accepts the whole remainder when it
// is valid JSON, and otherwise returns the first balanced {...} span that
// parses. The boolean is false when no object could be recovered.
func ExtractObject(text string) (string, bool) {
	return extract(text, '{', '}')
}

// ExtractArray is ExtractObject for a top-level [...] payload.
func ExtractArray(text string) (string, bool) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) (string, bool) {
	body := StripCodeFence(text)
	if len(body) > 0 && body[0] == open && json.Valid([]byte(body)) {
		return body, true
	}
	// The fence may have hidden prose around a payload, so scan the raw text
	// too when the fenced body yields nothing.
	for _, candidate := range []string{body, text} {
		if span, ok := firstBalanced(candidate, open, close); ok {
			return span, true
		}
	}
	return "", false
}

// firstBalanced scans for the first open..close span with balanced nesting
// that is also valid JSON. String literals are skipped so braces inside
// quoted text do not affect depth.
func firstBalanced(text string, open, close byte) (string, bool) {
	for start := strings.IndexByte(text, open); start >= 0; {
		if end := matchClose(text, start, open, close); end > start {
			span := text[start : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
		}
		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchClose(text string, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
