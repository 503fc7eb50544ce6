package textutil

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no parseable JSON object is present in a response.
var ErrNoJSON = errors.New("no valid JSON object found")

// ExtractJSON pulls the first JSON object out of a model response. It prefers
// a ```json fenced block; failing that it scans for the first brace-balanced
// object in the raw text. Returns ErrNoJSON when nothing parses.
func ExtractJSON(text string) (map[string]any, error) {
	if body, ok := ExtractFenced(text, "json"); ok {
		var out map[string]any
		if err := json.Unmarshal([]byte(body), &out); err == nil {
			return out, nil
		}
		// A fenced block that fails to parse is treated as no JSON: the
		// original extraction rejects malformed payloads outright.
		return nil, ErrNoJSON
	}

	start := strings.Index(text, "{")
	for start >= 0 {
		if end := matchBrace(text, start); end > start {
			var out map[string]any
			if err := json.Unmarshal([]byte(text[start:end+1]), &out); err == nil {
				return out, nil
			}
		}
		next := strings.Index(text[start+1:], "{")
		if next < 0 {
			break
		}
		start += 1 + next
	}
	return nil, ErrNoJSON
}

// matchBrace returns the index of the brace closing the object opened at
// start, or -1 if the braces never balance. String literals are skipped.
func matchBrace(text string, start int) int {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
