package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no json object in completion")

// ExtractJSON pulls the JSON document out of a completion. Models wrap it in prose or
// markdown fences often enough that we accept, in order: the whole text, a fenced block,
// and the first balanced object or array embedded in the text.
func ExtractJSON(completion string) ([]byte, error) {
	s := strings.TrimSpace(completion)
	if s == "" {
		return nil, errNoJSON
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	if fenced, ok := fencedBlock(s); ok && json.Valid([]byte(fenced)) {
		return []byte(fenced), nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if end := balancedEnd(s, i); end > 0 {
			if cand := s[i:end]; json.Valid([]byte(cand)) {
				return []byte(cand), nil
			}
		}
	}
	return nil, errNoJSON
}

func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	// skip the info string (```json)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedEnd returns the index just past the bracket closing s[open], or -1.
func balancedEnd(s string, open int) int {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
