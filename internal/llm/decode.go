package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// DecodeStructured extracts one JSON value from a model reply and
// unmarshals it into v. Priority order: fenced code block, then a
// scan from the first '{' or '[' to the matching close, then raw
// parse failure. Reused by every call site that expects JSON back.
func DecodeStructured(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty reply")
	}

	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), v); err == nil {
			return nil
		}
		// A fence that does not contain valid JSON falls through to
		// the bracket scan: some models fence prose and emit JSON
		// after it.
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON value in reply")
	}

	end := matchingClose(text, start)
	if end < 0 {
		return fmt.Errorf("unterminated JSON value in reply")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

// matchingClose returns the index of the bracket closing the value
// that opens at start, respecting strings and escapes.
func matchingClose(text string, start int) int {
	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
