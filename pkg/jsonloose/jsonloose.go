// Package jsonloose recovers a JSON object from chatty model output.
package jsonloose

import (
	"encoding/json"
	"strings"
)

const assistantMarker = "assistant\n\n"

// ExtractFirstObject returns the first balanced {...} region of text.
// Braces inside JSON strings are ignored.
func ExtractFirstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Candidate applies the cleanup steps and returns the text that will be parsed.
func Candidate(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, assistantMarker)
	if i := strings.IndexByte(clean, '{'); i > 0 {
		clean = clean[i:]
	}
	clean = strings.TrimSpace(clean)
	if obj, ok := ExtractFirstObject(clean); ok {
		return obj
	}
	return clean
}

// Parse returns the recovered JSON value. The error is the encoding/json
// error for the candidate text.
func Parse(text string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(Candidate(text)), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Unmarshal decodes the recovered JSON value into v.
func Unmarshal(text string, v any) error {
	return json.Unmarshal([]byte(Candidate(text)), v)
}
