package genai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ExtractJSON locates the first balanced {...} or [...] span in free-form
// model output and returns it if it is valid JSON. Generative services
// routinely wrap payloads in prose or markdown fences; this is the recovery
// layer for that.
func ExtractJSON(raw string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' || raw[i] == '[' {
			start = i
			open = raw[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
				candidate := raw[start : i+1]
				if gjson.Valid(candidate) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

// DecodeLoose parses model output into v: strict parse first, balanced-span
// extraction second. Callers supply their own typed fallback when it errors.
func DecodeLoose(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if json.Unmarshal([]byte(trimmed), v) == nil {
		return nil
	}
	span, ok := ExtractJSON(trimmed)
	if !ok {
		return errors.New("no JSON payload in model output")
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return errors.Wrap(err, "decode extracted JSON")
	}
	return nil
}
