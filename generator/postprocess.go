package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	jsonFence = "```json"
	bareFence = "```"
)

// StripFences removes one markdown code fence around a model response: a
// leading ```json (or else a bare ```), then a trailing ```. Surrounding
// whitespace is trimmed before and after.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, jsonFence) {
		s = s[len(jsonFence):]
	} else if strings.HasPrefix(s, bareFence) {
		s = s[len(bareFence):]
	}
	s = strings.TrimSuffix(s, bareFence)
	return strings.TrimSpace(s)
}

// ParseModelJSON strips fences from raw and decodes the remaining JSON
// object or array into v.
func ParseModelJSON(raw string, v any) error {
	body := StripFences(raw)
	if body == "" {
		return errors.New("model returned an empty response")
	}
	if body[0] != '{' && body[0] != '[' {
		return fmt.Errorf("model response is not JSON: %q", preview(body, 60))
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
