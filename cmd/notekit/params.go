package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseParams turns repeated -p name=value flags into a parameter map.
// Values that parse as JSON are taken structurally (numbers, booleans,
// lists, objects); everything else stays a string.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[name] = v
	}
	return out, nil
}
