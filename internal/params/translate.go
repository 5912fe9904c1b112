package params

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Translate renders a JSON-serializable value as a source literal in the
// given language. Supported languages are python and r; anything else is an
// error (the injector refuses to write code it cannot spell).
func Translate(language string, v any) (string, error) {
	norm, err := normalize(v)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(language) {
	case "python", "":
		return pythonLiteral(norm), nil
	case "r":
		return rLiteral(norm), nil
	default:
		return "", fmt.Errorf("cannot translate parameters into %q source", language)
	}
}

// normalize funnels arbitrary values through the JSON codec so literal
// rendering only ever sees nil, bool, json.Number, string, []any and
// map[string]any.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("parameter value is not JSON-serializable: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func pythonLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	case string:
		return strconv.Quote(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = pythonLiteral(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedKeys(t)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + pythonLiteral(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func rLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case json.Number:
		return t.String()
	case string:
		return strconv.Quote(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = rLiteral(e)
		}
		return "list(" + strings.Join(parts, ", ") + ")"
	case map[string]any:
		keys := sortedKeys(t)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + " = " + rLiteral(t[k])
		}
		return "list(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
