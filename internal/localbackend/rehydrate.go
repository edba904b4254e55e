package localbackend

import (
	"encoding/json"
	"strings"
)

// rehydrateParams walks args and replaces any string value that looks like
// a serialized JSON object or array with its parsed form (§4.4 step 2).
// Some MCP clients over-serialize nested structures into JSON strings
// before sending them; this undoes exactly that, recursively, and leaves
// everything else untouched.
func rehydrateParams(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = rehydrateParams(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = rehydrateParams(val)
		}
		return out
	case string:
		if parsed, ok := tryParseJSONContainer(t); ok {
			return rehydrateParams(parsed)
		}
		return t
	default:
		return t
	}
}

// tryParseJSONContainer parses s only when it looks like a JSON object or
// array; scalar-looking strings ("42", "true", quoted strings) are left
// alone so a legitimate string argument is never silently retyped.
func tryParseJSONContainer(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil, false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	looksObject := first == '{' && last == '}'
	looksArray := first == '[' && last == ']'
	if !looksObject && !looksArray {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}
