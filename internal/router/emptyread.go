package router

import "encoding/json"

// emptyReadArrayKeys are the result-shape fields the FAST_THEN_OFFICIAL
// mode inspects to decide whether the fast-path's answer was empty and
// therefore worth re-asking the official backend for (§4.6).
var emptyReadArrayKeys = []string{"results", "users", "items"}

// looksLikeEmptyRead reports whether text decodes to an object carrying
// one of the known array fields with length zero. Any decode failure or
// missing field is treated as "not empty" so real data is never masked.
func looksLikeEmptyRead(text string) bool {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return false
	}
	for _, key := range emptyReadArrayKeys {
		arr, ok := obj[key].([]any)
		if ok && len(arr) == 0 {
			return true
		}
	}
	return false
}
