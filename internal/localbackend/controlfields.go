package localbackend

// forceRefreshField is the one control field call_tool arguments may carry
// (§4.4 step 3); it never reaches the cache key or the HTTP call.
const forceRefreshField = "__mcpFastForceRefresh"

// splitControlFields copies args, pulls forceRefreshField out of the copy,
// and reports its truthiness. args itself is never mutated.
func splitControlFields(args map[string]any) (sanitized map[string]any, forceRefresh bool) {
	sanitized = make(map[string]any, len(args))
	for k, v := range args {
		if k == forceRefreshField {
			forceRefresh = truthy(v)
			continue
		}
		sanitized[k] = v
	}
	return sanitized, forceRefresh
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	default:
		return false
	}
}
