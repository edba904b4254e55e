package router

import "strings"

// readVerbs are the bare action verbs (after stripNotionPrefix) considered
// safe to keep serving once the remote backend is unreachable (§4.6
// degraded-mode heuristic).
var readVerbs = []string{"get", "list", "search", "fetch", "retrieve", "find", "query"}

// writeVerbs are bare action verbs (or substrings) that mark a tool name as
// mutating even when it also matches a read verb prefix — e.g.
// "get-and-delete-block" starts with "get" but must still be blocked. A name
// matching a read verb is only read-only if none of these also appear.
var writeVerbs = []string{
	"create", "update", "delete", "add", "remove", "set", "put", "patch",
	"post", "append", "insert", "archive", "unarchive", "restore",
	"duplicate", "move", "write", "modify", "replace", "share", "invite",
	"revoke",
}

// isReadOnlyName reports whether a tool name's bare action verb marks it
// safe to serve in DegradedReadOnly state: it must match a read verb
// prefix and contain none of the write verbs.
func isReadOnlyName(name string) bool {
	bare := stripNotionPrefix(name)

	matchesRead := false
	for _, verb := range readVerbs {
		if strings.HasPrefix(bare, verb) {
			matchesRead = true
			break
		}
	}
	if !matchesRead {
		return false
	}
	for _, verb := range writeVerbs {
		if strings.Contains(bare, verb) {
			return false
		}
	}
	return true
}
