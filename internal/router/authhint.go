package router

import "strings"

// authErrorMarkers are the substrings (matched case-insensitively) that
// identify a remote-backend error message as an expired/invalid credential
// rather than some other transient failure (§4.6).
var authErrorMarkers = []string{
	"401",
	"unauthorized",
	"token expired",
	"token invalid",
	"authentication",
}

// authExpiredHint is appended to an OFFICIAL route's error result whenever
// the underlying failure message looks credential-related, nudging the
// operator toward the fix instead of a bare stack of backend noise.
const authExpiredHint = "Token may be expired — try `notionmux login`"

// looksLikeAuthError reports whether msg contains any of the fixed
// auth-failure markers, case-insensitively.
func looksLikeAuthError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range authErrorMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// withAuthHint appends authExpiredHint to msg when msg looks like an
// expired/invalid credential failure, leaving every other message
// untouched.
func withAuthHint(msg string) string {
	if !looksLikeAuthError(msg) {
		return msg
	}
	return msg + " (" + authExpiredHint + ")"
}
