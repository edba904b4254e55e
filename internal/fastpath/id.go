package fastpath

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// strictIDRe matches exactly a bare 32-hex-char id or the canonical
// 8-4-4-4-12 dashed form, case-insensitively. uuid.Parse on its own also
// accepts "urn:uuid:" and brace-wrapped forms, which §4.3 requires rejecting,
// so this pre-check gates it down to only the two accepted shapes.
var strictIDRe = regexp.MustCompile(`^(?i:[0-9a-f]{32}|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

// normalizeID accepts a 32-hex-char id or a canonical 8-4-4-4-12 dashed
// UUID and returns the lowercase dashed form, per §4.3's ID normalization
// rule. Anything else, including uuid.Parse's more permissive urn:uuid: and
// brace-wrapped forms, is rejected.
func normalizeID(id string) (string, bool) {
	trimmed := strings.TrimSpace(id)
	if !strictIDRe.MatchString(trimmed) {
		return "", false
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// stripDashes is used when building the notion.so URL from a dashed id.
func stripDashes(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
