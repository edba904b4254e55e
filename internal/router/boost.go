package router

import "regexp"

var uuidTokenRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|[0-9a-fA-F]{32}`)

// extractUUID returns the first UUID-ish token found in s (32-hex or
// canonical 8-4-4-4-12 dashed), or s unchanged if none is found (§4.6's
// UUID extraction rule).
func extractUUID(s string) string {
	if m := uuidTokenRe.FindString(s); m != "" {
		return m
	}
	return s
}

// fetchBoostSteps is the fixed sequence of local retrieve operations tried
// for a boosted "fetch" call (§4.6 scenario 3), each paired with the
// request field name its operation expects for the id.
var fetchBoostSteps = []struct {
	tool  string
	field string
}{
	{"retrieve-a-page", "page_id"},
	{"retrieve-a-database", "database_id"},
	{"retrieve-a-data-source", "data_source_id"},
	{"retrieve-a-block", "block_id"},
	{"retrieve-a-comment", "comment_id"},
}
