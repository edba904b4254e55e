package router

import (
	"regexp"
	"strings"

	"github.com/notionmux/notionmux/internal/mcptypes"
)

// fastBoostToolNames are the (prefix-stripped) tool names that get the
// OFFICIAL_WITH_FAST_BOOST treatment: a local equivalent is tried first and,
// when it yields a usable result, that result is returned as the answer; the
// official tool is called only when no local attempt succeeds (§4.6).
var fastBoostToolNames = map[string]bool{
	"search":    true,
	"fetch":     true,
	"get-users": true,
}

var notionPrefixRe = regexp.MustCompile(`(?i)^notion[-_:]`)

// stripNotionPrefix strips a leading "notion-"/"notion_"/"notion:" prefix,
// case-insensitively, so route classification and the degraded-mode verb
// heuristic both key off the tool's bare action name.
func stripNotionPrefix(name string) string {
	return notionPrefixRe.ReplaceAllString(name, "")
}

// RouteTable is the immutable snapshot dispatch reads from. A new one is
// built and atomically swapped in at construction, at start-up, on entering
// DegradedReadOnly or Dead, and after a successful reauth; it is never
// mutated in place.
type RouteTable struct {
	entries     map[string]mcptypes.RouteEntry
	descriptors []mcptypes.ToolDescriptor
}

// BuildRouteTable merges the local and official tool descriptor lists into
// one route table per §4.6: "Let O = official.tools, F = fast.tools. If O
// is present, exposed = O.tools. Otherwise exposed = { t ∈ F : reads(t) ∧
// ¬writes(t) }." officialTools == nil means O is absent (the remote backend
// is not connected, e.g. DegradedReadOnly/Dead); a non-nil, possibly empty,
// slice means O is present even if it currently advertises zero tools. A
// tool present only locally is never exposed while the official backend is
// present — only names official actually lists ever reach the route table
// in that regime.
func BuildRouteTable(localTools, officialTools []mcptypes.ToolDescriptor) *RouteTable {
	localByName := make(map[string]mcptypes.ToolDescriptor, len(localTools))
	for _, t := range localTools {
		localByName[t.Name] = t
	}

	entries := make(map[string]mcptypes.RouteEntry)
	descriptors := make([]mcptypes.ToolDescriptor, 0)

	if officialTools != nil {
		for _, desc := range officialTools {
			name := desc.Name
			if _, alsoLocal := localByName[name]; alsoLocal {
				mode := mcptypes.RouteOfficial
				if isReadOnlyName(name) {
					mode = mcptypes.RouteFastThenOfficialSameName
				}
				entries[name] = mcptypes.RouteEntry{Mode: mode, ToolName: name}
				descriptors = append(descriptors, desc)
				continue
			}
			mode := mcptypes.RouteOfficial
			if fastBoostToolNames[stripNotionPrefix(name)] {
				mode = mcptypes.RouteOfficialWithFastBoost
			}
			entries[name] = mcptypes.RouteEntry{Mode: mode, ToolName: name}
			descriptors = append(descriptors, desc)
		}
	} else {
		// O absent: exposed = F's read-only tools (the local catalog is
		// already built from GET-only OpenAPI operations, so every local
		// tool already satisfies reads(t) ∧ ¬writes(t)).
		for name, desc := range localByName {
			entries[name] = mcptypes.RouteEntry{Mode: mcptypes.RouteFastOnly, ToolName: name}
			descriptors = append(descriptors, desc)
		}
	}

	sortDescriptors(descriptors)
	return &RouteTable{entries: entries, descriptors: descriptors}
}

func sortDescriptors(d []mcptypes.ToolDescriptor) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && strings.Compare(d[j].Name, d[j-1].Name) < 0; j-- {
			d[j], d[j-1] = d[j-1], d[j]
		}
	}
}

// Lookup returns the route entry for name, if any tool by that name exists.
func (t *RouteTable) Lookup(name string) (mcptypes.RouteEntry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Descriptors returns every tool this table exposes.
func (t *RouteTable) Descriptors() []mcptypes.ToolDescriptor {
	return t.descriptors
}
