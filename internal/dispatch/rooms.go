package dispatch

import "strings"

// GeneralRoom is the reserved room every subscribed connection joins.
const GeneralRoom = "alerts:general"

// RoomName builds the deterministic fanout key for a region and alert type.
// Input is canonicalized so equivalent subscriptions never produce
// divergent keys.
func RoomName(region, alertType string) string {
	return "alerts:" + canonical(region) + ":" + canonical(alertType)
}

func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// canonicalSet canonicalizes names, drops empties, and dedupes while
// preserving first-seen order.
func canonicalSet(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		c := canonical(name)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
