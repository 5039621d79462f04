package chat

// MergeResults combines newly fetched results with previously accumulated
// ones. When merge is false the new set replaces the old wholesale. When
// true the output is the union keyed on (content id, segment index): new
// results first and winning on collision, then any previously accumulated
// results whose key was not already added, preserving within-group order.
func MergeResults(fresh, accumulated []SearchResult, merge bool) []SearchResult {
	if !merge {
		return fresh
	}
	seen := make(map[string]struct{}, len(fresh)+len(accumulated))
	out := make([]SearchResult, 0, len(fresh)+len(accumulated))
	for _, r := range fresh {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	for _, r := range accumulated {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
