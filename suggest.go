package facet

import (
	"sort"

	"github.com/xrash/smetrics"
)

// suggestLens returns a "did you mean …" hint for an unknown lens name,
// using Jaro-Winkler distance against the registry's known names.
func suggestLens(name string) string {
	best := ""
	bestScore := 0.0
	names := make([]string, 0, len(lensRegistry))
	for n := range lensRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		score := smetrics.JaroWinkler(name, n, 0.7, 4)
		if score > bestScore {
			bestScore, best = score, n
		}
	}
	if best != "" && bestScore > 0.75 {
		return " (did you mean '" + best + "'?)"
	}
	return ""
}
