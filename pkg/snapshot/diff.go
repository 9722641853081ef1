package snapshot

import (
	"sort"
	"strings"
)

// Diff is the computed difference between two snapshots of the same type
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// ComputeDiff compares two username lists. Comparison is case-insensitive
// and ignores surrounding whitespace; both result lists are sorted.
func ComputeDiff(old, new []string) Diff {
	oldSet := toSet(old)
	newSet := toSet(new)

	return Diff{
		Added:   sortedDifference(newSet, oldSet),
		Removed: sortedDifference(oldSet, newSet),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		cleaned := strings.ToLower(strings.TrimSpace(item))
		if cleaned != "" {
			set[cleaned] = true
		}
	}
	return set
}

func sortedDifference(a, b map[string]bool) []string {
	diff := []string{}
	for item := range a {
		if !b[item] {
			diff = append(diff, item)
		}
	}
	sort.Strings(diff)
	return diff
}
