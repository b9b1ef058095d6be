package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still suggested.
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions.
	DefaultMaxSuggestions = 3
)

type suggestion struct {
	value    string
	distance int
}

// SuggestClasses returns the class ids closest to target, closest first.
// A target with a package is compared with full ids, a bare name with the
// short names of the candidates, so "Strng" finds "kotlin/String".
// Matching ignores case.
func SuggestClasses(target string, candidates []string) []string {
	target = strings.ToLower(target)
	qualified := strings.Contains(target, "/")
	var found []suggestion
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if !qualified {
			lower = shortName(lower)
		}
		dist := LevenshteinDistance(target, lower)
		if dist <= DefaultMaxDistance {
			found = append(found, suggestion{value: candidate, distance: dist})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].value < found[j].value
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(found) && i < DefaultMaxSuggestions; i++ {
		out = append(out, found[i].value)
	}
	return out
}

func shortName(id string) string {
	if i := strings.LastIndexAny(id, "/."); i >= 0 {
		return id[i+1:]
	}
	return id
}

// LevenshteinDistance is the number of single-rune edits turning a into b.
func LevenshteinDistance(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) == 0 {
		return len(t)
	}
	if len(t) == 0 {
		return len(s)
	}

	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(t)]
}
