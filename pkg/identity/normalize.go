package identity

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Normalize returns the comparison key for an identifier.
// A cases.Caser keeps internal state, so a fresh one is used per call.
func Normalize(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}

// Equal reports whether two identifiers name the same entity.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// closest returns the candidate nearest to id, or "" when nothing is within
// a third of the identifier's length.
func closest(id string, candidates []string) string {
	key := Normalize(id)
	limit := len(key)/3 + 1
	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(key, Normalize(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}

// Closest is the exported form of the suggestion lookup used in not-found errors.
func Closest(id string, candidates []string) string {
	return closest(id, candidates)
}
