package memory

import (
	"regexp"
	"strings"
)

// DefaultDuplicateThreshold is the similarity ratio at or above which a
// candidate fact is treated as a duplicate of an existing one.
const DefaultDuplicateThreshold = 0.85

var parenGroups = regexp.MustCompile(`\(.*?\)`)

// IsDuplicate reports whether candidate is lexically near-identical to any
// existing fact. Both sides are normalized (parentheticals stripped,
// case-folded, list marker trimmed) before comparing with a character-level
// similarity ratio. This is a cheap lexical check: paraphrases below the
// threshold are accepted as new facts.
func IsDuplicate(existing []string, candidate string, threshold float64) bool {
	cand := normalizeFact(candidate)
	for _, e := range existing {
		if similarity(normalizeFact(e), cand) >= threshold {
			return true
		}
	}
	return false
}

func normalizeFact(s string) string {
	s = parenGroups.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = strings.Trim(s, "- ")
	return strings.TrimSpace(s)
}

// similarity is a symmetric ratio in [0,1] based on the longest common
// subsequence: 2*LCS(a,b) / (len(a)+len(b)). Identical strings score 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	lcs := lcsLength(ra, rb)
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}

// lcsLength computes the longest-common-subsequence length with a rolling
// single-row table.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
