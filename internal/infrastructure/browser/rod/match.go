package rod

import (
	"fmt"
	"strings"
)

// matchCutoff is the minimum similarity for a listbox option to count as a
// match for the target value.
const matchCutoff = 0.6

func errFieldNotFound(fieldID string) error {
	return fmt.Errorf("field %s not found", fieldID)
}

func errNoOptionMatch(value string, options []string) error {
	return fmt.Errorf("could not find option matching %q in %v", value, options)
}

func errNoDropdownOption(value string) error {
	return fmt.Errorf("could not find dropdown option for value %q", value)
}

// closestMatch returns the candidate most similar to target, case-insensitive,
// provided the similarity reaches cutoff. Ties go to the earlier candidate.
func closestMatch(target string, candidates []string, cutoff float64) (string, bool) {
	targetLower := strings.ToLower(target)
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := similarity(targetLower, strings.ToLower(c))
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	if bestScore < cutoff {
		return "", false
	}
	return best, true
}

// similarity is the classic 2*M/T sequence ratio: twice the length of the
// longest common subsequence over the combined length. 1.0 means identical.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
