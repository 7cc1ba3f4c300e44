package usecase

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// nameSimilarity returns a [0,1] similarity between two names based on
// normalized Levenshtein distance. Case and surrounding space are ignored.
func nameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.Join(strings.Fields(a), " "))
	b = strings.ToLower(strings.Join(strings.Fields(b), " "))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// tokenOverlap returns the share of the smaller token set found in the other,
// a deliberately naive comparison for free-form addresses.
func tokenOverlap(a, b string) float64 {
	tokensA := addressTokens(a)
	tokensB := addressTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	if len(tokensB) < len(tokensA) {
		tokensA, tokensB = tokensB, tokensA
	}
	set := make(map[string]struct{}, len(tokensB))
	for _, t := range tokensB {
		set[t] = struct{}{}
	}
	matched := 0
	for _, t := range tokensA {
		if _, ok := set[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(tokensA))
}

func addressTokens(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, s)
	return strings.Fields(cleaned)
}
