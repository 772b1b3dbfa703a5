// Package fuzzy scores approximate keyword presence in free text.
package fuzzy

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Ratio is the normalized InDel similarity 2*LCS/(len(a)+len(b)) in [0,1].
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio aligns the shorter string against every window of the longer
// one and returns the best Ratio. Windows at the edges may be shorter than the
// aligned string. An empty input scores 0.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	m, n := len(short), len(long)
	best := 0.0
	try := func(window []rune) bool {
		if r := ratio(short, window); r > best {
			best = r
		}
		return best >= 1
	}

	for i := 1; i < m; i++ {
		if try(long[:i]) {
			return 1
		}
	}
	for i := 0; i <= n-m; i++ {
		if try(long[i : i+m]) {
			return 1
		}
	}
	for i := n - m + 1; i < n; i++ {
		if try(long[i:]) {
			return 1
		}
	}

	return best
}

// Coverage is the mean PartialRatio of every keyword against the text.
// No keywords means no coverage.
func Coverage(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	normalized := whitespace.ReplaceAllString(strings.ToLower(text), " ")

	total := 0.0
	for _, keyword := range keywords {
		total += PartialRatio(strings.ToLower(strings.TrimSpace(keyword)), normalized)
	}

	return total / float64(len(keywords))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcs(a, b)) / float64(total)
}

// lcs is the length of the longest common subsequence, two-row DP.
func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
