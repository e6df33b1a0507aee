package token

import (
	"sort"
	"strings"
)

// maxSuggestions caps the number of keywords returned by Suggest.
const maxSuggestions = 5

// Suggest returns keywords close to word by edit distance, nearest first.
// Ties are ordered alphabetically. The accepted distance grows with the
// length of word: one edit per three characters, at least 1 and at most 3.
func Suggest(word string) []string {
	if word == "" {
		return nil
	}
	maxDistance := min(max(len(word)/3, 1), 3)
	return suggestSimilar(word, Keywords(), maxDistance, maxSuggestions)
}

type candidate struct {
	name     string
	distance int
}

// suggestSimilar finds similar strings using Levenshtein distance.
func suggestSimilar(input string, candidates []string, maxDistance, limit int) []string {
	inputUpper := strings.ToUpper(input)
	var matches []candidate

	for _, c := range candidates {
		dist := levenshtein(inputUpper, strings.ToUpper(c))
		if dist <= maxDistance && dist > 0 {
			matches = append(matches, candidate{name: c, distance: dist})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	suggestions := make([]string, len(matches))
	for i, m := range matches {
		suggestions[i] = m.name
	}
	return suggestions
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}
