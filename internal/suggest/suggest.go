// Package suggest produces "did you mean" candidates for two authoring
// mistakes the CLI diagnoses: a mistyped subcommand name, and a heredoc
// delimiter that never terminates because the closing word was misspelled
// (`<<EOF ... EOFF`).
package suggest

import (
	"sort"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Nearest returns the candidate closest to target under fuzzy ranking, or
// "" when nothing matches at all.
func Nearest(target string, candidates []string) string {
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// Words extracts the unique identifier-shaped words of src in order of
// first appearance. These are the candidate delimiters offered when a
// heredoc is left unterminated: the author usually did type the intended
// word somewhere on the line that opened it.
func Words(src []byte) []string {
	var words []string
	seen := make(map[string]bool)

	i := 0
	for i < len(src) {
		c := rune(src[i])
		if !unicode.IsLetter(c) && c != '_' {
			i++
			continue
		}
		j := i + 1
		for j < len(src) {
			c = rune(src[j])
			if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
				break
			}
			j++
		}
		w := string(src[i:j])
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
		i = j
	}
	return words
}
