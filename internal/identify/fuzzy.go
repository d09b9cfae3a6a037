package identify

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatcher picks the label that best matches text, with a 0-100 score.
type FuzzyMatcher interface {
	Best(text string, labels []string) (label string, score int)
}

// PartialRatio scores a label by its best alignment against any run of words
// in the text, so a bank name inside a long OCR block can still score 100.
type PartialRatio struct{}

func (PartialRatio) Best(text string, labels []string) (string, int) {
	words := strings.Fields(strings.ToLower(text))
	best, bestScore := "", 0
	for _, label := range labels {
		if score := partialRatio(words, strings.ToLower(label)); score > bestScore {
			best, bestScore = label, score
		}
	}
	return best, bestScore
}

func partialRatio(words []string, label string) int {
	n := len(strings.Fields(label))
	if n == 0 || len(words) == 0 {
		return 0
	}

	best := 0
	// Windows one word shorter and longer absorb OCR splitting or merging words.
	for size := max(1, n-1); size <= n+1; size++ {
		for i := 0; i+size <= len(words); i++ {
			if s := ratio(strings.Join(words[i:i+size], " "), label); s > best {
				best = s
			}
		}
		if size >= len(words) {
			break
		}
	}
	return best
}

func ratio(a, b string) int {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	d := fuzzy.LevenshteinDistance(a, b)
	return 100 * (longest - d) / longest
}
