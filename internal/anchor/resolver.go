// Package anchor re-locates expected keyword phrases inside OCR-degraded
// text. OCR systematically corrupts anchor phrases (homoglyphs, dropped
// diacritics), so exact search fails exactly where anchors matter most; the
// resolver slides a word window over the recognized text and keeps the best
// fuzzy match.
package anchor

import (
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultThreshold separates a confident match from noise, on the 0-100
// similarity scale.
const DefaultThreshold = 70

// Match is the best candidate window for an anchor phrase.
type Match struct {
	Phrase string  // the matched word window, verbatim from the text
	Score  float64 // normalized similarity, 0-100
}

// Resolve finds the contiguous word window of the same word count as phrase
// that scores highest against it. ok is false when the text has fewer words
// than the phrase, in which case there are no candidate windows at all.
func Resolve(phrase, text string) (Match, bool) {
	words := strings.Fields(text)
	n := len(strings.Fields(phrase))
	if n == 0 || len(words) < n {
		return Match{}, false
	}

	best := Match{Score: -1}
	for i := 0; i+n <= len(words); i++ {
		window := strings.Join(words[i:i+n], " ")
		score := Similarity(phrase, window)
		if score > best.Score {
			best = Match{Phrase: window, Score: score}
		}
	}
	return best, true
}

// ResolveAbove is Resolve with an acceptance threshold: it reports the best
// window only when its score clears threshold.
func ResolveAbove(phrase, text string, threshold float64) (Match, bool) {
	m, ok := Resolve(phrase, text)
	if !ok || m.Score < threshold {
		return m, false
	}
	return m, true
}

// Similarity scores two strings on a 0-100 scale using normalized edit
// distance. 100 means equal.
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil) * 100
}
