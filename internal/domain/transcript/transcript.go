// Package transcript holds pure functions over word-level transcripts:
// phrase search, sentence boundary detection, and cut projection.
package transcript

import (
	"strings"
	"unicode"

	"github.com/retakecut/retakecut/internal/types"
)

// FindPhrases locates every occurrence of the given marker phrases. Matching
// is case-insensitive and ignores punctuation; the window size equals the
// phrase's word count. All matches are reported, including repeats and
// overlapping windows for different phrases; deduplication is the caller's
// concern.
func FindPhrases(words []types.TranscriptWord, phrases []string) []types.RetakeMatch {
	var matches []types.RetakeMatch

	for _, phrase := range phrases {
		target := strings.Fields(strings.ToLower(phrase))
		if len(target) == 0 {
			continue
		}

		for i := 0; i+len(target) <= len(words); i++ {
			ok := true
			for j, want := range target {
				if normalizeWord(words[i+j].Word) != normalizeWord(want) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			matches = append(matches, types.RetakeMatch{
				Phrase:    phrase,
				Start:     words[i].Start,
				End:       words[i+len(target)-1].End,
				WordIndex: i,
			})
		}
	}
	return matches
}

// normalizeWord lowercases and strips everything that is not a letter or digit.
func normalizeWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(w)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SentenceBoundaries returns indices of words that end a sentence: terminal
// punctuation on the word, or a pause of at least minPause before the next
// word. The last word always counts as a boundary.
func SentenceBoundaries(words []types.TranscriptWord, minPause float64) []int {
	var boundaries []int
	for i := 0; i+1 < len(words); i++ {
		if hasTerminalPunctuation(words[i].Word) || words[i+1].Start-words[i].End >= minPause {
			boundaries = append(boundaries, i)
		}
	}
	if len(words) > 0 {
		boundaries = append(boundaries, len(words)-1)
	}
	return boundaries
}

func hasTerminalPunctuation(w string) bool {
	w = strings.TrimSpace(w)
	w = strings.TrimRight(w, `"'`+"`"+")]}")
	if w == "" {
		return false
	}
	switch w[len(w)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// RemoveWordsIn drops every word whose interval intersects any of the cuts,
// keeping the transcript consistent with the edited video.
func RemoveWordsIn(words []types.TranscriptWord, cuts []types.CutInstruction) []types.TranscriptWord {
	if len(cuts) == 0 {
		return words
	}

	kept := make([]types.TranscriptWord, 0, len(words))
	for _, w := range words {
		removed := false
		for _, c := range cuts {
			if w.End >= c.Start && w.Start <= c.End {
				removed = true
				break
			}
		}
		if !removed {
			kept = append(kept, w)
		}
	}
	return kept
}

// Plaintext joins the words into a single space-separated string.
func Plaintext(words []types.TranscriptWord) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Word); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
