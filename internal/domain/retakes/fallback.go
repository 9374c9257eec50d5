package retakes

import (
	"fmt"

	"github.com/retakecut/retakecut/internal/domain/transcript"
	"github.com/retakecut/retakecut/internal/types"
)

// Fallback boundary search window: a mistake start must sit strictly between
// these distances before the marker to be taken from a sentence or VAD
// boundary.
const (
	fallbackMinBack = 2.0
	fallbackMaxBack = 30.0

	fallbackMistakeConfidence = 0.5
	fallbackPhraseConfidence  = 0.9
)

// FallbackCuts is the deterministic, network-free stand-in for the decision
// service. Given identical input it always produces identical cuts, and it
// never fails: it is the correctness backstop for every retake marker.
//
// Per marker it emits exactly two cuts: the mistake segment before the marker
// and the marker phrase itself.
func FallbackCuts(words []types.TranscriptWord, matches []types.RetakeMatch, vad []types.SpeechSegment) []types.CutInstruction {
	if len(matches) == 0 {
		return nil
	}

	boundaries := transcript.SentenceBoundaries(words, 0.5)

	cuts := make([]types.CutInstruction, 0, 2*len(matches))
	for _, m := range matches {
		mistakeStart := fallbackMistakeStart(words, boundaries, vad, m.Start)

		cuts = append(cuts, types.CutInstruction{
			Start:      mistakeStart,
			End:        m.Start,
			Reason:     fmt.Sprintf("mistake before %q (fallback heuristic)", m.Phrase),
			Confidence: fallbackMistakeConfidence,
			Pattern:    types.PatternUnknown,
			Method:     types.MethodFallbackHeuristic,
		})
		cuts = append(cuts, types.CutInstruction{
			Start:      m.Start,
			End:        m.End,
			Reason:     fmt.Sprintf("retake phrase %q", m.Phrase),
			Confidence: fallbackPhraseConfidence,
			Pattern:    types.PatternUnknown,
			Method:     types.MethodFallbackHeuristic,
		})
	}
	return cuts
}

// fallbackMistakeStart picks where the flubbed take begins, trying in order:
// nearest sentence boundary, nearest VAD silence-gap boundary, then a
// speech-density lookback.
func fallbackMistakeStart(words []types.TranscriptWord, boundaries []int, vad []types.SpeechSegment, markerStart float64) float64 {
	// Latest sentence boundary strictly inside the search window.
	for i := len(boundaries) - 1; i >= 0; i-- {
		idx := boundaries[i]
		if idx >= len(words) {
			continue
		}
		end := words[idx].End
		back := markerStart - end
		if back >= fallbackMinBack && back <= fallbackMaxBack {
			return end
		}
	}

	// Silence-gap boundary: the marker sits in the gap after a speech segment.
	for i := 0; i+1 < len(vad); i++ {
		gapStart := vad[i].End
		gapEnd := vad[i+1].Start
		if gapStart < markerStart && markerStart < gapEnd {
			back := markerStart - gapStart
			if back >= fallbackMinBack && back <= fallbackMaxBack {
				return gapStart
			}
		}
	}

	// Speech-density lookback over the 10 words preceding the marker.
	var before []types.TranscriptWord
	for _, w := range words {
		if w.End <= markerStart {
			before = append(before, w)
		}
	}
	if len(before) < 10 {
		return clampZero(markerStart - 10.0)
	}

	recent := before[len(before)-10:]
	span := markerStart - recent[0].Start
	rate := 2.0
	if span > 0 {
		rate = 10.0 / span
	}

	lookback := 15.0
	switch {
	case rate >= 3.0:
		lookback = 8.0
	case rate >= 2.0:
		lookback = 12.0
	}
	return clampZero(markerStart - lookback)
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
