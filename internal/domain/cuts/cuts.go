// Package cuts is the cut algebra engine: merging cut instructions,
// guaranteeing every retake marker is covered, and converting cuts into the
// ordered keep segments the transcoder concatenates.
package cuts

import (
	"sort"
	"strings"

	"github.com/retakecut/retakecut/internal/domain/retakes"
	"github.com/retakecut/retakecut/internal/types"
)

// mergeGap: cuts closer than this are folded into one. Keeps the transcoder
// from producing sub-second slivers between adjacent cuts.
const mergeGap = 0.5

// MergeOverlapping folds adjacent and overlapping cuts into one, taking the
// furthest end, the minimum confidence, and the union of distinct reasons.
// The operation is idempotent.
func MergeOverlapping(in []types.CutInstruction) []types.CutInstruction {
	if len(in) == 0 {
		return nil
	}

	sorted := make([]types.CutInstruction, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []types.CutInstruction{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if cur.Start > last.End+mergeGap {
			merged = append(merged, cur)
			continue
		}
		if cur.End > last.End {
			last.End = cur.End
		}
		if cur.Confidence < last.Confidence {
			last.Confidence = cur.Confidence
		}
		if cur.Reason != "" && !strings.Contains(last.Reason, cur.Reason) {
			last.Reason = last.Reason + " + " + cur.Reason
		}
	}
	return merged
}

// EnsureCoverage verifies that every retake marker got a real cut: the marker
// phrase span itself must be removed, and the cut must reach back at least
// the pattern's minimum lookback before the marker. Markers missing either
// are patched with the deterministic fallback and the result is re-merged.
// This is what keeps a partially successful decision service from silently
// skipping a retake.
func EnsureCoverage(
	merged []types.CutInstruction,
	matches []types.RetakeMatch,
	patterns map[int]types.Pattern,
	words []types.TranscriptWord,
	vad []types.SpeechSegment,
) []types.CutInstruction {
	var patched []types.CutInstruction

	for i, m := range matches {
		pattern := types.PatternUnknown
		if p, ok := patterns[i]; ok {
			pattern = p
		}
		if covers(merged, m, retakes.MinLookback(pattern)) {
			continue
		}
		patched = append(patched, retakes.FallbackCuts(words, []types.RetakeMatch{m}, vad)...)
	}

	if len(patched) == 0 {
		return merged
	}
	return MergeOverlapping(append(merged, patched...))
}

// covers reports whether some cut removes the whole marker span and reaches
// back at least minLookback before its start.
func covers(cuts []types.CutInstruction, m types.RetakeMatch, minLookback float64) bool {
	const tol = 1e-6

	want := m.Start - minLookback
	if want < 0 {
		want = 0
	}
	for _, c := range cuts {
		if c.Start <= m.Start+tol && c.End >= m.End-tol && c.Start <= want+tol {
			return true
		}
	}
	return false
}

// ToKeepSegments converts a sorted, merged cut list into the complement keep
// segments over [0, duration]. By construction the keep segments and cuts
// partition the timeline with no overlaps.
func ToKeepSegments(merged []types.CutInstruction, duration float64) []types.KeepSegment {
	var keeps []types.KeepSegment
	cursor := 0.0

	for _, c := range merged {
		start := c.Start
		if start > duration {
			start = duration
		}
		if cursor < start {
			keeps = append(keeps, types.KeepSegment{Start: cursor, End: start})
		}
		if c.End > cursor {
			cursor = c.End
		}
	}
	if cursor < duration {
		keeps = append(keeps, types.KeepSegment{Start: cursor, End: duration})
	}
	return keeps
}

// TotalCut returns the summed duration of the cut list.
func TotalCut(cuts []types.CutInstruction) float64 {
	var total float64
	for _, c := range cuts {
		total += c.Duration()
	}
	return total
}
