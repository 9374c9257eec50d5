// Package retakes groups retake markers into clusters, labels each cluster's
// mistake pattern, and provides the deterministic fallback cut resolver.
package retakes

import (
	"sort"

	"github.com/retakecut/retakecut/internal/types"
)

// DefaultClusterMaxGap is the largest silence between two markers that still
// counts as one failed-attempt sequence, in seconds.
const DefaultClusterMaxGap = 20.0

// Cluster partitions matches into time-ordered clusters. Two consecutive
// matches land in the same cluster while the gap between one match's end and
// the next match's start stays within maxGap.
func Cluster(matches []types.RetakeMatch, maxGap float64) []types.RetakeCluster {
	if len(matches) == 0 {
		return nil
	}
	if maxGap <= 0 {
		maxGap = DefaultClusterMaxGap
	}

	sorted := make([]types.RetakeMatch, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	clusters := []types.RetakeCluster{{Matches: []types.RetakeMatch{sorted[0]}}}
	for _, m := range sorted[1:] {
		cur := &clusters[len(clusters)-1]
		if m.Start-cur.End() <= maxGap {
			cur.Matches = append(cur.Matches, m)
			continue
		}
		clusters = append(clusters, types.RetakeCluster{Matches: []types.RetakeMatch{m}})
	}
	return clusters
}

// Classify labels a cluster's mistake pattern from how much content precedes
// its first marker. prevEnd is the end of the previous cluster's span, or 0
// for the first cluster; only words after prevEnd count as prior context.
func Classify(cluster types.RetakeCluster, words []types.TranscriptWord, prevEnd float64) types.Pattern {
	first := cluster.Matches[0]

	var contextStart float64 = -1
	for _, w := range words {
		if w.Start >= prevEnd && w.End < first.Start {
			contextStart = w.Start
			break
		}
	}
	if contextStart < 0 {
		return types.PatternUnknown
	}
	if len(cluster.Matches) >= 2 {
		return types.PatternMultipleAttempts
	}

	durationBefore := first.Start - contextStart
	switch {
	case durationBefore < 5.0:
		return types.PatternQuickFix
	case durationBefore >= 10.0:
		return types.PatternFullRedo
	default:
		return types.PatternMediumSegment
	}
}

// ClassifyAll runs Classify over an ordered cluster list, threading the
// previous cluster's end through as context.
func ClassifyAll(clusters []types.RetakeCluster, words []types.TranscriptWord) []types.RetakeCluster {
	var prevEnd float64
	for i := range clusters {
		clusters[i].Pattern = Classify(clusters[i], words, prevEnd)
		prevEnd = clusters[i].End()
	}
	return clusters
}

// PatternsByMatch maps each index of matches to the pattern of the cluster
// that contains it. Membership is by marker span, so the caller's match order
// does not have to mirror cluster order.
func PatternsByMatch(matches []types.RetakeMatch, clusters []types.RetakeCluster) map[int]types.Pattern {
	out := make(map[int]types.Pattern, len(matches))
	for i, m := range matches {
		out[i] = types.PatternUnknown
		for _, c := range clusters {
			for _, cm := range c.Matches {
				if cm.Start == m.Start && cm.End == m.End {
					out[i] = c.Pattern
				}
			}
		}
	}
	return out
}

// MinLookback is the minimum seconds of mistake content a cut must reach back
// before a marker of the given pattern. It is a floor for the coverage check,
// never a cut boundary by itself.
func MinLookback(p types.Pattern) float64 {
	switch p {
	case types.PatternQuickFix:
		return 0.5
	case types.PatternMediumSegment:
		return 1.5
	case types.PatternFullRedo:
		return 5.0
	case types.PatternMultipleAttempts:
		return 2.0
	default:
		return 0.5
	}
}
