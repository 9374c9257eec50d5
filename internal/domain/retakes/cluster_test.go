package retakes

import (
	"testing"

	"github.com/retakecut/retakecut/internal/types"
)

func TestCluster_GapWithinThreshold(t *testing.T) {
	t.Parallel()

	// Two markers 6.4s apart: one cluster.
	matches := []types.RetakeMatch{
		{Phrase: "cut cut", Start: 45.0, End: 45.6},
		{Phrase: "cut cut", Start: 52.0, End: 52.4},
	}
	clusters := Cluster(matches, 20)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	if len(clusters[0].Matches) != 2 {
		t.Fatalf("got %d matches in cluster, want 2", len(clusters[0].Matches))
	}
	if clusters[0].Start() != 45.0 || clusters[0].End() != 52.4 {
		t.Fatalf("cluster span: got [%v,%v]", clusters[0].Start(), clusters[0].End())
	}
}

func TestCluster_GapBeyondThresholdSplits(t *testing.T) {
	t.Parallel()

	matches := []types.RetakeMatch{
		{Phrase: "cut cut", Start: 10.0, End: 10.6},
		{Phrase: "cut cut", Start: 40.0, End: 40.6},
	}
	clusters := Cluster(matches, 20)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
}

func TestCluster_PartitionsAllMatches(t *testing.T) {
	t.Parallel()

	matches := []types.RetakeMatch{
		{Start: 52.0, End: 52.4},
		{Start: 10.0, End: 10.6},
		{Start: 45.0, End: 45.6},
		{Start: 100.0, End: 100.5},
	}
	clusters := Cluster(matches, 20)

	total := 0
	var prevEnd float64 = -1
	for _, c := range clusters {
		total += len(c.Matches)
		if c.Start() <= prevEnd {
			t.Fatalf("clusters overlap in marker span: %+v", clusters)
		}
		prevEnd = c.End()
	}
	if total != len(matches) {
		t.Fatalf("clusters cover %d matches, want %d", total, len(matches))
	}
}

func TestCluster_Empty(t *testing.T) {
	t.Parallel()

	if got := Cluster(nil, 20); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}

func wordsSpanning(start, end, step float64) []types.TranscriptWord {
	var out []types.TranscriptWord
	for ts := start; ts+step <= end; ts += step {
		out = append(out, types.TranscriptWord{Word: "w", Start: ts, End: ts + step*0.75})
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cluster types.RetakeCluster
		words   []types.TranscriptWord
		prevEnd float64
		want    types.Pattern
	}{
		{
			name:    "quick fix under five seconds",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{{Start: 13.0, End: 13.6}}},
			words:   wordsSpanning(10.0, 13.0, 0.4),
			want:    types.PatternQuickFix,
		},
		{
			name:    "full redo at ten seconds or more",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{{Start: 50.0, End: 50.6}}},
			words:   wordsSpanning(30.0, 50.0, 0.4),
			want:    types.PatternFullRedo,
		},
		{
			name:    "medium between five and ten",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{{Start: 17.0, End: 17.6}}},
			words:   wordsSpanning(10.0, 17.0, 0.4),
			want:    types.PatternMediumSegment,
		},
		{
			name: "multiple markers override duration",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{
				{Start: 45.0, End: 45.6},
				{Start: 52.0, End: 52.4},
			}},
			words: wordsSpanning(40.0, 45.0, 0.4),
			want:  types.PatternMultipleAttempts,
		},
		{
			name:    "no prior context",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{{Start: 5.0, End: 5.6}}},
			words:   nil,
			want:    types.PatternUnknown,
		},
		{
			name:    "words before prevEnd do not count",
			cluster: types.RetakeCluster{Matches: []types.RetakeMatch{{Start: 50.0, End: 50.6}}},
			words:   wordsSpanning(10.0, 20.0, 0.4),
			prevEnd: 30.0,
			want:    types.PatternUnknown,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.cluster, tc.words, tc.prevEnd); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMinLookback(t *testing.T) {
	t.Parallel()

	want := map[types.Pattern]float64{
		types.PatternQuickFix:         0.5,
		types.PatternMediumSegment:    1.5,
		types.PatternFullRedo:         5.0,
		types.PatternMultipleAttempts: 2.0,
		types.PatternUnknown:          0.5,
	}
	for p, v := range want {
		if got := MinLookback(p); got != v {
			t.Fatalf("lookback for %q: got %v, want %v", p, got, v)
		}
	}
}
