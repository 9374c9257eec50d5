package segments

import (
	"errors"
	"math"
	"testing"

	"github.com/retakecut/retakecut/internal/types"
)

const eps = 1e-9

func approxEq(a, b float64) bool { return math.Abs(a-b) < eps }

func TestMergeClose(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		in     []types.SpeechSegment
		maxGap float64
		want   []types.SpeechSegment
	}{
		{
			name:   "gap above threshold stays split",
			in:     []types.SpeechSegment{{Start: 10, End: 12.8}, {Start: 14.0, End: 16.0}},
			maxGap: 0.3,
			want:   []types.SpeechSegment{{Start: 10, End: 12.8}, {Start: 14.0, End: 16.0}},
		},
		{
			name:   "gap within threshold merges",
			in:     []types.SpeechSegment{{Start: 0, End: 1.0}, {Start: 1.2, End: 2.0}},
			maxGap: 0.3,
			want:   []types.SpeechSegment{{Start: 0, End: 2.0}},
		},
		{
			name:   "chain of close segments collapses",
			in:     []types.SpeechSegment{{Start: 0, End: 1}, {Start: 1.1, End: 2}, {Start: 2.2, End: 3}},
			maxGap: 0.3,
			want:   []types.SpeechSegment{{Start: 0, End: 3}},
		},
		{
			name:   "empty input",
			in:     nil,
			maxGap: 0.3,
			want:   nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MergeClose(tc.in, tc.maxGap)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d segments, want %d: %+v", len(got), len(tc.want), got)
			}
			for i := range got {
				if !approxEq(got[i].Start, tc.want[i].Start) || !approxEq(got[i].End, tc.want[i].End) {
					t.Fatalf("segment %d: got %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestPad(t *testing.T) {
	t.Parallel()

	got := Pad([]types.SpeechSegment{{Start: 10, End: 12.8}, {Start: 14.0, End: 16.0}}, 0.1, 100)
	want := []types.SpeechSegment{{Start: 9.9, End: 12.9}, {Start: 13.9, End: 16.1}}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(got), got)
	}
	for i := range got {
		if !approxEq(got[i].Start, want[i].Start) || !approxEq(got[i].End, want[i].End) {
			t.Fatalf("segment %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPad_ClampsToBounds(t *testing.T) {
	t.Parallel()

	got := Pad([]types.SpeechSegment{{Start: 0.05, End: 9.95}}, 0.1, 10)
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
	if got[0].Start != 0 || got[0].End != 10 {
		t.Fatalf("expected clamp to [0,10], got %+v", got[0])
	}
}

func TestPad_MergesIntroducedOverlaps(t *testing.T) {
	t.Parallel()

	got := Pad([]types.SpeechSegment{{Start: 0, End: 1.0}, {Start: 1.1, End: 2.0}}, 0.1, 10)
	if len(got) != 1 {
		t.Fatalf("padding should have merged overlapping segments, got %+v", got)
	}
	if !approxEq(got[0].End, 2.1) {
		t.Fatalf("merged end: got %v, want 2.1", got[0].End)
	}
}

func TestDetect_NoSpeech(t *testing.T) {
	t.Parallel()

	_, err := Detect(nil, 60, Options{MergeGap: 0.3, Padding: 0.1})
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestDetect_KeepStart(t *testing.T) {
	t.Parallel()

	segs, err := Detect([]types.SpeechSegment{{Start: 3, End: 5}}, 60, Options{
		MergeGap:  0.3,
		Padding:   0.1,
		KeepStart: true,
	})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if segs[0].Start != 0 {
		t.Fatalf("keep start should anchor first segment at 0, got %v", segs[0].Start)
	}
}

func TestDetect_OutputDisjointSorted(t *testing.T) {
	t.Parallel()

	raw := []types.SpeechSegment{
		{Start: 1, End: 2},
		{Start: 2.1, End: 3},
		{Start: 10, End: 12},
		{Start: 12.05, End: 14},
	}
	segs, err := Detect(raw, 20, Options{MergeGap: 0.3, Padding: 0.1})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start <= segs[i-1].End {
			t.Fatalf("segments overlap or touch: %+v", segs)
		}
	}
	for _, s := range segs {
		if s.Start < 0 || s.End > 20 || s.End <= s.Start {
			t.Fatalf("segment out of bounds: %+v", s)
		}
	}
}
