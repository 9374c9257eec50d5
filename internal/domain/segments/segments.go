// Package segments canonicalizes raw voice-activity intervals into the
// disjoint, padded speech segments the rest of the pipeline cuts against.
package segments

import (
	"errors"

	"github.com/retakecut/retakecut/internal/types"
)

// ErrNoSpeech is returned when the detector finds no speech at all. Callers
// must treat this as a job-level failure rather than an empty edit.
var ErrNoSpeech = errors.New("no speech detected in video")

// Options tune segment canonicalization.
type Options struct {
	// MergeGap is the maximum silence between two segments that still gets
	// merged away, in seconds.
	MergeGap float64
	// Padding is added on both sides of every segment, in seconds.
	Padding float64
	// KeepStart forces the first segment to begin at 0 so an intentional cold
	// open survives editing.
	KeepStart bool
}

// Detect turns raw VAD intervals into canonical speech segments bounded by
// [0, duration]. The output is disjoint and time-ordered.
func Detect(raw []types.SpeechSegment, duration float64, opts Options) ([]types.SpeechSegment, error) {
	if len(raw) == 0 {
		return nil, ErrNoSpeech
	}

	segs := MergeClose(raw, opts.MergeGap)
	segs = Pad(segs, opts.Padding, duration)

	if opts.KeepStart && len(segs) > 0 && segs[0].Start > 0 {
		segs[0].Start = 0
	}
	return segs, nil
}

// MergeClose folds time-ordered segments whose gap is at most maxGap into one.
func MergeClose(segs []types.SpeechSegment, maxGap float64) []types.SpeechSegment {
	if len(segs) == 0 {
		return nil
	}

	merged := make([]types.SpeechSegment, 0, len(segs))
	merged = append(merged, segs[0])
	for _, s := range segs[1:] {
		last := &merged[len(merged)-1]
		if s.Start-last.End <= maxGap {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Pad expands every segment by padding seconds on each side, clamped to
// [0, duration], then re-merges any overlaps the expansion introduced.
func Pad(segs []types.SpeechSegment, padding, duration float64) []types.SpeechSegment {
	if len(segs) == 0 {
		return nil
	}

	padded := make([]types.SpeechSegment, 0, len(segs))
	for _, s := range segs {
		start := s.Start - padding
		if start < 0 {
			start = 0
		}
		end := s.End + padding
		if end > duration {
			end = duration
		}
		padded = append(padded, types.SpeechSegment{Start: start, End: end})
	}

	merged := padded[:1]
	for _, s := range padded[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// TotalSpeech returns the summed duration of all segments.
func TotalSpeech(segs []types.SpeechSegment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}
